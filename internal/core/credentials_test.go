package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolverRequiredPresent(t *testing.T) {
	r := NewResolver(StaticSource{
		EnvTemboAPIKey: "tk_live",
		EnvGitHubToken: "ghp_secret",
	})

	creds, err := r.Resolve(EnvTemboAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "tk_live", creds.APIKey)
	assert.Equal(t, DefaultTemboBaseURL, creds.BaseURL)
	assert.Empty(t, creds.GitHubToken, "tembo resolution must not pick up the github token")
}

func TestResolverGitHubOnly(t *testing.T) {
	r := NewResolver(StaticSource{
		EnvTemboAPIKey: "tk_live",
		EnvGitHubToken: "ghp_secret",
	})

	creds, err := r.Resolve(EnvGitHubToken)
	require.NoError(t, err)
	assert.Equal(t, "ghp_secret", creds.GitHubToken)
	assert.Empty(t, creds.APIKey)
}

func TestResolverMissing(t *testing.T) {
	tests := []struct {
		name string
		src  Source
		keys []string
		want []string
	}{
		{name: "absent", src: StaticSource{}, keys: []string{EnvTemboAPIKey}, want: []string{EnvTemboAPIKey}},
		{name: "blank", src: StaticSource{EnvGitHubToken: "  "}, keys: []string{EnvGitHubToken}, want: []string{EnvGitHubToken}},
		{name: "nil source", src: nil, keys: []string{EnvTemboAPIKey, EnvGitHubToken}, want: []string{EnvTemboAPIKey, EnvGitHubToken}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewResolver(tt.src).Resolve(tt.keys...)
			var missing *MissingCredentialError
			require.True(t, errors.As(err, &missing))
			assert.Equal(t, tt.want, missing.Missing)
			assert.Equal(t, KindMissingCredential, MapError(err).Kind)
		})
	}
}

func TestResolverBaseURLOverride(t *testing.T) {
	r := NewResolver(StaticSource{
		EnvTemboAPIKey:     "k",
		EnvTemboAPIBaseURL: "http://localhost:9999/",
	})

	creds, err := r.Resolve(EnvTemboAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9999", creds.BaseURL)
}

func TestResolverSeesUpdatedSource(t *testing.T) {
	src := StaticSource{}
	r := NewResolver(src)

	_, err := r.Resolve(EnvTemboAPIKey)
	require.Error(t, err)

	src[EnvTemboAPIKey] = "rotated"
	creds, err := r.Resolve(EnvTemboAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "rotated", creds.APIKey)
}

func TestResolverSecretsIncludesUnrequiredKeys(t *testing.T) {
	r := NewResolver(StaticSource{
		EnvTemboAPIKey:     "tk_live",
		EnvGitHubToken:     " ghp_secret ",
		EnvTemboAPIBaseURL: "https://tembo.example",
	})

	secrets := r.Secrets()
	assert.Contains(t, secrets, "tk_live")
	assert.Contains(t, secrets, "ghp_secret")
	assert.NotContains(t, secrets, "https://tembo.example")

	assert.Empty(t, NewResolver(StaticSource{EnvGitHubToken: "  "}).Secrets())
	assert.Empty(t, NewResolver(nil).Secrets())
}
