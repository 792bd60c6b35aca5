package github

import "fmt"

// Mergeability is the normalized answer to "can this pull request merge
// cleanly right now".
type Mergeability struct {
	// Mergeable is nil while GitHub is still computing the merge state.
	Mergeable      *bool  `json:"mergeable"`
	MergeableState string `json:"mergeable_state"`
	Message        string `json:"message"`
	PRNumber       int    `json:"pr_number"`
	HasConflict    *bool  `json:"has_conflict"`
	PRURL          string `json:"pr_url"`
	HeadRef        string `json:"head_ref"`
	BaseRef        string `json:"base_ref"`
}

// Evaluate interprets the mergeable and mergeable_state fields of pr.
func Evaluate(pr *PullRequest, prNumber int) Mergeability {
	m := Mergeability{
		MergeableState: pr.MergeableState,
		PRNumber:       prNumber,
		PRURL:          pr.HTMLURL,
		HeadRef:        pr.Head.Ref,
		BaseRef:        pr.Base.Ref,
	}
	if m.MergeableState == "" {
		m.MergeableState = "unknown"
	}

	switch {
	case pr.Mergeable == nil || m.MergeableState == "unknown":
		m.Message = fmt.Sprintf("GitHub is still computing mergeability for PR #%d. Try again in a few seconds.", prNumber)
	case !*pr.Mergeable || m.MergeableState == "dirty":
		m.Mergeable = boolPtr(*pr.Mergeable)
		m.HasConflict = boolPtr(true)
		m.Message = fmt.Sprintf("PR #%d has merge conflicts between `%s` and `%s`.", prNumber, m.HeadRef, m.BaseRef)
	default:
		m.Mergeable = boolPtr(true)
		m.HasConflict = boolPtr(false)
		m.Message = fmt.Sprintf("PR #%d is clean and mergeable between `%s` and `%s`.", prNumber, m.HeadRef, m.BaseRef)
	}
	return m
}

func boolPtr(b bool) *bool { return &b }
