package summary

import "context"

// Static implements Summarizer with canned responses, for testing and
// deployments without a model backend.
type Static struct {
	// Summary is returned by Summarize for every input.
	Summary string
	// Replies is returned by SmartReplies for every input.
	Replies []string
	// Err, when set, is returned by both methods.
	Err error
}

func (s *Static) Summarize(_ context.Context, _ string) (string, error) {
	if s.Err != nil {
		return "", s.Err
	}
	return s.Summary, nil
}

func (s *Static) SmartReplies(_ context.Context, _ string) ([]string, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Replies, nil
}
