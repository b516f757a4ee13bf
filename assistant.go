package webmail

import (
	"context"

	"github.com/emailapp/webmail/summary"
)

// Summarize returns a short digest of the given mail content.
//
// Failures never propagate: a missing or failing backend yields the fixed
// fallback summary. Mail reading must keep working when the model is down.
func (s *service) Summarize(ctx context.Context, content string) string {
	if s.summarizer == nil {
		return summary.FallbackSummary
	}

	text, err := s.summarizer.Summarize(ctx, content)
	if err != nil {
		s.logger.Warn("summarize failed, using fallback", "error", err)
		return summary.FallbackSummary
	}
	if text == "" {
		return summary.EmptySummary
	}
	return text
}

// SmartReplies returns three suggested reply options for the content.
// Falls back to generic placeholders when the backend is missing, failing,
// or returns the wrong number of options.
func (s *service) SmartReplies(ctx context.Context, content string) []string {
	if s.summarizer == nil {
		return summary.FallbackReplies
	}

	replies, err := s.summarizer.SmartReplies(ctx, content)
	if err != nil {
		s.logger.Warn("smart replies failed, using fallback", "error", err)
		return summary.FallbackReplies
	}
	if len(replies) != summary.ReplyCount {
		// Pad or trim to the contract size.
		if len(replies) > summary.ReplyCount {
			return replies[:summary.ReplyCount]
		}
		out := make([]string, 0, summary.ReplyCount)
		out = append(out, replies...)
		out = append(out, summary.FallbackReplies[len(replies):]...)
		return out
	}
	return replies
}
