// Package summary provides mail content summarization and reply
// suggestion backends.
package summary

import "context"

// Fallback responses used when no backend is configured or a backend
// call fails.
const (
	FallbackSummary = "Failed to generate summary due to an internal API error."
	EmptySummary    = "AI summary failed to generate content"
)

// FallbackReplies is returned when reply generation fails.
var FallbackReplies = []string{"reply 1", "reply 2", "reply 3"}

// ReplyCount is the number of reply options a backend must produce.
const ReplyCount = 3

// Summarizer produces natural-language digests of mail content.
//
// Implementations must be safe for concurrent use. Errors are advisory:
// callers substitute fallback responses rather than failing the request.
type Summarizer interface {
	// Summarize returns a concise paragraph covering the mail's main
	// topic and action items.
	Summarize(ctx context.Context, content string) (string, error)

	// SmartReplies returns exactly ReplyCount short reply options for
	// the mail.
	SmartReplies(ctx context.Context, content string) ([]string, error)
}
