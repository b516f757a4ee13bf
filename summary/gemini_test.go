package summary

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// geminiStub serves canned generateContent responses and records the last
// request it saw.
type geminiStub struct {
	status int
	text   string

	lastPath   string
	lastAPIKey string
	lastPrompt string
}

func (g *geminiStub) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g.lastPath = r.URL.Path
		g.lastAPIKey = r.Header.Get("x-goog-api-key")

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) > 0 && len(req.Contents[0].Parts) > 0 {
			g.lastPrompt = req.Contents[0].Parts[0].Text
		}

		if g.status != 0 && g.status != http.StatusOK {
			w.WriteHeader(g.status)
			return
		}

		resp := generateResponse{}
		resp.Candidates = []struct {
			Content content `json:"content"`
		}{{Content: content{Parts: []part{{Text: g.text}}}}}
		json.NewEncoder(w).Encode(resp)
	}
}

func newStubGemini(t *testing.T, stub *geminiStub) *Gemini {
	t.Helper()
	srv := httptest.NewServer(stub.handler(t))
	t.Cleanup(srv.Close)
	return NewGemini("test-key", WithBaseURL(srv.URL))
}

func TestGeminiSummarize(t *testing.T) {
	t.Run("returns candidate text", func(t *testing.T) {
		stub := &geminiStub{text: "  A short summary.  "}
		g := newStubGemini(t, stub)

		got, err := g.Summarize(context.Background(), "long mail body")
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if got != "A short summary." {
			t.Errorf("unexpected summary: %q", got)
		}
		if stub.lastAPIKey != "test-key" {
			t.Errorf("api key not sent: %q", stub.lastAPIKey)
		}
		if !strings.HasSuffix(stub.lastPath, "/models/"+DefaultModel+":generateContent") {
			t.Errorf("unexpected path: %q", stub.lastPath)
		}
		if !strings.Contains(stub.lastPrompt, "long mail body") {
			t.Errorf("mail content missing from prompt: %q", stub.lastPrompt)
		}
	})

	t.Run("empty candidates yield placeholder", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"candidates": []}`))
		}))
		defer srv.Close()

		g := NewGemini("test-key", WithBaseURL(srv.URL))
		got, err := g.Summarize(context.Background(), "body")
		if err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if got != EmptySummary {
			t.Errorf("expected %q, got %q", EmptySummary, got)
		}
	})

	t.Run("server error surfaces", func(t *testing.T) {
		g := newStubGemini(t, &geminiStub{status: http.StatusInternalServerError})
		if _, err := g.Summarize(context.Background(), "body"); err == nil {
			t.Fatal("expected error on 500")
		}
	})

	t.Run("model override", func(t *testing.T) {
		stub := &geminiStub{text: "ok"}
		srv := httptest.NewServer(stub.handler(t))
		defer srv.Close()

		g := NewGemini("test-key", WithBaseURL(srv.URL), WithModel("gemini-pro"))
		if _, err := g.Summarize(context.Background(), "body"); err != nil {
			t.Fatalf("Summarize: %v", err)
		}
		if !strings.HasSuffix(stub.lastPath, "/models/gemini-pro:generateContent") {
			t.Errorf("model override ignored: %q", stub.lastPath)
		}
	})
}

func TestGeminiSmartReplies(t *testing.T) {
	t.Run("parses JSON array", func(t *testing.T) {
		g := newStubGemini(t, &geminiStub{text: `["Sounds good!", "Will do.", "Can we reschedule?"]`})

		replies, err := g.SmartReplies(context.Background(), "body")
		if err != nil {
			t.Fatalf("SmartReplies: %v", err)
		}
		if len(replies) != 3 || replies[0] != "Sounds good!" {
			t.Errorf("unexpected replies: %v", replies)
		}
	})

	t.Run("strips code fences", func(t *testing.T) {
		g := newStubGemini(t, &geminiStub{text: "```json\n[\"Yes\", \"No\", \"Maybe\"]\n```"})

		replies, err := g.SmartReplies(context.Background(), "body")
		if err != nil {
			t.Fatalf("SmartReplies: %v", err)
		}
		if len(replies) != 3 || replies[2] != "Maybe" {
			t.Errorf("unexpected replies: %v", replies)
		}
	})

	t.Run("non-JSON answer fails", func(t *testing.T) {
		g := newStubGemini(t, &geminiStub{text: "I am not JSON"})
		if _, err := g.SmartReplies(context.Background(), "body"); err == nil {
			t.Fatal("expected decode error")
		}
	})
}

func TestStatic(t *testing.T) {
	s := &Static{Summary: "canned", Replies: []string{"a", "b", "c"}}

	got, err := s.Summarize(context.Background(), "anything")
	if err != nil || got != "canned" {
		t.Errorf("Summarize = %q, %v", got, err)
	}
	replies, err := s.SmartReplies(context.Background(), "anything")
	if err != nil || len(replies) != 3 {
		t.Errorf("SmartReplies = %v, %v", replies, err)
	}

	s.Err = errors.New("boom")
	if _, err := s.Summarize(context.Background(), "x"); err == nil {
		t.Error("expected error from Summarize")
	}
	if _, err := s.SmartReplies(context.Background(), "x"); err == nil {
		t.Error("expected error from SmartReplies")
	}
}
