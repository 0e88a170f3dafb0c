package review

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"overdub/internal/services/agents"
	"overdub/internal/subtitles"
)

// fakeChat routes completions to scripted replies keyed by a substring of the
// conversation's system prompt, so each agent identity follows its own script.
type fakeChat struct {
	mu      sync.Mutex
	scripts map[string][]string
	fail    map[string]error
	calls   map[string][][]agents.Message
}

func newFakeChat() *fakeChat {
	return &fakeChat{
		scripts: make(map[string][]string),
		fail:    make(map[string]error),
		calls:   make(map[string][][]agents.Message),
	}
}

func (f *fakeChat) script(key string, replies ...string) {
	f.scripts[key] = replies
}

func (f *fakeChat) Complete(_ context.Context, messages []agents.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	system := messages[0].Content
	for key, err := range f.fail {
		if strings.Contains(system, key) {
			return "", err
		}
	}
	for key, replies := range f.scripts {
		if !strings.Contains(system, key) {
			continue
		}
		copied := make([]agents.Message, len(messages))
		copy(copied, messages)
		f.calls[key] = append(f.calls[key], copied)
		if len(replies) == 0 {
			return "{}", nil
		}
		reply := replies[0]
		f.scripts[key] = replies[1:]
		return reply, nil
	}
	return "{}", nil
}

func (f *fakeChat) HealthCheck(context.Context) error { return nil }

type fakeJobContext struct {
	info   string
	source string
	target string
}

func (f fakeJobContext) JobInfo(context.Context) (string, error)         { return f.info, nil }
func (f fakeJobContext) SourceSubtitles(context.Context) (string, error) { return f.source, nil }
func (f fakeJobContext) TargetSubtitles(context.Context) (string, error) { return f.target, nil }
func (f fakeJobContext) SourceLocale() string                            { return "en-US" }
func (f fakeJobContext) TargetLocale() string                            { return "es-MX" }

func TestRunProducesWeightedReview(t *testing.T) {
	chat := newFakeChat()
	chat.script("translation quality reviewer",
		`{"tool":"GetSourceSubtitles"}`,
		`{"tool":"GetTargetSubtitles"}`,
		`{"score":90,"reasoning":"faithful translation","issues":[]}`,
	)
	chat.script("technical subtitle quality reviewer",
		`{"score":80,"reasoning":"clean timing","issues":[{"severity":"minor","description":"overlapping cues"}]}`,
	)
	chat.script("cultural adaptation reviewer",
		`{"score":70,"reasoning":"some references unadapted","issues":[]}`,
	)
	chat.script("synthesize subtitle quality reviews",
		`{"summary":"Good translation overall with minor timing issues."}`,
	)

	coordinator := NewCoordinator(agents.NewPool(chat), nil)
	review, err := coordinator.Run(context.Background(), fakeJobContext{
		info:   `{"job_id":1}`,
		source: "source subs",
		target: "target subs",
	})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if review.OverallScore != 82.0 {
		t.Fatalf("expected overall 82.0, got %v", review.OverallScore)
	}
	if review.Recommendation != RecommendApprove {
		t.Fatalf("expected approve, got %s", review.Recommendation)
	}
	if !review.IsValid {
		t.Fatal("expected review to be valid without critical issues")
	}
	if len(review.Issues) != 1 || review.Issues[0].Dimension != DimensionTechnical {
		t.Fatalf("unexpected issues: %#v", review.Issues)
	}
	if review.Summary != "Good translation overall with minor timing issues." {
		t.Fatalf("unexpected summary: %q", review.Summary)
	}
	if len(review.Degraded) != 0 {
		t.Fatalf("no specialist should be degraded: %#v", review.Degraded)
	}

	if len(review.Specialists) != 3 {
		t.Fatalf("expected 3 specialist results, got %d", len(review.Specialists))
	}
	seenThreads := make(map[string]bool)
	for _, result := range review.Specialists {
		if result.ThreadID == "" {
			t.Fatalf("specialist %s has no thread id", result.Dimension)
		}
		if seenThreads[result.ThreadID] {
			t.Fatalf("thread id %s reused across specialists", result.ThreadID)
		}
		seenThreads[result.ThreadID] = true
		if result.ReviewedAt.IsZero() {
			t.Fatalf("specialist %s has no reviewed-at timestamp", result.Dimension)
		}
	}
	if review.SummaryThreadID == "" || seenThreads[review.SummaryThreadID] {
		t.Fatalf("summarizer thread id %q must be set and distinct", review.SummaryThreadID)
	}

	// The translation specialist's tool requests must have been answered in
	// the same conversation.
	calls := chat.calls["translation quality reviewer"]
	final := calls[len(calls)-1]
	foundToolResult := false
	for _, msg := range final {
		if msg.Role == "user" && strings.Contains(msg.Content, `"result":"source subs"`) {
			foundToolResult = true
		}
	}
	if !foundToolResult {
		t.Fatalf("tool result not fed back into conversation: %#v", final)
	}
}

func TestRunSurvivesSpecialistFailure(t *testing.T) {
	chat := newFakeChat()
	chat.fail["technical subtitle quality reviewer"] = errors.New("backend exploded")
	chat.script("translation quality reviewer", `{"score":90,"reasoning":"good"}`)
	chat.script("cultural adaptation reviewer", `{"score":70,"reasoning":"ok"}`)
	chat.script("synthesize subtitle quality reviews", `{"summary":"Mixed results."}`)

	coordinator := NewCoordinator(agents.NewPool(chat), nil)
	review, err := coordinator.Run(context.Background(), fakeJobContext{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if review.TechnicalScore != fallbackScore {
		t.Fatalf("expected degraded technical score %d, got %v", fallbackScore, review.TechnicalScore)
	}
	if review.TranslationScore != 90 || review.CulturalScore != 70 {
		t.Fatalf("healthy specialists should keep their scores: %#v", review)
	}
	if len(review.Degraded) != 1 || review.Degraded[0] != DimensionTechnical {
		t.Fatalf("expected technical marked degraded: %#v", review.Degraded)
	}
	// 0.4*90 + 0.3*50 + 0.3*70 = 72
	if review.OverallScore != 72.0 {
		t.Fatalf("expected overall 72.0, got %v", review.OverallScore)
	}
	if review.Recommendation != RecommendNeedsReview {
		t.Fatalf("expected needs_review, got %s", review.Recommendation)
	}
}

func TestRunCriticalIssueBlocksApprove(t *testing.T) {
	chat := newFakeChat()
	chat.script("translation quality reviewer",
		`{"score":95,"reasoning":"fluent","issues":[{"severity":"critical","description":"entire scene untranslated"}]}`)
	chat.script("technical subtitle quality reviewer", `{"score":90,"reasoning":"fine"}`)
	chat.script("cultural adaptation reviewer", `{"score":85,"reasoning":"fine"}`)
	chat.script("synthesize subtitle quality reviews", `{"summary":"One blocking problem."}`)

	coordinator := NewCoordinator(agents.NewPool(chat), nil)
	review, err := coordinator.Run(context.Background(), fakeJobContext{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if review.OverallScore < 80 {
		t.Fatalf("expected high numeric score, got %v", review.OverallScore)
	}
	if review.Recommendation == RecommendApprove {
		t.Fatal("critical issue must block approval")
	}
	if review.IsValid {
		t.Fatal("critical issue must invalidate the review")
	}
}

func TestRunSummarizerFailureFallsBack(t *testing.T) {
	chat := newFakeChat()
	chat.fail["synthesize subtitle quality reviews"] = errors.New("summarizer down")
	chat.script("translation quality reviewer", `{"score":60,"reasoning":"ok"}`)
	chat.script("technical subtitle quality reviewer", `{"score":60,"reasoning":"ok"}`)
	chat.script("cultural adaptation reviewer", `{"score":60,"reasoning":"ok"}`)

	coordinator := NewCoordinator(agents.NewPool(chat), nil)
	review, err := coordinator.Run(context.Background(), fakeJobContext{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(review.Summary, "60.0/100") {
		t.Fatalf("expected fallback summary with score, got %q", review.Summary)
	}
}

func TestRunUnparseableAnswerFallsBackToRawReasoning(t *testing.T) {
	chat := newFakeChat()
	chat.script("translation quality reviewer", "I think the translation is decent but I cannot produce JSON.")
	chat.script("technical subtitle quality reviewer", `{"score":80,"reasoning":"ok"}`)
	chat.script("cultural adaptation reviewer", `{"score":80,"reasoning":"ok"}`)
	chat.script("synthesize subtitle quality reviews", `{"summary":"fine"}`)

	coordinator := NewCoordinator(agents.NewPool(chat), nil)
	review, err := coordinator.Run(context.Background(), fakeJobContext{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if review.TranslationScore != fallbackScore {
		t.Fatalf("expected fallback score, got %v", review.TranslationScore)
	}
	if len(review.Degraded) != 0 {
		t.Fatal("parse fallback is not a degraded failure")
	}
}

func TestToolTruncatesLongSubtitles(t *testing.T) {
	long := strings.Repeat("subtitle line content\n", 4000)
	result := runTool(context.Background(), fakeJobContext{source: long}, "GetSourceSubtitles")
	if !strings.Contains(result, "truncated at 50000 characters") {
		t.Fatal("expected truncation marker in tool result")
	}
	if len(result) > subtitles.MaxAgentChars*2 {
		t.Fatalf("tool result too large: %d bytes", len(result))
	}
}

func TestUnknownToolReportsError(t *testing.T) {
	result := runTool(context.Background(), fakeJobContext{}, "DeleteEverything")
	if !strings.Contains(result, "unknown tool") {
		t.Fatalf("expected unknown tool error, got %q", result)
	}
}
