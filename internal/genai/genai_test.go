package genai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/brianmaseno/medtech/internal/models"
)

// mockCompletionService returns a canned completion or error.
type mockCompletionService struct {
	content string
	err     error
	calls   int
}

func (m *mockCompletionService) New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &openai.ChatCompletion{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: m.content}},
		},
	}, nil
}

func TestParseReplyStripsMarkdownFences(t *testing.T) {
	raw := "```json\n{\"response\": \"Drink water and rest.\", \"urgency\": \"low\", \"recommendations\": [\"Rest\"], \"should_see_doctor\": false}\n```"
	reply, ok := ParseReply(raw)
	if !ok {
		t.Fatal("ParseReply() ok = false, want true")
	}
	if reply.Text != "Drink water and rest." {
		t.Errorf("text = %q", reply.Text)
	}
	if reply.Urgency != models.UrgencyLow {
		t.Errorf("urgency = %q, want low", reply.Urgency)
	}
	if reply.ShouldSeeDoctor {
		t.Error("should_see_doctor = true, want false")
	}
}

func TestParseReplyDefaultsMissingFields(t *testing.T) {
	reply, ok := ParseReply(`{"response": "See a doctor soon."}`)
	if !ok {
		t.Fatal("ParseReply() ok = false, want true")
	}
	if reply.Urgency != models.UrgencyMedium {
		t.Errorf("urgency default = %q, want medium", reply.Urgency)
	}
	if len(reply.Recommendations) == 0 {
		t.Error("recommendations default not applied")
	}
}

func TestParseReplyRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "no json here", `{"urgency": "low"}`, "{broken"} {
		if _, ok := ParseReply(raw); ok {
			t.Errorf("ParseReply(%q) ok = true, want false", raw)
		}
	}
}

func TestParseReplyTruncatesLongText(t *testing.T) {
	long := strings.Repeat("a", 400)
	reply, ok := ParseReply(`{"response": "` + long + `"}`)
	if !ok {
		t.Fatal("ParseReply() ok = false, want true")
	}
	if len(reply.Text) > MaxReplyLength {
		t.Errorf("text length = %d, want <= %d", len(reply.Text), MaxReplyLength)
	}
}

func TestFallbackReplyKeywords(t *testing.T) {
	cases := []struct {
		question string
		urgency  models.Urgency
		contains string
	}{
		{"I have a fever since yesterday", models.UrgencyMedium, "Fever"},
		{"my head hurts", models.UrgencyMedium, "Headache"},
		{"persistent cough", models.UrgencyMedium, "Cough"},
		{"chest pain when breathing", models.UrgencyHigh, "serious"},
		{"what should I eat", models.UrgencyMedium, "health concern"},
	}
	for _, c := range cases {
		reply := FallbackReply(c.question)
		if reply.Urgency != c.urgency {
			t.Errorf("FallbackReply(%q) urgency = %q, want %q", c.question, reply.Urgency, c.urgency)
		}
		if !strings.Contains(strings.ToLower(reply.Text), strings.ToLower(c.contains)) {
			t.Errorf("FallbackReply(%q) text = %q, want mention of %q", c.question, reply.Text, c.contains)
		}
		if !reply.ShouldSeeDoctor {
			t.Errorf("FallbackReply(%q) should_see_doctor = false", c.question)
		}
	}
}

func TestRespondParsesStructuredOutput(t *testing.T) {
	mock := &mockCompletionService{content: `{"response": "Rest and hydrate.", "urgency": "low", "recommendations": ["Rest"], "should_see_doctor": false}`}
	c := &Client{chat: mock, model: openai.ChatModelGPT4oMini}

	reply, err := c.Respond(context.Background(), ChatRequest{Question: "I feel tired"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if reply.Text != "Rest and hydrate." {
		t.Errorf("text = %q", reply.Text)
	}
	if mock.calls != 1 {
		t.Errorf("completion calls = %d, want 1", mock.calls)
	}
}

func TestRespondFallsBackOnUnparseableOutput(t *testing.T) {
	mock := &mockCompletionService{content: "Sorry, I cannot answer in JSON."}
	c := &Client{chat: mock, model: openai.ChatModelGPT4oMini}

	reply, err := c.Respond(context.Background(), ChatRequest{Question: "I have a fever"})
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if !strings.Contains(reply.Text, "Fever") {
		t.Errorf("fallback text = %q, want fever guidance", reply.Text)
	}
}

func TestRespondReturnsTransportError(t *testing.T) {
	mock := &mockCompletionService{err: errors.New("connection refused")}
	c := &Client{chat: mock, model: openai.ChatModelGPT4oMini}

	if _, err := c.Respond(context.Background(), ChatRequest{Question: "hi"}); err == nil {
		t.Error("Respond() error = nil, want transport error")
	}
}

func TestHealthTipServesFallbackOnError(t *testing.T) {
	mock := &mockCompletionService{err: errors.New("timeout")}
	c := &Client{chat: mock, model: openai.ChatModelGPT4oMini}

	tip, err := c.HealthTip(context.Background())
	if err != nil {
		t.Fatalf("HealthTip() error = %v", err)
	}
	if tip != FallbackHealthTip {
		t.Errorf("tip = %q, want fallback", tip)
	}
}
