// Package genai provides AI-backed health answers using the OpenAI API.
//
// Model output is requested as a strict JSON object and parsed into
// models.AIReply. Malformed output degrades to keyword-based fallback advice
// so the conversation never stalls on a bad completion.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/brianmaseno/medtech/internal/models"
)

// MaxReplyLength caps AI answer text so replies fit USSD and SMS frames.
const MaxReplyLength = 160

// FallbackHealthTip is served when the model is unreachable.
const FallbackHealthTip = "Remember to drink plenty of clean water, eat balanced meals, and get regular exercise for good health!"

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey string
	Model  openai.ChatModel
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey overrides the OPENAI_API_KEY environment variable.
func WithAPIKey(key string) Option {
	return func(o *Opts) { o.APIKey = key }
}

// WithModel selects the chat model.
func WithModel(model openai.ChatModel) Option {
	return func(o *Opts) { o.Model = model }
}

// completionService defines the minimal interface for chat completions.
type completionService interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// ChatRequest carries one health question with the asking user's context.
type ChatRequest struct {
	Question string
	Profile  models.UserProfile
	History  []models.Exchange
}

// Client wraps the OpenAI chat completion service for health consultations.
type Client struct {
	chat  completionService
	model openai.ChatModel
}

// NewClient initializes a GenAI client. The API key comes from options or the
// OPENAI_API_KEY environment variable.
func NewClient(opts ...Option) (*Client, error) {
	cfg := Opts{Model: openai.ChatModelGPT4oMini}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("GenAI client initialized", "model", cfg.Model)
	return &Client{chat: &cli.Chat.Completions, model: cfg.Model}, nil
}

// Respond answers a health question with a structured assessment. Transport
// failures are returned to the caller; malformed model output degrades to a
// keyword fallback instead of an error.
func (c *Client) Respond(ctx context.Context, req ChatRequest) (models.AIReply, error) {
	slog.Debug("GenAI Respond invoked", "question_len", len(req.Question), "history", len(req.History))
	completion, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(buildUserPrompt(req)),
		},
	})
	if err != nil {
		slog.Error("GenAI Respond completion failed", "error", err)
		return models.AIReply{}, fmt.Errorf("chat completion failed: %w", err)
	}
	if len(completion.Choices) == 0 {
		slog.Error("GenAI Respond returned no choices")
		return models.AIReply{}, fmt.Errorf("no choices returned")
	}

	reply, ok := ParseReply(completion.Choices[0].Message.Content)
	if !ok {
		slog.Warn("GenAI Respond output unparseable, using keyword fallback")
		reply = FallbackReply(req.Question)
	}
	slog.Debug("GenAI Respond succeeded", "urgency", reply.Urgency, "see_doctor", reply.ShouldSeeDoctor)
	return reply, nil
}

// HealthTip generates a short wellness tip. A canned tip is served when the
// model is unreachable so the menu option always works.
func (c *Client) HealthTip(ctx context.Context) (string, error) {
	completion, err := c.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(tipPrompt),
		},
	})
	if err != nil || len(completion.Choices) == 0 {
		slog.Warn("GenAI HealthTip failed, serving fallback", "error", err)
		return FallbackHealthTip, nil
	}
	tip := strings.TrimSpace(completion.Choices[0].Message.Content)
	if tip == "" {
		return FallbackHealthTip, nil
	}
	if len(tip) > MaxReplyLength {
		tip = tip[:MaxReplyLength-3] + "..."
	}
	return tip, nil
}

const systemPrompt = `You are MedConnect AI, a knowledgeable and caring health assistant for users in Kenya reached over USSD and SMS. Use simple language, be warm and professional, always include a medical disclaimer, and recommend immediate care for serious symptoms. Provide practical, affordable advice for the African context.`

const tipPrompt = `Generate one practical, culturally appropriate health tip for users in Kenya. It must be easy to understand, actionable, and under 160 characters. Focus on preventive care, nutrition, hygiene, or general wellness. Reply with the tip text only.`

// buildUserPrompt renders the question with profile and conversation context
// and pins the required JSON response shape.
func buildUserPrompt(req ChatRequest) string {
	var b strings.Builder
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n", orDefault(req.Profile.Name, "Not provided"))
	if req.Profile.Age > 0 {
		fmt.Fprintf(&b, "- Age: %d\n", req.Profile.Age)
	}
	fmt.Fprintf(&b, "- Gender: %s\n", orDefault(req.Profile.Gender, "Not specified"))
	fmt.Fprintf(&b, "- Location: %s\n", orDefault(req.Profile.Location, "Kenya"))
	fmt.Fprintf(&b, "- Medical History: %s\n", orDefault(strings.Join(req.Profile.MedicalHistory, ", "), "None specified"))
	fmt.Fprintf(&b, "- Current Medications: %s\n", orDefault(strings.Join(req.Profile.Medications, ", "), "None"))

	if len(req.History) > 0 {
		b.WriteString("\nPrevious Conversation:\n")
		for _, ex := range req.History {
			fmt.Fprintf(&b, "Q: %s\nA: %s\n", ex.Question, ex.Answer)
		}
	}

	fmt.Fprintf(&b, "\nUser's Question: %q\n\n", req.Question)
	fmt.Fprintf(&b, `Respond with ONLY a JSON object in this exact format, with the response text at most %d characters:
{
  "response": "Your clear, helpful medical advice response here",
  "urgency": "low/medium/high/emergency",
  "recommendations": ["First practical recommendation", "Second practical recommendation"],
  "should_see_doctor": true
}`, MaxReplyLength)
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
