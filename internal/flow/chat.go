package flow

import (
	"context"
	"log/slog"

	"github.com/brianmaseno/medtech/internal/classify"
	"github.com/brianmaseno/medtech/internal/genai"
	"github.com/brianmaseno/medtech/internal/models"
)

// handleHealthChat expects a free-text health question.
func (e *Engine) handleHealthChat(ctx context.Context, sess models.Session, user models.UserProfile, in classify.Input) models.FlowResult {
	if in.Kind == classify.KindText && in.Text != "" {
		return e.askAI(ctx, sess, user, in.Text)
	}
	return reprompt(sess, chatIntroPrompt(user.Name))
}

// handleChatFollowup services the post-answer menu. Free text is treated as
// the next question so the conversation keeps flowing.
func (e *Engine) handleChatFollowup(ctx context.Context, sess models.Session, user models.UserProfile, in classify.Input) models.FlowResult {
	if in.Kind == classify.KindNumeric {
		switch in.Index {
		case 1:
			return models.FlowResult{
				NextState: models.StateHealthChat,
				Payload:   sess.Payload,
				Reply:     chatIntroPrompt(user.Name),
			}
		case 2:
			return e.startBooking(ctx, sess.Payload)
		case 3:
			return e.healthTip(ctx, sess)
		default:
			return reprompt(sess, followupRepromptPrompt())
		}
	}
	if in.Text == "" {
		return reprompt(sess, followupRepromptPrompt())
	}
	return e.askAI(ctx, sess, user, in.Text)
}

// askAI sends one question to the AI collaborator and moves to the follow-up
// menu. The AI call is read-only, so failures preserve the session for a
// simple retry.
func (e *Engine) askAI(ctx context.Context, sess models.Session, user models.UserProfile, question string) models.FlowResult {
	reply, err := e.ai.Respond(ctx, genai.ChatRequest{
		Question: question,
		Profile:  user,
		History:  sess.Payload.History,
	})
	if err != nil {
		slog.Error("Engine askAI respond failed", "error", err, "principal", sess.PrincipalID)
		return reprompt(sess, chatUnavailablePrompt())
	}

	e.recordConsultation(ctx, sess, question, reply)

	payload := sess.Payload
	payload.History = append(payload.History, models.Exchange{Question: question, Answer: reply.Text})
	if len(payload.History) > models.MaxChatHistory {
		payload.History = payload.History[len(payload.History)-models.MaxChatHistory:]
	}

	return models.FlowResult{
		NextState: models.StateAIChatFollowup,
		Payload:   payload,
		Reply:     chatReplyPrompt(reply),
		Effects:   []models.EffectKind{models.EffectAIChat},
	}
}

// recordConsultation writes the audit record; failures are logged only.
func (e *Engine) recordConsultation(ctx context.Context, sess models.Session, question string, reply models.AIReply) {
	if e.audit == nil {
		return
	}
	err := e.audit.RecordHealthSession(ctx, models.HealthSession{
		SessionID:       sess.SessionKey,
		PhoneNumber:     sess.PrincipalID,
		Surface:         sess.Surface,
		Question:        question,
		ReplyText:       reply.Text,
		Urgency:         reply.Urgency,
		Recommendations: reply.Recommendations,
	})
	if err != nil {
		slog.Error("Engine recordConsultation failed", "error", err, "principal", sess.PrincipalID)
	}
}
