// Package flow implements the conversation state machine shared by the USSD
// and SMS surfaces.
//
// A single Engine owns the transition function for every state. Each turn it
// takes the persisted session, the classified input and the user profile, and
// produces a FlowResult: the next state, the mutated payload, the outbound
// text, and the side effects it invoked. Global commands (menu, exit, help)
// override every state so users can always escape a stuck flow.
package flow

import (
	"context"
	"log/slog"
	"time"

	"github.com/brianmaseno/medtech/internal/classify"
	"github.com/brianmaseno/medtech/internal/genai"
	"github.com/brianmaseno/medtech/internal/models"
)

// AIChatService answers health questions and produces wellness tips.
type AIChatService interface {
	Respond(ctx context.Context, req genai.ChatRequest) (models.AIReply, error)
	HealthTip(ctx context.Context) (string, error)
}

// DoctorDirectory exposes the bookable practitioners.
type DoctorDirectory interface {
	ListActiveDoctors(ctx context.Context) ([]models.Doctor, error)
}

// AppointmentStore persists bookings.
type AppointmentStore interface {
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	ListUpcomingAppointments(ctx context.Context, patientPhone string) ([]models.Appointment, error)
	CancelAppointment(ctx context.Context, id, reason string) error
	RescheduleAppointment(ctx context.Context, id string, date time.Time, timeSlot string) error
}

// AuditLog records AI consultations. Failures are logged, never surfaced.
type AuditLog interface {
	RecordHealthSession(ctx context.Context, hs models.HealthSession) error
}

// Opts holds configuration options for the Engine.
type Opts struct {
	Audit AuditLog
}

// Option defines a configuration option for the Engine.
type Option func(*Opts)

// WithAuditLog wires an audit sink for AI consultations.
func WithAuditLog(audit AuditLog) Option {
	return func(o *Opts) { o.Audit = audit }
}

// Engine is the unified conversation state machine. It is stateless between
// turns; everything it needs arrives in the session it is handed.
type Engine struct {
	ai      AIChatService
	doctors DoctorDirectory
	appts   AppointmentStore
	audit   AuditLog
}

// NewEngine wires the collaborators the transition function invokes.
func NewEngine(ai AIChatService, doctors DoctorDirectory, appts AppointmentStore, opts ...Option) *Engine {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{ai: ai, doctors: doctors, appts: appts, audit: cfg.Audit}
}

// Transition runs one turn of the state machine. It never returns an error:
// collaborator failures are converted into apology replies with the failure
// semantics each state requires, and the reply is never empty.
func (e *Engine) Transition(ctx context.Context, sess models.Session, user models.UserProfile, in classify.Input) models.FlowResult {
	slog.Debug("Engine Transition invoked", "state", sess.State, "kind", in.Kind, "principal", sess.PrincipalID)

	if in.Kind == classify.KindGlobalCommand {
		return e.handleGlobalCommand(sess, user, in)
	}

	var result models.FlowResult
	switch sess.State {
	case models.StateInitial:
		result = e.handleInitial(ctx, sess, user, in)
	case models.StateHealthChat:
		result = e.handleHealthChat(ctx, sess, user, in)
	case models.StateAIChatFollowup:
		result = e.handleChatFollowup(ctx, sess, user, in)
	case models.StateBookingSelectDoctor:
		result = e.handleSelectDoctor(ctx, sess, in)
	case models.StateBookingSelectDate:
		result = e.handleSelectDate(ctx, sess, in)
	case models.StateBookingSelectTime:
		result = e.handleSelectTime(ctx, sess, in)
	case models.StateBookingConfirm:
		result = e.handleConfirm(ctx, sess, user, in)
	case models.StateViewAppointments:
		result = e.handleViewAppointments(ctx, sess, user, in)
	case models.StateCancelSelect:
		result = e.handleCancelSelect(ctx, sess, in)
	case models.StateRescheduleSelect:
		result = e.handleRescheduleSelect(ctx, sess, in)
	case models.StateRescheduleDate:
		result = e.handleRescheduleDate(ctx, sess, in)
	case models.StateRescheduleTime:
		result = e.handleRescheduleTime(ctx, sess, in)
	default:
		// Unknown state in a stored session; recover to the main menu.
		slog.Error("Engine Transition hit unknown state, resetting", "state", sess.State, "principal", sess.PrincipalID)
		result = e.resetToMenu(user)
	}

	slog.Debug("Engine Transition completed", "state", sess.State, "next_state", result.NextState, "terminal", result.Terminal, "effects", len(result.Effects))
	return result
}

// handleGlobalCommand services reserved words uniformly across states.
func (e *Engine) handleGlobalCommand(sess models.Session, user models.UserProfile, in classify.Input) models.FlowResult {
	switch in.Command {
	case classify.CommandTerminate:
		return models.FlowResult{
			NextState: models.StateInitial,
			Reply:     goodbyePrompt(),
			Terminal:  true,
		}
	case classify.CommandShowHelp:
		// Help keeps the user exactly where they were.
		return models.FlowResult{
			NextState: sess.State,
			Payload:   sess.Payload,
			Reply:     helpPrompt(),
		}
	default: // CommandResetToMain
		return e.resetToMenu(user)
	}
}

// resetToMenu discards the in-progress payload and shows the main menu.
func (e *Engine) resetToMenu(user models.UserProfile) models.FlowResult {
	return models.FlowResult{
		NextState: models.StateInitial,
		Reply:     welcomePrompt(user.Name),
	}
}

// reprompt keeps the session exactly as it was and replies with a corrective
// message. Used for every input error.
func reprompt(sess models.Session, reply string) models.FlowResult {
	return models.FlowResult{
		NextState: sess.State,
		Payload:   sess.Payload,
		Reply:     reply,
	}
}

// collaboratorFailure resets to the main menu with an apology. Used when a
// side effect fails and the in-progress flow cannot safely continue, and for
// payload invariant violations.
func collaboratorFailure() models.FlowResult {
	return models.FlowResult{
		NextState: models.StateInitial,
		Reply:     apologyPrompt(),
	}
}
