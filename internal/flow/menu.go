package flow

import (
	"context"
	"log/slog"
	"strings"

	"github.com/brianmaseno/medtech/internal/classify"
	"github.com/brianmaseno/medtech/internal/models"
)

// bookingKeywords and healthKeywords route free text from the main menu.
var (
	bookingKeywords = []string{"book", "appointment", "schedule"}
	healthKeywords  = []string{"chat", "health", "sick", "pain", "doctor", "symptom"}
)

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

// handleInitial services the main menu: numeric options 1-5 plus keyword
// routing for free text.
func (e *Engine) handleInitial(ctx context.Context, sess models.Session, user models.UserProfile, in classify.Input) models.FlowResult {
	if in.Kind == classify.KindNumeric {
		switch in.Index {
		case 1:
			return models.FlowResult{NextState: models.StateHealthChat, Reply: chatIntroPrompt(user.Name)}
		case 2:
			return e.startBooking(ctx, sess.Payload)
		case 3:
			return e.showAppointments(ctx, sess)
		case 4:
			return e.listDoctors(ctx, sess)
		case 5:
			return e.healthTip(ctx, sess)
		default:
			return reprompt(sess, welcomePrompt(user.Name))
		}
	}

	text := in.Text
	if text == "" {
		// First contact or bare ping; show the menu.
		return reprompt(sess, welcomePrompt(user.Name))
	}
	if text == "doctors" {
		return e.listDoctors(ctx, sess)
	}
	if containsAny(text, bookingKeywords) {
		return e.startBooking(ctx, sess.Payload)
	}
	if containsAny(text, healthKeywords) {
		if text == "chat" {
			return models.FlowResult{NextState: models.StateHealthChat, Reply: chatIntroPrompt(user.Name)}
		}
		// The message itself is the health question.
		return e.askAI(ctx, sess, user, in.Text)
	}
	return reprompt(sess, welcomePrompt(user.Name))
}

// startBooking snapshots the active doctor list and enters the wizard. The
// previous payload's chat history is carried along; wizard fields start clean.
func (e *Engine) startBooking(ctx context.Context, payload models.Payload) models.FlowResult {
	doctors, err := e.doctors.ListActiveDoctors(ctx)
	if err != nil {
		slog.Error("Engine startBooking doctor listing failed", "error", err)
		return models.FlowResult{
			NextState: models.StateInitial,
			Reply:     apologyPrompt(),
			Effects:   []models.EffectKind{models.EffectListDoctors},
		}
	}
	if len(doctors) == 0 {
		slog.Warn("Engine startBooking found no active doctors")
		return models.FlowResult{
			NextState: models.StateInitial,
			Reply:     apologyPrompt(),
			Effects:   []models.EffectKind{models.EffectListDoctors},
		}
	}
	if len(doctors) > models.MaxDoctorCandidates {
		doctors = doctors[:models.MaxDoctorCandidates]
	}

	next := models.Payload{History: payload.History, Doctors: doctors}
	return models.FlowResult{
		NextState: models.StateBookingSelectDoctor,
		Payload:   next,
		Reply:     doctorListPrompt(doctors),
		Effects:   []models.EffectKind{models.EffectListDoctors},
	}
}

// showAppointments lists the principal's upcoming bookings and enters the
// management state when there are any.
func (e *Engine) showAppointments(ctx context.Context, sess models.Session) models.FlowResult {
	appts, err := e.appts.ListUpcomingAppointments(ctx, sess.PrincipalID)
	if err != nil {
		slog.Error("Engine showAppointments listing failed", "error", err, "principal", sess.PrincipalID)
		return models.FlowResult{
			NextState: models.StateInitial,
			Reply:     apologyPrompt(),
			Effects:   []models.EffectKind{models.EffectListAppointments},
		}
	}
	if len(appts) == 0 {
		return models.FlowResult{
			NextState: models.StateInitial,
			Payload:   sess.Payload,
			Reply:     noAppointmentsPrompt(),
			Effects:   []models.EffectKind{models.EffectListAppointments},
		}
	}
	if len(appts) > models.MaxAppointmentsShown {
		appts = appts[:models.MaxAppointmentsShown]
	}

	next := models.Payload{History: sess.Payload.History, Appointments: appts}
	return models.FlowResult{
		NextState: models.StateViewAppointments,
		Payload:   next,
		Reply:     appointmentListPrompt(appts),
		Effects:   []models.EffectKind{models.EffectListAppointments},
	}
}

// listDoctors shows the directory without entering the booking wizard.
func (e *Engine) listDoctors(ctx context.Context, sess models.Session) models.FlowResult {
	doctors, err := e.doctors.ListActiveDoctors(ctx)
	if err != nil {
		slog.Error("Engine listDoctors failed", "error", err)
		return models.FlowResult{
			NextState: models.StateInitial,
			Reply:     apologyPrompt(),
			Effects:   []models.EffectKind{models.EffectListDoctors},
		}
	}
	if len(doctors) > models.MaxDoctorCandidates {
		doctors = doctors[:models.MaxDoctorCandidates]
	}
	return models.FlowResult{
		NextState: sess.State,
		Payload:   sess.Payload,
		Reply:     doctorDirectoryPrompt(doctors),
		Effects:   []models.EffectKind{models.EffectListDoctors},
	}
}

// healthTip serves a wellness tip and keeps the user where they are.
func (e *Engine) healthTip(ctx context.Context, sess models.Session) models.FlowResult {
	tip, err := e.ai.HealthTip(ctx)
	if err != nil {
		slog.Error("Engine healthTip failed", "error", err)
		return reprompt(sess, chatUnavailablePrompt())
	}
	return models.FlowResult{
		NextState: sess.State,
		Payload:   sess.Payload,
		Reply:     healthTipPrompt(tip),
		Effects:   []models.EffectKind{models.EffectHealthTip},
	}
}
