package flow

import (
	"context"
	"log/slog"

	"github.com/brianmaseno/medtech/internal/classify"
	"github.com/brianmaseno/medtech/internal/models"
)

// handleViewAppointments services the management menu shown under the
// upcoming appointment list.
func (e *Engine) handleViewAppointments(ctx context.Context, sess models.Session, user models.UserProfile, in classify.Input) models.FlowResult {
	appts := sess.Payload.Appointments
	if len(appts) == 0 {
		slog.Error("Engine handleViewAppointments with empty snapshot", "principal", sess.PrincipalID)
		return collaboratorFailure()
	}

	if in.Kind == classify.KindNumeric {
		switch in.Index {
		case 1:
			return models.FlowResult{
				NextState: models.StateCancelSelect,
				Payload:   sess.Payload,
				Reply:     appointmentPickPrompt("cancel", appts),
			}
		case 2:
			return models.FlowResult{
				NextState: models.StateRescheduleSelect,
				Payload:   sess.Payload,
				Reply:     appointmentPickPrompt("reschedule", appts),
			}
		case 3:
			return e.startBooking(ctx, models.Payload{History: sess.Payload.History})
		default:
			return reprompt(sess, appointmentListPrompt(appts))
		}
	}
	if containsAny(in.Text, bookingKeywords) {
		return e.startBooking(ctx, models.Payload{History: sess.Payload.History})
	}
	return reprompt(sess, appointmentListPrompt(appts))
}

// handleCancelSelect cancels the appointment picked from the snapshot.
func (e *Engine) handleCancelSelect(ctx context.Context, sess models.Session, in classify.Input) models.FlowResult {
	appts := sess.Payload.Appointments
	if len(appts) == 0 {
		slog.Error("Engine handleCancelSelect with empty snapshot", "principal", sess.PrincipalID)
		return collaboratorFailure()
	}
	if in.Kind != classify.KindNumeric || in.Index < 1 || in.Index > len(appts) {
		return reprompt(sess, appointmentPickPrompt("cancel", appts))
	}

	appt := appts[in.Index-1]
	if err := e.appts.CancelAppointment(ctx, appt.ID, "cancelled by patient"); err != nil {
		slog.Error("Engine handleCancelSelect cancel failed", "error", err, "appointment", appt.ID)
		return models.FlowResult{
			NextState: models.StateInitial,
			Reply:     apologyPrompt(),
			Effects:   []models.EffectKind{models.EffectCancelAppointment},
			Terminal:  true,
		}
	}
	slog.Info("Engine cancelled appointment", "appointment", appt.ID, "principal", sess.PrincipalID)
	return models.FlowResult{
		NextState: models.StateInitial,
		Reply:     cancelledPrompt(appt),
		Effects:   []models.EffectKind{models.EffectCancelAppointment},
		Terminal:  true,
	}
}

// handleRescheduleSelect picks the appointment to move.
func (e *Engine) handleRescheduleSelect(ctx context.Context, sess models.Session, in classify.Input) models.FlowResult {
	appts := sess.Payload.Appointments
	if len(appts) == 0 {
		slog.Error("Engine handleRescheduleSelect with empty snapshot", "principal", sess.PrincipalID)
		return collaboratorFailure()
	}
	if in.Kind != classify.KindNumeric || in.Index < 1 || in.Index > len(appts) {
		return reprompt(sess, appointmentPickPrompt("reschedule", appts))
	}

	appt := appts[in.Index-1]
	payload := sess.Payload
	payload.Appointment = &appt
	return models.FlowResult{
		NextState: models.StateRescheduleDate,
		Payload:   payload,
		Reply:     rescheduleDatePrompt(appt),
	}
}

// handleRescheduleDate records the new day for the selected appointment.
func (e *Engine) handleRescheduleDate(ctx context.Context, sess models.Session, in classify.Input) models.FlowResult {
	if sess.Payload.Appointment == nil {
		slog.Error("Engine handleRescheduleDate without selected appointment", "principal", sess.PrincipalID)
		return collaboratorFailure()
	}
	if in.Kind == classify.KindText && in.Text == "" {
		return reprompt(sess, rescheduleDatePrompt(*sess.Payload.Appointment))
	}

	label, date, ok := resolveDate(in)
	if !ok {
		return reprompt(sess, dateRepromptPrompt())
	}

	payload := sess.Payload
	payload.DateLabel = label
	payload.Date = date
	return models.FlowResult{
		NextState: models.StateRescheduleTime,
		Payload:   payload,
		Reply:     timePrompt(label),
	}
}

// handleRescheduleTime records the new slot and commits the move. Like a
// booking commit, success and failure both end the flow.
func (e *Engine) handleRescheduleTime(ctx context.Context, sess models.Session, in classify.Input) models.FlowResult {
	appt := sess.Payload.Appointment
	if appt == nil || sess.Payload.Date.IsZero() {
		slog.Error("Engine handleRescheduleTime with incomplete payload", "principal", sess.PrincipalID)
		return collaboratorFailure()
	}
	if in.Kind == classify.KindText && in.Text == "" {
		return reprompt(sess, timePrompt(sess.Payload.DateLabel))
	}

	slot, ok := resolveTime(in)
	if !ok {
		return reprompt(sess, timeRepromptPrompt())
	}

	if err := e.appts.RescheduleAppointment(ctx, appt.ID, sess.Payload.Date, slot); err != nil {
		slog.Error("Engine handleRescheduleTime commit failed", "error", err, "appointment", appt.ID)
		return models.FlowResult{
			NextState: models.StateInitial,
			Reply:     apologyPrompt(),
			Effects:   []models.EffectKind{models.EffectRescheduleAppointment},
			Terminal:  true,
		}
	}
	slog.Info("Engine rescheduled appointment", "appointment", appt.ID, "principal", sess.PrincipalID, "date", sess.Payload.Date.Format("2006-01-02"), "slot", slot)
	return models.FlowResult{
		NextState: models.StateInitial,
		Reply:     rescheduledPrompt(*appt, sess.Payload.DateLabel, sess.Payload.Date, slot),
		Effects:   []models.EffectKind{models.EffectRescheduleAppointment},
		Terminal:  true,
	}
}
