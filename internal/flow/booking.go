package flow

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/brianmaseno/medtech/internal/classify"
	"github.com/brianmaseno/medtech/internal/models"
)

// TimeSlots is the fixed slot enumeration offered for every appointment day.
var TimeSlots = []string{"9:00 AM", "10:00 AM", "11:00 AM", "2:00 PM", "3:00 PM", "4:00 PM", "5:00 PM", "6:00 PM"}

// dateOption maps a menu index to a day offset from today.
type dateOption struct {
	label  string
	offset int
}

var dateOptions = []dateOption{
	{"Today", 0},
	{"Tomorrow", 1},
	{"Day after tomorrow", 2},
	{"This weekend", 6},
	{"Next week", 7},
}

// resolveDate maps input to one of the enumerated day offsets. Numeric input
// must be within the shown options. Free text is matched on "today" and
// "tomorrow"; any other non-empty text falls back to tomorrow, which is the
// documented default rather than a failure.
func resolveDate(in classify.Input) (string, time.Time, bool) {
	today := time.Now()
	if in.Kind == classify.KindNumeric {
		if in.Index < 1 || in.Index > len(dateOptions) {
			return "", time.Time{}, false
		}
		opt := dateOptions[in.Index-1]
		return opt.label, today.AddDate(0, 0, opt.offset), true
	}
	if in.Text == "" {
		return "", time.Time{}, false
	}
	if strings.Contains(in.Text, "today") {
		return "Today", today, true
	}
	return "Tomorrow", today.AddDate(0, 0, 1), true
}

// resolveTime maps input to a time slot. Numeric input indexes the fixed
// enumeration; free text is accepted verbatim when it names a meridiem.
func resolveTime(in classify.Input) (string, bool) {
	if in.Kind == classify.KindNumeric {
		if in.Index < 1 || in.Index > len(TimeSlots) {
			return "", false
		}
		return TimeSlots[in.Index-1], true
	}
	if strings.Contains(in.Text, "am") || strings.Contains(in.Text, "pm") {
		return strings.ToUpper(in.Text), true
	}
	return "", false
}

// handleSelectDoctor resolves the user's choice against the candidate
// snapshot taken when the list was shown, never a fresh query.
func (e *Engine) handleSelectDoctor(ctx context.Context, sess models.Session, in classify.Input) models.FlowResult {
	doctors := sess.Payload.Doctors
	if len(doctors) == 0 {
		slog.Error("Engine handleSelectDoctor with empty candidate snapshot", "principal", sess.PrincipalID)
		return collaboratorFailure()
	}

	var selected *models.Doctor
	if in.Kind == classify.KindNumeric {
		if in.Index >= 1 && in.Index <= len(doctors) {
			selected = &doctors[in.Index-1]
		}
	} else {
		if in.Text == "" {
			return reprompt(sess, doctorListPrompt(doctors))
		}
		// First substring match wins.
		for i := range doctors {
			if strings.Contains(strings.ToLower(doctors[i].Name), in.Text) {
				selected = &doctors[i]
				break
			}
		}
	}
	if selected == nil {
		return reprompt(sess, doctorRepromptPrompt(doctors))
	}

	doctor := *selected
	payload := sess.Payload
	payload.Doctor = &doctor
	return models.FlowResult{
		NextState: models.StateBookingSelectDate,
		Payload:   payload,
		Reply:     datePrompt(doctor),
	}
}

// handleSelectDate records the appointment day.
func (e *Engine) handleSelectDate(ctx context.Context, sess models.Session, in classify.Input) models.FlowResult {
	if sess.Payload.Doctor == nil {
		slog.Error("Engine handleSelectDate without selected doctor", "principal", sess.PrincipalID)
		return collaboratorFailure()
	}
	if in.Kind == classify.KindText && in.Text == "" {
		return reprompt(sess, datePrompt(*sess.Payload.Doctor))
	}

	label, date, ok := resolveDate(in)
	if !ok {
		return reprompt(sess, dateRepromptPrompt())
	}

	payload := sess.Payload
	payload.DateLabel = label
	payload.Date = date
	return models.FlowResult{
		NextState: models.StateBookingSelectTime,
		Payload:   payload,
		Reply:     timePrompt(label),
	}
}

// handleSelectTime records the slot and shows the confirmation summary.
func (e *Engine) handleSelectTime(ctx context.Context, sess models.Session, in classify.Input) models.FlowResult {
	if sess.Payload.Doctor == nil || sess.Payload.Date.IsZero() {
		slog.Error("Engine handleSelectTime with incomplete payload", "principal", sess.PrincipalID)
		return collaboratorFailure()
	}
	if in.Kind == classify.KindText && in.Text == "" {
		return reprompt(sess, timePrompt(sess.Payload.DateLabel))
	}

	slot, ok := resolveTime(in)
	if !ok {
		return reprompt(sess, timeRepromptPrompt())
	}

	payload := sess.Payload
	payload.TimeSlot = slot
	return models.FlowResult{
		NextState: models.StateBookingConfirm,
		Payload:   payload,
		Reply:     confirmPrompt(*payload.Doctor, payload.DateLabel, payload.Date, slot),
	}
}

// handleConfirm is the only transition that creates an Appointment. Option 2
// goes back to time selection; option 3 restarts the wizard, discarding the
// selected doctor, date and time.
func (e *Engine) handleConfirm(ctx context.Context, sess models.Session, user models.UserProfile, in classify.Input) models.FlowResult {
	p := sess.Payload
	if p.Doctor == nil || p.Date.IsZero() || p.TimeSlot == "" {
		slog.Error("Engine handleConfirm with incomplete payload", "principal", sess.PrincipalID)
		return collaboratorFailure()
	}

	switch {
	case in.Index == 1 || strings.Contains(in.Text, "yes") || strings.Contains(in.Text, "confirm"):
		return e.commitBooking(ctx, sess, user)
	case in.Index == 2 || strings.Contains(in.Text, "change"):
		p.TimeSlot = ""
		return models.FlowResult{
			NextState: models.StateBookingSelectTime,
			Payload:   p,
			Reply:     timePrompt(p.DateLabel),
		}
	case in.Index == 3 || strings.Contains(in.Text, "back"):
		restart := models.Payload{History: p.History}
		return e.startBooking(ctx, restart)
	default:
		return reprompt(sess, confirmRepromptPrompt())
	}
}

// commitBooking persists the appointment. Success and failure both end the
// flow: a failed commit must not be retried against possibly-partial state.
func (e *Engine) commitBooking(ctx context.Context, sess models.Session, user models.UserProfile) models.FlowResult {
	p := sess.Payload
	doctor := *p.Doctor
	appt := models.Appointment{
		PatientPhone:    sess.PrincipalID,
		PatientName:     user.Name,
		DoctorID:        doctor.ID,
		DoctorName:      doctor.Name,
		Specialization:  doctor.Specialization,
		Hospital:        doctor.Hospital,
		Date:            p.Date,
		TimeSlot:        p.TimeSlot,
		ConsultationFee: doctor.ConsultationFee,
		BookedVia:       sess.Surface,
	}
	if err := e.appts.CreateAppointment(ctx, &appt); err != nil {
		slog.Error("Engine commitBooking failed", "error", err, "principal", sess.PrincipalID)
		return models.FlowResult{
			NextState: models.StateInitial,
			Reply:     bookingFailedPrompt(),
			Effects:   []models.EffectKind{models.EffectCreateAppointment},
			Terminal:  true,
		}
	}
	slog.Info("Engine commitBooking succeeded", "appointment", appt.ID, "principal", sess.PrincipalID, "doctor", doctor.ID)
	return models.FlowResult{
		NextState: models.StateInitial,
		Reply:     bookedPrompt(appt, doctor.Phone),
		Effects:   []models.EffectKind{models.EffectCreateAppointment},
		Terminal:  true,
	}
}
