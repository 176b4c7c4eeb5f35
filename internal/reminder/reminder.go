// Package reminder sends SMS reminders for appointments happening within the
// next day. It is driven by the cron scheduler and is safe to run repeatedly:
// each appointment is reminded at most once.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brianmaseno/medtech/internal/messaging"
	"github.com/brianmaseno/medtech/internal/models"
)

// LookaheadWindow is how far ahead of the appointment date reminders fire.
const LookaheadWindow = 24 * time.Hour

// AppointmentSource lists upcoming appointments and records sent reminders.
type AppointmentSource interface {
	ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	MarkReminderSent(ctx context.Context, id string) error
}

// Service scans for due appointments and notifies patients.
type Service struct {
	appts AppointmentSource
	msg   messaging.Service
	now   func() time.Time
}

// NewService creates a reminder service over the given appointment source and
// notification channel.
func NewService(appts AppointmentSource, msg messaging.Service) *Service {
	return &Service{appts: appts, msg: msg, now: time.Now}
}

// Run performs one reminder sweep and returns the number of reminders sent.
// Individual delivery failures are logged and skipped so one bad number does
// not block the rest of the batch.
func (s *Service) Run(ctx context.Context) (int, error) {
	now := s.now()
	appts, err := s.appts.ListAppointmentsBetween(ctx, now, now.Add(LookaheadWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list appointments for reminders: %w", err)
	}

	sent := 0
	for _, appt := range appts {
		if appt.ReminderSent {
			continue
		}
		if err := s.msg.SendMessage(ctx, appt.PatientPhone, reminderBody(appt)); err != nil {
			slog.Error("Reminder send failed", "error", err, "appointment", appt.ID, "to", appt.PatientPhone)
			continue
		}
		if err := s.appts.MarkReminderSent(ctx, appt.ID); err != nil {
			slog.Error("Reminder mark failed", "error", err, "appointment", appt.ID)
			continue
		}
		slog.Info("Reminder sent", "appointment", appt.ID, "to", appt.PatientPhone)
		sent++
	}
	return sent, nil
}

func reminderBody(appt models.Appointment) string {
	return fmt.Sprintf(
		"⏰ Reminder: you have an appointment with %s (%s) at %s on %s at %s. Consultation fee: KSh %d. Reply 'menu' to manage your booking.",
		appt.DoctorName, appt.Specialization, appt.Hospital,
		appt.Date.Format("02/01/2006"), appt.TimeSlot, appt.ConsultationFee,
	)
}
