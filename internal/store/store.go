// Package store provides storage backends for MedConnect domain data.
//
// It includes an in-memory store for tests and development, plus SQLite and
// PostgreSQL backed stores for persistent deployments.
package store

import (
	"context"
	"time"

	"github.com/brianmaseno/medtech/internal/models"
)

// DateLayout is the canonical format appointment dates are persisted in.
const DateLayout = "2006-01-02"

// Store defines persistence operations for doctors, appointments, user
// profiles and health session audit records.
type Store interface {
	// ListActiveDoctors returns all doctors currently accepting bookings.
	ListActiveDoctors(ctx context.Context) ([]models.Doctor, error)
	// FindDoctorByName returns the first active doctor whose name contains
	// the given text, case-insensitively.
	FindDoctorByName(ctx context.Context, name string) (*models.Doctor, error)
	// UpsertDoctor inserts or replaces a doctor record by ID.
	UpsertDoctor(ctx context.Context, d models.Doctor) error

	// CreateAppointment persists a new appointment. An empty ID is assigned.
	CreateAppointment(ctx context.Context, appt *models.Appointment) error
	// GetAppointment returns the appointment with the given ID.
	GetAppointment(ctx context.Context, id string) (models.Appointment, error)
	// ListUpcomingAppointments returns open appointments for the patient
	// from today onward, soonest first.
	ListUpcomingAppointments(ctx context.Context, patientPhone string) ([]models.Appointment, error)
	// ListAppointmentsBetween returns open appointments dated within
	// [from, to], for reminder delivery.
	ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	// CancelAppointment marks the appointment cancelled with a reason.
	CancelAppointment(ctx context.Context, id, reason string) error
	// RescheduleAppointment moves the appointment to a new date and slot.
	RescheduleAppointment(ctx context.Context, id string, date time.Time, timeSlot string) error
	// MarkReminderSent flags the appointment so reminders are not repeated.
	MarkReminderSent(ctx context.Context, id string) error

	// GetOrCreateUser returns the profile for the phone number, creating a
	// minimal one on first contact. The bool reports whether it was created.
	GetOrCreateUser(ctx context.Context, phone string) (models.UserProfile, bool, error)
	// TouchUser updates the profile's last activity timestamp.
	TouchUser(ctx context.Context, phone string) error

	// RecordHealthSession appends an AI consultation audit record.
	RecordHealthSession(ctx context.Context, hs models.HealthSession) error

	// Close releases underlying resources.
	Close() error
}
