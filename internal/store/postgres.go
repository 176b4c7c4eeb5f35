// Package store provides storage backends for MedConnect domain data.
//
// This file implements the PostgreSQL-backed store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/brianmaseno/medtech/internal/models"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists domain data in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	// Configure connection pool for better performance
	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Postgres store initialized")
	return &PostgresStore{db: db}, nil
}

// ListActiveDoctors returns all doctors currently accepting bookings.
func (s *PostgresStore) ListActiveDoctors(ctx context.Context) ([]models.Doctor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE active ORDER BY id`)
	if err != nil {
		slog.Error("PostgresStore ListActiveDoctors query failed", "error", err)
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()
	var doctors []models.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			slog.Error("PostgresStore ListActiveDoctors scan failed", "error", err)
			return nil, err
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate doctor rows: %w", err)
	}
	slog.Debug("PostgresStore ListActiveDoctors succeeded", "count", len(doctors))
	return doctors, nil
}

// FindDoctorByName returns the first active doctor whose name contains name.
func (s *PostgresStore) FindDoctorByName(ctx context.Context, name string) (*models.Doctor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE active AND name ILIKE '%' || $1 || '%' ORDER BY id LIMIT 1`,
		name)
	if err != nil {
		slog.Error("PostgresStore FindDoctorByName query failed", "error", err, "name", name)
		return nil, fmt.Errorf("failed to query doctor by name: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		return nil, models.ErrDoctorNotFound
	}
	d, err := scanDoctor(rows)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// UpsertDoctor inserts or replaces a doctor record by ID.
func (s *PostgresStore) UpsertDoctor(ctx context.Context, d models.Doctor) error {
	availability, err := marshalJSONColumn(d.Availability)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO doctors (id, name, specialization, hospital, consultation_fee, rating, phone, active, availability)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, specialization=excluded.specialization, hospital=excluded.hospital,
			consultation_fee=excluded.consultation_fee, rating=excluded.rating, phone=excluded.phone, active=excluded.active, availability=excluded.availability`,
		d.ID, d.Name, d.Specialization, d.Hospital, d.ConsultationFee, d.Rating, d.Phone, d.Active, availability)
	if err != nil {
		slog.Error("PostgresStore UpsertDoctor failed", "error", err, "id", d.ID)
		return fmt.Errorf("failed to upsert doctor %s: %w", d.ID, err)
	}
	return nil
}

// CreateAppointment persists a new appointment, assigning an ID if empty.
func (s *PostgresStore) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = newAppointmentID()
	}
	if appt.Status == "" {
		appt.Status = models.AppointmentScheduled
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO appointments (id, patient_phone, patient_name, doctor_id, doctor_name, specialization, hospital, date, time_slot, consultation_fee, status, booked_via, reminder_sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		appt.ID, appt.PatientPhone, appt.PatientName, appt.DoctorID, appt.DoctorName,
		appt.Specialization, appt.Hospital, appt.Date, appt.TimeSlot,
		appt.ConsultationFee, appt.Status, appt.BookedVia, appt.ReminderSent, appt.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore CreateAppointment failed", "error", err, "id", appt.ID)
		return fmt.Errorf("failed to insert appointment %s: %w", appt.ID, err)
	}
	slog.Debug("PostgresStore CreateAppointment succeeded", "id", appt.ID, "patient", appt.PatientPhone)
	return nil
}

// GetAppointment returns the appointment with the given ID.
func (s *PostgresStore) GetAppointment(ctx context.Context, id string) (models.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id)
	appt, err := scanAppointmentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Appointment{}, models.ErrAppointmentGone
	}
	if err != nil {
		slog.Error("PostgresStore GetAppointment failed", "error", err, "id", id)
		return models.Appointment{}, fmt.Errorf("failed to load appointment %s: %w", id, err)
	}
	return appt, nil
}

// ListUpcomingAppointments returns open appointments for the patient from
// today onward, soonest first.
func (s *PostgresStore) ListUpcomingAppointments(ctx context.Context, patientPhone string) ([]models.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE patient_phone = $1 AND status IN ('scheduled', 'confirmed', 'rescheduled') AND date >= $2
		 ORDER BY date, created_at`,
		patientPhone, time.Now().Format(DateLayout))
	if err != nil {
		slog.Error("PostgresStore ListUpcomingAppointments query failed", "error", err, "patient", patientPhone)
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListAppointmentsBetween returns open appointments dated within [from, to].
func (s *PostgresStore) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE status IN ('scheduled', 'confirmed', 'rescheduled') AND date >= $1 AND date <= $2
		 ORDER BY date, created_at`,
		from.Format(DateLayout), to.Format(DateLayout))
	if err != nil {
		slog.Error("PostgresStore ListAppointmentsBetween query failed", "error", err)
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// CancelAppointment marks the appointment cancelled with a reason.
func (s *PostgresStore) CancelAppointment(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET status = 'cancelled', cancel_reason = $1, cancelled_at = NOW() WHERE id = $2`,
		nilIfEmpty(reason), id)
	if err != nil {
		slog.Error("PostgresStore CancelAppointment failed", "error", err, "id", id)
		return fmt.Errorf("failed to cancel appointment %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrAppointmentGone
	}
	slog.Debug("PostgresStore CancelAppointment succeeded", "id", id)
	return nil
}

// RescheduleAppointment moves the appointment to a new date and slot.
func (s *PostgresStore) RescheduleAppointment(ctx context.Context, id string, date time.Time, timeSlot string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET date = $1, time_slot = $2, status = 'rescheduled', reminder_sent = FALSE WHERE id = $3`,
		date, timeSlot, id)
	if err != nil {
		slog.Error("PostgresStore RescheduleAppointment failed", "error", err, "id", id)
		return fmt.Errorf("failed to reschedule appointment %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrAppointmentGone
	}
	slog.Debug("PostgresStore RescheduleAppointment succeeded", "id", id, "date", date.Format(DateLayout), "slot", timeSlot)
	return nil
}

// MarkReminderSent flags the appointment so reminders are not repeated.
func (s *PostgresStore) MarkReminderSent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE appointments SET reminder_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder sent for %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrAppointmentGone
	}
	return nil
}

// GetOrCreateUser returns the profile for the phone number, creating a
// minimal one on first contact.
func (s *PostgresStore) GetOrCreateUser(ctx context.Context, phone string) (models.UserProfile, bool, error) {
	if phone == "" {
		return models.UserProfile{}, false, models.ErrEmptyPrincipal
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT phone_number, name, age, gender, location, medical_history, medications, created_at, last_activity FROM users WHERE phone_number = $1`,
		phone)
	u, err := scanUserRow(row)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("PostgresStore GetOrCreateUser query failed", "error", err, "phone", phone)
		return models.UserProfile{}, false, fmt.Errorf("failed to load user %s: %w", phone, err)
	}

	u = models.NewUserProfile(phone)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (phone_number, name, created_at, last_activity) VALUES ($1, $2, $3, $4)
		 ON CONFLICT(phone_number) DO NOTHING`,
		u.PhoneNumber, u.Name, u.CreatedAt, u.LastActivity)
	if err != nil {
		slog.Error("PostgresStore GetOrCreateUser insert failed", "error", err, "phone", phone)
		return models.UserProfile{}, false, fmt.Errorf("failed to create user %s: %w", phone, err)
	}
	slog.Debug("PostgresStore GetOrCreateUser created profile", "phone", phone, "name", u.Name)
	return u, true, nil
}

// TouchUser updates the profile's last activity timestamp.
func (s *PostgresStore) TouchUser(ctx context.Context, phone string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_activity = NOW() WHERE phone_number = $1`, phone)
	if err != nil {
		return fmt.Errorf("failed to touch user %s: %w", phone, err)
	}
	return nil
}

// RecordHealthSession appends an AI consultation audit record.
func (s *PostgresStore) RecordHealthSession(ctx context.Context, hs models.HealthSession) error {
	if hs.CreatedAt.IsZero() {
		hs.CreatedAt = time.Now()
	}
	recs, err := marshalJSONColumn(hs.Recommendations)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO health_sessions (session_id, phone_number, surface, question, reply_text, urgency, recommendations, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		hs.SessionID, hs.PhoneNumber, hs.Surface, hs.Question, hs.ReplyText, hs.Urgency, recs, hs.CreatedAt)
	if err != nil {
		slog.Error("PostgresStore RecordHealthSession failed", "error", err, "phone", hs.PhoneNumber)
		return fmt.Errorf("failed to insert health session: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
