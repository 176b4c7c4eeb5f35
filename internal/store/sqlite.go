// Package store provides storage backends for MedConnect domain data.
//
// This file implements the SQLite-backed store.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	_ "github.com/mattn/go-sqlite3"

	"github.com/brianmaseno/medtech/internal/models"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists domain data in a local SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	// Ensure the directory exists
	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	slog.Debug("Opening SQLite database connection")
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	// Run migrations to ensure tables exist
	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("SQLite store initialized", "path", dsn)
	return &SQLiteStore{db: db}, nil
}

// ListActiveDoctors returns all doctors currently accepting bookings.
func (s *SQLiteStore) ListActiveDoctors(ctx context.Context) ([]models.Doctor, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE active = 1 ORDER BY id`)
	if err != nil {
		slog.Error("SQLiteStore ListActiveDoctors query failed", "error", err)
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()
	var doctors []models.Doctor
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			slog.Error("SQLiteStore ListActiveDoctors scan failed", "error", err)
			return nil, err
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate doctor rows: %w", err)
	}
	slog.Debug("SQLiteStore ListActiveDoctors succeeded", "count", len(doctors))
	return doctors, nil
}

// FindDoctorByName returns the first active doctor whose name contains name.
func (s *SQLiteStore) FindDoctorByName(ctx context.Context, name string) (*models.Doctor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE active = 1 AND name LIKE '%' || ? || '%' COLLATE NOCASE ORDER BY id LIMIT 1`,
		name)
	if err != nil {
		slog.Error("SQLiteStore FindDoctorByName query failed", "error", err, "name", name)
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
func (s *SQLiteStore) UpsertDoctor(ctx context.Context, d models.Doctor) error {
	availability, err := marshalJSONColumn(d.Availability)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO doctors (id, name, specialization, hospital, consultation_fee, rating, phone, active, availability)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name=excluded.name, specialization=excluded.specialization, hospital=excluded.hospital,
			consultation_fee=excluded.consultation_fee, rating=excluded.rating, phone=excluded.phone, active=excluded.active, availability=excluded.availability`,
		d.ID, d.Name, d.Specialization, d.Hospital, d.ConsultationFee, d.Rating, d.Phone, d.Active, availability)
	if err != nil {
		slog.Error("SQLiteStore UpsertDoctor failed", "error", err, "id", d.ID)
		return fmt.Errorf("failed to upsert doctor %s: %w", d.ID, err)
	}
	return nil
}

// CreateAppointment persists a new appointment, assigning an ID if empty.
func (s *SQLiteStore) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		appt.ID, appt.PatientPhone, appt.PatientName, appt.DoctorID, appt.DoctorName,
		appt.Specialization, appt.Hospital, appt.Date.Format(DateLayout), appt.TimeSlot,
		appt.ConsultationFee, appt.Status, appt.BookedVia, appt.ReminderSent, appt.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore CreateAppointment failed", "error", err, "id", appt.ID)
		return fmt.Errorf("failed to insert appointment %s: %w", appt.ID, err)
	}
	slog.Debug("SQLiteStore CreateAppointment succeeded", "id", appt.ID, "patient", appt.PatientPhone)
	return nil
}

// GetAppointment returns the appointment with the given ID.
func (s *SQLiteStore) GetAppointment(ctx context.Context, id string) (models.Appointment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id)
	appt, err := scanAppointmentRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Appointment{}, models.ErrAppointmentGone
	}
	if err != nil {
		slog.Error("SQLiteStore GetAppointment failed", "error", err, "id", id)
		return models.Appointment{}, fmt.Errorf("failed to load appointment %s: %w", id, err)
	}
	return appt, nil
}

// ListUpcomingAppointments returns open appointments for the patient from
// today onward, soonest first.
func (s *SQLiteStore) ListUpcomingAppointments(ctx context.Context, patientPhone string) ([]models.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE patient_phone = ? AND status IN ('scheduled', 'confirmed', 'rescheduled') AND date >= ?
		 ORDER BY date, created_at`,
		patientPhone, time.Now().Format(DateLayout))
	if err != nil {
		slog.Error("SQLiteStore ListUpcomingAppointments query failed", "error", err, "patient", patientPhone)
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ListAppointmentsBetween returns open appointments dated within [from, to].
func (s *SQLiteStore) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+appointmentColumns+` FROM appointments
		 WHERE status IN ('scheduled', 'confirmed', 'rescheduled') AND date >= ? AND date <= ?
		 ORDER BY date, created_at`,
		from.Format(DateLayout), to.Format(DateLayout))
	if err != nil {
		slog.Error("SQLiteStore ListAppointmentsBetween query failed", "error", err)
		return nil, fmt.Errorf("failed to query appointments: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// CancelAppointment marks the appointment cancelled with a reason.
func (s *SQLiteStore) CancelAppointment(ctx context.Context, id, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET status = 'cancelled', cancel_reason = ?, cancelled_at = ? WHERE id = ?`,
		nilIfEmpty(reason), time.Now(), id)
	if err != nil {
		slog.Error("SQLiteStore CancelAppointment failed", "error", err, "id", id)
		return fmt.Errorf("failed to cancel appointment %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrAppointmentGone
	}
	slog.Debug("SQLiteStore CancelAppointment succeeded", "id", id)
	return nil
}

// RescheduleAppointment moves the appointment to a new date and slot.
func (s *SQLiteStore) RescheduleAppointment(ctx context.Context, id string, date time.Time, timeSlot string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE appointments SET date = ?, time_slot = ?, status = 'rescheduled', reminder_sent = 0 WHERE id = ?`,
		date.Format(DateLayout), timeSlot, id)
	if err != nil {
		slog.Error("SQLiteStore RescheduleAppointment failed", "error", err, "id", id)
		return fmt.Errorf("failed to reschedule appointment %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return models.ErrAppointmentGone
	}
	slog.Debug("SQLiteStore RescheduleAppointment succeeded", "id", id, "date", date.Format(DateLayout), "slot", timeSlot)
	return nil
}

// MarkReminderSent flags the appointment so reminders are not repeated.
func (s *SQLiteStore) MarkReminderSent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE appointments SET reminder_sent = 1 WHERE id = ?`, id)
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
func (s *SQLiteStore) GetOrCreateUser(ctx context.Context, phone string) (models.UserProfile, bool, error) {
	if phone == "" {
		return models.UserProfile{}, false, models.ErrEmptyPrincipal
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT phone_number, name, age, gender, location, medical_history, medications, created_at, last_activity FROM users WHERE phone_number = ?`,
		phone)
	u, err := scanUserRow(row)
	if err == nil {
		return u, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		slog.Error("SQLiteStore GetOrCreateUser query failed", "error", err, "phone", phone)
		return models.UserProfile{}, false, fmt.Errorf("failed to load user %s: %w", phone, err)
	}

	u = models.NewUserProfile(phone)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (phone_number, name, created_at, last_activity) VALUES (?, ?, ?, ?)
		 ON CONFLICT(phone_number) DO NOTHING`,
		u.PhoneNumber, u.Name, u.CreatedAt, u.LastActivity)
	if err != nil {
		slog.Error("SQLiteStore GetOrCreateUser insert failed", "error", err, "phone", phone)
		return models.UserProfile{}, false, fmt.Errorf("failed to create user %s: %w", phone, err)
	}
	slog.Debug("SQLiteStore GetOrCreateUser created profile", "phone", phone, "name", u.Name)
	return u, true, nil
}

// TouchUser updates the profile's last activity timestamp.
func (s *SQLiteStore) TouchUser(ctx context.Context, phone string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_activity = ? WHERE phone_number = ?`, time.Now(), phone)
	if err != nil {
		return fmt.Errorf("failed to touch user %s: %w", phone, err)
	}
	return nil
}

// RecordHealthSession appends an AI consultation audit record.
func (s *SQLiteStore) RecordHealthSession(ctx context.Context, hs models.HealthSession) error {
	if hs.CreatedAt.IsZero() {
		hs.CreatedAt = time.Now()
	}
	recs, err := marshalJSONColumn(hs.Recommendations)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO health_sessions (session_id, phone_number, surface, question, reply_text, urgency, recommendations, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		hs.SessionID, hs.PhoneNumber, hs.Surface, hs.Question, hs.ReplyText, hs.Urgency, recs, hs.CreatedAt)
	if err != nil {
		slog.Error("SQLiteStore RecordHealthSession failed", "error", err, "phone", hs.PhoneNumber)
		return fmt.Errorf("failed to insert health session: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// collectAppointments drains rows into a slice.
func collectAppointments(rows *sql.Rows) ([]models.Appointment, error) {
	var appts []models.Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate appointment rows: %w", err)
	}
	return appts, nil
}
