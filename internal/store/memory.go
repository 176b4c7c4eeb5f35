package store

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/brianmaseno/medtech/internal/models"
)

// newAppointmentID mints an APT_ prefixed identifier.
func newAppointmentID() string {
	return "APT_" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

// InMemoryStore keeps all domain data in process memory. It is used for
// tests and for running without a database DSN.
type InMemoryStore struct {
	mu             sync.RWMutex
	doctors        map[string]models.Doctor
	doctorOrder    []string
	appointments   map[string]models.Appointment
	users          map[string]models.UserProfile
	healthSessions []models.HealthSession
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		doctors:      make(map[string]models.Doctor),
		appointments: make(map[string]models.Appointment),
		users:        make(map[string]models.UserProfile),
	}
}

// ListActiveDoctors returns active doctors in insertion order.
func (s *InMemoryStore) ListActiveDoctors(ctx context.Context) ([]models.Doctor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var doctors []models.Doctor
	for _, id := range s.doctorOrder {
		d := s.doctors[id]
		if d.Active {
			doctors = append(doctors, d)
		}
	}
	return doctors, nil
}

// FindDoctorByName returns the first active doctor whose name contains name.
func (s *InMemoryStore) FindDoctorByName(ctx context.Context, name string) (*models.Doctor, error) {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, models.ErrDoctorNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range s.doctorOrder {
		d := s.doctors[id]
		if d.Active && strings.Contains(strings.ToLower(d.Name), needle) {
			doc := d
			return &doc, nil
		}
	}
	return nil, models.ErrDoctorNotFound
}

// UpsertDoctor inserts or replaces a doctor record.
func (s *InMemoryStore) UpsertDoctor(ctx context.Context, d models.Doctor) error {
	if d.ID == "" {
		return fmt.Errorf("doctor ID is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.doctors[d.ID]; !exists {
		s.doctorOrder = append(s.doctorOrder, d.ID)
	}
	s.doctors[d.ID] = d
	return nil
}

// CreateAppointment persists a new appointment, assigning an ID if empty.
func (s *InMemoryStore) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	if appt.ID == "" {
		appt.ID = newAppointmentID()
	}
	if appt.Status == "" {
		appt.Status = models.AppointmentScheduled
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now()
	}
	s.mu.Lock()
	s.appointments[appt.ID] = *appt
	s.mu.Unlock()
	slog.Debug("InMemoryStore CreateAppointment succeeded", "id", appt.ID, "patient", appt.PatientPhone)
	return nil
}

// GetAppointment returns the appointment with the given ID.
func (s *InMemoryStore) GetAppointment(ctx context.Context, id string) (models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appt, ok := s.appointments[id]
	if !ok {
		return models.Appointment{}, models.ErrAppointmentGone
	}
	return appt, nil
}

// ListUpcomingAppointments returns open appointments for the patient from
// today onward, soonest first.
func (s *InMemoryStore) ListUpcomingAppointments(ctx context.Context, patientPhone string) ([]models.Appointment, error) {
	today := time.Now().Format(DateLayout)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var appts []models.Appointment
	for _, a := range s.appointments {
		if a.PatientPhone != patientPhone {
			continue
		}
		if !a.Status.Open() {
			continue
		}
		if a.Date.Format(DateLayout) < today {
			continue
		}
		appts = append(appts, a)
	}
	sortAppointments(appts)
	return appts, nil
}

// ListAppointmentsBetween returns open appointments dated within [from, to].
func (s *InMemoryStore) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	lo, hi := from.Format(DateLayout), to.Format(DateLayout)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var appts []models.Appointment
	for _, a := range s.appointments {
		if !a.Status.Open() {
			continue
		}
		day := a.Date.Format(DateLayout)
		if day < lo || day > hi {
			continue
		}
		appts = append(appts, a)
	}
	sortAppointments(appts)
	return appts, nil
}

// CancelAppointment marks the appointment cancelled with a reason.
func (s *InMemoryStore) CancelAppointment(ctx context.Context, id, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return models.ErrAppointmentGone
	}
	now := time.Now()
	appt.Status = models.AppointmentCancelled
	appt.CancelReason = reason
	appt.CancelledAt = &now
	s.appointments[id] = appt
	slog.Debug("InMemoryStore CancelAppointment succeeded", "id", id)
	return nil
}

// RescheduleAppointment moves the appointment to a new date and slot.
func (s *InMemoryStore) RescheduleAppointment(ctx context.Context, id string, date time.Time, timeSlot string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return models.ErrAppointmentGone
	}
	appt.Date = date
	appt.TimeSlot = timeSlot
	appt.Status = models.AppointmentRescheduled
	appt.ReminderSent = false
	s.appointments[id] = appt
	slog.Debug("InMemoryStore RescheduleAppointment succeeded", "id", id, "date", date.Format(DateLayout), "slot", timeSlot)
	return nil
}

// MarkReminderSent flags the appointment so reminders are not repeated.
func (s *InMemoryStore) MarkReminderSent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt, ok := s.appointments[id]
	if !ok {
		return models.ErrAppointmentGone
	}
	appt.ReminderSent = true
	s.appointments[id] = appt
	return nil
}

// GetOrCreateUser returns the profile for the phone number, creating a
// minimal one on first contact.
func (s *InMemoryStore) GetOrCreateUser(ctx context.Context, phone string) (models.UserProfile, bool, error) {
	if phone == "" {
		return models.UserProfile{}, false, models.ErrEmptyPrincipal
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[phone]; ok {
		return u, false, nil
	}
	u := models.NewUserProfile(phone)
	s.users[phone] = u
	slog.Debug("InMemoryStore GetOrCreateUser created profile", "phone", phone, "name", u.Name)
	return u, true, nil
}

// TouchUser updates the profile's last activity timestamp.
func (s *InMemoryStore) TouchUser(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[phone]
	if !ok {
		return nil
	}
	u.LastActivity = time.Now()
	s.users[phone] = u
	return nil
}

// RecordHealthSession appends an AI consultation audit record.
func (s *InMemoryStore) RecordHealthSession(ctx context.Context, hs models.HealthSession) error {
	if hs.CreatedAt.IsZero() {
		hs.CreatedAt = time.Now()
	}
	s.mu.Lock()
	s.healthSessions = append(s.healthSessions, hs)
	s.mu.Unlock()
	return nil
}

// HealthSessions returns recorded audit entries (for tests).
func (s *InMemoryStore) HealthSessions() []models.HealthSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.HealthSession, len(s.healthSessions))
	copy(out, s.healthSessions)
	return out
}

// Appointments returns all stored appointments (for tests).
func (s *InMemoryStore) Appointments() []models.Appointment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var appts []models.Appointment
	for _, a := range s.appointments {
		appts = append(appts, a)
	}
	sortAppointments(appts)
	return appts
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }

// sortAppointments orders by date then creation time.
func sortAppointments(appts []models.Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		di, dj := appts[i].Date.Format(DateLayout), appts[j].Date.Format(DateLayout)
		if di != dj {
			return di < dj
		}
		return appts[i].CreatedAt.Before(appts[j].CreatedAt)
	})
}
