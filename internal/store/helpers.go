package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/brianmaseno/medtech/internal/models"
)

// appointmentColumns is the column list every appointment SELECT uses, in the
// order scanAppointment expects.
const appointmentColumns = `id, patient_phone, patient_name, doctor_id, doctor_name, specialization, hospital, date, time_slot, consultation_fee, status, booked_via, reminder_sent, cancel_reason, created_at, cancelled_at`

// doctorColumns is the column list every doctor SELECT uses.
const doctorColumns = `id, name, specialization, hospital, consultation_fee, rating, phone, active, availability`

// nilIfEmpty returns nil if s is empty, otherwise returns s.
// Used for nullable database columns.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// marshalJSONColumn encodes v for a JSON text column, returning nil for
// empty values.
func marshalJSONColumn(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case []string:
		if len(t) == 0 {
			return nil, nil
		}
	case map[string][]string:
		if len(t) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON column: %w", err)
	}
	return string(data), nil
}

// scanAppointment scans an Appointment from sql.Rows.
func scanAppointment(rows *sql.Rows) (models.Appointment, error) {
	var a models.Appointment
	var cancelReason sql.NullString
	var cancelledAt sql.NullTime
	err := rows.Scan(
		&a.ID, &a.PatientPhone, &a.PatientName, &a.DoctorID, &a.DoctorName,
		&a.Specialization, &a.Hospital, &a.Date, &a.TimeSlot, &a.ConsultationFee,
		&a.Status, &a.BookedVia, &a.ReminderSent, &cancelReason, &a.CreatedAt, &cancelledAt,
	)
	if err != nil {
		return a, fmt.Errorf("scan appointment failed: %w", err)
	}
	a.CancelReason = cancelReason.String
	if cancelledAt.Valid {
		a.CancelledAt = &cancelledAt.Time
	}
	return a, nil
}

// scanAppointmentRow scans an Appointment from a single sql.Row.
func scanAppointmentRow(row *sql.Row) (models.Appointment, error) {
	var a models.Appointment
	var cancelReason sql.NullString
	var cancelledAt sql.NullTime
	err := row.Scan(
		&a.ID, &a.PatientPhone, &a.PatientName, &a.DoctorID, &a.DoctorName,
		&a.Specialization, &a.Hospital, &a.Date, &a.TimeSlot, &a.ConsultationFee,
		&a.Status, &a.BookedVia, &a.ReminderSent, &cancelReason, &a.CreatedAt, &cancelledAt,
	)
	if err != nil {
		return a, err
	}
	a.CancelReason = cancelReason.String
	if cancelledAt.Valid {
		a.CancelledAt = &cancelledAt.Time
	}
	return a, nil
}

// scanDoctor scans a Doctor from sql.Rows.
func scanDoctor(rows *sql.Rows) (models.Doctor, error) {
	var d models.Doctor
	var availability sql.NullString
	err := rows.Scan(
		&d.ID, &d.Name, &d.Specialization, &d.Hospital, &d.ConsultationFee,
		&d.Rating, &d.Phone, &d.Active, &availability,
	)
	if err != nil {
		return d, fmt.Errorf("scan doctor failed: %w", err)
	}
	if availability.Valid && availability.String != "" {
		if err := json.Unmarshal([]byte(availability.String), &d.Availability); err != nil {
			return d, fmt.Errorf("decode doctor availability for %s: %w", d.ID, err)
		}
	}
	return d, nil
}

// scanUserRow scans a UserProfile from a single sql.Row.
func scanUserRow(row *sql.Row) (models.UserProfile, error) {
	var u models.UserProfile
	var age sql.NullInt64
	var gender, location, history, meds sql.NullString
	err := row.Scan(
		&u.PhoneNumber, &u.Name, &age, &gender, &location, &history, &meds,
		&u.CreatedAt, &u.LastActivity,
	)
	if err != nil {
		return u, err
	}
	u.Age = int(age.Int64)
	u.Gender = gender.String
	u.Location = location.String
	if history.Valid && history.String != "" {
		if err := json.Unmarshal([]byte(history.String), &u.MedicalHistory); err != nil {
			return u, fmt.Errorf("decode medical history for %s: %w", u.PhoneNumber, err)
		}
	}
	if meds.Valid && meds.String != "" {
		if err := json.Unmarshal([]byte(meds.String), &u.Medications); err != nil {
			return u, fmt.Errorf("decode medications for %s: %w", u.PhoneNumber, err)
		}
	}
	return u, nil
}
