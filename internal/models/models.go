// Package models defines the core data structures for MedConnect.
//
// It includes conversation sessions, the payload accumulated across wizard
// steps, domain entities (doctors, appointments, users), and the structured
// result a state transition produces. These types are shared across modules.
package models

import (
	"errors"
	"time"
)

// Limits enforced by the conversation engine.
const (
	// MaxDoctorCandidates caps the doctor list shown per listing call.
	MaxDoctorCandidates = 5
	// MaxAppointmentsShown caps the upcoming-appointments listing.
	MaxAppointmentsShown = 3
	// MaxChatHistory is the number of question/answer exchanges carried as
	// context into subsequent AI calls.
	MaxChatHistory = 5
)

// Error variables for validation and store failures.
var (
	ErrEmptyPrincipal   = errors.New("principal id cannot be empty")
	ErrEmptySessionKey  = errors.New("session key cannot be empty")
	ErrInvalidState     = errors.New("state is not a member of the conversation state set")
	ErrAppointmentGone  = errors.New("appointment not found")
	ErrDoctorNotFound   = errors.New("doctor not found")
)

// Doctor describes a bookable practitioner.
type Doctor struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Specialization string              `json:"specialization"`
	Hospital       string              `json:"hospital"`
	ConsultationFee int                `json:"consultation_fee"` // KSh
	Rating         float64             `json:"rating"`           // 0..5
	Phone          string              `json:"phone"`
	Active         bool                `json:"active"`
	Availability   map[string][]string `json:"availability,omitempty"` // weekday -> slots
}

// AppointmentStatus tracks the lifecycle of a booking.
type AppointmentStatus string

const (
	AppointmentScheduled   AppointmentStatus = "scheduled"
	AppointmentConfirmed   AppointmentStatus = "confirmed"
	AppointmentCancelled   AppointmentStatus = "cancelled"
	AppointmentRescheduled AppointmentStatus = "rescheduled"
)

// Open reports whether the appointment still occupies its slot (not cancelled).
func (s AppointmentStatus) Open() bool {
	return s == AppointmentScheduled || s == AppointmentConfirmed || s == AppointmentRescheduled
}

// Appointment is the persistent booking entity. It is created only by the
// confirm step of the booking wizard.
type Appointment struct {
	ID             string            `json:"id"`
	PatientPhone   string            `json:"patient_phone"`
	PatientName    string            `json:"patient_name"`
	DoctorID       string            `json:"doctor_id"`
	DoctorName     string            `json:"doctor_name"`
	Specialization string            `json:"specialization"`
	Hospital       string            `json:"hospital"`
	Date           time.Time         `json:"date"`
	TimeSlot       string            `json:"time_slot"`
	ConsultationFee int              `json:"consultation_fee"`
	Status         AppointmentStatus `json:"status"`
	BookedVia      Surface           `json:"booked_via"`
	ReminderSent   bool              `json:"reminder_sent"`
	CancelReason   string            `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	CancelledAt    *time.Time        `json:"cancelled_at,omitempty"`
}

// UserProfile holds the health profile attached to a phone number.
type UserProfile struct {
	PhoneNumber    string    `json:"phone_number"`
	Name           string    `json:"name"`
	Age            int       `json:"age,omitempty"`
	Gender         string    `json:"gender,omitempty"`
	Location       string    `json:"location,omitempty"`
	MedicalHistory []string  `json:"medical_history,omitempty"`
	Medications    []string  `json:"medications,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivity   time.Time `json:"last_activity"`
}

// NewUserProfile returns a minimal profile for a first-contact phone number.
// The placeholder name uses the last four digits so replies stay personal
// before the user shares a real name.
func NewUserProfile(phone string) UserProfile {
	name := "User"
	if len(phone) >= 4 {
		name = "User_" + phone[len(phone)-4:]
	}
	now := time.Now()
	return UserProfile{PhoneNumber: phone, Name: name, CreatedAt: now, LastActivity: now}
}

// Exchange is one question/answer pair of an AI chat conversation.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Payload is the mutable bag of typed fields accumulated across the steps of
// a flow. Fields referenced by a state must have been populated by a prior
// state of the same flow; handlers treat missing fields as absent and recover.
type Payload struct {
	// Doctors is the candidate snapshot shown this turn; numeric input is
	// resolved as a 1-based index into this exact list, never a fresh query.
	Doctors []Doctor `json:"doctors,omitempty"`
	// Doctor is the selected practitioner.
	Doctor *Doctor `json:"doctor,omitempty"`
	// DateLabel and Date describe the selected appointment day.
	DateLabel string    `json:"date_label,omitempty"`
	Date      time.Time `json:"date,omitzero"`
	// TimeSlot is the selected slot, e.g. "10:00 AM".
	TimeSlot string `json:"time_slot,omitempty"`
	// Appointments is the candidate snapshot for cancel/reschedule selection.
	Appointments []Appointment `json:"appointments,omitempty"`
	// Appointment is the booking selected for cancel/reschedule.
	Appointment *Appointment `json:"appointment,omitempty"`
	// History carries recent AI chat exchanges for conversational context.
	History []Exchange `json:"history,omitempty"`
}

// Empty reports whether no field of the payload has been populated.
func (p Payload) Empty() bool {
	return len(p.Doctors) == 0 && p.Doctor == nil && p.DateLabel == "" && p.Date.IsZero() &&
		p.TimeSlot == "" && len(p.Appointments) == 0 && p.Appointment == nil && len(p.History) == 0
}

// Session is the persisted conversation state for one principal/session key.
type Session struct {
	PrincipalID   string    `json:"principal_id"`
	SessionKey    string    `json:"session_key"`
	Surface       Surface   `json:"surface"`
	State         State     `json:"state"`
	Payload       Payload   `json:"payload"`
	LastTouchedAt time.Time `json:"last_touched_at"`
}

// NewSession returns a fresh session in the initial state with an empty payload.
func NewSession(sessionKey string) Session {
	return Session{SessionKey: sessionKey, State: StateInitial}
}

// EffectKind labels a side effect requested by a state transition. Recorded in
// the FlowResult so callers and tests can observe which collaborators ran.
type EffectKind string

const (
	EffectAIChat                EffectKind = "ai_chat"
	EffectHealthTip             EffectKind = "health_tip"
	EffectListDoctors           EffectKind = "list_doctors"
	EffectListAppointments      EffectKind = "list_appointments"
	EffectCreateAppointment     EffectKind = "create_appointment"
	EffectCancelAppointment     EffectKind = "cancel_appointment"
	EffectRescheduleAppointment EffectKind = "reschedule_appointment"
)

// FlowResult is the outcome of one state transition. It is never persisted;
// the orchestrator applies it to the session store and the transport adapter.
type FlowResult struct {
	NextState State
	Payload   Payload
	Reply     string
	Effects   []EffectKind
	// Terminal signals that the session should be cleared after replying
	// (USSD "END" framing; exit commands; completed or failed commits).
	Terminal bool
}

// Urgency grades an AI health assessment.
type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyMedium    Urgency = "medium"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

// AIReply is the structured response of the AI chat collaborator.
type AIReply struct {
	Text            string   `json:"response"`
	Urgency         Urgency  `json:"urgency"`
	Recommendations []string `json:"recommendations"`
	ShouldSeeDoctor bool     `json:"should_see_doctor"`
}

// HealthSession is the audit record written for every AI consultation.
type HealthSession struct {
	SessionID       string    `json:"session_id"`
	PhoneNumber     string    `json:"phone_number"`
	Surface         Surface   `json:"surface"`
	Question        string    `json:"question"`
	ReplyText       string    `json:"reply_text"`
	Urgency         Urgency   `json:"urgency"`
	Recommendations []string  `json:"recommendations"`
	CreatedAt       time.Time `json:"created_at"`
}
