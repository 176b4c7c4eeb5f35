// Package models defines state management structures for MedConnect conversations.
package models

// State identifies a conversation state. The set is closed: the engine only
// ever stores and dispatches on the constants below.
type State string

const (
	// StateInitial is the entry state and the state after any reset or exit.
	StateInitial State = "INITIAL"
	// StateHealthChat expects a free-text health question for the AI assistant.
	StateHealthChat State = "HEALTH_CHAT"
	// StateAIChatFollowup shows the post-answer menu (ask again, book, tips).
	StateAIChatFollowup State = "AI_CHAT_FOLLOWUP"

	// Booking wizard states.
	StateBookingSelectDoctor State = "BOOKING_SELECT_DOCTOR"
	StateBookingSelectDate   State = "BOOKING_SELECT_DATE"
	StateBookingSelectTime   State = "BOOKING_SELECT_TIME"
	StateBookingConfirm      State = "BOOKING_CONFIRM"

	// Appointment management states.
	StateViewAppointments  State = "VIEW_APPOINTMENTS"
	StateCancelSelect      State = "CANCEL_SELECT"
	StateRescheduleSelect  State = "RESCHEDULE_SELECT"
	StateRescheduleDate    State = "RESCHEDULE_DATE"
	StateRescheduleTime    State = "RESCHEDULE_TIME"
)

// Valid reports whether s is a member of the closed state set.
func (s State) Valid() bool {
	switch s {
	case StateInitial, StateHealthChat, StateAIChatFollowup,
		StateBookingSelectDoctor, StateBookingSelectDate, StateBookingSelectTime, StateBookingConfirm,
		StateViewAppointments, StateCancelSelect,
		StateRescheduleSelect, StateRescheduleDate, StateRescheduleTime:
		return true
	default:
		return false
	}
}

// InBooking reports whether s is part of the booking wizard.
func (s State) InBooking() bool {
	switch s {
	case StateBookingSelectDoctor, StateBookingSelectDate, StateBookingSelectTime, StateBookingConfirm:
		return true
	default:
		return false
	}
}

// Surface identifies which transport a turn arrived on.
type Surface string

const (
	// SurfaceUSSD is the synchronous USSD gateway (CON/END framing).
	SurfaceUSSD Surface = "ussd"
	// SurfaceSMS is the SMS callback surface (sessionKey == principal).
	SurfaceSMS Surface = "sms"
)
