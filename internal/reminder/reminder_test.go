package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/brianmaseno/medtech/internal/messaging"
	"github.com/brianmaseno/medtech/internal/models"
)

type mockSource struct {
	appts   []models.Appointment
	listErr error
	marked  []string
	markErr error
}

func (m *mockSource) ListAppointmentsBetween(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	return m.appts, m.listErr
}

func (m *mockSource) MarkReminderSent(ctx context.Context, id string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.marked = append(m.marked, id)
	return nil
}

func dueAppointment(id, phone string, reminded bool) models.Appointment {
	return models.Appointment{
		ID:              id,
		PatientPhone:    phone,
		DoctorName:      "Dr. Sarah Mwangi",
		Specialization:  "General Practitioner",
		Hospital:        "Nairobi Hospital",
		Date:            time.Now().Add(12 * time.Hour),
		TimeSlot:        "10:00 AM",
		ConsultationFee: 1500,
		Status:          models.AppointmentScheduled,
		ReminderSent:    reminded,
	}
}

func TestRunSendsAndMarksDueReminders(t *testing.T) {
	src := &mockSource{appts: []models.Appointment{
		dueAppointment("APT_A", "+254712345678", false),
		dueAppointment("APT_B", "+254712345679", true),
		dueAppointment("APT_C", "+254712345670", false),
	}}
	msg := &messaging.MockService{}
	svc := NewService(src, msg)

	sent, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sent != 2 {
		t.Errorf("sent = %d, want 2 (already-reminded appointment skipped)", sent)
	}
	if len(src.marked) != 2 || src.marked[0] != "APT_A" || src.marked[1] != "APT_C" {
		t.Errorf("marked = %v, want [APT_A APT_C]", src.marked)
	}

	got := msg.Messages()
	if len(got) != 2 {
		t.Fatalf("delivered %d messages, want 2", len(got))
	}
	if !strings.Contains(got[0].Body, "Dr. Sarah Mwangi") || !strings.Contains(got[0].Body, "10:00 AM") {
		t.Errorf("reminder body missing details: %q", got[0].Body)
	}
}

func TestRunSkipsFailedDeliveries(t *testing.T) {
	src := &mockSource{appts: []models.Appointment{dueAppointment("APT_A", "+254712345678", false)}}
	msg := &messaging.MockService{Err: errors.New("gateway down")}
	svc := NewService(src, msg)

	sent, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if sent != 0 {
		t.Errorf("sent = %d, want 0", sent)
	}
	if len(src.marked) != 0 {
		t.Error("failed delivery must not mark the reminder as sent")
	}
}

func TestRunPropagatesListFailure(t *testing.T) {
	src := &mockSource{listErr: errors.New("db down")}
	svc := NewService(src, &messaging.MockService{})

	if _, err := svc.Run(context.Background()); err == nil {
		t.Error("list failure must surface as an error")
	}
}
