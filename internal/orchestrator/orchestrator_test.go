package orchestrator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianmaseno/medtech/internal/flow"
	"github.com/brianmaseno/medtech/internal/genai"
	"github.com/brianmaseno/medtech/internal/models"
	"github.com/brianmaseno/medtech/internal/session"
)

type stubAI struct{}

func (stubAI) Respond(ctx context.Context, req genai.ChatRequest) (models.AIReply, error) {
	return models.AIReply{Text: "Rest and hydrate.", Urgency: models.UrgencyLow}, nil
}

func (stubAI) HealthTip(ctx context.Context) (string, error) {
	return "Drink eight glasses of water a day.", nil
}

type stubDoctors struct{}

func (stubDoctors) ListActiveDoctors(ctx context.Context) ([]models.Doctor, error) {
	return []models.Doctor{
		{ID: "DOC001", Name: "Dr. Sarah Mwangi", Specialization: "General Practitioner", Hospital: "Nairobi Hospital", ConsultationFee: 1500, Active: true},
	}, nil
}

type stubAppointments struct {
	mu      sync.Mutex
	created []models.Appointment
}

func (s *stubAppointments) CreateAppointment(ctx context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	appt.ID = "APT_ORCH0001"
	s.created = append(s.created, *appt)
	return nil
}

func (s *stubAppointments) ListUpcomingAppointments(ctx context.Context, patientPhone string) ([]models.Appointment, error) {
	return nil, nil
}

func (s *stubAppointments) CancelAppointment(ctx context.Context, id, reason string) error {
	return nil
}

func (s *stubAppointments) RescheduleAppointment(ctx context.Context, id string, date time.Time, timeSlot string) error {
	return nil
}

type stubUsers struct {
	mu       sync.Mutex
	known    map[string]bool
	getErr   error
	touched  []string
}

func (s *stubUsers) GetOrCreateUser(ctx context.Context, phone string) (models.UserProfile, bool, error) {
	if s.getErr != nil {
		return models.UserProfile{}, false, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.known == nil {
		s.known = make(map[string]bool)
	}
	created := !s.known[phone]
	s.known[phone] = true
	return models.NewUserProfile(phone), created, nil
}

func (s *stubUsers) TouchUser(ctx context.Context, phone string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, phone)
	return nil
}

type stubGateway struct {
	mu   sync.Mutex
	sent []string
	err  error
}

func (s *stubGateway) SendMessage(ctx context.Context, to, body string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, to+": "+body)
	return nil
}

func newTestOrchestrator(t *testing.T, opts ...Option) (*Orchestrator, *stubAppointments, *stubUsers, session.Store) {
	t.Helper()
	appts := &stubAppointments{}
	users := &stubUsers{}
	sessions := session.NewMemoryStore()
	engine := flow.NewEngine(stubAI{}, stubDoctors{}, appts)
	return New(engine, sessions, users, opts...), appts, users, sessions
}

func TestHandleTurnPersistsNonTerminalState(t *testing.T) {
	orch, _, users, sessions := newTestOrchestrator(t)
	ctx := context.Background()

	reply, terminal, err := orch.HandleTurn(ctx, "+254712345678", "sess-1", models.SurfaceUSSD, "2")
	if err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}
	if terminal {
		t.Error("entering the wizard must not be terminal")
	}
	if !strings.Contains(reply, "Dr. Sarah Mwangi") {
		t.Errorf("reply should list the doctor, got %q", reply)
	}

	sess, err := sessions.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("session load failed: %v", err)
	}
	if sess.State != models.StateBookingSelectDoctor {
		t.Errorf("persisted state = %s, want BOOKING_SELECT_DOCTOR", sess.State)
	}
	if len(users.touched) != 1 {
		t.Errorf("user touched %d times, want 1", len(users.touched))
	}
}

func TestHandleTurnClearsSessionOnTerminal(t *testing.T) {
	orch, appts, _, sessions := newTestOrchestrator(t)
	ctx := context.Background()

	for _, input := range []string{"book", "1", "2", "3", "1"} {
		if _, _, err := orch.HandleTurn(ctx, "+254712345678", "sess-1", models.SurfaceUSSD, input); err != nil {
			t.Fatalf("HandleTurn(%q) failed: %v", input, err)
		}
	}

	if len(appts.created) != 1 {
		t.Fatalf("created %d appointments, want 1", len(appts.created))
	}
	sess, err := sessions.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("session load failed: %v", err)
	}
	if sess.State != models.StateInitial || !sess.Payload.Empty() {
		t.Error("terminal turn must clear the stored session")
	}
}

func TestHandleTurnSendsWelcomeOnce(t *testing.T) {
	gw := &stubGateway{}
	orch, _, _, _ := newTestOrchestrator(t, WithNotificationGateway(gw))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, _, err := orch.HandleTurn(ctx, "+254712345678", "+254712345678", models.SurfaceSMS, "hi"); err != nil {
			t.Fatalf("HandleTurn failed: %v", err)
		}
	}
	if len(gw.sent) != 1 {
		t.Errorf("welcome sent %d times, want exactly 1", len(gw.sent))
	}
}

func TestHandleTurnSurvivesWelcomeFailure(t *testing.T) {
	gw := &stubGateway{err: errors.New("sms gateway down")}
	orch, _, _, _ := newTestOrchestrator(t, WithNotificationGateway(gw))

	reply, _, err := orch.HandleTurn(context.Background(), "+254712345678", "+254712345678", models.SurfaceSMS, "hi")
	if err != nil {
		t.Fatalf("welcome failure must not fail the turn: %v", err)
	}
	if reply == "" {
		t.Error("reply must still be produced")
	}
}

func TestHandleTurnRejectsEmptyIdentity(t *testing.T) {
	orch, _, _, _ := newTestOrchestrator(t)
	if _, _, err := orch.HandleTurn(context.Background(), "", "sess-1", models.SurfaceUSSD, "1"); err == nil {
		t.Error("empty principal must be rejected")
	}
	if _, _, err := orch.HandleTurn(context.Background(), "+254712345678", "", models.SurfaceUSSD, "1"); err == nil {
		t.Error("empty session key must be rejected")
	}
}

func TestHandleTurnUserStoreFailure(t *testing.T) {
	appts := &stubAppointments{}
	users := &stubUsers{getErr: errors.New("db down")}
	engine := flow.NewEngine(stubAI{}, stubDoctors{}, appts)
	orch := New(engine, session.NewMemoryStore(), users)

	if _, _, err := orch.HandleTurn(context.Background(), "+254712345678", "sess-1", models.SurfaceUSSD, "1"); err == nil {
		t.Error("user store failure must surface as an error")
	}
}

func TestConcurrentTurnsSameKeyDoNotRace(t *testing.T) {
	orch, _, _, _ := newTestOrchestrator(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := orch.HandleTurn(ctx, "+254712345678", "sess-1", models.SurfaceUSSD, "4")
			if err != nil {
				t.Errorf("concurrent HandleTurn failed: %v", err)
			}
		}()
	}
	wg.Wait()
}

func TestHousekeepUsesConfiguredTTL(t *testing.T) {
	orch, _, _, sessions := newTestOrchestrator(t, WithSessionTTL(time.Minute))
	ctx := context.Background()

	if _, _, err := orch.HandleTurn(ctx, "+254712345678", "sess-1", models.SurfaceUSSD, "2"); err != nil {
		t.Fatalf("HandleTurn failed: %v", err)
	}

	// A fresh session must survive a sweep with a one minute TTL.
	orch.Housekeep(ctx)
	sess, err := sessions.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("session load failed: %v", err)
	}
	if sess.State != models.StateBookingSelectDoctor {
		t.Error("housekeeping must not evict fresh sessions")
	}
}
