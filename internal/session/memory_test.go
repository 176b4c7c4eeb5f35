package session

import (
	"context"
	"testing"
	"time"

	"github.com/brianmaseno/medtech/internal/models"
)

func TestMemoryStoreGetUnknownKeyReturnsInitial(t *testing.T) {
	st := NewMemoryStore()
	defer st.Close()

	sess, err := st.Get(context.Background(), "ussd-abc123")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sess.State != models.StateInitial {
		t.Errorf("Get() state = %q, want %q", sess.State, models.StateInitial)
	}
	if !sess.Payload.Empty() {
		t.Errorf("Get() payload not empty: %+v", sess.Payload)
	}
	if sess.SessionKey != "ussd-abc123" {
		t.Errorf("Get() session key = %q, want ussd-abc123", sess.SessionKey)
	}
	if st.Len() != 0 {
		t.Errorf("Get() on unknown key must not create a record, Len() = %d", st.Len())
	}
}

func TestMemoryStorePutGetRoundTrip(t *testing.T) {
	st := NewMemoryStore()
	defer st.Close()
	ctx := context.Background()

	sess := models.NewSession("ussd-xyz")
	sess.PrincipalID = "+254712345678"
	sess.Surface = models.SurfaceUSSD
	sess.State = models.StateBookingSelectDate
	sess.Payload.Doctor = &models.Doctor{ID: "DOC001", Name: "Dr. Sarah Mwangi"}

	if err := st.Put(ctx, sess); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := st.Get(ctx, "ussd-xyz")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.State != models.StateBookingSelectDate {
		t.Errorf("state = %q, want %q", got.State, models.StateBookingSelectDate)
	}
	if got.Payload.Doctor == nil || got.Payload.Doctor.ID != "DOC001" {
		t.Errorf("payload doctor = %+v, want DOC001", got.Payload.Doctor)
	}
	if got.LastTouchedAt.IsZero() {
		t.Error("Put() did not stamp LastTouchedAt")
	}
}

func TestMemoryStorePutRejectsInvalidState(t *testing.T) {
	st := NewMemoryStore()
	defer st.Close()

	sess := models.NewSession("key")
	sess.State = models.State("NOT_A_STATE")
	if err := st.Put(context.Background(), sess); err == nil {
		t.Error("Put() with invalid state did not error")
	}
}

func TestMemoryStoreRemoveIsIdempotent(t *testing.T) {
	st := NewMemoryStore()
	defer st.Close()
	ctx := context.Background()

	if err := st.Put(ctx, models.NewSession("gone")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if err := st.Remove(ctx, "gone"); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if err := st.Remove(ctx, "gone"); err != nil {
		t.Errorf("second Remove() error = %v, want nil", err)
	}
	if st.Len() != 0 {
		t.Errorf("Len() = %d after remove, want 0", st.Len())
	}
}

func TestMemoryStoreEvictOlderThan(t *testing.T) {
	st := NewMemoryStore()
	defer st.Close()
	ctx := context.Background()

	base := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return base }
	if err := st.Put(ctx, models.NewSession("stale")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	st.now = func() time.Time { return base.Add(29 * time.Minute) }
	if err := st.Put(ctx, models.NewSession("fresh")); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	st.now = func() time.Time { return base.Add(31 * time.Minute) }
	n, err := st.EvictOlderThan(ctx, DefaultTTL)
	if err != nil {
		t.Fatalf("EvictOlderThan() error = %v", err)
	}
	if n != 1 {
		t.Errorf("EvictOlderThan() = %d, want 1", n)
	}

	sess, err := st.Get(ctx, "stale")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if sess.State != models.StateInitial || !sess.Payload.Empty() {
		t.Errorf("evicted session not reset: state=%q", sess.State)
	}
	if _, err := st.Get(ctx, "fresh"); err != nil {
		t.Errorf("fresh session lost: %v", err)
	}
	if st.Len() != 1 {
		t.Errorf("Len() = %d, want 1", st.Len())
	}
}
