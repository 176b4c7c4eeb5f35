package messaging

import (
	"context"
	"testing"

	"github.com/brianmaseno/medtech/internal/twiliosms"
)

func TestCanonicalizePhone(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"+254712345678", "+254712345678", false},
		{"0712345678", "+254712345678", false},
		{"712345678", "+254712345678", false},
		{"112345678", "+254112345678", false},
		{"254712345678", "+254712345678", false},
		{"0712 345 678", "+254712345678", false},
		{"0712-345-678", "+254712345678", false},
		{"", "", true},
		{"+14155550100", "", true},
		{"+25471234567", "", true},   // too short
		{"+2547123456789", "", true}, // too long
		{"+254912345678", "", true},  // bad network prefix
	}
	for _, c := range cases {
		got, err := CanonicalizePhone(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("CanonicalizePhone(%q) error = nil, want error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("CanonicalizePhone(%q) error = %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("CanonicalizePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestTwilioServiceSendMessageCanonicalizes(t *testing.T) {
	client := twiliosms.NewMockClient()
	svc := NewTwilioService(client)

	if err := svc.SendMessage(context.Background(), "0712345678", "hello"); err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if len(client.SentMessages) != 1 {
		t.Fatalf("sent count = %d, want 1", len(client.SentMessages))
	}
	if client.SentMessages[0].To != "+254712345678" {
		t.Errorf("sent to = %q, want canonical +254712345678", client.SentMessages[0].To)
	}
}

func TestTwilioServiceRejectsInvalidRecipient(t *testing.T) {
	client := twiliosms.NewMockClient()
	svc := NewTwilioService(client)

	if err := svc.SendMessage(context.Background(), "not-a-number", "hello"); err == nil {
		t.Error("SendMessage() error = nil, want validation error")
	}
	if len(client.SentMessages) != 0 {
		t.Errorf("sent count = %d, want 0", len(client.SentMessages))
	}
}

func TestTwilioServiceStopRejectsSends(t *testing.T) {
	svc := NewTwilioService(twiliosms.NewMockClient())
	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	if err := svc.SendMessage(context.Background(), "+254712345678", "hello"); err != ErrServiceStopped {
		t.Errorf("SendMessage() after Stop error = %v, want ErrServiceStopped", err)
	}
}
