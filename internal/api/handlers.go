package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/brianmaseno/medtech/internal/models"
)

// ussdErrorReply is the framed reply sent when a turn cannot be processed.
// USSD gateways show whatever text follows END, so it must stay user-facing.
const ussdErrorReply = "END Sorry, we encountered an error. Please try again later."

// ussdHandler services the Africa's Talking USSD callback. The gateway posts
// form fields sessionId, serviceCode, phoneNumber and text, where text is the
// full *-joined input path for the session; only the last segment is new.
func (s *Server) ussdHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.ussdHandler: processing USSD request", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.ussdHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		slog.Warn("Server.ussdHandler: failed to parse form", "error", err)
		writeUSSD(w, ussdErrorReply)
		return
	}

	sessionID := r.FormValue("sessionId")
	phone := r.FormValue("phoneNumber")
	text := r.FormValue("text")

	canonical, err := s.msgService.ValidateAndCanonicalizeRecipient(phone)
	if err != nil {
		slog.Warn("Server.ussdHandler: recipient validation failed", "error", err, "phone", phone)
		writeUSSD(w, ussdErrorReply)
		return
	}

	reply, terminal, err := s.conversations.HandleTurn(r.Context(), canonical, sessionID, models.SurfaceUSSD, lastSegment(text))
	if err != nil {
		slog.Error("Server.ussdHandler: turn failed", "error", err, "session_id", sessionID)
		writeUSSD(w, ussdErrorReply)
		return
	}

	prefix := "CON "
	if terminal {
		prefix = "END "
	}
	slog.Debug("Server.ussdHandler: turn completed", "session_id", sessionID, "terminal", terminal)
	writeUSSD(w, prefix+reply)
}

// lastSegment returns the newest input from the *-joined USSD text path.
func lastSegment(text string) string {
	if text == "" {
		return ""
	}
	parts := strings.Split(text, "*")
	return parts[len(parts)-1]
}

func writeUSSD(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(body)); err != nil {
		slog.Error("Server.writeUSSD: failed to write response", "error", err)
	}
}

// smsCallbackRequest is the inbound SMS webhook payload.
type smsCallbackRequest struct {
	From string `json:"from"`
	Text string `json:"text"`
}

// smsCallbackHandler services inbound SMS. The phone number doubles as the
// session key, so SMS conversations survive gaps between messages until the
// session TTL expires. The reply goes out through the messaging service.
func (s *Server) smsCallbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Body != nil {
		defer r.Body.Close()
	}
	slog.Debug("Server.smsCallbackHandler: processing SMS callback", "method", r.Method)
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		slog.Warn("Server.smsCallbackHandler: method not allowed", "method", r.Method)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req smsCallbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Server.smsCallbackHandler: failed to decode JSON", "error", err)
		writeJSONResponse(w, http.StatusBadRequest, errorResponse("Invalid JSON format"))
		return
	}

	canonical, err := s.msgService.ValidateAndCanonicalizeRecipient(req.From)
	if err != nil {
		slog.Warn("Server.smsCallbackHandler: recipient validation failed", "error", err, "from", req.From)
		writeJSONResponse(w, http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	reply, terminal, err := s.conversations.HandleTurn(r.Context(), canonical, canonical, models.SurfaceSMS, req.Text)
	if err != nil {
		slog.Error("Server.smsCallbackHandler: turn failed", "error", err, "from", canonical)
		writeJSONResponse(w, http.StatusInternalServerError, errorResponse("Failed to process message"))
		return
	}

	if err := s.msgService.SendMessage(r.Context(), canonical, reply); err != nil {
		slog.Error("Server.smsCallbackHandler: failed to send reply", "error", err, "to", canonical)
		writeJSONResponse(w, http.StatusInternalServerError, errorResponse("Failed to send reply"))
		return
	}

	slog.Info("Server.smsCallbackHandler: reply sent", "to", canonical, "terminal", terminal)
	writeJSONResponse(w, http.StatusOK, successResponse("Message processed"))
}

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}
