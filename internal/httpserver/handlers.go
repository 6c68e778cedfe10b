package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/shineum/submission-relay/internal/metrics"
	"github.com/shineum/submission-relay/internal/submission"
)

// defaultFailureMessage is reported when an error carries no text.
const defaultFailureMessage = "Failed to send email"

type sendSuccess struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"messageId"`
}

type failure struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type health struct {
	Status   string `json:"status"`
	Provider string `json:"provider"`
}

// handleSendSubmission relays one personalized submission. Every failure is
// reported as JSON; nothing escapes the handler.
func (s *Server) handleSendSubmission(w http.ResponseWriter, r *http.Request) {
	var req submission.Request

	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		metrics.IncrementSubmission(metrics.StatusBadRequest)
		writeJSON(w, http.StatusBadRequest, failure{Error: "invalid request body: " + err.Error()})
		return
	}

	// A submitter closing the page must not abort a send that has started.
	ctx := context.WithoutCancel(r.Context())
	recipient := s.config.Dispatcher.Recipient()

	result, err := s.config.Dispatcher.Dispatch(ctx, req)
	if err != nil {
		metrics.IncrementSubmission(metrics.StatusFailure)
		slog.Error("failed to send submission",
			"recipient", recipient,
			"provider", s.config.Dispatcher.ProviderName(),
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)

		msg := err.Error()
		if msg == "" {
			msg = defaultFailureMessage
		}
		writeJSON(w, http.StatusInternalServerError, failure{Error: msg})
		return
	}

	metrics.IncrementSubmission(metrics.StatusSuccess)
	slog.Info("submission sent",
		"recipient", recipient,
		"message_id", result.MessageID,
		"request_id", middleware.GetReqID(r.Context()),
	)

	writeJSON(w, http.StatusOK, sendSuccess{OK: true, MessageID: result.MessageID})
}

func (s *Server) handleComposeLinks(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.config.Composer.ComposeLinks())
}

func (s *Server) handleLetter(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, submission.Letter())
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, health{Status: "ok", Provider: s.config.Dispatcher.ProviderName()})
}

// writeJSON writes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("failed to write response", "error", err)
	}
}
