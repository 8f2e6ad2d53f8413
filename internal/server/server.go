// Package server exposes the WhatsApp webhook over HTTP.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

// MessageHandler processes one inbound user message.
type MessageHandler interface {
	HandleMessage(ctx context.Context, from, text string) error
}

// Server terminates the Meta webhook: the GET verification handshake and the
// POST message delivery.
type Server struct {
	handler     MessageHandler
	verifyToken string
	mux         *http.ServeMux
	logger      *slog.Logger
}

// NewServer creates the webhook server.
func NewServer(handler MessageHandler, verifyToken string, logger *slog.Logger) *Server {
	s := &Server{
		handler:     handler,
		verifyToken: verifyToken,
		mux:         http.NewServeMux(),
		logger:      logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /webhook", s.handleVerify)
	s.mux.HandleFunc("POST /webhook", s.handleMessages)
}

// Handler returns the HTTP handler for this server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// handleVerify answers Meta's subscription handshake: echo hub.challenge when
// the verify token matches.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("hub.mode") != "subscribe" || q.Get("hub.verify_token") != s.verifyToken {
		s.logger.Warn("webhook verification rejected", "mode", q.Get("hub.mode"))
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(q.Get("hub.challenge")))
}

// handleMessages ingests a webhook delivery. The response is always 200 once
// the payload parses: Meta re-delivers on non-2xx, and re-processing a
// message the assistant already answered would double-reply.
func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 60*time.Second)
	defer cancel()

	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		s.logger.Warn("unreadable webhook payload", "error", err)
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	for _, msg := range payload.textMessages() {
		if err := s.handler.HandleMessage(ctx, msg.From, msg.Text.Body); err != nil {
			s.logger.Error("message handling failed", "from", msg.From, "message_id", msg.ID, "error", err)
		}
	}

	w.WriteHeader(http.StatusOK)
}

// Webhook payload shapes, per the WhatsApp Cloud API delivery format.
type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

// textMessages flattens the delivery envelope down to the text messages.
func (p webhookPayload) textMessages() []inboundMessage {
	var msgs []inboundMessage
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.From == "" {
					continue
				}
				msgs = append(msgs, msg)
			}
		}
	}
	return msgs
}
