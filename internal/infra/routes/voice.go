package routes

import (
	"encoding/json"
	"net/http"

	"agent-suite/internal/infra/handlers"

	"github.com/gorilla/mux"
)

type VoiceRoutes struct {
	Mux         *mux.Router
	Voice       *handlers.VoiceHandlers
	Twilio      *handlers.TwilioHandlers
	MediaStream *handlers.MediaStreamHandler
}

func NewVoiceRoutes(mux *mux.Router, voice *handlers.VoiceHandlers, twilio *handlers.TwilioHandlers, mediaStream *handlers.MediaStreamHandler) *VoiceRoutes {
	return &VoiceRoutes{mux, voice, twilio, mediaStream}
}

func (r *VoiceRoutes) Init() {
	r.Mux.HandleFunc("/api/vapi/webhook", r.Voice.VapiWebhook).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/vapi/call", r.Voice.StartOutboundCall).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/vapi/call", r.Voice.ListProviderCalls).Methods(http.MethodGet)
	r.Mux.HandleFunc("/api/vapi/call", r.Voice.EndProviderCall).Methods(http.MethodDelete)

	r.Mux.HandleFunc("/api/calls/active", r.Voice.ActiveCalls).Methods(http.MethodGet)
	r.Mux.HandleFunc("/api/calls/{id}", r.Voice.GetCall).Methods(http.MethodGet)
	r.Mux.HandleFunc("/api/calls", r.Voice.CallsOverview).Methods(http.MethodGet)
	r.Mux.HandleFunc("/api/customers/{id}/memories", r.Voice.CustomerMemories).Methods(http.MethodGet)

	r.Mux.HandleFunc("/api/twilio/inbound", r.Twilio.Inbound).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/twilio/outbound", r.Twilio.Outbound).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/twilio/outbound-connect", r.Twilio.OutboundConnect).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/twilio/conversation", r.Twilio.Conversation).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/twilio/status", r.Twilio.Status).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/twilio/media-stream", r.MediaStream.Handle)

	registerHealthCheck(r.Mux)
}

func registerHealthCheck(m *mux.Router) {
	m.HandleFunc("/healthCheck", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods(http.MethodGet)
}
