package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"agent-suite/internal/domain/entities"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/registry"
	"agent-suite/internal/infra/services"
	"agent-suite/internal/infra/telephony"
)

// OutboundDialer places a call through the telephony provider and
// returns the provider call SID.
type OutboundDialer interface {
	CreateCall(ctx context.Context, toNumber, webhookURL string) (string, error)
}

type TwilioHandlers struct {
	Logger        *logger.Logger
	Calls         *services.CallService
	Conversations *services.ConversationService
	Registry      registry.CallRegistry
	Memory        Iservices.IMemoryService
	Dialer        OutboundDialer
	AppURL        string
}

func NewTwilioHandlers(log *logger.Logger, calls *services.CallService, conversations *services.ConversationService, reg registry.CallRegistry, memory Iservices.IMemoryService, dialer OutboundDialer, appURL string) *TwilioHandlers {
	return &TwilioHandlers{
		Logger:        log,
		Calls:         calls,
		Conversations: conversations,
		Registry:      reg,
		Memory:        memory,
		Dialer:        dialer,
		AppURL:        appURL,
	}
}

// Inbound answers the telephony provider's incoming-call webhook with
// TwiML that greets the caller and opens a speech gather.
func (th *TwilioHandlers) Inbound(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	callSid := r.FormValue("CallSid")
	from := r.FormValue("From")
	customerID := telephony.NormalizePhoneNumber(from)

	th.Logger.Info(fmt.Sprintf("Inbound call from %s (SID: %s)", from, callSid))

	if err := th.Calls.TrackCall(r.Context(), callSid, customerID, from, entities.DirectionInbound, "in-progress"); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to track inbound call %s: %v", callSid, err))
	}

	// Returning callers get acknowledged as such.
	context := th.Memory.BuildCustomerContext(r.Context(), customerID)
	greeting := "Hello and welcome to TechCorp support! I'm your AI assistant. How can I help you today?"
	if !strings.Contains(context, "new customer") {
		greeting = "Welcome back to TechCorp support! I'm your AI assistant. How can I help you today?"
	}

	writeXML(w, telephony.ConversationTwiML(th.AppURL+"/api/twilio/conversation", greeting, customerID))
}

// Outbound places an outbound call through the telephony provider. The
// call fetches its TwiML from OutboundConnect once it connects.
func (th *TwilioHandlers) Outbound(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PhoneNumber string `json:"phoneNumber"`
		CustomerID  string `json:"customerId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "Phone number is required")
		return
	}

	phoneNumber := telephony.NormalizePhoneNumber(body.PhoneNumber)
	customerID := body.CustomerID
	if customerID == "" {
		customerID = phoneNumber
	}

	webhookURL := th.AppURL + "/api/twilio/outbound-connect?customerId=" + url.QueryEscape(customerID)
	th.Logger.Info(fmt.Sprintf("Initiating outbound call to %s", phoneNumber))

	callSid, err := th.Dialer.CreateCall(r.Context(), phoneNumber, webhookURL)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to place outbound call to %s: %v", phoneNumber, err))
		writeError(w, http.StatusInternalServerError, "Failed to initiate call")
		return
	}

	if err := th.Calls.TrackCall(r.Context(), callSid, customerID, phoneNumber, entities.DirectionOutbound, "ringing"); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to track outbound call %s: %v", callSid, err))
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"callSid": callSid,
		"message": fmt.Sprintf("Calling %s...", phoneNumber),
	})
}

// OutboundConnect is the webhook hit when an outbound call is answered.
// It marks the call in progress and opens the speech conversation.
func (th *TwilioHandlers) OutboundConnect(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		customerID = "unknown"
	}
	callSid := r.FormValue("CallSid")

	th.Logger.Info(fmt.Sprintf("Outbound call %s connected", callSid))
	if err := th.Registry.UpdateStatus(r.Context(), callSid, "in-progress"); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to mark call %s in progress: %v", callSid, err))
	}

	context := th.Memory.BuildCustomerContext(r.Context(), customerID)
	greeting := "Hi! This is TechCorp support. I'm an AI assistant calling to help you. How can I assist you today?"
	if !strings.Contains(context, "new customer") {
		greeting = "Hi! This is TechCorp support following up with you. How can I assist you today?"
	}

	writeXML(w, telephony.ConversationTwiML(th.AppURL+"/api/twilio/conversation", greeting, customerID))
}

// Conversation handles one speech-recognition turn: record the
// utterance, generate a reply, speak it, and gather again.
func (th *TwilioHandlers) Conversation(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	speech := r.FormValue("SpeechResult")
	callSid := r.FormValue("CallSid")
	customerID := r.URL.Query().Get("customerId")
	if customerID == "" {
		customerID = "unknown"
	}

	if speech == "" {
		writeXML(w, telephony.ContinueTwiML(th.AppURL+"/api/twilio/conversation", "Sorry, I didn't catch that. Could you say it again?", customerID))
		return
	}

	if err := th.Registry.AppendTranscript(r.Context(), callSid, entities.TranscriptEntry{
		Role:      entities.RoleCustomer,
		Text:      speech,
		Timestamp: time.Now(),
	}); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to append customer turn for %s: %v", callSid, err))
	}

	reply, err := th.Conversations.Reply(r.Context(), customerID, callSid, speech)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to generate reply for %s: %v", callSid, err))
		writeXML(w, telephony.HangupTwiML())
		return
	}

	if err := th.Registry.AppendTranscript(r.Context(), callSid, entities.TranscriptEntry{
		Role:      entities.RoleAgent,
		Text:      reply,
		Timestamp: time.Now(),
	}); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to append agent turn for %s: %v", callSid, err))
	}

	writeXML(w, telephony.ContinueTwiML(th.AppURL+"/api/twilio/conversation", reply, customerID))
}

// Status receives call-status callbacks; terminal statuses close the
// call out.
func (th *TwilioHandlers) Status(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form body", http.StatusBadRequest)
		return
	}

	callSid := r.FormValue("CallSid")
	callStatus := r.FormValue("CallStatus")
	callDuration := r.FormValue("CallDuration")

	th.Logger.Info(fmt.Sprintf("Call status %s for %s", callStatus, callSid))
	th.Calls.HandleTwilioStatus(r.Context(), callSid, callStatus, callDuration)

	writeJSON(w, http.StatusOK, map[string]any{"received": true})
}
