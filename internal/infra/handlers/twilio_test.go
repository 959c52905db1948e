package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"agent-suite/internal/domain/entities"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/registry"
	"agent-suite/internal/infra/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply string
	err   error
}

func (f *fakeLLM) Generate(_ context.Context, _ string) (string, error) {
	return f.reply, f.err
}

func (f *fakeLLM) GenerateWithSystem(_ context.Context, _, _ string) (string, error) {
	return f.reply, f.err
}

type fakeDialer struct {
	sid        string
	err        error
	toNumber   string
	webhookURL string
}

func (f *fakeDialer) CreateCall(_ context.Context, toNumber, webhookURL string) (string, error) {
	f.toNumber = toNumber
	f.webhookURL = webhookURL
	return f.sid, f.err
}

func newTwilioRouter(t *testing.T, llm *fakeLLM) (*mux.Router, *registry.MemoryRegistry, *fakeMemory, *fakeDialer) {
	t.Helper()
	log := testLogger(t)
	reg := registry.NewMemoryRegistry()
	mem := &fakeMemory{}
	dialer := &fakeDialer{sid: "CA-out-1"}
	calls := services.NewCallService(reg, mem, log, "asst-1")
	conversations := services.NewConversationService(llm, mem, log)

	th := NewTwilioHandlers(log, calls, conversations, reg, mem, dialer, "http://localhost:3000")

	router := mux.NewRouter()
	router.HandleFunc("/api/twilio/inbound", th.Inbound).Methods(http.MethodPost)
	router.HandleFunc("/api/twilio/outbound", th.Outbound).Methods(http.MethodPost)
	router.HandleFunc("/api/twilio/outbound-connect", th.OutboundConnect).Methods(http.MethodPost)
	router.HandleFunc("/api/twilio/conversation", th.Conversation).Methods(http.MethodPost)
	router.HandleFunc("/api/twilio/status", th.Status).Methods(http.MethodPost)
	return router, reg, mem, dialer
}

func postForm(t *testing.T, router *mux.Router, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTwilioInbound(t *testing.T) {
	router, reg, _, _ := newTwilioRouter(t, &fakeLLM{})

	rec := postForm(t, router, "/api/twilio/inbound", url.Values{
		"CallSid": {"CA1"},
		"From":    {"5550100"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/xml", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<Gather input=\"speech\"")
	assert.Contains(t, rec.Body.String(), "Hello and welcome to TechCorp support!")

	call, ok, err := reg.GetActiveCall(context.Background(), "CA1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entities.DirectionInbound, call.Direction)
}

func TestTwilioInbound_ReturningCustomerGreeting(t *testing.T) {
	router, _, mem, _ := newTwilioRouter(t, &fakeLLM{})
	mem.results = []Iservices.Memory{{Content: "Had a billing issue last month"}}

	rec := postForm(t, router, "/api/twilio/inbound", url.Values{
		"CallSid": {"CA2"},
		"From":    {"5550100"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome back to TechCorp support!")
}

func TestTwilioConversation(t *testing.T) {
	llm := &fakeLLM{reply: "I can help you reset your router."}
	router, reg, mem, _ := newTwilioRouter(t, llm)

	postForm(t, router, "/api/twilio/inbound", url.Values{"CallSid": {"CA1"}, "From": {"5550100"}})

	rec := postForm(t, router, "/api/twilio/conversation?customerId=%2B15550100", url.Values{
		"CallSid":      {"CA1"},
		"SpeechResult": {"My router is not working"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "I can help you reset your router.")

	// Both turns land in the live transcript.
	call, ok, err := reg.GetActiveCall(context.Background(), "CA1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, call.Transcript, 2)
	assert.Equal(t, entities.RoleCustomer, call.Transcript[0].Role)
	assert.Equal(t, entities.RoleAgent, call.Transcript[1].Role)

	// The exchange is mirrored into memory.
	require.NotEmpty(t, mem.added)
	assert.Contains(t, mem.added[len(mem.added)-1], "My router is not working")
}

func TestTwilioConversation_LLMFailureHangsUp(t *testing.T) {
	llm := &fakeLLM{err: assert.AnError}
	router, _, _, _ := newTwilioRouter(t, llm)

	rec := postForm(t, router, "/api/twilio/conversation?customerId=c1", url.Values{
		"CallSid":      {"CA1"},
		"SpeechResult": {"Hello"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<Hangup />")
}

func TestTwilioOutbound(t *testing.T) {
	router, reg, _, dialer := newTwilioRouter(t, &fakeLLM{})

	req := httptest.NewRequest(http.MethodPost, "/api/twilio/outbound",
		strings.NewReader(`{"phoneNumber": "(555) 010-0200", "customerId": "sam@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"callSid":"CA-out-1"`)
	assert.Equal(t, "+15550100200", dialer.toNumber)
	assert.Contains(t, dialer.webhookURL, "/api/twilio/outbound-connect?customerId=sam%40example.com")

	call, ok, err := reg.GetActiveCall(context.Background(), "CA-out-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, entities.DirectionOutbound, call.Direction)
	assert.Equal(t, "ringing", call.Status)
}

func TestTwilioOutbound_MissingPhone(t *testing.T) {
	router, _, _, _ := newTwilioRouter(t, &fakeLLM{})

	req := httptest.NewRequest(http.MethodPost, "/api/twilio/outbound", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTwilioOutbound_DialerFailure(t *testing.T) {
	router, _, _, dialer := newTwilioRouter(t, &fakeLLM{})
	dialer.err = assert.AnError

	req := httptest.NewRequest(http.MethodPost, "/api/twilio/outbound",
		strings.NewReader(`{"phoneNumber": "5550100200"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestTwilioOutboundConnect(t *testing.T) {
	router, reg, _, _ := newTwilioRouter(t, &fakeLLM{})

	req := httptest.NewRequest(http.MethodPost, "/api/twilio/outbound",
		strings.NewReader(`{"phoneNumber": "5550100200"}`))
	router.ServeHTTP(httptest.NewRecorder(), req)

	rec := postForm(t, router, "/api/twilio/outbound-connect?customerId=%2B15550100200", url.Values{
		"CallSid":    {"CA-out-1"},
		"CallStatus": {"in-progress"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	// The greeting is XML-escaped inside the TwiML, so match a fragment
	// without an apostrophe.
	assert.Contains(t, rec.Body.String(), "an AI assistant calling to help you")

	call, ok, err := reg.GetActiveCall(context.Background(), "CA-out-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "in-progress", call.Status)
}

func TestTwilioStatus_TerminalClosesCall(t *testing.T) {
	router, reg, _, _ := newTwilioRouter(t, &fakeLLM{})

	postForm(t, router, "/api/twilio/inbound", url.Values{"CallSid": {"CA1"}, "From": {"5550100"}})

	rec := postForm(t, router, "/api/twilio/status", url.Values{
		"CallSid":      {"CA1"},
		"CallStatus":   {"completed"},
		"CallDuration": {"42"},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	_, ok, err := reg.GetActiveCall(context.Background(), "CA1")
	require.NoError(t, err)
	assert.False(t, ok)

	history, err := reg.CallHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
}
