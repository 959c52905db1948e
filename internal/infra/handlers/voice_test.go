package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"agent-suite/internal/domain/dto"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/registry"
	"agent-suite/internal/infra/services"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemory struct {
	mu      sync.Mutex
	added   []string
	results []Iservices.Memory
}

func (f *fakeMemory) Add(_ context.Context, content string, _ string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, content)
	return nil
}

func (f *fakeMemory) Search(_ context.Context, _ string, _ string, _ int) ([]Iservices.Memory, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.results, nil
}

func (f *fakeMemory) BuildCustomerContext(_ context.Context, _ string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.results) == 0 {
		return "This is a new customer with no previous interaction history."
	}
	return "Customer interaction history:\n1. " + f.results[0].Content
}

type fakeVoiceProvider struct {
	started []dto.OutboundCallRequest
	listed  []Iservices.OutboundCall
	ended   []string
	fail    bool
}

func (f *fakeVoiceProvider) StartOutboundCall(_ context.Context, _ string, _ string, req dto.OutboundCallRequest) (Iservices.OutboundCall, error) {
	if f.fail {
		return Iservices.OutboundCall{}, errors.New("provider down")
	}
	f.started = append(f.started, req)
	return Iservices.OutboundCall{ID: "call-out-1", Status: "ringing"}, nil
}

func (f *fakeVoiceProvider) ListCalls(_ context.Context, _ int) ([]Iservices.OutboundCall, error) {
	if f.fail {
		return nil, errors.New("provider down")
	}
	return f.listed, nil
}

func (f *fakeVoiceProvider) EndCall(_ context.Context, callID string) error {
	if f.fail {
		return errors.New("provider down")
	}
	f.ended = append(f.ended, callID)
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	return logger.NewLogger(context.Background(), true)
}

func newVoiceRouter(t *testing.T) (*mux.Router, *registry.MemoryRegistry, *fakeMemory, *fakeVoiceProvider) {
	t.Helper()
	log := testLogger(t)
	reg := registry.NewMemoryRegistry()
	mem := &fakeMemory{}
	voice := &fakeVoiceProvider{}
	calls := services.NewCallService(reg, mem, log, "asst-1")

	vh := NewVoiceHandlers(log, calls, reg, mem, voice)

	router := mux.NewRouter()
	router.HandleFunc("/api/vapi/webhook", vh.VapiWebhook).Methods(http.MethodPost)
	router.HandleFunc("/api/vapi/call", vh.StartOutboundCall).Methods(http.MethodPost)
	router.HandleFunc("/api/vapi/call", vh.ListProviderCalls).Methods(http.MethodGet)
	router.HandleFunc("/api/vapi/call", vh.EndProviderCall).Methods(http.MethodDelete)
	router.HandleFunc("/api/calls/active", vh.ActiveCalls).Methods(http.MethodGet)
	router.HandleFunc("/api/calls/{id}", vh.GetCall).Methods(http.MethodGet)
	router.HandleFunc("/api/calls", vh.CallsOverview).Methods(http.MethodGet)
	router.HandleFunc("/api/customers/{id}/memories", vh.CustomerMemories).Methods(http.MethodGet)
	return router, reg, mem, voice
}

func do(t *testing.T, router *mux.Router, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// Full lifecycle over the HTTP surface: ringing webhook, transcript
// webhook, poll, end-of-call report, poll again.
func TestVoiceWebhookLifecycle(t *testing.T) {
	router, reg, mem, _ := newVoiceRouter(t)

	rec := do(t, router, http.MethodPost, "/api/vapi/webhook", `{
		"message": {"type": "status-update", "status": "ringing", "call": {"id": "c1", "customer": {"number": "+15550100"}}}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())

	rec = do(t, router, http.MethodGet, "/api/calls/active?callId=c1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var single struct {
		Call dto.CallProjection `json:"call"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &single))
	assert.Equal(t, "ringing", single.Call.Status)
	assert.Empty(t, single.Call.Transcript)

	rec = do(t, router, http.MethodPost, "/api/vapi/webhook", `{
		"message": {"type": "transcript", "call": {"id": "c1"}, "transcript": [{"role": "user", "text": "Hello"}]}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/calls/active?callId=c1", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &single))
	require.Len(t, single.Call.Transcript, 1)
	assert.Equal(t, "Hello", single.Call.Transcript[0].Text)

	rec = do(t, router, http.MethodPost, "/api/vapi/webhook", `{
		"message": {
			"type": "end-of-call-report",
			"call": {"id": "c1", "customer": {"number": "+15550100"}},
			"transcript": [{"role": "user", "text": "Hello"}]
		}
	}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())

	// The ended call leaves the active set but the poller still gets 200.
	rec = do(t, router, http.MethodGet, "/api/calls/active?callId=c1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var notFound map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &notFound))
	assert.Equal(t, "not_found", notFound["status"])

	history, err := reg.CallHistory(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.GreaterOrEqual(t, history[0].MemoriesStored, 1)
	assert.NotEmpty(t, mem.added)
}

func TestVapiWebhook_MalformedBodyStillAcknowledged(t *testing.T) {
	router, _, _, _ := newVoiceRouter(t)
	rec := do(t, router, http.MethodPost, "/api/vapi/webhook", `{not json`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())
}

func TestActiveCalls_List(t *testing.T) {
	router, _, _, _ := newVoiceRouter(t)

	do(t, router, http.MethodPost, "/api/vapi/webhook", `{
		"message": {"type": "status-update", "status": "in-progress", "call": {"id": "c1", "customer": {"number": "+15550100"}}}
	}`)

	rec := do(t, router, http.MethodGet, "/api/calls/active", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var list struct {
		Calls []dto.ActiveCallSummary `json:"calls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Calls, 1)
	assert.Equal(t, "c1", list.Calls[0].ID)
	assert.Equal(t, 0, list.Calls[0].TranscriptCount)
}

func TestGetCall_NotFound(t *testing.T) {
	router, _, _, _ := newVoiceRouter(t)
	rec := do(t, router, http.MethodGet, "/api/calls/ghost", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallsOverview(t *testing.T) {
	router, _, _, _ := newVoiceRouter(t)

	do(t, router, http.MethodPost, "/api/vapi/webhook", `{
		"message": {"type": "status-update", "status": "in-progress", "call": {"id": "c1"}}
	}`)
	do(t, router, http.MethodPost, "/api/vapi/webhook", `{
		"message": {"type": "end-of-call-report", "call": {"id": "c1"}}
	}`)

	rec := do(t, router, http.MethodGet, "/api/calls", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var overview dto.CallsOverview
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &overview))
	assert.Empty(t, overview.Active)
	assert.Len(t, overview.History, 1)
	assert.Equal(t, int64(1), overview.Stats.TotalToday)
	assert.Equal(t, 0, overview.Stats.ActiveCount)
}

func TestStartOutboundCall(t *testing.T) {
	router, reg, _, voice := newVoiceRouter(t)

	rec := do(t, router, http.MethodPost, "/api/vapi/call", `{
		"phoneNumber": "(555) 010-0200", "customerEmail": "sam@example.com", "customerName": "Sam"
	}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp dto.OutboundCallResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "call-out-1", resp.CallID)
	assert.Equal(t, "sam@example.com", resp.CustomerID)
	require.Len(t, voice.started, 1)

	// Outbound calls are tracked from the moment they are placed.
	call, ok, err := reg.GetActiveCall(context.Background(), "call-out-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "outbound", call.Direction)
	assert.Equal(t, "+15550100200", call.CustomerPhone)
}

func TestStartOutboundCall_MissingPhone(t *testing.T) {
	router, _, _, _ := newVoiceRouter(t)
	rec := do(t, router, http.MethodPost, "/api/vapi/call", `{"customerName": "Sam"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListProviderCalls(t *testing.T) {
	router, _, _, voice := newVoiceRouter(t)
	voice.listed = []Iservices.OutboundCall{{ID: "call-1", Status: "ended", Customer: "+15550100"}}

	rec := do(t, router, http.MethodGet, "/api/vapi/call", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Calls []Iservices.OutboundCall `json:"calls"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Calls, 1)
	assert.Equal(t, "call-1", resp.Calls[0].ID)
}

func TestEndProviderCall(t *testing.T) {
	router, _, _, voice := newVoiceRouter(t)

	rec := do(t, router, http.MethodDelete, "/api/vapi/call?callId=call-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success": true}`, rec.Body.String())
	assert.Equal(t, []string{"call-1"}, voice.ended)
}

func TestEndProviderCall_MissingID(t *testing.T) {
	router, _, _, _ := newVoiceRouter(t)
	rec := do(t, router, http.MethodDelete, "/api/vapi/call", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCustomerMemories(t *testing.T) {
	router, _, mem, _ := newVoiceRouter(t)
	mem.results = []Iservices.Memory{{Content: "Prefers email"}}

	rec := do(t, router, http.MethodGet, "/api/customers/sam%40example.com/memories?q=preferences", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Memories []Iservices.Memory `json:"memories"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Memories, 1)
	assert.Equal(t, "Prefers email", resp.Memories[0].Content)
}
