package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"agent-suite/internal/domain/dto"
	"agent-suite/internal/domain/entities"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/registry"
	"agent-suite/internal/infra/services"
	"agent-suite/internal/infra/telephony"

	"github.com/gorilla/mux"
)

type VoiceHandlers struct {
	Logger   *logger.Logger
	Calls    *services.CallService
	Registry registry.CallRegistry
	Memory   Iservices.IMemoryService
	Voice    Iservices.IVoiceProvider
}

func NewVoiceHandlers(log *logger.Logger, calls *services.CallService, reg registry.CallRegistry, memory Iservices.IMemoryService, voice Iservices.IVoiceProvider) *VoiceHandlers {
	return &VoiceHandlers{Logger: log, Calls: calls, Registry: reg, Memory: memory, Voice: voice}
}

// VapiWebhook receives provider call events. The provider retries on
// non-200 and a retried mutation is worse than a dropped one, so every
// delivery is answered 200 no matter what happened inside.
func (vh *VoiceHandlers) VapiWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var event dto.WebhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		vh.Logger.Error(fmt.Sprintf("Unparsable webhook payload: %v", err))
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
		return
	}
	defer r.Body.Close()

	out := func() (out map[string]any) {
		defer func() {
			if rec := recover(); rec != nil {
				vh.Logger.Error(fmt.Sprintf("Recovered from panic in webhook dispatch: %v", rec))
				out = map[string]any{"success": true}
			}
		}()
		return vh.Calls.Dispatch(r.Context(), &event)
	}()

	writeJSON(w, http.StatusOK, out)
}

// StartOutboundCall triggers a provider-dialed call to the customer.
func (vh *VoiceHandlers) StartOutboundCall(w http.ResponseWriter, r *http.Request) {
	var req dto.OutboundCallRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	if req.PhoneNumber == "" {
		writeError(w, http.StatusBadRequest, "phoneNumber is required")
		return
	}

	phone := telephony.NormalizePhoneNumber(req.PhoneNumber)
	customerID := req.CustomerEmail
	if customerID == "" {
		customerID = phone
	}

	call, err := vh.Voice.StartOutboundCall(r.Context(), phone, customerID, req)
	if err != nil {
		vh.Logger.Error(fmt.Sprintf("Failed to start outbound call to %s: %v", phone, err))
		writeError(w, http.StatusBadGateway, "Failed to start call")
		return
	}

	if err := vh.Calls.TrackCall(r.Context(), call.ID, customerID, phone, "outbound", call.Status); err != nil {
		vh.Logger.Error(fmt.Sprintf("Failed to track outbound call %s: %v", call.ID, err))
	}

	writeJSON(w, http.StatusOK, dto.OutboundCallResponse{
		Success:    true,
		CallID:     call.ID,
		Status:     call.Status,
		CustomerID: customerID,
	})
}

// ListProviderCalls serves the provider's recent-call listing.
func (vh *VoiceHandlers) ListProviderCalls(w http.ResponseWriter, r *http.Request) {
	calls, err := vh.Voice.ListCalls(r.Context(), 20)
	if err != nil {
		vh.Logger.Error(fmt.Sprintf("Failed to list provider calls: %v", err))
		writeError(w, http.StatusBadGateway, "Failed to list calls")
		return
	}
	if calls == nil {
		calls = []Iservices.OutboundCall{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": calls})
}

// EndProviderCall asks the provider to hang up the call named by callId.
func (vh *VoiceHandlers) EndProviderCall(w http.ResponseWriter, r *http.Request) {
	callID := r.URL.Query().Get("callId")
	if callID == "" {
		writeError(w, http.StatusBadRequest, "Call ID is required")
		return
	}

	if err := vh.Voice.EndCall(r.Context(), callID); err != nil {
		vh.Logger.Error(fmt.Sprintf("Failed to end call %s: %v", callID, err))
		writeError(w, http.StatusBadGateway, "Failed to end call")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ActiveCalls serves the polling UI: one call's projection when callId
// is given, otherwise summaries of every live call. A missing call is a
// 200 with a not_found status, not a 404, so the poller can keep its
// happy path.
func (vh *VoiceHandlers) ActiveCalls(w http.ResponseWriter, r *http.Request) {
	callID := r.URL.Query().Get("callId")

	if callID != "" {
		call, ok, err := vh.Registry.GetActiveCall(r.Context(), callID)
		if err != nil {
			vh.Logger.Error(fmt.Sprintf("Failed to read call %s: %v", callID, err))
			writeError(w, http.StatusInternalServerError, "Failed to fetch call status")
			return
		}
		if !ok {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":  "not_found",
				"message": "Call not found or has ended",
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"call": dto.CallProjection{
			ID:            call.ID,
			CustomerID:    call.CustomerID,
			CustomerPhone: call.CustomerPhone,
			Direction:     call.Direction,
			Status:        call.Status,
			StartTime:     call.StartTime,
			Transcript:    call.Transcript,
			Sentiment:     call.Sentiment,
		}})
		return
	}

	calls, err := vh.Registry.ListActiveCalls(r.Context())
	if err != nil {
		vh.Logger.Error(fmt.Sprintf("Failed to list active calls: %v", err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch call status")
		return
	}

	summaries := make([]dto.ActiveCallSummary, 0, len(calls))
	for _, call := range calls {
		summaries = append(summaries, dto.ActiveCallSummary{
			ID:              call.ID,
			CustomerID:      call.CustomerID,
			CustomerPhone:   call.CustomerPhone,
			Direction:       call.Direction,
			Status:          call.Status,
			StartTime:       call.StartTime,
			TranscriptCount: len(call.Transcript),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": summaries})
}

// GetCall serves one live call, 404 when it is unknown or already ended.
func (vh *VoiceHandlers) GetCall(w http.ResponseWriter, r *http.Request) {
	callID := mux.Vars(r)["id"]

	call, ok, err := vh.Registry.GetActiveCall(r.Context(), callID)
	if err != nil {
		vh.Logger.Error(fmt.Sprintf("Failed to read call %s: %v", callID, err))
		writeError(w, http.StatusInternalServerError, "Internal error")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Call not found")
		return
	}
	writeJSON(w, http.StatusOK, call)
}

// CallsOverview serves the dashboard: live calls, recent history, and
// today's counters. Registry trouble degrades to an empty overview so
// the dashboard renders instead of erroring.
func (vh *VoiceHandlers) CallsOverview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	active, errActive := vh.Registry.ListActiveCalls(ctx)
	history, errHistory := vh.Registry.CallHistory(ctx, 20)
	stats, errStats := vh.Registry.DailyStats(ctx)

	if errActive != nil || errHistory != nil || errStats != nil {
		vh.Logger.Error(fmt.Sprintf("Failed to build calls overview: %v %v %v", errActive, errHistory, errStats))
		writeJSON(w, http.StatusOK, dto.CallsOverview{
			Active:  []entities.LiveCall{},
			History: []entities.CallHistory{},
		})
		return
	}

	writeJSON(w, http.StatusOK, dto.CallsOverview{
		Active:  active,
		History: history,
		Stats: dto.OverviewStats{
			ActiveCount:    len(active),
			TotalToday:     stats.TotalCalls,
			AvgDuration:    stats.AvgDuration,
			MemoriesStored: stats.MemoriesStored,
		},
	})
}

// CustomerMemories serves a customer's stored memories.
func (vh *VoiceHandlers) CustomerMemories(w http.ResponseWriter, r *http.Request) {
	customerID := mux.Vars(r)["id"]
	query := r.URL.Query().Get("q")
	if query == "" {
		query = "customer history"
	}

	memories, err := vh.Memory.Search(r.Context(), query, customerID, 20)
	if err != nil {
		vh.Logger.Error(fmt.Sprintf("Failed to search memories for %s: %v", customerID, err))
		writeError(w, http.StatusBadGateway, "Failed to fetch memories")
		return
	}
	if memories == nil {
		memories = []Iservices.Memory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"memories": memories})
}
