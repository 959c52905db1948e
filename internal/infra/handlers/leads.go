package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"agent-suite/internal/domain/dto"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/services"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/mongo"
)

type LeadHandlers struct {
	Logger *logger.Logger
	Leads  *services.LeadService
}

func NewLeadHandlers(log *logger.Logger, leads *services.LeadService) *LeadHandlers {
	return &LeadHandlers{Logger: log, Leads: leads}
}

func (lh *LeadHandlers) List(w http.ResponseWriter, r *http.Request) {
	leads, stats, err := lh.Leads.ListLeads(r.Context())
	if err != nil {
		lh.Logger.Error(fmt.Sprintf("Failed to list leads: %v", err))
		writeError(w, http.StatusInternalServerError, "Failed to list leads")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"leads": leads, "stats": stats})
}

func (lh *LeadHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	if req.Name == "" || req.Email == "" || req.Company == "" {
		writeError(w, http.StatusBadRequest, "name, email, and company are required")
		return
	}

	lead, err := lh.Leads.CreateLead(r.Context(), req)
	if err != nil {
		lh.Logger.Error(fmt.Sprintf("Failed to create lead: %v", err))
		writeError(w, http.StatusInternalServerError, "Failed to create lead")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"lead": lead})
}

func (lh *LeadHandlers) Get(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	lead, err := lh.Leads.GetLead(r.Context(), id)
	if err != nil {
		lh.notFoundOrError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lead": lead})
}

func (lh *LeadHandlers) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req dto.UpdateLeadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	lead, err := lh.Leads.UpdateLead(r.Context(), id, req)
	if err != nil {
		lh.notFoundOrError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lead": lead})
}

func (lh *LeadHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := lh.Leads.DeleteLead(r.Context(), id); err != nil {
		lh.Logger.Error(fmt.Sprintf("Failed to delete lead %s: %v", id, err))
		writeError(w, http.StatusInternalServerError, "Failed to delete lead")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (lh *LeadHandlers) Score(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	result, err := lh.Leads.ScoreLead(r.Context(), id)
	if err != nil {
		lh.notFoundOrError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (lh *LeadHandlers) Email(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	body := struct {
		EmailType string `json:"emailType"`
	}{EmailType: "cold"}
	json.NewDecoder(r.Body).Decode(&body)
	defer r.Body.Close()

	draft, err := lh.Leads.GenerateEmail(r.Context(), id, body.EmailType)
	if err != nil {
		lh.notFoundOrError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"email": draft})
}

func (lh *LeadHandlers) LinkedIn(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	body := struct {
		MessageType string `json:"messageType"`
	}{MessageType: "connection"}
	json.NewDecoder(r.Body).Decode(&body)
	defer r.Body.Close()

	message, err := lh.Leads.GenerateLinkedInMessage(r.Context(), id, body.MessageType)
	if err != nil {
		lh.notFoundOrError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"message": message})
}

func (lh *LeadHandlers) CallScript(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	body := struct {
		Objective string `json:"objective"`
	}{}
	json.NewDecoder(r.Body).Decode(&body)
	defer r.Body.Close()

	script, err := lh.Leads.GenerateCallScript(r.Context(), id, body.Objective)
	if err != nil {
		lh.notFoundOrError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"script": script})
}

func (lh *LeadHandlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if query == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	memories, err := lh.Leads.SearchMemories(r.Context(), query)
	if err != nil {
		lh.Logger.Error(fmt.Sprintf("Memory search failed: %v", err))
		writeError(w, http.StatusBadGateway, "Search failed")
		return
	}
	if memories == nil {
		memories = []Iservices.Memory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": memories})
}

func (lh *LeadHandlers) notFoundOrError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, mongo.ErrNoDocuments) {
		writeError(w, http.StatusNotFound, "Lead not found")
		return
	}
	lh.Logger.Error(fmt.Sprintf("Lead operation failed for %s: %v", id, err))
	writeError(w, http.StatusInternalServerError, "Internal error")
}
