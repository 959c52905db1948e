package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"agent-suite/internal/domain/dto"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/services"
)

type TutorHandlers struct {
	Logger *logger.Logger
	Tutor  *services.TutorService
}

func NewTutorHandlers(log *logger.Logger, tutor *services.TutorService) *TutorHandlers {
	return &TutorHandlers{Logger: log, Tutor: tutor}
}

func (th *TutorHandlers) Problems(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"problems": services.Problems()})
}

func (th *TutorHandlers) Execute(w http.ResponseWriter, r *http.Request) {
	var req dto.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	if req.ProblemID == "" || req.Code == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "problemId, code, and userId are required")
		return
	}

	result, err := th.Tutor.Execute(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrProblemNotFound) {
			writeError(w, http.StatusNotFound, "Problem not found")
			return
		}
		th.Logger.Error(fmt.Sprintf("Execution failed for %s on %s: %v", req.UserID, req.ProblemID, err))
		writeError(w, http.StatusBadGateway, "Execution failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (th *TutorHandlers) Hint(w http.ResponseWriter, r *http.Request) {
	var req dto.HintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	if req.ProblemID == "" || req.UserID == "" {
		writeError(w, http.StatusBadRequest, "problemId and userId are required")
		return
	}

	resp, err := th.Tutor.Hint(r.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrProblemNotFound) {
			writeError(w, http.StatusNotFound, "Problem not found")
			return
		}
		th.Logger.Error(fmt.Sprintf("Hint generation failed for %s on %s: %v", req.UserID, req.ProblemID, err))
		writeError(w, http.StatusBadGateway, "Failed to generate hint")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// LearningContext serves the learner's memory context and, when a
// problemId is given, that problem's attempt summary.
func (th *TutorHandlers) LearningContext(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	resp := th.Tutor.LearningContext(r.Context(),
		userID,
		r.URL.Query().Get("problemId"),
		r.URL.Query().Get("category"),
	)
	writeJSON(w, http.StatusOK, resp)
}

// StoreInsight records a learning insight for the learner.
func (th *TutorHandlers) StoreInsight(w http.ResponseWriter, r *http.Request) {
	var req dto.InsightRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	if req.UserID == "" || req.Insight == "" {
		writeError(w, http.StatusBadRequest, "userId and insight are required")
		return
	}

	if err := th.Tutor.StoreInsight(r.Context(), req.UserID, req.Insight, req.Category); err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to store insight for %s: %v", req.UserID, err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (th *TutorHandlers) Progress(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	attempts, err := th.Tutor.Progress(r.Context(), userID)
	if err != nil {
		th.Logger.Error(fmt.Sprintf("Failed to load progress for %s: %v", userID, err))
		writeError(w, http.StatusInternalServerError, "Failed to get progress")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"attempts": attempts})
}
