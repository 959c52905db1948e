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
)

type ReviewHandlers struct {
	Logger  *logger.Logger
	Reviews *services.ReviewService
	GitHub  *services.GitHubService
}

func NewReviewHandlers(log *logger.Logger, reviews *services.ReviewService, github *services.GitHubService) *ReviewHandlers {
	return &ReviewHandlers{Logger: log, Reviews: reviews, GitHub: github}
}

func (rh *ReviewHandlers) Review(w http.ResponseWriter, r *http.Request) {
	var req dto.ReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	defer r.Body.Close()

	if req.Code == "" || req.Language == "" || req.DeveloperID == "" {
		writeError(w, http.StatusBadRequest, "code, language, and developerId are required")
		return
	}

	result, err := rh.Reviews.Review(r.Context(), req)
	if err != nil {
		rh.Logger.Error(fmt.Sprintf("Review failed for %s: %v", req.DeveloperID, err))
		writeError(w, http.StatusBadGateway, "Failed to review code")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"review": result})
}

// GitHubFetch pulls a file from a public github.com URL so its content
// can be submitted for review.
func (rh *ReviewHandlers) GitHubFetch(w http.ResponseWriter, r *http.Request) {
	pageURL := r.URL.Query().Get("url")
	if pageURL == "" {
		writeError(w, http.StatusBadRequest, "URL required")
		return
	}

	file, err := rh.GitHub.FetchFile(r.Context(), pageURL)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, file)
	case errors.Is(err, services.ErrGitHubFileNotFound):
		writeError(w, http.StatusNotFound, "File not found. The file may not exist or the repo might be private.")
	case errors.Is(err, services.ErrGitHubDirectoryURL):
		writeError(w, http.StatusBadRequest, "This is a directory URL. Please provide a file URL instead (change /tree/ to /blob/ and add a filename).")
	case errors.Is(err, services.ErrGitHubNoEntryFile):
		writeError(w, http.StatusBadRequest, "Could not find a code file in this repo. Please provide a direct file URL.")
	case errors.Is(err, services.ErrGitHubInvalidURL):
		writeError(w, http.StatusBadRequest, "Invalid GitHub URL format. Expected https://github.com/user/repo/blob/branch/path/file")
	default:
		rh.Logger.Error(fmt.Sprintf("GitHub fetch failed for %s: %v", pageURL, err))
		writeError(w, http.StatusInternalServerError, "Failed to fetch from GitHub. Make sure the repo is public and the URL is correct.")
	}
}

func (rh *ReviewHandlers) Search(w http.ResponseWriter, r *http.Request) {
	developerID := r.URL.Query().Get("developerId")
	query := r.URL.Query().Get("q")
	if developerID == "" || query == "" {
		writeError(w, http.StatusBadRequest, "developerId and q are required")
		return
	}

	memories, err := rh.Reviews.SearchReviews(r.Context(), developerID, query)
	if err != nil {
		rh.Logger.Error(fmt.Sprintf("Review search failed for %s: %v", developerID, err))
		writeError(w, http.StatusBadGateway, "Search failed")
		return
	}
	if memories == nil {
		memories = []Iservices.Memory{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": memories})
}
