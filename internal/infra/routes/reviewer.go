package routes

import (
	"net/http"

	"agent-suite/internal/infra/handlers"

	"github.com/gorilla/mux"
)

type ReviewerRoutes struct {
	Mux     *mux.Router
	Reviews *handlers.ReviewHandlers
}

func NewReviewerRoutes(mux *mux.Router, reviews *handlers.ReviewHandlers) *ReviewerRoutes {
	return &ReviewerRoutes{mux, reviews}
}

func (r *ReviewerRoutes) Init() {
	r.Mux.HandleFunc("/api/review", r.Reviews.Review).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/github", r.Reviews.GitHubFetch).Methods(http.MethodGet)
	r.Mux.HandleFunc("/api/search", r.Reviews.Search).Methods(http.MethodGet)

	registerHealthCheck(r.Mux)
}
