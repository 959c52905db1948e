package routes

import (
	"net/http"

	"agent-suite/internal/infra/handlers"

	"github.com/gorilla/mux"
)

type TutorRoutes struct {
	Mux   *mux.Router
	Tutor *handlers.TutorHandlers
}

func NewTutorRoutes(mux *mux.Router, tutor *handlers.TutorHandlers) *TutorRoutes {
	return &TutorRoutes{mux, tutor}
}

func (r *TutorRoutes) Init() {
	r.Mux.HandleFunc("/api/problems", r.Tutor.Problems).Methods(http.MethodGet)
	r.Mux.HandleFunc("/api/execute", r.Tutor.Execute).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/hint", r.Tutor.Hint).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/progress", r.Tutor.Progress).Methods(http.MethodGet)
	r.Mux.HandleFunc("/api/memory/context", r.Tutor.LearningContext).Methods(http.MethodGet)
	r.Mux.HandleFunc("/api/memory/context", r.Tutor.StoreInsight).Methods(http.MethodPost)

	registerHealthCheck(r.Mux)
}
