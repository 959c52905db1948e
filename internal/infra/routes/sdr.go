package routes

import (
	"net/http"

	"agent-suite/internal/infra/handlers"

	"github.com/gorilla/mux"
)

type SdrRoutes struct {
	Mux   *mux.Router
	Leads *handlers.LeadHandlers
}

func NewSdrRoutes(mux *mux.Router, leads *handlers.LeadHandlers) *SdrRoutes {
	return &SdrRoutes{mux, leads}
}

func (r *SdrRoutes) Init() {
	r.Mux.HandleFunc("/api/leads", r.Leads.List).Methods(http.MethodGet)
	r.Mux.HandleFunc("/api/leads", r.Leads.Create).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/leads/{id}", r.Leads.Get).Methods(http.MethodGet)
	r.Mux.HandleFunc("/api/leads/{id}", r.Leads.Update).Methods(http.MethodPatch)
	r.Mux.HandleFunc("/api/leads/{id}", r.Leads.Delete).Methods(http.MethodDelete)

	r.Mux.HandleFunc("/api/leads/{id}/score", r.Leads.Score).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/leads/{id}/email", r.Leads.Email).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/leads/{id}/linkedin", r.Leads.LinkedIn).Methods(http.MethodPost)
	r.Mux.HandleFunc("/api/leads/{id}/call", r.Leads.CallScript).Methods(http.MethodPost)

	r.Mux.HandleFunc("/api/search", r.Leads.Search).Methods(http.MethodGet)

	registerHealthCheck(r.Mux)
}
