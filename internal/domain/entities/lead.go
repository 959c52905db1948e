package entities

import "time"

// Lead statuses follow the outreach funnel.
const (
	LeadStatusNew       = "new"
	LeadStatusContacted = "contacted"
	LeadStatusEngaged   = "engaged"
	LeadStatusQualified = "qualified"
	LeadStatusLost      = "lost"
)

type Lead struct {
	ID              string     `json:"id" bson:"id"`
	Name            string     `json:"name" bson:"name"`
	Email           string     `json:"email" bson:"email"`
	Company         string     `json:"company" bson:"company"`
	Title           string     `json:"title,omitempty" bson:"title,omitempty"`
	Phone           string     `json:"phone,omitempty" bson:"phone,omitempty"`
	LinkedIn        string     `json:"linkedin,omitempty" bson:"linkedin,omitempty"`
	Industry        string     `json:"industry,omitempty" bson:"industry,omitempty"`
	CompanySize     string     `json:"companySize,omitempty" bson:"company_size,omitempty"`
	Status          string     `json:"status" bson:"status"`
	Score           int        `json:"score" bson:"score"`
	Tags            []string   `json:"tags" bson:"tags"`
	Notes           string     `json:"notes,omitempty" bson:"notes,omitempty"`
	LastContactedAt *time.Time `json:"lastContactedAt,omitempty" bson:"last_contacted_at,omitempty"`
	CreatedAt       time.Time  `json:"createdAt" bson:"created_at"`
	UpdatedAt       time.Time  `json:"updatedAt" bson:"updated_at"`
}

// Interaction is a single outreach touchpoint recorded against a lead.
type Interaction struct {
	ID        string    `json:"id" bson:"id"`
	LeadID    string    `json:"leadId" bson:"lead_id"`
	Type      string    `json:"type" bson:"type"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}
