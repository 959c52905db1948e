package dto

type CreateLeadRequest struct {
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Company     string   `json:"company"`
	Title       string   `json:"title,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	LinkedIn    string   `json:"linkedin,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	CompanySize string   `json:"companySize,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

type UpdateLeadRequest struct {
	Status *string `json:"status,omitempty"`
	Score  *int    `json:"score,omitempty"`
	Notes  *string `json:"notes,omitempty"`
}

// LeadStats is the funnel breakdown served alongside the lead list.
type LeadStats struct {
	Total     int            `json:"total"`
	ByStatus  map[string]int `json:"byStatus"`
	AvgScore  int            `json:"avgScore"`
	Qualified int            `json:"qualified"`
}

// ScoreResult is the LLM's structured assessment of a lead.
type ScoreResult struct {
	Score          int           `json:"score"`
	Factors        []ScoreFactor `json:"factors"`
	Recommendation string        `json:"recommendation"`
	NextBestAction string        `json:"nextBestAction"`
}

type ScoreFactor struct {
	Factor string `json:"factor"`
	Impact int    `json:"impact"`
	Reason string `json:"reason"`
}

// EmailDraft is a generated outreach email.
type EmailDraft struct {
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	CallToAction string `json:"callToAction"`
}

// CallScript is a generated phone outreach script.
type CallScript struct {
	Opener              string            `json:"opener"`
	ValueProposition    string            `json:"valueProposition"`
	QualifyingQuestions []string          `json:"qualifyingQuestions"`
	ObjectionHandlers   map[string]string `json:"objectionHandlers"`
	CloseAttempt        string            `json:"closeAttempt"`
}
