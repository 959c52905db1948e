package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"agent-suite/internal/domain/dto"
	"agent-suite/internal/domain/entities"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/repository"

	"github.com/google/uuid"
)

const (
	leadsCollection        = "leads"
	interactionsCollection = "interactions"
)

// LeadStore is the slice of the Mongo repository the funnel needs.
type LeadStore interface {
	Create(ctx context.Context, collectionName string, lead entities.Lead) (entities.Lead, error)
	Upsert(ctx context.Context, collectionName string, id string, lead entities.Lead) (entities.Lead, error)
	Delete(ctx context.Context, collectionName string, id string) error
	FindByID(ctx context.Context, collectionName string, id string) (entities.Lead, error)
	FindAll(ctx context.Context, collectionName string) ([]entities.Lead, error)
}

type InteractionStore interface {
	Create(ctx context.Context, collectionName string, interaction entities.Interaction) (entities.Interaction, error)
	FindBy(ctx context.Context, collectionName string, field string, value any) ([]entities.Interaction, error)
}

var (
	_ LeadStore        = (*repository.MongoRepository[entities.Lead])(nil)
	_ InteractionStore = (*repository.MongoRepository[entities.Interaction])(nil)
)

// LeadService runs the outreach funnel: lead CRUD backed by Mongo, plus
// LLM-generated scoring, emails, LinkedIn messages, and call scripts
// grounded in the lead's memory history.
type LeadService struct {
	Leads        LeadStore
	Interactions InteractionStore
	Memory       Iservices.IMemoryService
	LLM          Iservices.ILLMService
	Logger       *logger.Logger
	SDRName      string
	CompanyName  string
}

func NewLeadService(
	leads LeadStore,
	interactions InteractionStore,
	memory Iservices.IMemoryService,
	llm Iservices.ILLMService,
	log *logger.Logger,
	sdrName, companyName string,
) *LeadService {
	return &LeadService{
		Leads:        leads,
		Interactions: interactions,
		Memory:       memory,
		LLM:          llm,
		Logger:       log,
		SDRName:      sdrName,
		CompanyName:  companyName,
	}
}

func (s *LeadService) ListLeads(ctx context.Context) ([]entities.Lead, dto.LeadStats, error) {
	leads, err := s.Leads.FindAll(ctx, leadsCollection)
	if err != nil {
		return nil, dto.LeadStats{}, err
	}

	stats := dto.LeadStats{Total: len(leads), ByStatus: map[string]int{}}
	scoreSum := 0
	for _, lead := range leads {
		stats.ByStatus[lead.Status]++
		scoreSum += lead.Score
	}
	if len(leads) > 0 {
		stats.AvgScore = scoreSum / len(leads)
	}
	stats.Qualified = stats.ByStatus[entities.LeadStatusQualified]
	return leads, stats, nil
}

func (s *LeadService) CreateLead(ctx context.Context, req dto.CreateLeadRequest) (entities.Lead, error) {
	now := time.Now()
	lead := entities.Lead{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Email:       req.Email,
		Company:     req.Company,
		Title:       req.Title,
		Phone:       req.Phone,
		LinkedIn:    req.LinkedIn,
		Industry:    req.Industry,
		CompanySize: req.CompanySize,
		Status:      entities.LeadStatusNew,
		Tags:        req.Tags,
		Notes:       req.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if lead.Tags == nil {
		lead.Tags = []string{}
	}

	created, err := s.Leads.Create(ctx, leadsCollection, lead)
	if err != nil {
		return entities.Lead{}, err
	}

	// Profile memory is context for later generation, not part of the
	// write path: a failure is logged and the lead stands.
	profile := fmt.Sprintf("Lead Profile: %s, %s at %s. Email: %s.", lead.Name, lead.Title, lead.Company, lead.Email)
	if lead.Industry != "" {
		profile += " Industry: " + lead.Industry + "."
	}
	if err := s.Memory.Add(ctx, profile, lead.ID, map[string]any{"type": "profile"}); err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to store profile memory for lead %s: %v", lead.ID, err))
	}

	return created, nil
}

func (s *LeadService) GetLead(ctx context.Context, id string) (entities.Lead, error) {
	return s.Leads.FindByID(ctx, leadsCollection, id)
}

func (s *LeadService) UpdateLead(ctx context.Context, id string, req dto.UpdateLeadRequest) (entities.Lead, error) {
	lead, err := s.Leads.FindByID(ctx, leadsCollection, id)
	if err != nil {
		return entities.Lead{}, err
	}

	if req.Status != nil {
		lead.Status = *req.Status
	}
	if req.Score != nil {
		lead.Score = *req.Score
	}
	if req.Notes != nil {
		lead.Notes = *req.Notes
	}
	lead.UpdatedAt = time.Now()

	return s.Leads.Upsert(ctx, leadsCollection, id, lead)
}

func (s *LeadService) DeleteLead(ctx context.Context, id string) error {
	return s.Leads.Delete(ctx, leadsCollection, id)
}

// RecordInteraction logs one outreach touchpoint against a lead, mirrors
// it into memory, and advances a new lead to contacted.
func (s *LeadService) RecordInteraction(ctx context.Context, lead entities.Lead, interactionType, content string) (entities.Interaction, error) {
	interaction := entities.Interaction{
		ID:        uuid.NewString(),
		LeadID:    lead.ID,
		Type:      interactionType,
		Content:   content,
		CreatedAt: time.Now(),
	}
	if _, err := s.Interactions.Create(ctx, interactionsCollection, interaction); err != nil {
		return entities.Interaction{}, err
	}

	memo := fmt.Sprintf("[%s] %s", strings.ToUpper(interactionType), truncate(content, 100))
	if err := s.Memory.Add(ctx, memo, lead.ID, map[string]any{
		"interaction_type": interactionType,
		"timestamp":        time.Now().Format(time.RFC3339),
	}); err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to store interaction memory for lead %s: %v", lead.ID, err))
	}

	if lead.Status == entities.LeadStatusNew {
		lead.Status = entities.LeadStatusContacted
		now := time.Now()
		lead.LastContactedAt = &now
		lead.UpdatedAt = now
		if _, err := s.Leads.Upsert(ctx, leadsCollection, lead.ID, lead); err != nil {
			s.Logger.Error(fmt.Sprintf("Failed to advance lead %s to contacted: %v", lead.ID, err))
		}
	}

	return interaction, nil
}

// ScoreLead asks the model for a structured conversion score and persists
// it on the lead. An unparsable model reply degrades to a neutral score
// instead of failing the request.
func (s *LeadService) ScoreLead(ctx context.Context, id string) (dto.ScoreResult, error) {
	lead, err := s.Leads.FindByID(ctx, leadsCollection, id)
	if err != nil {
		return dto.ScoreResult{}, err
	}

	context := s.leadContext(ctx, lead, fmt.Sprintf("%s %s all interactions", lead.Name, lead.Company))
	interactions, err := s.Interactions.FindBy(ctx, interactionsCollection, "lead_id", id)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to load interactions for lead %s: %v", id, err))
	}

	prompt := fmt.Sprintf(`You are a sales intelligence AI. Score this lead's likelihood to convert.

Lead Info:
- Name: %s
- Company: %s
- Title: %s
- Total Interactions: %d

Interaction History:
%s

Score from 0-100 based on:
- Engagement level (responses, meetings)
- Title/decision-making authority
- Company fit
- Expressed interest or pain points
- Recency of engagement

Return JSON:
{
  "score": 75,
  "factors": [
    {"factor": "Engagement", "impact": 20, "reason": "Responded to 2 emails"}
  ],
  "recommendation": "High priority - schedule demo",
  "nextBestAction": "Send calendar link for demo"
}`, lead.Name, lead.Company, lead.Title, len(interactions), context)

	reply, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return dto.ScoreResult{}, err
	}

	var result dto.ScoreResult
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &result); err != nil {
		s.Logger.Warn(fmt.Sprintf("Unparsable score reply for lead %s: %v", id, err))
		result = dto.ScoreResult{
			Score:          50,
			Factors:        []dto.ScoreFactor{{Factor: "Default", Impact: 50, Reason: "Unable to analyze"}},
			Recommendation: "Continue nurturing",
			NextBestAction: "Send follow-up email",
		}
	}

	lead.Score = result.Score
	lead.UpdatedAt = time.Now()
	if _, err := s.Leads.Upsert(ctx, leadsCollection, id, lead); err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to persist score for lead %s: %v", id, err))
	}

	return result, nil
}

var emailStyles = map[string]string{
	"cold":            "Write a compelling cold outreach email that's personalized and not salesy.",
	"followup":        "Write a follow-up email referencing previous interactions. Be persistent but respectful.",
	"breakup":         `Write a "breakup" email - last attempt to get a response. Create urgency without being pushy.`,
	"meeting_request": "Write an email requesting a meeting. Be specific about the value they'll get.",
}

// GenerateEmail drafts a personalized outreach email. If the model skips
// the JSON contract the raw text becomes the body.
func (s *LeadService) GenerateEmail(ctx context.Context, id, emailType string) (dto.EmailDraft, error) {
	lead, err := s.Leads.FindByID(ctx, leadsCollection, id)
	if err != nil {
		return dto.EmailDraft{}, err
	}

	style, ok := emailStyles[emailType]
	if !ok {
		style = emailStyles["cold"]
	}
	context := s.leadContext(ctx, lead, fmt.Sprintf("%s %s interactions emails", lead.Name, lead.Company))

	prompt := fmt.Sprintf(`You are %s, an SDR at %s.
%s

Lead Info:
- Name: %s
- Company: %s
- Title: %s

Previous Interactions & Context:
%s

Requirements:
- Keep it under 150 words
- Personalize based on their role and company
- Include a clear, low-friction CTA
- Sound human, not templated
- Reference any previous interactions naturally

Return JSON format:
{
  "subject": "email subject line",
  "body": "email body (use \n for line breaks)",
  "callToAction": "the specific ask"
}`, s.SDRName, s.CompanyName, style, lead.Name, lead.Company, lead.Title, context)

	reply, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return dto.EmailDraft{}, err
	}

	var draft dto.EmailDraft
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &draft); err != nil {
		draft = dto.EmailDraft{
			Subject:      fmt.Sprintf("Quick question, %s", lead.Name),
			Body:         reply,
			CallToAction: "Would you be open to a quick chat?",
		}
	}

	if _, err := s.RecordInteraction(ctx, lead, "email", draft.Subject+" - "+draft.Body); err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to record email interaction for lead %s: %v", id, err))
	}
	return draft, nil
}

// GenerateLinkedInMessage drafts a short LinkedIn touch. messageType is
// connection, inmail, or followup.
func (s *LeadService) GenerateLinkedInMessage(ctx context.Context, id, messageType string) (string, error) {
	lead, err := s.Leads.FindByID(ctx, leadsCollection, id)
	if err != nil {
		return "", err
	}

	limit := "Under 500 characters"
	if messageType == "connection" {
		limit = "Under 300 characters"
	}
	context := s.leadContext(ctx, lead, fmt.Sprintf("%s %s", lead.Name, lead.Company))

	prompt := fmt.Sprintf(`Write a %s LinkedIn message.

Lead: %s, %s at %s
Context: %s

Requirements:
- %s
- Personal and conversational
- No sales pitch in connection request
- Reference something specific about them or their company

Return just the message text, no JSON.`, messageType, lead.Name, lead.Title, lead.Company, context, limit)

	reply, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	message := strings.TrimSpace(reply)

	if _, err := s.RecordInteraction(ctx, lead, "linkedin", message); err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to record linkedin interaction for lead %s: %v", id, err))
	}
	return message, nil
}

// GenerateCallScript drafts a structured phone script toward the given
// objective.
func (s *LeadService) GenerateCallScript(ctx context.Context, id, objective string) (dto.CallScript, error) {
	lead, err := s.Leads.FindByID(ctx, leadsCollection, id)
	if err != nil {
		return dto.CallScript{}, err
	}
	if objective == "" {
		objective = "book a discovery call"
	}
	context := s.leadContext(ctx, lead, fmt.Sprintf("%s %s calls", lead.Name, lead.Company))

	prompt := fmt.Sprintf(`You are %s, an SDR at %s.
Generate a call script for reaching out to a prospect.

Lead Info:
- Name: %s
- Company: %s
- Title: %s

Previous Interactions & Context:
%s

Call Objective: %s

Return JSON format:
{
  "opener": "opening line (reference any previous contact)",
  "valueProposition": "2-3 sentence value prop tailored to their role",
  "qualifyingQuestions": ["question 1", "question 2", "question 3"],
  "objectionHandlers": {
    "no time": "response",
    "not interested": "response",
    "send info": "response"
  },
  "closeAttempt": "how to ask for next step"
}`, s.SDRName, s.CompanyName, lead.Name, lead.Company, lead.Title, context, objective)

	reply, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return dto.CallScript{}, err
	}

	var script dto.CallScript
	if err := json.Unmarshal([]byte(stripCodeFences(reply)), &script); err != nil {
		script = dto.CallScript{
			Opener:              fmt.Sprintf("Hi %s, this is %s from %s.", lead.Name, s.SDRName, s.CompanyName),
			ValueProposition:    "We help companies like yours move faster.",
			QualifyingQuestions: []string{"What are your current priorities?"},
			ObjectionHandlers:   map[string]string{"no time": "I understand, when would be better?"},
			CloseAttempt:        "Would you be open to a 15-minute call?",
		}
	}
	return script, nil
}

// SearchMemories runs a cross-lead memory search for the dashboard.
func (s *LeadService) SearchMemories(ctx context.Context, query string) ([]Iservices.Memory, error) {
	return s.Memory.Search(ctx, query, "", 20)
}

// leadContext renders the lead's memory history as a bulleted block for
// prompt grounding.
func (s *LeadService) leadContext(ctx context.Context, lead entities.Lead, query string) string {
	memories, err := s.Memory.Search(ctx, query, lead.ID, 10)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to load context for lead %s: %v", lead.ID, err))
		return "No previous interactions found."
	}
	if len(memories) == 0 {
		return "No previous interactions found with this lead."
	}

	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		lines = append(lines, "- "+m.Content)
	}
	return strings.Join(lines, "\n")
}

// stripCodeFences removes a markdown code fence the model may have
// wrapped around its JSON reply.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
