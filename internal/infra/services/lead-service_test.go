package services

import (
	"context"
	"errors"
	"testing"

	"agent-suite/internal/domain/dto"
	"agent-suite/internal/domain/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLLM struct {
	reply   string
	err     error
	prompts []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.reply, f.err
}

func (f *fakeLLM) GenerateWithSystem(_ context.Context, systemPrompt, userPrompt string) (string, error) {
	f.prompts = append(f.prompts, systemPrompt+"\n"+userPrompt)
	return f.reply, f.err
}

// fakeLeadStore keeps leads in a map, standing in for Mongo.
type fakeLeadStore struct {
	leads map[string]entities.Lead
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{leads: map[string]entities.Lead{}}
}

func (f *fakeLeadStore) Create(_ context.Context, _ string, lead entities.Lead) (entities.Lead, error) {
	f.leads[lead.ID] = lead
	return lead, nil
}

func (f *fakeLeadStore) Upsert(_ context.Context, _ string, id string, lead entities.Lead) (entities.Lead, error) {
	f.leads[id] = lead
	return lead, nil
}

func (f *fakeLeadStore) Delete(_ context.Context, _ string, id string) error {
	delete(f.leads, id)
	return nil
}

func (f *fakeLeadStore) FindByID(_ context.Context, _ string, id string) (entities.Lead, error) {
	lead, ok := f.leads[id]
	if !ok {
		return entities.Lead{}, errors.New("mongo: no documents in result")
	}
	return lead, nil
}

func (f *fakeLeadStore) FindAll(_ context.Context, _ string) ([]entities.Lead, error) {
	all := make([]entities.Lead, 0, len(f.leads))
	for _, lead := range f.leads {
		all = append(all, lead)
	}
	return all, nil
}

type fakeInteractionStore struct {
	interactions []entities.Interaction
}

func (f *fakeInteractionStore) Create(_ context.Context, _ string, interaction entities.Interaction) (entities.Interaction, error) {
	f.interactions = append(f.interactions, interaction)
	return interaction, nil
}

func (f *fakeInteractionStore) FindBy(_ context.Context, _ string, _ string, value any) ([]entities.Interaction, error) {
	var matched []entities.Interaction
	for _, i := range f.interactions {
		if i.LeadID == value {
			matched = append(matched, i)
		}
	}
	return matched, nil
}

func newLeadService(t *testing.T, llm *fakeLLM) (*LeadService, *fakeLeadStore, *fakeMemory) {
	t.Helper()
	store := newFakeLeadStore()
	mem := &fakeMemory{}
	svc := NewLeadService(store, &fakeInteractionStore{}, mem, llm, testLogger(t), "Alex", "Acme Inc")
	return svc, store, mem
}

func TestCreateLead(t *testing.T) {
	ctx := context.Background()
	svc, store, mem := newLeadService(t, &fakeLLM{})

	lead, err := svc.CreateLead(ctx, dto.CreateLeadRequest{
		Name: "Dana Reyes", Email: "dana@initech.com", Company: "Initech", Title: "VP Engineering",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, lead.ID)
	assert.Equal(t, entities.LeadStatusNew, lead.Status)
	assert.NotNil(t, lead.Tags)

	stored, ok := store.leads[lead.ID]
	require.True(t, ok)
	assert.Equal(t, "Initech", stored.Company)

	require.Len(t, mem.added, 1)
	assert.Contains(t, mem.added[0], "Lead Profile: Dana Reyes")
}

func TestListLeads_Stats(t *testing.T) {
	ctx := context.Background()
	svc, store, _ := newLeadService(t, &fakeLLM{})

	store.leads["a"] = entities.Lead{ID: "a", Status: entities.LeadStatusNew, Score: 40}
	store.leads["b"] = entities.Lead{ID: "b", Status: entities.LeadStatusQualified, Score: 80}

	leads, stats, err := svc.ListLeads(ctx)
	require.NoError(t, err)
	assert.Len(t, leads, 2)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 60, stats.AvgScore)
	assert.Equal(t, 1, stats.Qualified)
	assert.Equal(t, 1, stats.ByStatus[entities.LeadStatusNew])
}

func TestScoreLead_ParsesFencedJSON(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{reply: "```json\n{\"score\": 82, \"factors\": [{\"factor\": \"Authority\", \"impact\": 20, \"reason\": \"VP level\"}], \"recommendation\": \"High priority\", \"nextBestAction\": \"Book demo\"}\n```"}
	svc, store, _ := newLeadService(t, llm)
	store.leads["l1"] = entities.Lead{ID: "l1", Name: "Dana", Company: "Initech"}

	result, err := svc.ScoreLead(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, 82, result.Score)
	require.Len(t, result.Factors, 1)
	assert.Equal(t, "Authority", result.Factors[0].Factor)
	assert.Equal(t, 82, store.leads["l1"].Score)
}

func TestScoreLead_FallsBackOnGarbage(t *testing.T) {
	llm := &fakeLLM{reply: "I think this lead is pretty good overall."}
	svc, store, _ := newLeadService(t, llm)
	store.leads["l1"] = entities.Lead{ID: "l1", Name: "Dana", Company: "Initech"}

	result, err := svc.ScoreLead(context.Background(), "l1")
	require.NoError(t, err)
	assert.Equal(t, 50, result.Score)
	assert.Equal(t, "Continue nurturing", result.Recommendation)
}

func TestScoreLead_UnknownLead(t *testing.T) {
	svc, _, _ := newLeadService(t, &fakeLLM{})
	_, err := svc.ScoreLead(context.Background(), "missing")
	assert.Error(t, err)
}

func TestGenerateEmail_AdvancesNewLead(t *testing.T) {
	ctx := context.Background()
	llm := &fakeLLM{reply: `{"subject": "Quick idea for Initech", "body": "Hi Dana,\nSaw your team is growing.", "callToAction": "Open to a chat?"}`}
	svc, store, mem := newLeadService(t, llm)
	store.leads["l1"] = entities.Lead{ID: "l1", Name: "Dana", Company: "Initech", Status: entities.LeadStatusNew}

	draft, err := svc.GenerateEmail(ctx, "l1", "cold")
	require.NoError(t, err)
	assert.Equal(t, "Quick idea for Initech", draft.Subject)

	// Email counts as first contact.
	assert.Equal(t, entities.LeadStatusContacted, store.leads["l1"].Status)
	require.NotEmpty(t, mem.added)
	assert.Contains(t, mem.added[len(mem.added)-1], "[EMAIL]")
}

func TestGenerateEmail_RawTextBecomesBody(t *testing.T) {
	llm := &fakeLLM{reply: "Hi Dana, just reaching out about Initech."}
	svc, store, _ := newLeadService(t, llm)
	store.leads["l1"] = entities.Lead{ID: "l1", Name: "Dana", Company: "Initech"}

	draft, err := svc.GenerateEmail(context.Background(), "l1", "followup")
	require.NoError(t, err)
	assert.Equal(t, "Quick question, Dana", draft.Subject)
	assert.Equal(t, llm.reply, draft.Body)
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences("```\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFences(`{"a":1}`))
}
