package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"agent-suite/internal/domain/dto"
	"agent-suite/internal/domain/entities"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/executor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	result executor.ExecutionResult
	err    error
	code   string
	fn     string
}

func (f *fakeExecutor) Execute(_ context.Context, code, functionName string, _ []entities.TestCase) (executor.ExecutionResult, error) {
	f.code = code
	f.fn = functionName
	return f.result, f.err
}

type fakeAttemptStore struct {
	attempts []entities.Attempt
}

func (f *fakeAttemptStore) Create(_ context.Context, _ string, attempt entities.Attempt) (entities.Attempt, error) {
	f.attempts = append(f.attempts, attempt)
	return attempt, nil
}

func (f *fakeAttemptStore) FindBy(_ context.Context, _ string, _ string, value any) ([]entities.Attempt, error) {
	var matched []entities.Attempt
	for _, a := range f.attempts {
		if a.UserID == value {
			matched = append(matched, a)
		}
	}
	return matched, nil
}

func newTutorService(t *testing.T, exec *fakeExecutor, llm *fakeLLM) (*TutorService, *fakeAttemptStore, *fakeMemory) {
	t.Helper()
	store := &fakeAttemptStore{}
	mem := &fakeMemory{}
	return NewTutorService(store, exec, mem, llm, testLogger(t)), store, mem
}

func TestProblemCatalog(t *testing.T) {
	problems := Problems()
	require.NotEmpty(t, problems)

	problem, ok := ProblemByID("binary-search")
	require.True(t, ok)
	assert.Equal(t, "binary_search", problem.FunctionName)
	assert.NotEmpty(t, problem.TestCases)

	_, ok = ProblemByID("nonexistent")
	assert.False(t, ok)
}

func TestExecute_SolvedStoresAttemptAndInsight(t *testing.T) {
	exec := &fakeExecutor{result: executor.ExecutionResult{
		Success:     true,
		TestResults: []executor.TestResult{{Passed: true}},
	}}
	svc, store, mem := newTutorService(t, exec, &fakeLLM{})

	result, err := svc.Execute(context.Background(), dto.ExecuteRequest{
		ProblemID: "two-sum",
		Code:      "def two_sum(nums, target): ...",
		UserID:    "u1",
		TimeSpent: 120,
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "two_sum", exec.fn)

	require.Len(t, store.attempts, 1)
	assert.True(t, store.attempts[0].Solved)
	assert.Equal(t, "u1", store.attempts[0].UserID)

	// Attempt memory plus learning insight.
	require.Len(t, mem.added, 2)
	assert.Contains(t, mem.added[0], "Solved Two Sum")
	assert.Contains(t, mem.added[1], "Learning insight")
}

func TestExecute_FailedTestsRecordMistakes(t *testing.T) {
	exec := &fakeExecutor{result: executor.ExecutionResult{
		Success: false,
		TestResults: []executor.TestResult{
			{Passed: true},
			{Passed: false, Input: "[3, 2, 4], 6"},
		},
	}}
	svc, store, mem := newTutorService(t, exec, &fakeLLM{})

	result, err := svc.Execute(context.Background(), dto.ExecuteRequest{ProblemID: "two-sum", Code: "pass", UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, result.Success)

	require.Len(t, store.attempts, 1)
	require.Len(t, store.attempts[0].Mistakes, 1)
	assert.Equal(t, "Failed: input [3, 2, 4], 6", store.attempts[0].Mistakes[0])

	// No insight memory on a failed run.
	require.Len(t, mem.added, 1)
	assert.Contains(t, mem.added[0], "Attempted Two Sum")
}

func TestExecute_UnknownProblem(t *testing.T) {
	svc, store, _ := newTutorService(t, &fakeExecutor{}, &fakeLLM{})

	_, err := svc.Execute(context.Background(), dto.ExecuteRequest{ProblemID: "missing", Code: "pass", UserID: "u1"})
	assert.ErrorIs(t, err, ErrProblemNotFound)
	assert.Empty(t, store.attempts)
}

func TestExecute_ExecutorFailurePropagates(t *testing.T) {
	exec := &fakeExecutor{err: errors.New("sandbox timeout")}
	svc, store, _ := newTutorService(t, exec, &fakeLLM{})

	_, err := svc.Execute(context.Background(), dto.ExecuteRequest{ProblemID: "two-sum", Code: "pass", UserID: "u1"})
	assert.Error(t, err)
	assert.Empty(t, store.attempts)
}

func TestHint(t *testing.T) {
	llm := &fakeLLM{reply: "Think about what data structure gives O(1) lookups."}
	svc, _, _ := newTutorService(t, &fakeExecutor{}, llm)

	resp, err := svc.Hint(context.Background(), dto.HintRequest{
		ProblemID:     "two-sum",
		UserID:        "u1",
		PreviousHints: []string{"Start with a brute force approach."},
	})
	require.NoError(t, err)
	assert.Equal(t, llm.reply, resp.Hint)
	assert.NotEmpty(t, resp.Analysis)

	// Analysis call plus hint call, with previous hints fed forward.
	require.Len(t, llm.prompts, 2)
	assert.Contains(t, llm.prompts[1], "Start with a brute force approach.")
}

func TestHint_UnknownProblem(t *testing.T) {
	svc, _, _ := newTutorService(t, &fakeExecutor{}, &fakeLLM{})
	_, err := svc.Hint(context.Background(), dto.HintRequest{ProblemID: "missing", UserID: "u1"})
	assert.ErrorIs(t, err, ErrProblemNotFound)
}

func TestProgress(t *testing.T) {
	svc, store, _ := newTutorService(t, &fakeExecutor{}, &fakeLLM{})

	attempts, err := svc.Progress(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, attempts)
	assert.Empty(t, attempts)

	store.attempts = append(store.attempts,
		entities.Attempt{ID: "a1", UserID: "u1", ProblemID: "two-sum"},
		entities.Attempt{ID: "a2", UserID: "u2", ProblemID: "two-sum"},
	)

	attempts, err = svc.Progress(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, attempts, 1)
	assert.Equal(t, "a1", attempts[0].ID)
}

func TestLearningContext(t *testing.T) {
	svc, store, mem := newTutorService(t, &fakeExecutor{}, &fakeLLM{})

	resp := svc.LearningContext(context.Background(), "u1", "", "arrays")
	assert.Equal(t, "This is a new learner with no previous history.", resp.Context)
	assert.Nil(t, resp.ProblemHistory)

	mem.results = []Iservices.Memory{{Content: "Solved Two Sum (arrays)"}}
	store.attempts = append(store.attempts,
		entities.Attempt{UserID: "u1", ProblemID: "two-sum", Solved: false, HintsUsed: 2,
			Mistakes: []string{"Failed: input [1 2]"}, CreatedAt: time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)},
		entities.Attempt{UserID: "u1", ProblemID: "two-sum", Solved: true, HintsUsed: 0,
			Mistakes: []string{"Failed: input [1 2]"}},
		entities.Attempt{UserID: "u1", ProblemID: "binary-search", Solved: true},
		entities.Attempt{UserID: "u2", ProblemID: "two-sum", Solved: true},
	)

	resp = svc.LearningContext(context.Background(), "u1", "two-sum", "arrays")
	assert.Equal(t, "- Solved Two Sum (arrays)", resp.Context)
	require.NotNil(t, resp.ProblemHistory)
	assert.Equal(t, 2, resp.ProblemHistory.TotalAttempts)
	assert.True(t, resp.ProblemHistory.Solved)
	assert.Equal(t, 1.0, resp.ProblemHistory.AverageHintsUsed)
	// Duplicate mistakes collapse.
	assert.Equal(t, []string{"Failed: input [1 2]"}, resp.ProblemHistory.CommonMistakes)
	assert.Equal(t, "2026-08-30T10:00:00Z", resp.ProblemHistory.LastAttempt)
}

func TestStoreInsight(t *testing.T) {
	svc, _, mem := newTutorService(t, &fakeExecutor{}, &fakeLLM{})

	require.NoError(t, svc.StoreInsight(context.Background(), "u1", "prefers iterative solutions", ""))
	require.Len(t, mem.added, 1)
	assert.Equal(t, "Learning insight for general: prefers iterative solutions", mem.added[0])
	assert.Equal(t, "u1", mem.users[0])
}
