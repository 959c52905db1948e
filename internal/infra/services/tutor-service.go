package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"agent-suite/internal/domain/dto"
	"agent-suite/internal/domain/entities"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/executor"
	"agent-suite/internal/infra/logger"
	"agent-suite/internal/infra/repository"

	"github.com/google/uuid"
)

const attemptsCollection = "attempts"

var ErrProblemNotFound = errors.New("problem not found")

// CodeExecutor runs learner code against test cases in an external
// sandbox.
type CodeExecutor interface {
	Execute(ctx context.Context, code, functionName string, testCases []entities.TestCase) (executor.ExecutionResult, error)
}

// AttemptStore is the slice of the Mongo repository the tutor needs.
type AttemptStore interface {
	Create(ctx context.Context, collectionName string, attempt entities.Attempt) (entities.Attempt, error)
	FindBy(ctx context.Context, collectionName string, field string, value any) ([]entities.Attempt, error)
}

var _ AttemptStore = (*repository.MongoRepository[entities.Attempt])(nil)

// TutorService serves the exercise catalog, runs submissions through the
// sandbox, and tracks learner progress in Mongo and memory.
type TutorService struct {
	Attempts AttemptStore
	Executor CodeExecutor
	Memory   Iservices.IMemoryService
	LLM      Iservices.ILLMService
	Logger   *logger.Logger
}

func NewTutorService(
	attempts AttemptStore,
	exec CodeExecutor,
	memory Iservices.IMemoryService,
	llm Iservices.ILLMService,
	log *logger.Logger,
) *TutorService {
	return &TutorService{Attempts: attempts, Executor: exec, Memory: memory, LLM: llm, Logger: log}
}

// Execute runs a submission against its problem's test cases. The
// executor verdict is returned as-is; attempt and memory records are
// side effects that never change it.
func (s *TutorService) Execute(ctx context.Context, req dto.ExecuteRequest) (executor.ExecutionResult, error) {
	problem, ok := ProblemByID(req.ProblemID)
	if !ok {
		return executor.ExecutionResult{}, ErrProblemNotFound
	}

	result, err := s.Executor.Execute(ctx, req.Code, problem.FunctionName, problem.TestCases)
	if err != nil {
		return executor.ExecutionResult{}, err
	}

	mistakes := []string{}
	for _, tr := range result.TestResults {
		if !tr.Passed {
			mistakes = append(mistakes, fmt.Sprintf("Failed: input %s", tr.Input))
		}
	}

	attempt := entities.Attempt{
		ID:        uuid.NewString(),
		UserID:    req.UserID,
		ProblemID: req.ProblemID,
		Solved:    result.Success,
		TimeSpent: req.TimeSpent,
		HintsUsed: req.HintsUsed,
		Mistakes:  mistakes,
		CreatedAt: time.Now(),
	}
	if _, err := s.Attempts.Create(ctx, attemptsCollection, attempt); err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to record attempt for %s on %s: %v", req.UserID, req.ProblemID, err))
	}

	outcome := "attempted"
	if result.Success {
		outcome = "solved"
	}
	memo := fmt.Sprintf("%s %s (%s) in %ds with %d hints", strings.ToUpper(outcome[:1])+outcome[1:], problem.Title, problem.Category, req.TimeSpent, req.HintsUsed)
	if len(mistakes) > 0 {
		memo += ". Mistakes: " + strings.Join(mistakes, "; ")
	}
	if err := s.Memory.Add(ctx, memo, req.UserID, map[string]any{
		"type":       "problem_attempt",
		"problem_id": req.ProblemID,
		"solved":     result.Success,
	}); err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to store attempt memory for %s: %v", req.UserID, err))
	}

	if result.Success {
		insight := fmt.Sprintf("Learning insight: mastered %s concepts via %s", problem.Category, problem.Title)
		if err := s.Memory.Add(ctx, insight, req.UserID, map[string]any{
			"type":     "learning_insight",
			"category": problem.Category,
		}); err != nil {
			s.Logger.Error(fmt.Sprintf("Failed to store learning insight for %s: %v", req.UserID, err))
		}
	}

	return result, nil
}

// Hint analyzes the learner's current code and produces one incremental
// hint, avoiding repeats and never giving the full solution away.
func (s *TutorService) Hint(ctx context.Context, req dto.HintRequest) (dto.HintResponse, error) {
	problem, ok := ProblemByID(req.ProblemID)
	if !ok {
		return dto.HintResponse{}, ErrProblemNotFound
	}

	code := req.Code
	if code == "" {
		code = problem.StarterCode
	}

	analysis, err := s.LLM.GenerateWithSystem(ctx,
		"You are a patient coding tutor. Analyze the student's code in 2-3 sentences: what approach are they taking, and where are they stuck? Do not give solutions.",
		fmt.Sprintf("Problem: %s\n%s\n\nStudent code:\n%s", problem.Title, problem.Description, code),
	)
	if err != nil {
		return dto.HintResponse{}, err
	}

	learningContext := s.learningContext(ctx, req.UserID, problem)

	previous := "None yet."
	if len(req.PreviousHints) > 0 {
		previous = strings.Join(req.PreviousHints, "\n")
	}

	hint, err := s.LLM.GenerateWithSystem(ctx,
		"You are a patient coding tutor. Give ONE short hint that nudges the student forward without revealing the solution. Never repeat a previous hint.",
		fmt.Sprintf(`Problem: %s (%s)
%s

Student code:
%s

Code analysis:
%s

Student's learning history:
%s

Previously given hints:
%s`, problem.Title, problem.Category, problem.Description, code, analysis, learningContext, previous),
	)
	if err != nil {
		return dto.HintResponse{}, err
	}

	return dto.HintResponse{Hint: strings.TrimSpace(hint), Analysis: strings.TrimSpace(analysis)}, nil
}

// Progress returns the learner's attempt history, newest first.
func (s *TutorService) Progress(ctx context.Context, userID string) ([]entities.Attempt, error) {
	attempts, err := s.Attempts.FindBy(ctx, attemptsCollection, "user_id", userID)
	if err != nil {
		return nil, err
	}
	if attempts == nil {
		attempts = []entities.Attempt{}
	}
	return attempts, nil
}

// LearningContext renders the learner's history: a bulleted memory
// context plus, when problemID is given, a summary of the recorded
// attempts at that problem. Every failure degrades to a safe default.
func (s *TutorService) LearningContext(ctx context.Context, userID, problemID, category string) dto.LearningContextResponse {
	resp := dto.LearningContextResponse{Context: s.historyContext(ctx, userID, category)}
	if problemID == "" {
		return resp
	}

	attempts, err := s.Attempts.FindBy(ctx, attemptsCollection, "user_id", userID)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to load attempts for %s: %v", userID, err))
		return resp
	}

	relevant := []entities.Attempt{}
	for _, a := range attempts {
		if a.ProblemID == problemID {
			relevant = append(relevant, a)
		}
	}
	if len(relevant) == 0 {
		return resp
	}

	history := &dto.ProblemHistory{
		TotalAttempts:  len(relevant),
		LastAttempt:    relevant[0].CreatedAt.Format(time.RFC3339),
		CommonMistakes: []string{},
	}
	totalHints := 0
	seen := map[string]bool{}
	for _, a := range relevant {
		if a.Solved {
			history.Solved = true
		}
		totalHints += a.HintsUsed
		for _, m := range a.Mistakes {
			if !seen[m] {
				seen[m] = true
				history.CommonMistakes = append(history.CommonMistakes, m)
			}
		}
	}
	history.AverageHintsUsed = float64(totalHints) / float64(len(relevant))

	resp.ProblemHistory = history
	return resp
}

// StoreInsight records a learning insight against the learner's memory.
func (s *TutorService) StoreInsight(ctx context.Context, userID, insight, category string) error {
	if category == "" {
		category = "general"
	}
	return s.Memory.Add(ctx,
		fmt.Sprintf("Learning insight for %s: %s", category, insight),
		userID,
		map[string]any{"type": "learning_insight", "category": category},
	)
}

func (s *TutorService) historyContext(ctx context.Context, userID, category string) string {
	query := strings.TrimSpace("problem attempt solved learning insight " + category)
	memories, err := s.Memory.Search(ctx, query, userID, 10)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to load learning context for %s: %v", userID, err))
		return "Unable to retrieve learning history."
	}
	if len(memories) == 0 {
		return "This is a new learner with no previous history."
	}

	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		lines = append(lines, "- "+m.Content)
	}
	return strings.Join(lines, "\n")
}

func (s *TutorService) learningContext(ctx context.Context, userID string, problem entities.Problem) string {
	memories, err := s.Memory.Search(ctx, fmt.Sprintf("%s %s attempts insights", problem.Title, problem.Category), userID, 5)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to load learning context for %s: %v", userID, err))
		return "No learning history available."
	}
	if len(memories) == 0 {
		return "No learning history available."
	}

	lines := make([]string, 0, len(memories))
	for _, m := range memories {
		lines = append(lines, "- "+m.Content)
	}
	return strings.Join(lines, "\n")
}
