package entities

import "time"

type Problem struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Category     string     `json:"category"`
	Difficulty   string     `json:"difficulty"`
	Description  string     `json:"description"`
	StarterCode  string     `json:"starterCode"`
	FunctionName string     `json:"functionName"`
	TestCases    []TestCase `json:"testCases"`
}

type TestCase struct {
	Input       []any  `json:"input"`
	Expected    any    `json:"expected"`
	Description string `json:"description,omitempty"`
}

// Attempt records one execution of a learner's solution.
type Attempt struct {
	ID        string    `json:"id" bson:"id"`
	UserID    string    `json:"userId" bson:"user_id"`
	ProblemID string    `json:"problemId" bson:"problem_id"`
	Solved    bool      `json:"solved" bson:"solved"`
	TimeSpent int       `json:"timeSpent" bson:"time_spent"`
	HintsUsed int       `json:"hintsUsed" bson:"hints_used"`
	Mistakes  []string  `json:"mistakes" bson:"mistakes"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}
