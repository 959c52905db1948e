package dto

type ExecuteRequest struct {
	ProblemID string `json:"problemId"`
	Code      string `json:"code"`
	UserID    string `json:"userId"`
	TimeSpent int    `json:"timeSpent,omitempty"`
	HintsUsed int    `json:"hintsUsed,omitempty"`
}

type HintRequest struct {
	ProblemID     string   `json:"problemId"`
	Code          string   `json:"code"`
	UserID        string   `json:"userId"`
	PreviousHints []string `json:"previousHints,omitempty"`
}

type HintResponse struct {
	Hint     string `json:"hint"`
	Analysis string `json:"analysis"`
}

// ProblemHistory summarizes a learner's recorded attempts at one problem.
type ProblemHistory struct {
	TotalAttempts    int      `json:"totalAttempts"`
	Solved           bool     `json:"solved"`
	LastAttempt      string   `json:"lastAttempt"`
	AverageHintsUsed float64  `json:"averageHintsUsed"`
	CommonMistakes   []string `json:"commonMistakes"`
}

type LearningContextResponse struct {
	Context        string          `json:"context"`
	ProblemHistory *ProblemHistory `json:"problemHistory"`
}

type InsightRequest struct {
	UserID   string `json:"userId"`
	Insight  string `json:"insight"`
	Category string `json:"category,omitempty"`
}
