package dto

// Review severities, strongest first.
const (
	SeverityError      = "error"
	SeverityWarning    = "warning"
	SeveritySuggestion = "suggestion"
	SeverityInfo       = "info"
)

type ReviewRequest struct {
	Code        string `json:"code"`
	Language    string `json:"language"`
	DeveloperID string `json:"developerId"`
	FileName    string `json:"fileName,omitempty"`
}

// GitHubFile is one file fetched from a public repository for review.
type GitHubFile struct {
	Content  string `json:"content"`
	FileName string `json:"fileName"`
}

type ReviewResult struct {
	ID        string `json:"id"`
	Feedback  string `json:"feedback"`
	Severity  string `json:"severity"`
	Timestamp string `json:"timestamp"`
}
