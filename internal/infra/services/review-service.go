package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"agent-suite/internal/domain/dto"
	Iservices "agent-suite/internal/domain/interfaces/services"
	"agent-suite/internal/infra/logger"

	"github.com/google/uuid"
)

const reviewPrompt = `You are an expert code reviewer. Analyze this code and provide structured feedback.

Developer's coding history and patterns:
%s

Language: %s
Code:
` + "```" + `
%s
` + "```" + `

Provide your review in this format:

## Overall Assessment
State if the code is GOOD, NEEDS_IMPROVEMENT, or has CRITICAL issues.

## Security Issues
List any security vulnerabilities or risks. If none, say "No security issues found."

## Performance
Identify any performance concerns or optimizations. If none, say "Performance looks good."

## Code Quality
Comment on readability, maintainability, and structure.

## Suggestions
Provide specific, actionable improvements.

## Positive Patterns
Note any good practices you observed.

Be specific with line references where possible. Keep feedback constructive and educational.`

const maxReviewCodeBytes = 10000

// ReviewService reviews code with the LLM, grounded in the developer's
// past reviews from memory, and files a compact summary of each review
// back for future context.
type ReviewService struct {
	Memory Iservices.IMemoryService
	LLM    Iservices.ILLMService
	Logger *logger.Logger
}

func NewReviewService(memory Iservices.IMemoryService, llm Iservices.ILLMService, log *logger.Logger) *ReviewService {
	return &ReviewService{Memory: memory, LLM: llm, Logger: log}
}

// Review produces a structured review of the submitted code.
func (s *ReviewService) Review(ctx context.Context, req dto.ReviewRequest) (dto.ReviewResult, error) {
	code := req.Code
	if len(code) > maxReviewCodeBytes {
		code = code[:maxReviewCodeBytes]
	}

	context := s.developerContext(ctx, req.DeveloperID, req.Language)
	prompt := fmt.Sprintf(reviewPrompt, context, req.Language, code)

	feedback, err := s.LLM.Generate(ctx, prompt)
	if err != nil {
		return dto.ReviewResult{}, err
	}
	severity := ExtractReviewSeverity(feedback)

	s.storeReview(ctx, req, feedback, severity)

	return dto.ReviewResult{
		ID:        uuid.NewString(),
		Feedback:  feedback,
		Severity:  severity,
		Timestamp: time.Now().Format(time.RFC3339),
	}, nil
}

// SearchReviews returns the developer's past review memories.
func (s *ReviewService) SearchReviews(ctx context.Context, developerID, query string) ([]Iservices.Memory, error) {
	return s.Memory.Search(ctx, query, developerID, 10)
}

func (s *ReviewService) developerContext(ctx context.Context, developerID, language string) string {
	memories, err := s.Memory.Search(ctx, language+" code review patterns issues", developerID, 3)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to load review context for %s: %v", developerID, err))
		return "No previous reviews found."
	}
	if len(memories) == 0 {
		return "No previous reviews found for this developer."
	}

	lines := make([]string, 0, len(memories))
	for i, m := range memories {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, truncate(m.Content, 300)))
	}
	return "Previous reviews and patterns:\n" + strings.Join(lines, "\n")
}

// storeReview files a stripped-down summary of the feedback; a failed
// write costs future context, not this review.
func (s *ReviewService) storeReview(ctx context.Context, req dto.ReviewRequest, feedback, severity string) {
	summary := strings.NewReplacer("**", "", "##", "").Replace(feedback)
	summary = truncate(summary, 800)

	fileName := req.FileName
	if fileName == "" {
		fileName = "snippet"
	}

	err := s.Memory.Add(ctx,
		fmt.Sprintf("Code review for %s (%s): %s", fileName, req.Language, summary),
		req.DeveloperID,
		map[string]any{
			"language":   req.Language,
			"severity":   severity,
			"type":       "code_review",
			"fileName":   fileName,
			"reviewedAt": time.Now().Format(time.RFC3339),
		},
	)
	if err != nil {
		s.Logger.Error(fmt.Sprintf("Failed to store review memory for %s: %v", req.DeveloperID, err))
	}
}

// ExtractReviewSeverity buckets free-text feedback by its strongest
// signal word.
func ExtractReviewSeverity(feedback string) string {
	lower := strings.ToLower(feedback)
	switch {
	case strings.Contains(lower, "critical") || strings.Contains(lower, "security vulnerability") || strings.Contains(lower, "major issue"):
		return dto.SeverityError
	case strings.Contains(lower, "needs_improvement") || strings.Contains(lower, "warning") || strings.Contains(lower, "should be"):
		return dto.SeverityWarning
	case strings.Contains(lower, "suggestion") || strings.Contains(lower, "consider"):
		return dto.SeveritySuggestion
	default:
		return dto.SeverityInfo
	}
}
