package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"agent-suite/internal/domain/dto"
	"agent-suite/internal/infra/logger"
)

var (
	ErrGitHubInvalidURL   = errors.New("invalid GitHub URL")
	ErrGitHubDirectoryURL = errors.New("directory URL, not a file")
	ErrGitHubFileNotFound = errors.New("file not found on GitHub")
	ErrGitHubNoEntryFile  = errors.New("no code file found in repo")
)

var githubBlobPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/blob/([^/]+)/(.+)`)
var githubRepoPattern = regexp.MustCompile(`github\.com/([^/]+)/([^/]+)/?$`)

// Files probed at the repo root when the URL names a repo, not a file.
var githubEntryFiles = []string{"package.json", "index.js", "index.ts", "main.py", "README.md"}

// GitHubService fetches file contents from public GitHub repositories so
// they can be fed into a review.
type GitHubService struct {
	RawBaseURL string
	HttpClient *http.Client
	Logger     *logger.Logger
}

func NewGitHubService(rawBaseURL string, httpClient *http.Client, log *logger.Logger) *GitHubService {
	if rawBaseURL == "" {
		rawBaseURL = "https://raw.githubusercontent.com"
	}
	return &GitHubService{RawBaseURL: rawBaseURL, HttpClient: httpClient, Logger: log}
}

// FetchFile resolves a github.com URL to its raw content. Blob URLs map
// directly; a bare repo URL falls back to probing common entry files on
// the main and master branches.
func (s *GitHubService) FetchFile(ctx context.Context, pageURL string) (dto.GitHubFile, error) {
	if m := githubBlobPattern.FindStringSubmatch(pageURL); m != nil {
		owner, repo, branch, path := m[1], m[2], m[3], m[4]
		rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", s.RawBaseURL, owner, repo, branch, path)

		fileName := path
		if i := strings.LastIndex(path, "/"); i >= 0 {
			fileName = path[i+1:]
		}
		content, err := s.fetchRaw(ctx, rawURL)
		if err != nil {
			return dto.GitHubFile{}, err
		}
		return dto.GitHubFile{Content: content, FileName: fileName}, nil
	}

	if strings.Contains(pageURL, "/tree/") {
		return dto.GitHubFile{}, ErrGitHubDirectoryURL
	}

	if m := githubRepoPattern.FindStringSubmatch(pageURL); m != nil {
		owner, repo := m[1], m[2]
		for _, file := range githubEntryFiles {
			for _, branch := range []string{"main", "master"} {
				rawURL := fmt.Sprintf("%s/%s/%s/%s/%s", s.RawBaseURL, owner, repo, branch, file)
				content, err := s.fetchRaw(ctx, rawURL)
				if errors.Is(err, ErrGitHubFileNotFound) {
					continue
				}
				if err != nil {
					return dto.GitHubFile{}, err
				}
				return dto.GitHubFile{Content: content, FileName: file}, nil
			}
		}
		return dto.GitHubFile{}, ErrGitHubNoEntryFile
	}

	return dto.GitHubFile{}, ErrGitHubInvalidURL
}

func (s *GitHubService) fetchRaw(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "AI-Code-Reviewer")

	res, err := s.HttpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("github request failed: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return "", ErrGitHubFileNotFound
	}
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected github status %s", res.Status)
	}

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read github response: %w", err)
	}
	return string(raw), nil
}
