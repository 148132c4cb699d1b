package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/contrib-gateway/internal/config"
	"github.com/contrib-gateway/internal/domain"
)

// Publisher creates or updates a single file in the target repository.
// Writes authenticate with the service PAT, never a contributor token.
type Publisher interface {
	Publish(ctx context.Context, path string, content []byte, message string) (*domain.Commit, error)
}

type repoPublisher struct {
	owner      string
	repo       string
	branch     string
	pat        string
	apiBaseURL string
	http       *http.Client
}

// NewPublisher creates the production publisher for the configured repo.
func NewPublisher(cfg *config.Config) Publisher {
	return &repoPublisher{
		owner:      cfg.GitHub.RepoOwner,
		repo:       cfg.GitHub.RepoName,
		branch:     cfg.GitHub.RepoBranch,
		pat:        cfg.GitHub.PAT,
		apiBaseURL: "https://api.github.com",
		http:       &http.Client{Timeout: cfg.GitHub.APITimeout},
	}
}

// Publish PUTs the file via the contents API. Updating an existing path
// requires its current blob SHA, and a concurrent unrelated write can
// invalidate a fetched SHA, so on a conflict the publisher re-fetches the
// SHA and retries exactly once before reporting domain.ErrPathConflict.
func (p *repoPublisher) Publish(ctx context.Context, path string, content []byte, message string) (*domain.Commit, error) {
	sha, err := p.currentSHA(ctx, path)
	if err != nil {
		return nil, err
	}

	commit, status, err := p.put(ctx, path, content, message, sha)
	if err != nil {
		return nil, err
	}
	if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
		// Lost a race against another write; fetch the fresh SHA once.
		sha, err = p.currentSHA(ctx, path)
		if err != nil {
			return nil, err
		}
		commit, status, err = p.put(ctx, path, content, message, sha)
		if err != nil {
			return nil, err
		}
		if status == http.StatusConflict || status == http.StatusUnprocessableEntity {
			return nil, fmt.Errorf("path %q: %w", path, domain.ErrPathConflict)
		}
	}
	if commit == nil {
		return nil, fmt.Errorf("contents api status %d: %w", status, domain.ErrRepoWrite)
	}
	return commit, nil
}

// currentSHA returns the blob SHA for path on the target branch, or "" when
// the path does not exist yet.
func (p *repoPublisher) currentSHA(ctx context.Context, path string) (string, error) {
	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		p.apiBaseURL, p.owner, p.repo, escapePath(path), url.QueryEscape(p.branch))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return "", fmt.Errorf("build contents request: %w", domain.ErrRepoWrite)
	}
	p.setHeaders(req)

	resp, err := p.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("contents fetch: %w", domain.ErrRepoWrite)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNotFound:
		return "", nil
	case http.StatusOK:
		var out struct {
			SHA string `json:"sha"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return "", fmt.Errorf("decode contents response: %w", domain.ErrRepoWrite)
		}
		return out.SHA, nil
	default:
		return "", fmt.Errorf("contents fetch status %d: %w", resp.StatusCode, domain.ErrRepoWrite)
	}
}

// put performs one contents-API write. A conflict status is returned to the
// caller rather than treated as an error so Publish can decide on the retry.
func (p *repoPublisher) put(ctx context.Context, path string, content []byte, message, sha string) (*domain.Commit, int, error) {
	body := map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  p.branch,
	}
	if sha != "" {
		body["sha"] = sha
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, 0, fmt.Errorf("encode contents body: %w", domain.ErrRepoWrite)
	}

	u := fmt.Sprintf("%s/repos/%s/%s/contents/%s", p.apiBaseURL, p.owner, p.repo, escapePath(path))
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, u, bytes.NewReader(buf))
	if err != nil {
		return nil, 0, fmt.Errorf("build contents request: %w", domain.ErrRepoWrite)
	}
	p.setHeaders(req)

	resp, err := p.http.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("contents put: %w", domain.ErrRepoWrite)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		var out struct {
			Content struct {
				Path string `json:"path"`
			} `json:"content"`
			Commit struct {
				SHA string `json:"sha"`
			} `json:"commit"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return nil, resp.StatusCode, fmt.Errorf("decode commit response: %w", domain.ErrRepoWrite)
		}
		return &domain.Commit{Path: out.Content.Path, SHA: out.Commit.SHA}, resp.StatusCode, nil
	case http.StatusConflict, http.StatusUnprocessableEntity:
		return nil, resp.StatusCode, nil
	default:
		return nil, resp.StatusCode, fmt.Errorf("contents put status %d: %w", resp.StatusCode, domain.ErrRepoWrite)
	}
}

func (p *repoPublisher) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+p.pat)
	req.Header.Set("Accept", "application/vnd.github+json")
}

// escapePath escapes each path segment while keeping the separators.
func escapePath(path string) string {
	return (&url.URL{Path: path}).EscapedPath()
}
