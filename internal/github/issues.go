package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.github.com"

// Client files issues against a single repository.
type Client struct {
	token      string
	repository string // "owner/name"
	baseURL    string
	httpClient *http.Client
}

// NewClient creates an issues client. An empty token disables the client:
// CreateIssue becomes a logged no-op rather than an error, matching the
// best-effort role issue creation plays in the assistant.
func NewClient(token, repository string) *Client {
	return &Client{
		token:      token,
		repository: repository,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CreateIssue opens a new issue.
func (c *Client) CreateIssue(ctx context.Context, title, body string) error {
	if c.token == "" {
		log.Println("⚠️ GitHub token not configured, skipping issue creation")
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"title": title,
		"body":  body,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal issue: %w", err)
	}

	url := fmt.Sprintf("%s/repos/%s/issues", c.baseURL, c.repository)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "token "+c.token)
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("issue request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GitHub API returned status %d: %s", resp.StatusCode, respBody)
	}

	var issue struct {
		Number int `json:"number"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&issue); err == nil && issue.Number > 0 {
		log.Printf("📋 created issue #%d: %s", issue.Number, title)
	}
	return nil
}
