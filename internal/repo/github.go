package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lumenops/logsleuth/internal/cache"
	"github.com/lumenops/logsleuth/internal/utils"
)

// GitHubClient talks to the GitHub REST API for pull request lookups and
// issue comments. Lookups are memoized through the cache provider because
// a flapping alert can fire several webhooks inside a minute.
type GitHubClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	cache      cache.Provider
	prTTL      time.Duration
}

// NewGitHubClient constructs a client for the given API base URL. Pass
// cache.NoopProvider{} to disable memoization.
func NewGitHubClient(baseURL, token string, timeout time.Duration, provider cache.Provider, prTTL time.Duration) *GitHubClient {
	if provider == nil {
		provider = cache.NoopProvider{}
	}
	return &GitHubClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
		cache:      provider,
		prTTL:      prTTL,
	}
}

// LatestPullRequest returns the number of the most recently updated pull
// request in any state, or 0 when the repository has none.
func (c *GitHubClient) LatestPullRequest(ctx context.Context, owner, repo string) (int, error) {
	key := fmt.Sprintf("logsleuth:latest-pr:%s/%s", owner, repo)
	if raw, err := c.cache.Get(ctx, key); err == nil {
		if n, err := strconv.Atoi(string(raw)); err == nil {
			return n, nil
		}
	}

	endpoint := fmt.Sprintf("%s/repos/%s/%s/pulls?state=all&per_page=1&sort=updated&direction=desc",
		c.baseURL, owner, repo)

	var pulls []struct {
		Number int `json:"number"`
	}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &pulls); err != nil {
		return 0, fmt.Errorf("list pulls %s/%s: %w", owner, repo, err)
	}
	if len(pulls) == 0 {
		return 0, nil
	}

	number := pulls[0].Number
	_ = c.cache.Set(ctx, key, []byte(strconv.Itoa(number)), c.prTTL)
	return number, nil
}

// PostIssueComment creates a comment on the given issue or pull request and
// returns its browser URL.
func (c *GitHubClient) PostIssueComment(ctx context.Context, owner, repo string, number int, body string) (string, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/issues/%d/comments", c.baseURL, owner, repo, number)

	payload := map[string]string{"body": body}
	var comment struct {
		HTMLURL string `json:"html_url"`
	}
	if err := c.doJSON(ctx, http.MethodPost, endpoint, payload, &comment); err != nil {
		return "", fmt.Errorf("post comment %s/%s#%d: %w", owner, repo, number, err)
	}
	return comment.HTMLURL, nil
}

func (c *GitHubClient) doJSON(ctx context.Context, method, endpoint string, payload any, out any) error {
	var reqBody io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("github returned %s: %s", resp.Status, utils.TruncateText(string(detail), 512))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
