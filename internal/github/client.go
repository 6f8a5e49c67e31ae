package github

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/cenkalti/backoff/v4"
)

// ErrNotFound is returned when the requested item does not exist in the
// repository. Callers must treat it as an absent result, distinct from
// transport failure.
var ErrNotFound = errors.New("github: not found")

// StatusError is a non-2xx API response that is not a plain not-found.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("github: API error: %s (status %d)", e.Body, e.StatusCode)
}

// NewClient creates a client for the given repository coordinates.
func NewClient(creds Credentials, owner, repo string) *Client {
	return &Client{
		Credentials: creds,
		Owner:       owner,
		Repo:        repo,
		BaseURL:     DefaultAPIEndpoint,
		HTTPClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// WithHTTPClient returns a copy of the client using a custom HTTP client.
func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	clone := *c
	clone.HTTPClient = httpClient
	return &clone
}

// WithBaseURL returns a copy of the client using a custom base URL
// (for testing or GitHub Enterprise).
func (c *Client) WithBaseURL(baseURL string) *Client {
	clone := *c
	clone.BaseURL = baseURL
	return &clone
}

// repoPath returns the "owner/repo" path segment.
func (c *Client) repoPath() string {
	return c.Owner + "/" + c.Repo
}

// buildURL constructs a full API URL.
func (c *Client) buildURL(path string, params map[string]string) string {
	u := c.BaseURL + path
	if len(params) > 0 {
		values := url.Values{}
		for k, v := range params {
			values.Set(k, v)
		}
		u += "?" + values.Encode()
	}
	return u
}

// newRequestBackoff returns a fresh retry policy for one logical request.
// BackOff implementations are stateful; never share an instance.
func newRequestBackoff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryMaxElapsed
	return backoff.WithContext(bo, ctx)
}

// retryable reports whether an HTTP status should be retried. GitHub
// signals rate limiting with 429, or 403 with an exhausted quota header.
func retryable(resp *http.Response) bool {
	if resp.StatusCode == http.StatusTooManyRequests {
		return true
	}
	if resp.StatusCode == http.StatusForbidden && resp.Header.Get("X-RateLimit-Remaining") == "0" {
		return true
	}
	return resp.StatusCode >= 500
}

// doRequest performs an authenticated request with retry on transient
// failures. Not-found responses map to ErrNotFound and are never retried.
func (c *Client) doRequest(ctx context.Context, method, urlStr string, body interface{}) ([]byte, http.Header, error) {
	var jsonBody []byte
	if body != nil {
		var err error
		jsonBody, err = json.Marshal(body)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	var respBody []byte
	var respHeader http.Header

	attempt := func() error {
		var reqBody io.Reader
		if jsonBody != nil {
			reqBody = bytes.NewReader(jsonBody)
		}
		req, err := http.NewRequestWithContext(ctx, method, urlStr, reqBody)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
		}

		if c.Credentials.Token != "" {
			req.Header.Set("Authorization", "Bearer "+c.Credentials.Token)
		} else {
			req.SetBasicAuth(c.Credentials.Username, c.Credentials.Password)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}

		const maxResponseSize = 50 * 1024 * 1024
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		_ = resp.Body.Close()
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case retryable(resp):
			return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return backoff.Permanent(&StatusError{StatusCode: resp.StatusCode, Body: string(data)})
		}

		respBody = data
		respHeader = resp.Header
		return nil
	}

	if err := backoff.Retry(attempt, newRequestBackoff(ctx)); err != nil {
		return nil, nil, err
	}
	return respBody, respHeader, nil
}

// linkNextPattern matches the "next" relation in GitHub Link headers.
var linkNextPattern = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// hasNextPage checks the Link header for a next page URL.
func hasNextPage(headers http.Header) (string, bool) {
	link := headers.Get("Link")
	if link == "" {
		return "", false
	}
	matches := linkNextPattern.FindStringSubmatch(link)
	if len(matches) < 2 {
		return "", false
	}
	return matches[1], true
}

// GetRepository resolves the configured repository. ErrNotFound means the
// repository does not exist or the credentials cannot see it.
func (c *Client) GetRepository(ctx context.Context) (*Repository, error) {
	urlStr := c.buildURL("/repos/"+c.repoPath(), nil)
	respBody, _, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to resolve repository %s: %w", c.repoPath(), err)
	}

	var repo Repository
	if err := json.Unmarshal(respBody, &repo); err != nil {
		return nil, fmt.Errorf("failed to parse repository response: %w", err)
	}
	return &repo, nil
}

// CreateIssue creates a new issue.
func (c *Client) CreateIssue(ctx context.Context, title, body string, labels []string) (*Issue, error) {
	reqBody := map[string]interface{}{
		"title": title,
		"body":  body,
	}
	if len(labels) > 0 {
		reqBody["labels"] = labels
	}

	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPost, urlStr, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create issue: %w", err)
	}

	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse create response: %w", err)
	}
	return &issue, nil
}

// GetIssue retrieves a single issue by number. A missing issue surfaces
// as ErrNotFound, unwrapped, so callers can map it to an absent result.
func (c *Client) GetIssue(ctx context.Context, number int) (*Issue, error) {
	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues/"+strconv.Itoa(number), nil)
	respBody, _, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch issue #%d: %w", number, err)
	}

	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse issue response: %w", err)
	}
	return &issue, nil
}

// EditIssueState sets an issue's state to StateOpen or StateClosed.
// GitHub uses PATCH for issue updates.
func (c *Client) EditIssueState(ctx context.Context, number int, state string) (*Issue, error) {
	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues/"+strconv.Itoa(number), nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPatch, urlStr, map[string]interface{}{"state": state})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update issue #%d: %w", number, err)
	}

	var issue Issue
	if err := json.Unmarshal(respBody, &issue); err != nil {
		return nil, fmt.Errorf("failed to parse update response: %w", err)
	}
	return &issue, nil
}

// ListIssues retrieves issues filtered by state (StateOpen, StateClosed,
// or StateAll). Pull requests are filtered out: the Issues endpoint
// returns them alongside issues.
func (c *Client) ListIssues(ctx context.Context, state string) ([]Issue, error) {
	var allIssues []Issue
	page := 1

	for {
		select {
		case <-ctx.Done():
			return allIssues, ctx.Err()
		default:
		}

		params := map[string]string{
			"per_page": strconv.Itoa(MaxPageSize),
			"page":     strconv.Itoa(page),
		}
		if state == "" {
			state = StateAll
		}
		params["state"] = state

		urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues", params)
		respBody, headers, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch issues: %w", err)
		}

		var issues []Issue
		if err := json.Unmarshal(respBody, &issues); err != nil {
			return nil, fmt.Errorf("failed to parse issues response: %w", err)
		}

		for i := range issues {
			if issues[i].PullRequest == nil {
				allIssues = append(allIssues, issues[i])
			}
		}

		if _, ok := hasNextPage(headers); !ok {
			break
		}
		page++

		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}
	}

	return allIssues, nil
}

// CreateComment adds a comment to an issue. A missing issue surfaces as
// ErrNotFound.
func (c *Client) CreateComment(ctx context.Context, number int, body string) (*Comment, error) {
	urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues/"+strconv.Itoa(number)+"/comments", nil)
	respBody, _, err := c.doRequest(ctx, http.MethodPost, urlStr, map[string]interface{}{"body": body})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to comment on issue #%d: %w", number, err)
	}

	var comment Comment
	if err := json.Unmarshal(respBody, &comment); err != nil {
		return nil, fmt.Errorf("failed to parse comment response: %w", err)
	}
	return &comment, nil
}

// ListComments retrieves all comments on an issue, oldest first.
func (c *Client) ListComments(ctx context.Context, number int) ([]Comment, error) {
	var allComments []Comment
	page := 1

	for {
		select {
		case <-ctx.Done():
			return allComments, ctx.Err()
		default:
		}

		params := map[string]string{
			"per_page": strconv.Itoa(MaxPageSize),
			"page":     strconv.Itoa(page),
		}
		urlStr := c.buildURL("/repos/"+c.repoPath()+"/issues/"+strconv.Itoa(number)+"/comments", params)
		respBody, headers, err := c.doRequest(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to fetch comments for issue #%d: %w", number, err)
		}

		var comments []Comment
		if err := json.Unmarshal(respBody, &comments); err != nil {
			return nil, fmt.Errorf("failed to parse comments response: %w", err)
		}
		allComments = append(allComments, comments...)

		if _, ok := hasNextPage(headers); !ok {
			break
		}
		page++

		if page > MaxPages {
			return nil, fmt.Errorf("pagination limit exceeded: stopped after %d pages", MaxPages)
		}
	}

	return allComments, nil
}
