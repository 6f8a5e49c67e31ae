// Package github is a minimal client for the GitHub REST API surface the
// ticket store needs: issues, issue comments, and repository resolution.
//
// The client performs synchronous network I/O and knows nothing about
// tickets or rate budgets; callers are expected to serialize access
// through the worker queue.
package github

import (
	"net/http"
	"time"
)

// API configuration constants.
const (
	// DefaultAPIEndpoint is the GitHub REST API base URL.
	DefaultAPIEndpoint = "https://api.github.com"

	// DefaultTimeout bounds a single HTTP request. This is the only
	// timeout in the remote path; the worker queue deliberately has none.
	DefaultTimeout = 30 * time.Second

	// MaxPageSize is the number of items requested per page.
	MaxPageSize = 100

	// MaxPages caps pagination to protect against malformed Link headers.
	MaxPages = 1000

	// retryMaxElapsed bounds the total time spent retrying one request.
	retryMaxElapsed = 2 * time.Minute
)

// Credentials authenticates against the API. Exactly one of Token or the
// Username/Password pair should be set; config validation enforces that
// before a client is ever constructed.
type Credentials struct {
	Token    string
	Username string
	Password string
}

// Client provides methods to interact with the GitHub REST API.
type Client struct {
	Credentials Credentials
	Owner       string // Repository owner (user or org)
	Repo        string // Repository name
	BaseURL     string // API base URL (default: https://api.github.com)
	HTTPClient  *http.Client
}

// Issue represents an issue from the GitHub API.
type Issue struct {
	ID          int        `json:"id"`     // Global unique ID
	Number      int        `json:"number"` // Repository-scoped issue number
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	State       string     `json:"state"` // "open" or "closed"
	CreatedAt   *time.Time `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
	Labels      []Label    `json:"labels"`
	User        *User      `json:"user,omitempty"` // Author
	HTMLURL     string     `json:"html_url"`
	PullRequest *PullRef   `json:"pull_request,omitempty"` // Non-nil if this is a PR
}

// Comment represents an issue comment from the GitHub API.
type Comment struct {
	ID        int        `json:"id"`
	Body      string     `json:"body"`
	CreatedAt *time.Time `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	User      *User      `json:"user,omitempty"`
	HTMLURL   string     `json:"html_url,omitempty"`
}

// PullRef indicates an issue is actually a pull request. The Issues API
// returns PRs alongside issues; this field distinguishes them.
type PullRef struct {
	URL string `json:"url,omitempty"`
}

// User represents a GitHub user.
type User struct {
	ID      int    `json:"id"`
	Login   string `json:"login"`
	Name    string `json:"name,omitempty"`
	HTMLURL string `json:"html_url,omitempty"`
}

// Label represents a GitHub label.
type Label struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Description string `json:"description,omitempty"`
}

// Repository represents a GitHub repository.
type Repository struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	FullName string `json:"full_name"`
	Private  bool   `json:"private"`
	HTMLURL  string `json:"html_url"`
	Owner    *User  `json:"owner,omitempty"`
}

// Issue states accepted by the API.
const (
	StateOpen   = "open"
	StateClosed = "closed"
	StateAll    = "all"
)
