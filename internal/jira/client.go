package jira

import (
	"context"
	"strings"
	"time"
)

// Issue is the subset of a Jira issue needed to reconstruct its sprint timeline.
type Issue struct {
	Key       string
	IssueType string
	Status    string
	Created   *time.Time
	Resolved  *time.Time
	Labels    []string
	ParentKey string
	Flagged   bool
	Points    float64
	History   []Change // ascending by At
}

// IsEpic reports whether the issue type is an epic.
func (i Issue) IsEpic() bool {
	return strings.EqualFold(i.IssueType, "epic")
}

// Change is one changelog entry with its typed field transitions.
type Change struct {
	At    time.Time
	Items []ChangeItem
}

// ChangeItem is a single field transition within a Change.
type ChangeItem struct {
	Kind       FieldKind
	Field      string
	From       string
	FromString string
	To         string
	ToString   string
}

// FromValue returns the display value before the change, falling back to the raw id.
func (c ChangeItem) FromValue() string {
	if c.FromString != "" {
		return c.FromString
	}
	return c.From
}

// ToValue returns the display value after the change, falling back to the raw id.
func (c ChangeItem) ToValue() string {
	if c.ToString != "" {
		return c.ToString
	}
	return c.To
}

// Client is the interface for interacting with Jira Cloud.
type Client interface {
	ListBoards(ctx context.Context) ([]BoardDTO, error)
	GetVelocity(ctx context.Context, boardID int) (*VelocityDTO, error)
	ListSprints(ctx context.Context, boardID int) ([]SprintDTO, error)
	GetSprintReport(ctx context.Context, boardID, sprintID int) (*SprintReportDTO, error)
	GetIssue(ctx context.Context, key string) (*IssueDTO, error)
	GetEpic(ctx context.Context, key string) (*IssueDTO, error)
}

// AuthMode selects one of the supported authentication schemes.
type AuthMode string

const (
	AuthAuto  AuthMode = "auto"
	AuthBasic AuthMode = "basic"
	AuthPAT   AuthMode = "pat"
	AuthOAuth AuthMode = "oauth"
)

// OAuthConfig holds an already-issued Atlassian OAuth 2.0 (3LO) token pair.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
	CloudID      string
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	Domain   string // e.g. acme.atlassian.net
	APIBase  string // overrides every other base URL when set
	AuthMode AuthMode

	// Basic auth
	Email    string
	APIToken string

	// Personal access token
	PAT string

	OAuth OAuthConfig

	PointsField string

	// Performance Settings
	RequestDelay time.Duration
	Timeout      time.Duration
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	return NewCloudClient(ctx, cfg)
}
