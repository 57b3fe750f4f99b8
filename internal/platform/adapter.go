package platform

import (
	"context"
	"strings"
)

// Adapter presents the subset of git-hosting operations cv-git uses. The
// credential store is queried lazily at first use (Init), so an
// unauthenticated call fails fast with an Error of kind ErrorAuth rather
// than failing deep inside an unrelated operation.
type Adapter interface {
	// Init performs the adapter's lazy first-use authentication check.
	Init(ctx context.Context) error

	Platform() Platform
	GetRepository(ctx context.Context, owner, repo string) (*Repository, error)

	CreatePullRequest(ctx context.Context, owner, repo string, pr PullRequest) (*PullRequest, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*PullRequest, error)
	ListPullRequests(ctx context.Context, owner, repo string, state PullRequestState) ([]PullRequest, error)
	UpdatePullRequest(ctx context.Context, owner, repo string, number int, pr PullRequest) (*PullRequest, error)
	MergePullRequest(ctx context.Context, owner, repo string, number int) error

	CreateRelease(ctx context.Context, owner, repo string, release Release) (*Release, error)
	GetRelease(ctx context.Context, owner, repo, tag string) (*Release, error)
	ListReleases(ctx context.Context, owner, repo string) ([]Release, error)
	DeleteRelease(ctx context.Context, owner, repo, tag string) error

	CreateIssue(ctx context.Context, owner, repo string, issue Issue) (*Issue, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*Issue, error)
	ListIssues(ctx context.Context, owner, repo string, state IssueState) ([]Issue, error)
	UpdateIssue(ctx context.Context, owner, repo string, number int, issue Issue) (*Issue, error)

	ListCommits(ctx context.Context, owner, repo string, since, until string) ([]Commit, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (*Commit, error)

	ListBranches(ctx context.Context, owner, repo string) ([]Branch, error)
	GetBranch(ctx context.Context, owner, repo, name string) (*Branch, error)

	ValidateToken(ctx context.Context) (*TokenInfo, error)
}

// Config is the subset of internal/config's platform.* keys an adapter
// needs to construct itself.
type Config struct {
	Type Platform
	URL  string // self-hosted base URL override; empty means the host's default
	API  string // self-hosted API URL override; empty means the host's default
}

// Factory constructs an Adapter for a given Config + resolved token.
type Factory func(cfg Config, token string) (Adapter, error)

var factories = map[Platform]Factory{}

// Register associates a Factory with a Platform tag. Adapter packages call
// this from an init() so CreatePlatformAdapter never needs to import them
// directly, mirroring the provider-registry pattern used throughout
// internal/embedding (AnthropicProvider, MockProvider).
func Register(p Platform, f Factory) {
	factories[p] = f
}

// CreatePlatformAdapter dispatches cfg.Type to the registered Factory and
// constructs an Adapter authenticated with token.
func CreatePlatformAdapter(cfg Config, token string) (Adapter, error) {
	f, ok := factories[cfg.Type]
	if !ok {
		return nil, NewError(ErrorInvalidRequest, "no adapter registered for platform "+string(cfg.Type), nil)
	}
	return f(cfg, token)
}

// DetectPlatform infers a Platform tag from a git remote URL (SSH or HTTPS),
// grounded on internal/connectors/github's repository-URL parsing. Unknown
// hosts resolve to PlatformGeneric rather than erroring, since a self-hosted
// instance's URL carries no host-name hint.
func DetectPlatform(remoteURL string) (Platform, error) {
	lower := strings.ToLower(remoteURL)
	switch {
	case strings.Contains(lower, "github.com"):
		return PlatformGitHub, nil
	case strings.Contains(lower, "gitlab.com"):
		return PlatformGitLab, nil
	case strings.Contains(lower, "bitbucket.org"):
		return PlatformBitbucket, nil
	default:
		return PlatformGeneric, nil
	}
}
