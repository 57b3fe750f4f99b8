// Package github implements platform.Adapter against the GitHub REST API,
// grounded on internal/connectors/github's oauth2 client construction and
// client-interface-wrapping style.
package github

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/go-github/v45/github"
	"golang.org/x/oauth2"

	"github.com/controlvector/cv-git/internal/platform"
)

func init() {
	platform.Register(platform.PlatformGitHub, New)
}

// Adapter implements platform.Adapter against github.com or a GitHub
// Enterprise instance (cfg.API overrides the API base URL).
type Adapter struct {
	client ghClient
	token  string
}

// New constructs a GitHub Adapter. It satisfies platform.Factory so it can
// be registered with platform.Register.
func New(cfg platform.Config, token string) (platform.Adapter, error) {
	if token == "" {
		return nil, platform.NewError(platform.ErrorAuth, "no token provided for github adapter", nil)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	var gh *github.Client
	if cfg.API != "" {
		var err error
		gh, err = github.NewEnterpriseClient(cfg.API, cfg.API, tc)
		if err != nil {
			return nil, platform.NewError(platform.ErrorInvalidRequest, "constructing enterprise client", err)
		}
	} else {
		gh = github.NewClient(tc)
	}

	return &Adapter{client: newRealClient(gh), token: token}, nil
}

// newWithClient is used by tests to inject a mockClient.
func newWithClient(c ghClient) *Adapter {
	return &Adapter{client: c}
}

func (a *Adapter) Platform() platform.Platform {
	return platform.PlatformGitHub
}

// Init validates the token eagerly so a misconfigured credential fails at
// startup rather than inside the first unrelated operation.
func (a *Adapter) Init(ctx context.Context) error {
	info, err := a.ValidateToken(ctx)
	if err != nil {
		return err
	}
	if !info.Valid {
		return platform.NewError(platform.ErrorAuth, "github token is invalid or expired", nil)
	}
	return nil
}

func translateError(kind platform.ErrorKind, action string, err error) error {
	if err == nil {
		return nil
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		switch ghErr.Response.StatusCode {
		case 401, 403:
			return platform.NewError(platform.ErrorAuth, action, err)
		case 404:
			return platform.NewError(platform.ErrorNotFound, action, err)
		case 429:
			return platform.NewError(platform.ErrorRateLimited, action, err)
		}
		if ghErr.Response.StatusCode >= 500 {
			return platform.NewError(platform.ErrorServer, action, err)
		}
	}
	var rlErr *github.RateLimitError
	if errors.As(err, &rlErr) {
		return platform.NewError(platform.ErrorRateLimited, action, err)
	}
	return platform.NewError(kind, action, err)
}

func (a *Adapter) GetRepository(ctx context.Context, owner, repo string) (*platform.Repository, error) {
	r, _, err := a.client.GetRepository(ctx, owner, repo)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "get repository", err)
	}
	return convertRepository(r), nil
}

func (a *Adapter) CreatePullRequest(ctx context.Context, owner, repo string, pr platform.PullRequest) (*platform.PullRequest, error) {
	req := &github.NewPullRequest{
		Title: github.String(pr.Title),
		Body:  github.String(pr.Body),
		Head:  github.String(pr.Head),
		Base:  github.String(pr.Base),
		Draft: github.Bool(pr.Draft),
	}
	created, _, err := a.client.CreatePullRequest(ctx, owner, repo, req)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "create pull request", err)
	}
	return convertPullRequest(created), nil
}

func (a *Adapter) GetPullRequest(ctx context.Context, owner, repo string, number int) (*platform.PullRequest, error) {
	pr, _, err := a.client.GetPullRequest(ctx, owner, repo, number)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "get pull request", err)
	}
	return convertPullRequest(pr), nil
}

func (a *Adapter) ListPullRequests(ctx context.Context, owner, repo string, state platform.PullRequestState) ([]platform.PullRequest, error) {
	ghState := "open"
	if state == platform.PullRequestClosed || state == platform.PullRequestMerged {
		ghState = "closed"
	}
	opts := &github.PullRequestListOptions{State: ghState, ListOptions: github.ListOptions{PerPage: 100}}

	var out []platform.PullRequest
	for {
		prs, resp, err := a.client.ListPullRequests(ctx, owner, repo, opts)
		if err != nil {
			return nil, translateError(platform.ErrorNetwork, "list pull requests", err)
		}
		for _, pr := range prs {
			converted := convertPullRequest(pr)
			if state == "" || converted.State == state {
				out = append(out, *converted)
			}
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (a *Adapter) UpdatePullRequest(ctx context.Context, owner, repo string, number int, pr platform.PullRequest) (*platform.PullRequest, error) {
	req := &github.PullRequest{
		Title: github.String(pr.Title),
		Body:  github.String(pr.Body),
	}
	if pr.State == platform.PullRequestClosed {
		req.State = github.String("closed")
	} else if pr.State == platform.PullRequestOpen {
		req.State = github.String("open")
	}
	updated, _, err := a.client.EditPullRequest(ctx, owner, repo, number, req)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "update pull request", err)
	}
	return convertPullRequest(updated), nil
}

func (a *Adapter) MergePullRequest(ctx context.Context, owner, repo string, number int) error {
	result, _, err := a.client.MergePullRequest(ctx, owner, repo, number, &github.PullRequestOptions{})
	if err != nil {
		return translateError(platform.ErrorNetwork, "merge pull request", err)
	}
	if result != nil && !result.GetMerged() {
		return platform.NewError(platform.ErrorInvalidRequest, fmt.Sprintf("merge not performed: %s", result.GetMessage()), nil)
	}
	return nil
}

func (a *Adapter) CreateRelease(ctx context.Context, owner, repo string, release platform.Release) (*platform.Release, error) {
	req := &github.RepositoryRelease{
		TagName:    github.String(release.TagName),
		Name:       github.String(release.Name),
		Body:       github.String(release.Body),
		Draft:      github.Bool(release.Draft),
		Prerelease: github.Bool(release.Prerelease),
	}
	created, _, err := a.client.CreateRelease(ctx, owner, repo, req)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "create release", err)
	}
	return convertRelease(created), nil
}

func (a *Adapter) GetRelease(ctx context.Context, owner, repo, tag string) (*platform.Release, error) {
	r, _, err := a.client.GetReleaseByTag(ctx, owner, repo, tag)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "get release", err)
	}
	return convertRelease(r), nil
}

func (a *Adapter) ListReleases(ctx context.Context, owner, repo string) ([]platform.Release, error) {
	opts := &github.ListOptions{PerPage: 100}
	var out []platform.Release
	for {
		releases, resp, err := a.client.ListReleases(ctx, owner, repo, opts)
		if err != nil {
			return nil, translateError(platform.ErrorNetwork, "list releases", err)
		}
		for _, r := range releases {
			out = append(out, *convertRelease(r))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (a *Adapter) DeleteRelease(ctx context.Context, owner, repo, tag string) error {
	r, _, err := a.client.GetReleaseByTag(ctx, owner, repo, tag)
	if err != nil {
		return translateError(platform.ErrorNetwork, "resolve release for deletion", err)
	}
	_, err = a.client.DeleteRelease(ctx, owner, repo, r.GetID())
	if err != nil {
		return translateError(platform.ErrorNetwork, "delete release", err)
	}
	return nil
}

func (a *Adapter) CreateIssue(ctx context.Context, owner, repo string, issue platform.Issue) (*platform.Issue, error) {
	req := &github.IssueRequest{
		Title:  github.String(issue.Title),
		Body:   github.String(issue.Body),
		Labels: &issue.Labels,
	}
	created, _, err := a.client.CreateIssue(ctx, owner, repo, req)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "create issue", err)
	}
	return convertIssue(created), nil
}

func (a *Adapter) GetIssue(ctx context.Context, owner, repo string, number int) (*platform.Issue, error) {
	i, _, err := a.client.GetIssue(ctx, owner, repo, number)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "get issue", err)
	}
	return convertIssue(i), nil
}

func (a *Adapter) ListIssues(ctx context.Context, owner, repo string, state platform.IssueState) ([]platform.Issue, error) {
	ghState := "open"
	if state == platform.IssueClosed {
		ghState = "closed"
	}
	if state == "" {
		ghState = "all"
	}
	opts := &github.IssueListByRepoOptions{State: ghState, ListOptions: github.ListOptions{PerPage: 100}}

	var out []platform.Issue
	for {
		issues, resp, err := a.client.ListIssues(ctx, owner, repo, opts)
		if err != nil {
			return nil, translateError(platform.ErrorNetwork, "list issues", err)
		}
		for _, i := range issues {
			if i.PullRequestLinks != nil {
				continue // exclude PRs, which GitHub's issues endpoint also returns
			}
			out = append(out, *convertIssue(i))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (a *Adapter) UpdateIssue(ctx context.Context, owner, repo string, number int, issue platform.Issue) (*platform.Issue, error) {
	req := &github.IssueRequest{
		Title:  github.String(issue.Title),
		Body:   github.String(issue.Body),
		Labels: &issue.Labels,
	}
	if issue.State != "" {
		req.State = github.String(string(issue.State))
	}
	updated, _, err := a.client.EditIssue(ctx, owner, repo, number, req)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "update issue", err)
	}
	return convertIssue(updated), nil
}

func (a *Adapter) ListCommits(ctx context.Context, owner, repo string, since, until string) ([]platform.Commit, error) {
	opts := &github.CommitsListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	if since != "" {
		t, err := parseTimeParam(since)
		if err != nil {
			return nil, platform.NewError(platform.ErrorInvalidRequest, "invalid since parameter", err)
		}
		opts.Since = t
	}
	if until != "" {
		t, err := parseTimeParam(until)
		if err != nil {
			return nil, platform.NewError(platform.ErrorInvalidRequest, "invalid until parameter", err)
		}
		opts.Until = t
	}

	var out []platform.Commit
	for {
		commits, resp, err := a.client.ListCommits(ctx, owner, repo, opts)
		if err != nil {
			return nil, translateError(platform.ErrorNetwork, "list commits", err)
		}
		for _, c := range commits {
			out = append(out, *convertCommit(c))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (a *Adapter) GetCommit(ctx context.Context, owner, repo, sha string) (*platform.Commit, error) {
	c, _, err := a.client.GetCommit(ctx, owner, repo, sha)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "get commit", err)
	}
	return convertCommit(c), nil
}

func (a *Adapter) ListBranches(ctx context.Context, owner, repo string) ([]platform.Branch, error) {
	opts := &github.BranchListOptions{ListOptions: github.ListOptions{PerPage: 100}}
	var out []platform.Branch
	for {
		branches, resp, err := a.client.ListBranches(ctx, owner, repo, opts)
		if err != nil {
			return nil, translateError(platform.ErrorNetwork, "list branches", err)
		}
		for _, b := range branches {
			out = append(out, *convertBranch(b))
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (a *Adapter) GetBranch(ctx context.Context, owner, repo, name string) (*platform.Branch, error) {
	b, _, err := a.client.GetBranch(ctx, owner, repo, name)
	if err != nil {
		return nil, translateError(platform.ErrorNetwork, "get branch", err)
	}
	return convertBranch(b), nil
}

func (a *Adapter) ValidateToken(ctx context.Context) (*platform.TokenInfo, error) {
	user, resp, err := a.client.GetUser(ctx)
	if err != nil {
		translated := translateError(platform.ErrorAuth, "validate token", err)
		if pErr, ok := translated.(*platform.Error); ok && pErr.Kind == platform.ErrorAuth {
			return &platform.TokenInfo{Valid: false}, nil
		}
		return nil, translated
	}
	var scopes []string
	if resp != nil {
		if s := resp.Header.Get("X-OAuth-Scopes"); s != "" {
			scopes = splitAndTrim(s)
		}
	}
	return &platform.TokenInfo{Valid: true, Scopes: scopes, Login: user.GetLogin()}, nil
}
