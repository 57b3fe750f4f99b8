package github

import (
	"context"

	"github.com/google/go-github/v45/github"
)

// ghClient is the subset of go-github's surface the adapter needs, wrapped
// behind an interface so tests can swap in mockClient without a network
// call, grounded on internal/connectors/github's client_interface.go.
type ghClient interface {
	GetRepository(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error)

	CreatePullRequest(ctx context.Context, owner, repo string, req *github.NewPullRequest) (*github.PullRequest, *github.Response, error)
	GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
	ListPullRequests(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error)
	EditPullRequest(ctx context.Context, owner, repo string, number int, req *github.PullRequest) (*github.PullRequest, *github.Response, error)
	MergePullRequest(ctx context.Context, owner, repo string, number int, opts *github.PullRequestOptions) (*github.PullRequestMergeResult, *github.Response, error)

	CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error)
	GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error)
	ListReleases(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error)
	DeleteRelease(ctx context.Context, owner, repo string, id int64) (*github.Response, error)

	CreateIssue(ctx context.Context, owner, repo string, req *github.IssueRequest) (*github.Issue, *github.Response, error)
	GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
	ListIssues(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	EditIssue(ctx context.Context, owner, repo string, number int, req *github.IssueRequest) (*github.Issue, *github.Response, error)

	ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error)
	GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, *github.Response, error)

	ListBranches(ctx context.Context, owner, repo string, opts *github.BranchListOptions) ([]*github.Branch, *github.Response, error)
	GetBranch(ctx context.Context, owner, repo, name string) (*github.Branch, *github.Response, error)

	GetUser(ctx context.Context) (*github.User, *github.Response, error)
}

// realClient adapts a live *github.Client to ghClient.
type realClient struct {
	client *github.Client
}

func newRealClient(c *github.Client) *realClient {
	return &realClient{client: c}
}

func (r *realClient) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error) {
	return r.client.Repositories.Get(ctx, owner, repo)
}

func (r *realClient) CreatePullRequest(ctx context.Context, owner, repo string, req *github.NewPullRequest) (*github.PullRequest, *github.Response, error) {
	return r.client.PullRequests.Create(ctx, owner, repo, req)
}

func (r *realClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error) {
	return r.client.PullRequests.Get(ctx, owner, repo, number)
}

func (r *realClient) ListPullRequests(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error) {
	return r.client.PullRequests.List(ctx, owner, repo, opts)
}

func (r *realClient) EditPullRequest(ctx context.Context, owner, repo string, number int, req *github.PullRequest) (*github.PullRequest, *github.Response, error) {
	return r.client.PullRequests.Edit(ctx, owner, repo, number, req)
}

func (r *realClient) MergePullRequest(ctx context.Context, owner, repo string, number int, opts *github.PullRequestOptions) (*github.PullRequestMergeResult, *github.Response, error) {
	return r.client.PullRequests.Merge(ctx, owner, repo, number, "", opts)
}

func (r *realClient) CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error) {
	return r.client.Repositories.CreateRelease(ctx, owner, repo, release)
}

func (r *realClient) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error) {
	return r.client.Repositories.GetReleaseByTag(ctx, owner, repo, tag)
}

func (r *realClient) ListReleases(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error) {
	return r.client.Repositories.ListReleases(ctx, owner, repo, opts)
}

func (r *realClient) DeleteRelease(ctx context.Context, owner, repo string, id int64) (*github.Response, error) {
	return r.client.Repositories.DeleteRelease(ctx, owner, repo, id)
}

func (r *realClient) CreateIssue(ctx context.Context, owner, repo string, req *github.IssueRequest) (*github.Issue, *github.Response, error) {
	return r.client.Issues.Create(ctx, owner, repo, req)
}

func (r *realClient) GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error) {
	return r.client.Issues.Get(ctx, owner, repo, number)
}

func (r *realClient) ListIssues(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	return r.client.Issues.ListByRepo(ctx, owner, repo, opts)
}

func (r *realClient) EditIssue(ctx context.Context, owner, repo string, number int, req *github.IssueRequest) (*github.Issue, *github.Response, error) {
	return r.client.Issues.Edit(ctx, owner, repo, number, req)
}

func (r *realClient) ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
	return r.client.Repositories.ListCommits(ctx, owner, repo, opts)
}

func (r *realClient) GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, *github.Response, error) {
	return r.client.Repositories.GetCommit(ctx, owner, repo, sha, nil)
}

func (r *realClient) ListBranches(ctx context.Context, owner, repo string, opts *github.BranchListOptions) ([]*github.Branch, *github.Response, error) {
	return r.client.Repositories.ListBranches(ctx, owner, repo, opts)
}

func (r *realClient) GetBranch(ctx context.Context, owner, repo, name string) (*github.Branch, *github.Response, error) {
	return r.client.Repositories.GetBranch(ctx, owner, repo, name, true)
}

func (r *realClient) GetUser(ctx context.Context) (*github.User, *github.Response, error) {
	return r.client.Users.Get(ctx, "")
}

// mockClient implements ghClient for tests, grounded on
// internal/connectors/github's MockGitHubClient function-field pattern.
type mockClient struct {
	GetRepositoryFunc     func(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error)
	CreatePullRequestFunc func(ctx context.Context, owner, repo string, req *github.NewPullRequest) (*github.PullRequest, *github.Response, error)
	GetPullRequestFunc    func(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error)
	ListPullRequestsFunc  func(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error)
	EditPullRequestFunc   func(ctx context.Context, owner, repo string, number int, req *github.PullRequest) (*github.PullRequest, *github.Response, error)
	MergePullRequestFunc  func(ctx context.Context, owner, repo string, number int, opts *github.PullRequestOptions) (*github.PullRequestMergeResult, *github.Response, error)

	CreateReleaseFunc   func(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error)
	GetReleaseByTagFunc func(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error)
	ListReleasesFunc    func(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error)
	DeleteReleaseFunc   func(ctx context.Context, owner, repo string, id int64) (*github.Response, error)

	CreateIssueFunc func(ctx context.Context, owner, repo string, req *github.IssueRequest) (*github.Issue, *github.Response, error)
	GetIssueFunc    func(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error)
	ListIssuesFunc  func(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error)
	EditIssueFunc   func(ctx context.Context, owner, repo string, number int, req *github.IssueRequest) (*github.Issue, *github.Response, error)

	ListCommitsFunc func(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error)
	GetCommitFunc   func(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, *github.Response, error)

	ListBranchesFunc func(ctx context.Context, owner, repo string, opts *github.BranchListOptions) ([]*github.Branch, *github.Response, error)
	GetBranchFunc    func(ctx context.Context, owner, repo, name string) (*github.Branch, *github.Response, error)

	GetUserFunc func(ctx context.Context) (*github.User, *github.Response, error)
}

func (m *mockClient) GetRepository(ctx context.Context, owner, repo string) (*github.Repository, *github.Response, error) {
	return m.GetRepositoryFunc(ctx, owner, repo)
}

func (m *mockClient) CreatePullRequest(ctx context.Context, owner, repo string, req *github.NewPullRequest) (*github.PullRequest, *github.Response, error) {
	return m.CreatePullRequestFunc(ctx, owner, repo, req)
}

func (m *mockClient) GetPullRequest(ctx context.Context, owner, repo string, number int) (*github.PullRequest, *github.Response, error) {
	return m.GetPullRequestFunc(ctx, owner, repo, number)
}

func (m *mockClient) ListPullRequests(ctx context.Context, owner, repo string, opts *github.PullRequestListOptions) ([]*github.PullRequest, *github.Response, error) {
	return m.ListPullRequestsFunc(ctx, owner, repo, opts)
}

func (m *mockClient) EditPullRequest(ctx context.Context, owner, repo string, number int, req *github.PullRequest) (*github.PullRequest, *github.Response, error) {
	return m.EditPullRequestFunc(ctx, owner, repo, number, req)
}

func (m *mockClient) MergePullRequest(ctx context.Context, owner, repo string, number int, opts *github.PullRequestOptions) (*github.PullRequestMergeResult, *github.Response, error) {
	return m.MergePullRequestFunc(ctx, owner, repo, number, opts)
}

func (m *mockClient) CreateRelease(ctx context.Context, owner, repo string, release *github.RepositoryRelease) (*github.RepositoryRelease, *github.Response, error) {
	return m.CreateReleaseFunc(ctx, owner, repo, release)
}

func (m *mockClient) GetReleaseByTag(ctx context.Context, owner, repo, tag string) (*github.RepositoryRelease, *github.Response, error) {
	return m.GetReleaseByTagFunc(ctx, owner, repo, tag)
}

func (m *mockClient) ListReleases(ctx context.Context, owner, repo string, opts *github.ListOptions) ([]*github.RepositoryRelease, *github.Response, error) {
	return m.ListReleasesFunc(ctx, owner, repo, opts)
}

func (m *mockClient) DeleteRelease(ctx context.Context, owner, repo string, id int64) (*github.Response, error) {
	return m.DeleteReleaseFunc(ctx, owner, repo, id)
}

func (m *mockClient) CreateIssue(ctx context.Context, owner, repo string, req *github.IssueRequest) (*github.Issue, *github.Response, error) {
	return m.CreateIssueFunc(ctx, owner, repo, req)
}

func (m *mockClient) GetIssue(ctx context.Context, owner, repo string, number int) (*github.Issue, *github.Response, error) {
	return m.GetIssueFunc(ctx, owner, repo, number)
}

func (m *mockClient) ListIssues(ctx context.Context, owner, repo string, opts *github.IssueListByRepoOptions) ([]*github.Issue, *github.Response, error) {
	return m.ListIssuesFunc(ctx, owner, repo, opts)
}

func (m *mockClient) EditIssue(ctx context.Context, owner, repo string, number int, req *github.IssueRequest) (*github.Issue, *github.Response, error) {
	return m.EditIssueFunc(ctx, owner, repo, number, req)
}

func (m *mockClient) ListCommits(ctx context.Context, owner, repo string, opts *github.CommitsListOptions) ([]*github.RepositoryCommit, *github.Response, error) {
	return m.ListCommitsFunc(ctx, owner, repo, opts)
}

func (m *mockClient) GetCommit(ctx context.Context, owner, repo, sha string) (*github.RepositoryCommit, *github.Response, error) {
	return m.GetCommitFunc(ctx, owner, repo, sha)
}

func (m *mockClient) ListBranches(ctx context.Context, owner, repo string, opts *github.BranchListOptions) ([]*github.Branch, *github.Response, error) {
	return m.ListBranchesFunc(ctx, owner, repo, opts)
}

func (m *mockClient) GetBranch(ctx context.Context, owner, repo, name string) (*github.Branch, *github.Response, error) {
	return m.GetBranchFunc(ctx, owner, repo, name)
}

func (m *mockClient) GetUser(ctx context.Context) (*github.User, *github.Response, error) {
	return m.GetUserFunc(ctx)
}
