package github

import (
	"context"
	"net/http"
	"testing"

	gogithub "github.com/google/go-github/v45/github"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/controlvector/cv-git/internal/platform"
)

func TestGetRepositoryConvertsFields(t *testing.T) {
	mc := &mockClient{
		GetRepositoryFunc: func(ctx context.Context, owner, repo string) (*gogithub.Repository, *gogithub.Response, error) {
			return &gogithub.Repository{
				Name:          gogithub.String("cv-git"),
				Owner:         &gogithub.User{Login: gogithub.String("controlvector")},
				DefaultBranch: gogithub.String("main"),
				Private:       gogithub.Bool(true),
			}, &gogithub.Response{}, nil
		},
	}
	a := newWithClient(mc)

	repo, err := a.GetRepository(context.Background(), "controlvector", "cv-git")
	require.NoError(t, err)
	assert.Equal(t, "cv-git", repo.Name)
	assert.Equal(t, "controlvector", repo.Owner)
	assert.Equal(t, "main", repo.DefaultBranch)
	assert.True(t, repo.Private)
}

func TestGetRepositoryNotFoundTranslatesToPlatformError(t *testing.T) {
	mc := &mockClient{
		GetRepositoryFunc: func(ctx context.Context, owner, repo string) (*gogithub.Repository, *gogithub.Response, error) {
			return nil, &gogithub.Response{Response: &http.Response{StatusCode: 404}}, &gogithub.ErrorResponse{
				Response: &http.Response{StatusCode: 404},
				Message:  "Not Found",
			}
		},
	}
	a := newWithClient(mc)

	_, err := a.GetRepository(context.Background(), "controlvector", "missing")
	require.Error(t, err)
	var pErr *platform.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, platform.ErrorNotFound, pErr.Kind)
}

func TestListPullRequestsFiltersByConvertedState(t *testing.T) {
	mc := &mockClient{
		ListPullRequestsFunc: func(ctx context.Context, owner, repo string, opts *gogithub.PullRequestListOptions) ([]*gogithub.PullRequest, *gogithub.Response, error) {
			return []*gogithub.PullRequest{
				{Number: gogithub.Int(1), State: gogithub.String("closed"), Merged: gogithub.Bool(true)},
				{Number: gogithub.Int(2), State: gogithub.String("closed"), Merged: gogithub.Bool(false)},
			}, &gogithub.Response{}, nil
		},
	}
	a := newWithClient(mc)

	merged, err := a.ListPullRequests(context.Background(), "o", "r", platform.PullRequestMerged)
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, 1, merged[0].Number)

	closed, err := a.ListPullRequests(context.Background(), "o", "r", platform.PullRequestClosed)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	assert.Equal(t, 2, closed[0].Number)
}

func TestMergePullRequestReturnsErrorWhenNotMerged(t *testing.T) {
	mc := &mockClient{
		MergePullRequestFunc: func(ctx context.Context, owner, repo string, number int, opts *gogithub.PullRequestOptions) (*gogithub.PullRequestMergeResult, *gogithub.Response, error) {
			return &gogithub.PullRequestMergeResult{Merged: gogithub.Bool(false), Message: gogithub.String("conflicts")}, &gogithub.Response{}, nil
		},
	}
	a := newWithClient(mc)

	err := a.MergePullRequest(context.Background(), "o", "r", 5)
	require.Error(t, err)
	var pErr *platform.Error
	require.ErrorAs(t, err, &pErr)
	assert.Equal(t, platform.ErrorInvalidRequest, pErr.Kind)
}

func TestListIssuesExcludesPullRequests(t *testing.T) {
	mc := &mockClient{
		ListIssuesFunc: func(ctx context.Context, owner, repo string, opts *gogithub.IssueListByRepoOptions) ([]*gogithub.Issue, *gogithub.Response, error) {
			return []*gogithub.Issue{
				{Number: gogithub.Int(1), State: gogithub.String("open")},
				{Number: gogithub.Int(2), State: gogithub.String("open"), PullRequestLinks: &gogithub.PullRequestLinks{}},
			}, &gogithub.Response{}, nil
		},
	}
	a := newWithClient(mc)

	issues, err := a.ListIssues(context.Background(), "o", "r", platform.IssueOpen)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].Number)
}

func TestValidateTokenInvalidCredentialReturnsInvalidNotError(t *testing.T) {
	mc := &mockClient{
		GetUserFunc: func(ctx context.Context) (*gogithub.User, *gogithub.Response, error) {
			return nil, &gogithub.Response{Response: &http.Response{StatusCode: 401}}, &gogithub.ErrorResponse{
				Response: &http.Response{StatusCode: 401},
				Message:  "Bad credentials",
			}
		},
	}
	a := newWithClient(mc)

	info, err := a.ValidateToken(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Valid)
}

func TestValidateTokenValidCredential(t *testing.T) {
	mc := &mockClient{
		GetUserFunc: func(ctx context.Context) (*gogithub.User, *gogithub.Response, error) {
			return &gogithub.User{Login: gogithub.String("octocat")}, &gogithub.Response{}, nil
		},
	}
	a := newWithClient(mc)

	info, err := a.ValidateToken(context.Background())
	require.NoError(t, err)
	assert.True(t, info.Valid)
	assert.Equal(t, "octocat", info.Login)
}

func TestDetectPlatformFromRemoteURL(t *testing.T) {
	p, err := platform.DetectPlatform("git@github.com:controlvector/cv-git.git")
	require.NoError(t, err)
	assert.Equal(t, platform.PlatformGitHub, p)

	p, err = platform.DetectPlatform("https://gitlab.com/foo/bar.git")
	require.NoError(t, err)
	assert.Equal(t, platform.PlatformGitLab, p)

	p, err = platform.DetectPlatform("https://git.internal.example.com/foo/bar.git")
	require.NoError(t, err)
	assert.Equal(t, platform.PlatformGeneric, p)
}
