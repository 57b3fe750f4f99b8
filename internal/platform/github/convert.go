package github

import (
	"time"

	"github.com/google/go-github/v45/github"

	"github.com/controlvector/cv-git/internal/platform"
)

func convertUser(u *github.User) platform.User {
	if u == nil {
		return platform.User{}
	}
	return platform.User{
		Login:     u.GetLogin(),
		Name:      u.GetName(),
		Email:     u.GetEmail(),
		AvatarURL: u.GetAvatarURL(),
	}
}

func convertRepository(r *github.Repository) *platform.Repository {
	if r == nil {
		return nil
	}
	var created, updated time.Time
	if r.CreatedAt != nil {
		created = r.CreatedAt.Time
	}
	if r.UpdatedAt != nil {
		updated = r.UpdatedAt.Time
	}
	return &platform.Repository{
		Owner:         r.GetOwner().GetLogin(),
		Name:          r.GetName(),
		DefaultBranch: r.GetDefaultBranch(),
		CloneURL:      r.GetCloneURL(),
		Private:       r.GetPrivate(),
		Description:   r.GetDescription(),
		CreatedAt:     created,
		UpdatedAt:     updated,
	}
}

func pullRequestState(pr *github.PullRequest) platform.PullRequestState {
	if pr.GetMerged() || pr.MergedAt != nil {
		return platform.PullRequestMerged
	}
	if pr.GetState() == "closed" {
		return platform.PullRequestClosed
	}
	return platform.PullRequestOpen
}

func convertPullRequest(pr *github.PullRequest) *platform.PullRequest {
	if pr == nil {
		return nil
	}
	var created, updated time.Time
	if pr.CreatedAt != nil {
		created = pr.CreatedAt.Time
	}
	if pr.UpdatedAt != nil {
		updated = pr.UpdatedAt.Time
	}
	var mergedAt *time.Time
	if pr.MergedAt != nil {
		t := pr.MergedAt.Time
		mergedAt = &t
	}
	head, base := "", ""
	if pr.Head != nil {
		head = pr.Head.GetRef()
	}
	if pr.Base != nil {
		base = pr.Base.GetRef()
	}
	return &platform.PullRequest{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Body:      pr.GetBody(),
		State:     pullRequestState(pr),
		Draft:     pr.GetDraft(),
		Author:    convertUser(pr.User),
		Head:      head,
		Base:      base,
		URL:       pr.GetHTMLURL(),
		CreatedAt: created,
		UpdatedAt: updated,
		MergedAt:  mergedAt,
	}
}

func convertRelease(r *github.RepositoryRelease) *platform.Release {
	if r == nil {
		return nil
	}
	var created time.Time
	if r.CreatedAt != nil {
		created = r.CreatedAt.Time
	}
	return &platform.Release{
		TagName:    r.GetTagName(),
		Name:       r.GetName(),
		Body:       r.GetBody(),
		Draft:      r.GetDraft(),
		Prerelease: r.GetPrerelease(),
		URL:        r.GetHTMLURL(),
		CreatedAt:  created,
	}
}

func issueState(i *github.Issue) platform.IssueState {
	if i.GetState() == "closed" {
		return platform.IssueClosed
	}
	return platform.IssueOpen
}

func convertIssue(i *github.Issue) *platform.Issue {
	if i == nil {
		return nil
	}
	var created, updated time.Time
	if i.CreatedAt != nil {
		created = i.CreatedAt.Time
	}
	if i.UpdatedAt != nil {
		updated = i.UpdatedAt.Time
	}
	labels := make([]string, 0, len(i.Labels))
	for _, l := range i.Labels {
		labels = append(labels, l.GetName())
	}
	return &platform.Issue{
		Number:    i.GetNumber(),
		Title:     i.GetTitle(),
		Body:      i.GetBody(),
		State:     issueState(i),
		Author:    convertUser(i.User),
		Labels:    labels,
		URL:       i.GetHTMLURL(),
		CreatedAt: created,
		UpdatedAt: updated,
	}
}

func convertCommit(c *github.RepositoryCommit) *platform.Commit {
	if c == nil {
		return nil
	}
	var ts time.Time
	var author platform.User
	if c.Commit != nil {
		if c.Commit.Author != nil && c.Commit.Author.Date != nil {
			ts = *c.Commit.Author.Date
		}
		if c.Commit.Author != nil {
			author = platform.User{Name: c.Commit.Author.GetName(), Email: c.Commit.Author.GetEmail()}
		}
	}
	if c.Author != nil {
		author = convertUser(c.Author)
	}
	message := ""
	if c.Commit != nil {
		message = c.Commit.GetMessage()
	}
	return &platform.Commit{
		SHA:       c.GetSHA(),
		Message:   message,
		Author:    author,
		URL:       c.GetHTMLURL(),
		Timestamp: ts,
	}
}

func convertBranch(b *github.Branch) *platform.Branch {
	if b == nil {
		return nil
	}
	sha := ""
	if b.Commit != nil {
		sha = b.Commit.GetSHA()
	}
	return &platform.Branch{
		Name:      b.GetName(),
		SHA:       sha,
		Protected: b.GetProtected(),
	}
}
