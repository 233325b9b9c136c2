// Package github fetches release history (tags, merged pull requests and
// default branches) from the GitHub REST API.
package github

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"github.com/google/go-github/v62/github"
	"golang.org/x/oauth2"

	"changelog.dev/changelog/internal/errors"
	"changelog.dev/changelog/internal/snapshot"
)

const perPage = 100

// Client reads repository history through go-github
type Client struct {
	gh *github.Client
}

// NewClient creates an authenticated client. An empty or github.com
// hostname uses the public API; anything else is treated as Enterprise.
func NewClient(ctx context.Context, hostname, token string) (*Client, error) {
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	gh := github.NewClient(oauth2.NewClient(ctx, ts))

	if hostname != "" && hostname != "github.com" {
		baseURL, err := url.Parse(fmt.Sprintf("https://%s/api/v3/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse base URL for hostname %s: %w", hostname, err)
		}
		uploadURL, err := url.Parse(fmt.Sprintf("https://%s/api/uploads/", hostname))
		if err != nil {
			return nil, fmt.Errorf("failed to parse upload URL for hostname %s: %w", hostname, err)
		}
		gh.BaseURL = baseURL
		gh.UploadURL = uploadURL
	}

	return &Client{gh: gh}, nil
}

// NewClientFrom wraps an existing go-github client
func NewClientFrom(gh *github.Client) *Client {
	return &Client{gh: gh}
}

// GetGitHubToken gets a GitHub token from the environment or the gh CLI
func GetGitHubToken(ctx context.Context) (string, error) {
	for _, name := range []string{"GITHUB_TOKEN", "GH_TOKEN"} {
		if token := os.Getenv(name); token != "" {
			return token, nil
		}
	}

	out, err := exec.CommandContext(ctx, "gh", "auth", "token").Output()
	if err != nil {
		return "", fmt.Errorf("%w: set GITHUB_TOKEN or run gh auth login", errors.ErrNoToken)
	}
	token := strings.TrimSpace(string(out))
	if token == "" {
		return "", errors.ErrNoToken
	}
	return token, nil
}

// DefaultBranch returns the repository's default branch name
func (c *Client) DefaultBranch(ctx context.Context, owner, repo string) (string, error) {
	r, _, err := c.gh.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s/%s: %w", owner, repo, err)
	}
	return r.GetDefaultBranch(), nil
}

// Tags lists the repository's tags accepted by keep, resolving each to its
// commit. A tag whose commit cannot be resolved is returned without a
// CommitID rather than failing the batch.
func (c *Client) Tags(ctx context.Context, owner, repo string, keep func(string) bool) ([]snapshot.TagRef, error) {
	opts := &github.ReferenceListOptions{
		Ref:         "tags",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var out []snapshot.TagRef
	for {
		refs, resp, err := c.gh.Git.ListMatchingRefs(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list tags of %s/%s: %w", owner, repo, err)
		}
		for _, ref := range refs {
			name := strings.TrimPrefix(ref.GetRef(), "refs/tags/")
			if keep != nil && !keep(name) {
				continue
			}
			tr, err := c.resolveTag(ctx, owner, repo, name, ref.GetObject())
			if err != nil {
				if ctx.Err() != nil {
					return nil, ctx.Err()
				}
				tr = snapshot.TagRef{Name: name}
			}
			out = append(out, tr)
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}

func (c *Client) resolveTag(ctx context.Context, owner, repo, name string, obj *github.GitObject) (snapshot.TagRef, error) {
	tr := snapshot.TagRef{Name: name}
	sha := obj.GetSHA()

	if obj.GetType() == "tag" {
		annotated, _, err := c.gh.Git.GetTag(ctx, owner, repo, sha)
		if err != nil {
			return tr, err
		}
		if d := annotated.GetTagger().GetDate(); !d.IsZero() {
			tagged := d.UTC()
			tr.TaggedAt = &tagged
		}
		sha = annotated.GetObject().GetSHA()
	}

	commit, _, err := c.gh.Git.GetCommit(ctx, owner, repo, sha)
	if err != nil {
		return tr, err
	}
	tr.CommitID = commit.GetSHA()
	if tr.CommitID == "" {
		tr.CommitID = sha
	}
	tr.CommittedAt = commit.GetCommitter().GetDate().UTC()
	return tr, nil
}

// MergedPulls lists every merged pull request of the repository
func (c *Client) MergedPulls(ctx context.Context, owner, repo string) ([]snapshot.PullRequest, error) {
	opts := &github.PullRequestListOptions{
		State:       "closed",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: perPage},
	}

	var out []snapshot.PullRequest
	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, owner, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list pull requests of %s/%s: %w", owner, repo, err)
		}
		for _, pr := range prs {
			if pr.MergedAt == nil {
				continue
			}
			out = append(out, snapshot.PullRequest{
				BaseBranch:    pr.GetBase().GetRef(),
				HeadRef:       pr.GetHead().GetRef(),
				Title:         pr.GetTitle(),
				URL:           pr.GetHTMLURL(),
				MergedAt:      pr.GetMergedAt().UTC(),
				MergeCommitID: pr.GetMergeCommitSHA(),
			})
		}
		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return out, nil
}
