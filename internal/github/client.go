package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"issue-move-bot/internal/models"
	"issue-move-bot/internal/move"

	"github.com/google/go-github/v80/github"
)

// Media type that makes the API include server-rendered html bodies.
const htmlMediaType = "application/vnd.github.v3.html+json"

const commentsPerPage = 100

// Client wraps the GitHub API client behind the narrow surface the pipeline
// uses, mapping transport faults onto the pipeline's error kinds. It
// implements move.API.
type Client struct {
	gh *github.Client
}

func NewClient(gh *github.Client) *Client {
	return &Client{gh: gh}
}

func (c *Client) GetRepository(ctx context.Context, ref models.RepoRef) (*models.Repository, error) {
	repo, _, err := c.gh.Repositories.Get(ctx, ref.Owner, ref.Repo)
	if err != nil {
		return nil, mapError(err)
	}
	return &models.Repository{
		Ref:       ref,
		Private:   repo.GetPrivate(),
		HasIssues: repo.GetHasIssues(),
		Archived:  repo.GetArchived(),
	}, nil
}

func (c *Client) GetPermission(ctx context.Context, ref models.RepoRef, username string) (string, error) {
	level, _, err := c.gh.Repositories.GetPermissionLevel(ctx, ref.Owner, ref.Repo, username)
	if err != nil {
		return "", mapError(err)
	}
	return level.GetPermission(), nil
}

// issueHTML and commentHTML mirror the API responses under the html media
// type, which go-github's typed structs do not carry.
type issueHTML struct {
	Title     string    `json:"title"`
	BodyHTML  string    `json:"body_html"`
	State     string    `json:"state"`
	Locked    bool      `json:"locked"`
	CreatedAt time.Time `json:"created_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
}

type commentHTML struct {
	ID        int64     `json:"id"`
	BodyHTML  string    `json:"body_html"`
	CreatedAt time.Time `json:"created_at"`
	User      struct {
		Login string `json:"login"`
	} `json:"user"`
}

func (c *Client) GetIssue(ctx context.Context, ref models.IssueRef) (*models.Issue, error) {
	u := fmt.Sprintf("repos/%v/%v/issues/%d", ref.Owner, ref.Repo, ref.Number)
	req, err := c.gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", htmlMediaType)

	var out issueHTML
	if _, err := c.gh.Do(ctx, req, &out); err != nil {
		return nil, mapError(err)
	}

	issue := &models.Issue{
		Title:     out.Title,
		BodyHTML:  out.BodyHTML,
		Author:    out.User.Login,
		CreatedAt: out.CreatedAt,
		Open:      out.State == "open",
		Locked:    out.Locked,
	}
	for _, l := range out.Labels {
		issue.Labels = append(issue.Labels, l.Name)
	}
	return issue, nil
}

func (c *Client) CreateIssue(ctx context.Context, ref models.RepoRef, title, body string, labels []string) (int, error) {
	req := &github.IssueRequest{
		Title: github.Ptr(title),
		Body:  github.Ptr(body),
	}
	if len(labels) > 0 {
		req.Labels = &labels
	}
	issue, _, err := c.gh.Issues.Create(ctx, ref.Owner, ref.Repo, req)
	if err != nil {
		return 0, mapError(err)
	}
	return issue.GetNumber(), nil
}

func (c *Client) ListComments(ctx context.Context, ref models.IssueRef, page int) ([]models.Comment, int, error) {
	u := fmt.Sprintf("repos/%v/%v/issues/%d/comments?per_page=%d&page=%d",
		ref.Owner, ref.Repo, ref.Number, commentsPerPage, page)
	req, err := c.gh.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", htmlMediaType)

	var out []commentHTML
	resp, err := c.gh.Do(ctx, req, &out)
	if err != nil {
		return nil, 0, mapError(err)
	}

	comments := make([]models.Comment, 0, len(out))
	for _, cm := range out {
		comments = append(comments, models.Comment{
			ID:        cm.ID,
			Author:    cm.User.Login,
			BodyHTML:  cm.BodyHTML,
			CreatedAt: cm.CreatedAt,
		})
	}
	return comments, resp.NextPage, nil
}

func (c *Client) CreateComment(ctx context.Context, ref models.IssueRef, body string) error {
	comment := &github.IssueComment{Body: github.Ptr(body)}
	_, _, err := c.gh.Issues.CreateComment(ctx, ref.Owner, ref.Repo, ref.Number, comment)
	return mapError(err)
}

func (c *Client) DeleteComment(ctx context.Context, ref models.RepoRef, commentID int64) error {
	_, err := c.gh.Issues.DeleteComment(ctx, ref.Owner, ref.Repo, commentID)
	return mapError(err)
}

func (c *Client) CloseIssue(ctx context.Context, ref models.IssueRef) error {
	req := &github.IssueRequest{State: github.Ptr("closed")}
	_, _, err := c.gh.Issues.Edit(ctx, ref.Owner, ref.Repo, ref.Number, req)
	return mapError(err)
}

func (c *Client) LockIssue(ctx context.Context, ref models.IssueRef) error {
	_, err := c.gh.Issues.Lock(ctx, ref.Owner, ref.Repo, ref.Number, nil)
	return mapError(err)
}

func (c *Client) ListLabels(ctx context.Context, ref models.RepoRef) ([]string, error) {
	var names []string
	opts := &github.ListOptions{PerPage: 100}
	for {
		labels, resp, err := c.gh.Issues.ListLabels(ctx, ref.Owner, ref.Repo, opts)
		if err != nil {
			return nil, mapError(err)
		}
		for _, l := range labels {
			names = append(names, l.GetName())
		}
		if resp.NextPage == 0 {
			return names, nil
		}
		opts.Page = resp.NextPage
	}
}

// GetFileContents fetches a file's decoded contents from a repository.
// Used by the settings loader.
func (c *Client) GetFileContents(ctx context.Context, ref models.RepoRef, path string) ([]byte, error) {
	file, _, _, err := c.gh.Repositories.GetContents(ctx, ref.Owner, ref.Repo, path, nil)
	if err != nil {
		return nil, mapError(err)
	}
	if file == nil {
		return nil, fmt.Errorf("%w: %s is not a file", move.ErrNotFound, path)
	}
	content, err := file.GetContent()
	if err != nil {
		return nil, err
	}
	return []byte(content), nil
}

// mapError translates remote rejections into the pipeline's closed error
// set; everything else passes through as an unexpected fault.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound, http.StatusGone:
			return fmt.Errorf("%w: %v", move.ErrNotFound, err)
		case http.StatusForbidden:
			return fmt.Errorf("%w: %v", move.ErrForbidden, err)
		}
	}
	return err
}
