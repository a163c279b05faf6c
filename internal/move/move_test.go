package move

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"issue-move-bot/internal/models"
)

type createdIssue struct {
	ref    models.RepoRef
	title  string
	body   string
	labels []string
}

type createdComment struct {
	ref  models.IssueRef
	body string
}

type fakeAPI struct {
	repos  map[string]*models.Repository
	perms  map[string]string
	issue  *models.Issue
	pages  [][]models.Comment
	labels map[string][]string

	permissionChecks []string
	createdIssues    []createdIssue
	createdComments  []createdComment
	deletedComments  []int64
	closed           []models.IssueRef
	locked           []models.IssueRef
}

func (f *fakeAPI) GetRepository(_ context.Context, ref models.RepoRef) (*models.Repository, error) {
	repo, ok := f.repos[ref.String()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, ref)
	}
	return repo, nil
}

func (f *fakeAPI) GetPermission(_ context.Context, ref models.RepoRef, username string) (string, error) {
	key := ref.String() + "#" + username
	f.permissionChecks = append(f.permissionChecks, key)
	return f.perms[key], nil
}

func (f *fakeAPI) GetIssue(_ context.Context, _ models.IssueRef) (*models.Issue, error) {
	return f.issue, nil
}

func (f *fakeAPI) CreateIssue(_ context.Context, ref models.RepoRef, title, body string, labels []string) (int, error) {
	f.createdIssues = append(f.createdIssues, createdIssue{ref: ref, title: title, body: body, labels: labels})
	return 42, nil
}

func (f *fakeAPI) ListComments(_ context.Context, _ models.IssueRef, page int) ([]models.Comment, int, error) {
	if page > len(f.pages) {
		return nil, 0, nil
	}
	next := page + 1
	if page == len(f.pages) {
		next = 0
	}
	return f.pages[page-1], next, nil
}

func (f *fakeAPI) CreateComment(_ context.Context, ref models.IssueRef, body string) error {
	f.createdComments = append(f.createdComments, createdComment{ref: ref, body: body})
	return nil
}

func (f *fakeAPI) DeleteComment(_ context.Context, _ models.RepoRef, commentID int64) error {
	f.deletedComments = append(f.deletedComments, commentID)
	return nil
}

func (f *fakeAPI) CloseIssue(_ context.Context, ref models.IssueRef) error {
	f.closed = append(f.closed, ref)
	return nil
}

func (f *fakeAPI) LockIssue(_ context.Context, ref models.IssueRef) error {
	f.locked = append(f.locked, ref)
	return nil
}

func (f *fakeAPI) ListLabels(_ context.Context, ref models.RepoRef) ([]string, error) {
	return f.labels[ref.String()], nil
}

type fakeInstallations struct {
	api      API
	err      error
	resolved []models.RepoRef
}

func (f *fakeInstallations) AppURL(_ context.Context) (string, error) {
	return testAppURL, nil
}

func (f *fakeInstallations) InstallationFor(_ context.Context, ref models.RepoRef) (API, error) {
	f.resolved = append(f.resolved, ref)
	if f.err != nil {
		return nil, f.err
	}
	return f.api, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const cmdCommentID = int64(200)

func newFixture() (*fakeAPI, *fakeInstallations, *Migration) {
	api := &fakeAPI{
		repos: map[string]*models.Repository{
			"octo/bar": {Ref: models.RepoRef{Owner: "octo", Repo: "bar"}, HasIssues: true},
		},
		perms: map[string]string{
			"octo/foo#alice": "write",
		},
		issue: &models.Issue{
			Title:     "Crash on startup",
			BodyHTML:  "<p>hello</p>",
			Author:    "bob",
			CreatedAt: time.Date(2023, time.March, 7, 18, 30, 0, 0, time.UTC),
			Labels:    []string{"bug", "question"},
			Open:      true,
		},
		pages: [][]models.Comment{
			{
				{ID: 100, Author: "bob", BodyHTML: "<p>first</p>", CreatedAt: time.Date(2023, time.March, 8, 9, 0, 0, 0, time.UTC)},
				{ID: cmdCommentID, Author: "alice", BodyHTML: "<p>/move to octo/bar</p>", CreatedAt: time.Date(2023, time.March, 8, 10, 0, 0, 0, time.UTC)},
			},
			{
				{ID: 300, Author: "carol", BodyHTML: "<p>second</p>", CreatedAt: time.Date(2023, time.March, 8, 11, 0, 0, 0, time.UTC)},
			},
		},
		labels: map[string][]string{
			"octo/bar": {"bug", "enhancement"},
		},
	}
	installs := &fakeInstallations{}
	mig := &Migration{
		Source:       models.IssueRef{RepoRef: models.RepoRef{Owner: "octo", Repo: "foo"}, Number: 5},
		CmdUser:      "alice",
		CmdCommentID: cmdCommentID,
		IssueOpen:    true,
	}
	return api, installs, mig
}

func commentsOn(api *fakeAPI, ref models.IssueRef) []string {
	var bodies []string
	for _, c := range api.createdComments {
		if c.ref == ref {
			bodies = append(bodies, c.body)
		}
	}
	return bodies
}

func TestMoveSameOwner(t *testing.T) {
	api, installs, mig := newFixture()
	mover := New(api, installs, models.DefaultSettings(false), discardLogger())

	err := mover.Move(context.Background(), mig, models.Command{Arguments: "to octo/bar"})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if len(installs.resolved) != 0 {
		t.Errorf("same-owner move resolved an installation: %v", installs.resolved)
	}
	if len(api.permissionChecks) != 1 || api.permissionChecks[0] != "octo/foo#alice" {
		t.Errorf("permission checks = %v, want only the source check", api.permissionChecks)
	}

	if len(api.createdIssues) != 1 {
		t.Fatalf("created issues = %d, want 1", len(api.createdIssues))
	}
	issue := api.createdIssues[0]
	if issue.ref != (models.RepoRef{Owner: "octo", Repo: "bar"}) {
		t.Errorf("issue created in %v", issue.ref)
	}
	if issue.title != "Crash on startup" {
		t.Errorf("issue title = %q", issue.title)
	}
	if !strings.Contains(issue.body, "hello") {
		t.Errorf("issue body missing transformed content: %q", issue.body)
	}
	if !strings.Contains(issue.body, "*This issue was moved by @alice from octo/foo/issues/5.*") {
		t.Errorf("issue body missing provenance line: %q", issue.body)
	}
	if !strings.Contains(issue.body, "@bob commented on Mar 7, 2023, 6:30 PM UTC") {
		t.Errorf("issue body missing attribution line: %q", issue.body)
	}
	if len(issue.labels) != 1 || issue.labels[0] != "bug" {
		t.Errorf("issue labels = %v, want intersection [bug]", issue.labels)
	}
	if mig.TargetNumber != 42 {
		t.Errorf("target number = %d, want 42", mig.TargetNumber)
	}

	target := models.IssueRef{RepoRef: models.RepoRef{Owner: "octo", Repo: "bar"}, Number: 42}
	moved := commentsOn(api, target)
	if len(moved) != 2 {
		t.Fatalf("moved comments = %d, want 2 (command comment skipped)", len(moved))
	}
	if !strings.Contains(moved[0], "first") || !strings.Contains(moved[1], "second") {
		t.Errorf("comments out of order: %v", moved)
	}

	notices := commentsOn(api, mig.Source)
	if len(notices) != 1 || notices[0] != "This issue was moved by @alice to octo/bar/issues/42." {
		t.Errorf("completion notice = %v", notices)
	}

	if len(api.deletedComments) != 1 || api.deletedComments[0] != cmdCommentID {
		t.Errorf("deleted comments = %v, want the command comment", api.deletedComments)
	}
	if len(api.closed) != 1 {
		t.Errorf("source issue not closed")
	}
	if len(api.locked) != 0 {
		t.Errorf("source issue locked under default settings")
	}
}

func TestMoveDryRun(t *testing.T) {
	api, installs, mig := newFixture()
	mover := New(api, installs, models.DefaultSettings(true), discardLogger())

	err := mover.Move(context.Background(), mig, models.Command{Arguments: "to octo/bar"})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if len(api.createdIssues) != 0 || len(api.createdComments) != 0 ||
		len(api.deletedComments) != 0 || len(api.closed) != 0 || len(api.locked) != 0 {
		t.Errorf("dry run issued mutating calls: issues=%d comments=%d deletes=%d closes=%d locks=%d",
			len(api.createdIssues), len(api.createdComments),
			len(api.deletedComments), len(api.closed), len(api.locked))
	}
	if mig.TargetNumber != 0 {
		t.Errorf("dry run assigned a target number: %d", mig.TargetNumber)
	}
}

func TestMoveCommandCommentWithContent(t *testing.T) {
	api, installs, mig := newFixture()
	mig.CmdIsContent = true
	mover := New(api, installs, models.DefaultSettings(false), discardLogger())

	err := mover.Move(context.Background(), mig, models.Command{Arguments: "to octo/bar"})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	target := models.IssueRef{RepoRef: models.RepoRef{Owner: "octo", Repo: "bar"}, Number: 42}
	moved := commentsOn(api, target)
	if len(moved) != 3 {
		t.Fatalf("moved comments = %d, want 3 (content-bearing command kept)", len(moved))
	}
	if len(api.deletedComments) != 0 {
		t.Errorf("content-bearing command comment was deleted")
	}
}

func TestMoveRejections(t *testing.T) {
	tests := []struct {
		name      string
		arguments string
		setup     func(api *fakeAPI, installs *fakeInstallations)
		notice    string
	}{
		{
			name:      "invalid arguments",
			arguments: "",
			notice:    msgInvalidArguments,
		},
		{
			name:      "same source and target",
			arguments: "to octo/foo",
			notice:    msgSameTarget,
		},
		{
			name:      "missing target",
			arguments: "to octo/nonexistent-repo",
			notice:    msgMissingTarget,
		},
		{
			name:      "issues disabled",
			arguments: "to octo/bar",
			setup: func(api *fakeAPI, _ *fakeInstallations) {
				api.repos["octo/bar"].HasIssues = false
			},
			notice: msgIneligibleTarget,
		},
		{
			name:      "archived",
			arguments: "to octo/bar",
			setup: func(api *fakeAPI, _ *fakeInstallations) {
				api.repos["octo/bar"].Archived = true
			},
			notice: msgIneligibleTarget,
		},
		{
			name:      "read-only cross-owner target",
			arguments: "to other/bar",
			setup: func(api *fakeAPI, installs *fakeInstallations) {
				api.repos["other/bar"] = &models.Repository{
					Ref: models.RepoRef{Owner: "other", Repo: "bar"}, HasIssues: true,
				}
				api.perms["other/bar#alice"] = "read"
				installs.api = api
			},
			notice: msgTargetPermission,
		},
		{
			name:      "app not installed on target",
			arguments: "to other/bar",
			setup: func(_ *fakeAPI, installs *fakeInstallations) {
				installs.err = &NotInstalledError{Target: models.RepoRef{Owner: "other", Repo: "bar"}}
			},
			notice: msgNotInstalled(testAppURL),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api, installs, mig := newFixture()
			if tt.setup != nil {
				tt.setup(api, installs)
			}
			mover := New(api, installs, models.DefaultSettings(false), discardLogger())

			err := mover.Move(context.Background(), mig, models.Command{Arguments: tt.arguments})
			if err != nil {
				t.Fatalf("Move() error = %v", err)
			}

			if len(api.createdIssues) != 0 {
				t.Errorf("rejected move created an issue")
			}
			notices := commentsOn(api, mig.Source)
			if len(notices) != 1 || notices[0] != tt.notice {
				t.Errorf("notices = %v, want [%q]", notices, tt.notice)
			}
		})
	}
}

func TestMoveSourcePermissionDenied(t *testing.T) {
	api, installs, mig := newFixture()
	api.perms["octo/foo#alice"] = "read"
	mover := New(api, installs, models.DefaultSettings(false), discardLogger())

	err := mover.Move(context.Background(), mig, models.Command{Arguments: "to octo/bar"})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	// read-only commenters trigger nothing and get no reply
	if len(api.createdIssues) != 0 || len(api.createdComments) != 0 {
		t.Errorf("denied source actor still caused writes")
	}
}

func TestMoveSourceGateRunsBeforeArgumentParsing(t *testing.T) {
	// A read-only commenter gets no reply even when the arguments would
	// otherwise earn a rejection notice.
	for _, arguments := range []string{"", "to octo/foo"} {
		t.Run("arguments "+arguments, func(t *testing.T) {
			api, installs, mig := newFixture()
			api.perms["octo/foo#alice"] = "read"
			mover := New(api, installs, models.DefaultSettings(false), discardLogger())

			err := mover.Move(context.Background(), mig, models.Command{Arguments: arguments})
			if err != nil {
				t.Fatalf("Move() error = %v", err)
			}

			if len(api.permissionChecks) != 1 || api.permissionChecks[0] != "octo/foo#alice" {
				t.Errorf("permission checks = %v, want only the source check", api.permissionChecks)
			}
			if len(api.createdComments) != 0 {
				t.Errorf("read-only commenter received a reply: %v", api.createdComments)
			}
		})
	}
}

func TestMoveCrossOwnerChecksTargetPermission(t *testing.T) {
	api, installs, mig := newFixture()
	api.repos["other/bar"] = &models.Repository{
		Ref: models.RepoRef{Owner: "other", Repo: "bar"}, HasIssues: true,
	}
	api.perms["other/bar#alice"] = "write"
	api.labels["other/bar"] = []string{"bug"}
	installs.api = api
	mover := New(api, installs, models.DefaultSettings(false), discardLogger())

	err := mover.Move(context.Background(), mig, models.Command{Arguments: "to other/bar"})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if len(installs.resolved) != 1 || installs.resolved[0] != (models.RepoRef{Owner: "other", Repo: "bar"}) {
		t.Errorf("installation resolution = %v, want [other/bar]", installs.resolved)
	}
	want := []string{"octo/foo#alice", "other/bar#alice"}
	if len(api.permissionChecks) != 2 || api.permissionChecks[0] != want[0] || api.permissionChecks[1] != want[1] {
		t.Errorf("permission checks = %v, want %v", api.permissionChecks, want)
	}
	if len(api.createdIssues) != 1 {
		t.Errorf("cross-owner move did not create the issue")
	}
}

func TestMovePrivateSameOwnerChecksTargetPermission(t *testing.T) {
	api, installs, mig := newFixture()
	api.repos["octo/bar"].Private = true
	api.perms["octo/bar#alice"] = "write"
	mover := New(api, installs, models.DefaultSettings(false), discardLogger())

	err := mover.Move(context.Background(), mig, models.Command{Arguments: "to octo/bar"})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if len(api.permissionChecks) != 2 {
		t.Errorf("permission checks = %v, want source and target", api.permissionChecks)
	}
}

func TestMoveLockedSourceSkipsCleanup(t *testing.T) {
	api, installs, mig := newFixture()
	mig.IssueLocked = true
	mover := New(api, installs, models.DefaultSettings(false), discardLogger())

	err := mover.Move(context.Background(), mig, models.Command{Arguments: "to octo/bar"})
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}

	if len(api.deletedComments) != 0 {
		t.Errorf("deleted a comment on a locked issue")
	}
	if notices := commentsOn(api, mig.Source); len(notices) != 0 {
		t.Errorf("posted completion notice on a locked issue: %v", notices)
	}
}
