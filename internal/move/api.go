package move

import (
	"context"

	"issue-move-bot/internal/models"
)

// API is the narrow remote capability the pipeline needs against one
// repository authority. Two instances may be in play per invocation: one
// scoped to the source installation and one to the target's. Implementations
// map remote faults onto ErrNotFound/ErrForbidden; anything else is an
// unexpected fault and propagates as-is.
type API interface {
	GetRepository(ctx context.Context, ref models.RepoRef) (*models.Repository, error)
	GetPermission(ctx context.Context, ref models.RepoRef, username string) (string, error)
	GetIssue(ctx context.Context, ref models.IssueRef) (*models.Issue, error)
	CreateIssue(ctx context.Context, ref models.RepoRef, title, body string, labels []string) (int, error)

	// ListComments returns one page of comments in creation order and the
	// next page index, or 0 when the listing is exhausted.
	ListComments(ctx context.Context, ref models.IssueRef, page int) ([]models.Comment, int, error)
	CreateComment(ctx context.Context, ref models.IssueRef, body string) error
	DeleteComment(ctx context.Context, ref models.RepoRef, commentID int64) error
	CloseIssue(ctx context.Context, ref models.IssueRef) error
	LockIssue(ctx context.Context, ref models.IssueRef) error
	ListLabels(ctx context.Context, ref models.RepoRef) ([]string, error)
}

// Installations resolves which installation of the app can act on a given
// repository and hands back a client scoped to it.
type Installations interface {
	// AppURL returns the app's public listing page.
	AppURL(ctx context.Context) (string, error)

	// InstallationFor returns an API scoped to the installation covering
	// ref. Returns a *NotInstalledError when no installation has access.
	InstallationFor(ctx context.Context, ref models.RepoRef) (API, error)
}
