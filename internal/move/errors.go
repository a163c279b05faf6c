package move

import (
	"errors"
	"fmt"

	"issue-move-bot/internal/models"
)

// Sentinel errors produced by the API implementation when the remote side
// rejects a call. The pipeline matches on these instead of transport status
// codes so the client layer can be swapped without touching pipeline logic.
var (
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")
)

// ValidationError reports malformed command arguments.
type ValidationError struct {
	Arguments string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid command arguments: %q", e.Arguments)
}

// PermissionError reports an actor lacking write access to a repository.
type PermissionError struct {
	Repo     models.RepoRef
	Username string
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s lacks write permission for %s", e.Username, e.Repo)
}

// NotInstalledError reports that no installation of the app covers the
// target repository.
type NotInstalledError struct {
	Target models.RepoRef
}

func (e *NotInstalledError) Error() string {
	return fmt.Sprintf("app not installed for %s", e.Target)
}

// IneligibleTargetError reports a target repository that cannot receive
// issues: issues disabled or the repository archived.
type IneligibleTargetError struct {
	Target   models.RepoRef
	Archived bool
}

func (e *IneligibleTargetError) Error() string {
	if e.Archived {
		return fmt.Sprintf("target repository %s is archived", e.Target)
	}
	return fmt.Sprintf("target repository %s has issues disabled", e.Target)
}
