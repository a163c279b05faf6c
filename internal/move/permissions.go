package move

import (
	"context"

	"issue-move-bot/internal/models"
)

// checkPermission queries the user's effective role on a repository. Only
// write and admin are accepted; anything else yields a *PermissionError.
func checkPermission(ctx context.Context, api API, ref models.RepoRef, username string) error {
	role, err := api.GetPermission(ctx, ref, username)
	if err != nil {
		return err
	}
	if role != "write" && role != "admin" {
		return &PermissionError{Repo: ref, Username: username}
	}
	return nil
}
