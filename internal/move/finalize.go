package move

import (
	"context"
	"errors"
	"fmt"
)

// finalize performs source-side cleanup after replication: delete the
// command comment, post the completion notice, close, lock. Each step is
// gated by its own setting and by perform, and eligibility is judged from
// the issue state captured at the start of the run. A locked source issue
// accepts no comments or deletions, so those steps are skipped entirely.
func (m *Mover) finalize(ctx context.Context, mig *Migration) error {
	if !mig.IssueLocked {
		if m.settings.DeleteCommand && !mig.CmdIsContent {
			m.info(mig, "deleting command")
			if m.settings.Perform {
				err := m.source.DeleteComment(ctx, mig.Source.RepoRef, mig.CmdCommentID)
				// Forbidden or already gone both mean the comment is no
				// longer ours to remove.
				if err != nil && !errors.Is(err, ErrForbidden) && !errors.Is(err, ErrNotFound) {
					return fmt.Errorf("deleting command comment: %w", err)
				}
			}
		}

		m.info(mig, "completed")
		if m.settings.Perform {
			err := m.source.CreateComment(ctx, mig.Source, msgCompleted(mig.CmdUser, mig.targetLink()))
			// The issue may have been locked concurrently; the move itself
			// already succeeded.
			if err != nil && !errors.Is(err, ErrForbidden) {
				return fmt.Errorf("posting completion notice: %w", err)
			}
		}
	}

	if m.settings.CloseSourceIssue && mig.IssueOpen {
		m.info(mig, "closing")
		if m.settings.Perform {
			if err := m.source.CloseIssue(ctx, mig.Source); err != nil {
				return fmt.Errorf("closing source issue: %w", err)
			}
		}
	}

	if m.settings.LockSourceIssue && !mig.IssueLocked {
		m.info(mig, "locking")
		if m.settings.Perform {
			if err := m.source.LockIssue(ctx, mig.Source); err != nil {
				return fmt.Errorf("locking source issue: %w", err)
			}
		}
	}
	return nil
}
