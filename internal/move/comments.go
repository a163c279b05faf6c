package move

import (
	"context"
	"fmt"
	"log/slog"
)

// portComments replicates every source comment to the destination in the
// source's creation order. The triggering command comment is skipped only
// when it carries no content beyond the command itself. Replication is
// strictly sequential: comment N+1 is not created until comment N's call
// has resolved, so destination order always mirrors source order.
func (m *Mover) portComments(ctx context.Context, targetAPI API, mig *Migration, tr *Transformer, appURL string) error {
	page := 1
	for page > 0 {
		comments, next, err := m.source.ListComments(ctx, mig.Source, page)
		if err != nil {
			return fmt.Errorf("listing source comments: %w", err)
		}

		for _, c := range comments {
			if c.ID == mig.CmdCommentID && !mig.CmdIsContent {
				continue
			}

			m.info(mig, "moving comment", slog.Int64("comment", c.ID))
			md, err := tr.Markdown(c.BodyHTML)
			if err != nil {
				return fmt.Errorf("transforming comment %d: %w", c.ID, err)
			}
			body := attributionLine(c.Author, c.CreatedAt, m.settings.MentionAuthors, appURL) + "\n\n" + md

			if m.settings.Perform {
				if err := targetAPI.CreateComment(ctx, mig.TargetIssue(), body); err != nil {
					return fmt.Errorf("creating comment for %d: %w", c.ID, err)
				}
			}
			m.info(mig, "comment created", slog.Int64("comment", c.ID))
		}
		page = next
	}
	return nil
}
