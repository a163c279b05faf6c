package move

import (
	"context"
	"fmt"
	"log/slog"

	"issue-move-bot/internal/models"
)

// portIssue creates the destination issue from the source issue data. The
// body is the attribution line, the transformed source body, and a
// provenance line naming the invoker and the source issue. When label
// moving is enabled the attached labels are the intersection of the source
// issue's labels and the labels defined on the target; labels absent from
// the target are silently dropped, never auto-created.
func (m *Mover) portIssue(ctx context.Context, targetAPI API, mig *Migration, issue *models.Issue, tr *Transformer, appURL string) error {
	if m.settings.MoveLabels && len(issue.Labels) > 0 {
		targetLabels, err := targetAPI.ListLabels(ctx, mig.Target)
		if err != nil {
			return fmt.Errorf("listing target labels: %w", err)
		}
		mig.CommonLabels = intersectLabels(issue.Labels, targetLabels)
	}

	md, err := tr.Markdown(issue.BodyHTML)
	if err != nil {
		return fmt.Errorf("transforming issue body: %w", err)
	}
	body := attributionLine(issue.Author, issue.CreatedAt, m.settings.MentionAuthors, appURL) +
		"\n\n" + md + "\n\n" +
		provenanceLine(mig.CmdUser, mig.Source.String())

	m.info(mig, "moving issue")
	if m.settings.Perform {
		number, err := targetAPI.CreateIssue(ctx, mig.Target, issue.Title, body, mig.CommonLabels)
		if err != nil {
			return fmt.Errorf("creating target issue: %w", err)
		}
		mig.TargetNumber = number
	}
	m.info(mig, "issue created", slog.Int("number", mig.TargetNumber))
	return nil
}

func intersectLabels(issueLabels, targetLabels []string) []string {
	defined := make(map[string]struct{}, len(targetLabels))
	for _, l := range targetLabels {
		defined[l] = struct{}{}
	}
	var common []string
	for _, l := range issueLabels {
		if _, ok := defined[l]; ok {
			common = append(common, l)
		}
	}
	return common
}
