package move

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"issue-move-bot/internal/models"
)

// Migration is the working state of one command invocation. It is created
// by the webhook harness from the event payload, threaded explicitly through
// every pipeline stage, and discarded when the run ends. It is never shared
// across invocations.
type Migration struct {
	Source       models.IssueRef
	Target       models.RepoRef
	TargetNumber int

	CmdUser      string
	CmdCommentID int64

	// CmdIsContent is set when the command comment carries content beyond
	// the command line itself. Such comments are replicated and never
	// deleted.
	CmdIsContent bool

	SameOwner     bool
	SourcePrivate bool

	// Issue state captured at the start of the run; finalization re-checks
	// against these, not against a mid-run fetch.
	IssueOpen   bool
	IssueLocked bool

	CommonLabels []string
}

// TargetIssue returns the destination issue reference. In a dry run the
// number is zero and the link renders with the number omitted.
func (mig *Migration) TargetIssue() models.IssueRef {
	return models.IssueRef{RepoRef: mig.Target, Number: mig.TargetNumber}
}

func (mig *Migration) targetLink() string {
	if mig.TargetNumber > 0 {
		return mig.TargetIssue().String()
	}
	return fmt.Sprintf("%s/%s/issues/", mig.Target.Owner, mig.Target.Repo)
}

// Mover runs the migration pipeline for one command invocation.
type Mover struct {
	source   API
	installs Installations
	settings models.Settings
	logger   *slog.Logger
}

func New(source API, installs Installations, settings models.Settings, logger *slog.Logger) *Mover {
	return &Mover{
		source:   source,
		installs: installs,
		settings: settings,
		logger:   logger,
	}
}

// Move executes the full pipeline: argument resolution, permission gates,
// target resolution and eligibility, issue creation, ordered comment
// replication, and source finalization. Every stage may end the run early;
// user-facing rejections return nil, only unexpected faults return an error.
func (m *Mover) Move(ctx context.Context, mig *Migration, cmd models.Command) error {
	m.info(mig, "received command", slog.String("arguments", cmd.Arguments))

	// The source gate runs first and unconditionally, before the arguments
	// are even looked at: read-only commenters cannot trigger anything, and
	// they get no reply.
	if err := checkPermission(ctx, m.source, mig.Source.RepoRef, mig.CmdUser); err != nil {
		var perr *PermissionError
		if errors.As(err, &perr) {
			m.warn(mig, "rejected", slog.String("reason", "source-permission"))
			return nil
		}
		return fmt.Errorf("source permission check: %w", err)
	}

	target, err := ResolveTarget(cmd.Arguments, mig.Source.RepoRef, m.settings.Aliases)
	if err != nil {
		return m.reject(ctx, mig, "invalid-arguments", msgInvalidArguments)
	}
	mig.Target = target
	mig.SameOwner = target.Owner == mig.Source.Owner

	if target == mig.Source.RepoRef {
		return m.reject(ctx, mig, "same-target", msgSameTarget)
	}

	targetAPI := m.source
	if !mig.SameOwner {
		targetAPI, err = m.installs.InstallationFor(ctx, target)
		if err != nil {
			var nie *NotInstalledError
			if errors.As(err, &nie) {
				appURL, uerr := m.installs.AppURL(ctx)
				if uerr != nil {
					return fmt.Errorf("resolving app url: %w", uerr)
				}
				return m.reject(ctx, mig, "not-installed", msgNotInstalled(appURL))
			}
			return fmt.Errorf("resolving target installation: %w", err)
		}
	}

	repo, err := targetAPI.GetRepository(ctx, target)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return m.reject(ctx, mig, "missing-target", msgMissingTarget)
		}
		return fmt.Errorf("fetching target repository: %w", err)
	}
	if !repo.HasIssues || repo.Archived {
		return m.reject(ctx, mig, "ineligible-target", msgIneligibleTarget)
	}

	// Same-owner moves between public repositories are implicitly authorized
	// by the source gate; every other combination checks the target too.
	if !mig.SameOwner || mig.SourcePrivate || repo.Private {
		if err := checkPermission(ctx, targetAPI, target, mig.CmdUser); err != nil {
			var perr *PermissionError
			if errors.As(err, &perr) {
				return m.reject(ctx, mig, "target-permission", msgTargetPermission)
			}
			return fmt.Errorf("target permission check: %w", err)
		}
	}

	issue, err := m.source.GetIssue(ctx, mig.Source)
	if err != nil {
		return fmt.Errorf("fetching source issue: %w", err)
	}

	appURL, err := m.installs.AppURL(ctx)
	if err != nil {
		return fmt.Errorf("resolving app url: %w", err)
	}

	tr := NewTransformer(m.settings.KeepContentMentions, mig.SameOwner)

	if err := m.portIssue(ctx, targetAPI, mig, issue, tr, appURL); err != nil {
		return err
	}
	if err := m.portComments(ctx, targetAPI, mig, tr, appURL); err != nil {
		return err
	}
	return m.finalize(ctx, mig)
}

// reject ends the pipeline on a failed precondition: the rejection is logged
// and, in a live run, the notice is posted to the source issue.
func (m *Mover) reject(ctx context.Context, mig *Migration, reason, body string) error {
	m.warn(mig, "rejected", slog.String("reason", reason))
	if !m.settings.Perform {
		return nil
	}
	if err := m.source.CreateComment(ctx, mig.Source, body); err != nil {
		return fmt.Errorf("posting %s notice: %w", reason, err)
	}
	return nil
}

func (m *Mover) info(mig *Migration, msg string, attrs ...any) {
	m.logger.Info(m.annotate(msg), append(m.baseAttrs(mig), attrs...)...)
}

func (m *Mover) warn(mig *Migration, msg string, attrs ...any) {
	m.logger.Warn(m.annotate(msg), append(m.baseAttrs(mig), attrs...)...)
}

// annotate marks dry-run log lines; live and dry traces are otherwise
// structurally identical.
func (m *Mover) annotate(msg string) string {
	if !m.settings.Perform {
		return msg + " (dry run)"
	}
	return msg
}

func (m *Mover) baseAttrs(mig *Migration) []any {
	return []any{
		slog.String("source", mig.Source.String()),
		slog.String("target", mig.Target.String()),
		slog.String("user", mig.CmdUser),
		slog.Bool("perform", m.settings.Perform),
	}
}
