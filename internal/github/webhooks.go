package github

import (
	"context"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"issue-move-bot/internal/config"
	"issue-move-bot/internal/models"
	"issue-move-bot/internal/move"
	"issue-move-bot/internal/notify"
	"issue-move-bot/internal/settings"
	"issue-move-bot/internal/store"

	"github.com/google/go-github/v80/github"
)

// commandRe recognizes the /move trigger on any line of a comment body;
// everything after the token on that line is the raw command argument.
var commandRe = regexp.MustCompile(`(?m)^/move\b[ \t]*(.*)$`)

// WebhookServer receives GitHub App webhook deliveries and dispatches one
// migration per recognized command. Invocations are independent: each runs
// in its own goroutine with its own context and clients.
type WebhookServer struct {
	Config    *config.Config
	Factory   *Factory
	Directory *AppDirectory
	Settings  *settings.Loader
	Store     *store.Store     // optional
	Notifier  *notify.Notifier // optional
}

func NewWebhookServer(cfg *config.Config, factory *Factory, directory *AppDirectory, loader *settings.Loader, st *store.Store, notifier *notify.Notifier) *WebhookServer {
	return &WebhookServer{
		Config:    cfg,
		Factory:   factory,
		Directory: directory,
		Settings:  loader,
		Store:     st,
		Notifier:  notifier,
	}
}

func (s *WebhookServer) Handler(w http.ResponseWriter, r *http.Request) {
	payload, err := github.ValidatePayload(r, []byte(s.Config.WebhookSecret))
	if err != nil {
		slog.Warn("Webhook signature validation failed", slog.Any("error", err))
		http.Error(w, "Invalid signature", http.StatusUnauthorized)
		return
	}

	event, err := github.ParseWebHook(github.WebHookType(r), payload)
	if err != nil {
		slog.Warn("Webhook parsing failed", slog.Any("error", err))
		http.Error(w, "Parse error", http.StatusBadRequest)
		return
	}

	e, ok := event.(*github.IssueCommentEvent)
	if !ok || e.GetAction() != "created" {
		w.WriteHeader(http.StatusOK)
		return
	}

	// Bots cannot trigger moves, and pull requests are not eligible.
	if e.GetComment().GetUser().GetType() == "Bot" || e.GetIssue().IsPullRequest() {
		w.WriteHeader(http.StatusOK)
		return
	}

	cmd, ok := parseCommand(e.GetComment().GetBody())
	if !ok {
		w.WriteHeader(http.StatusOK)
		return
	}

	go s.process(e, cmd)
	w.WriteHeader(http.StatusOK)
}

// parseCommand extracts the /move command from a comment body.
func parseCommand(body string) (models.Command, bool) {
	m := commandRe.FindStringSubmatch(body)
	if m == nil {
		return models.Command{}, false
	}
	return models.Command{Arguments: m[1]}, true
}

// isContentBearing reports whether the comment body has content beyond a
// single command line.
func isContentBearing(body string) bool {
	return strings.Contains(strings.TrimSpace(body), "\n")
}

func (s *WebhookServer) process(e *github.IssueCommentEvent, cmd models.Command) {
	ctx := context.Background()

	source := models.IssueRef{
		RepoRef: models.RepoRef{
			Owner: e.GetRepo().GetOwner().GetLogin(),
			Repo:  e.GetRepo().GetName(),
		},
		Number: e.GetIssue().GetNumber(),
	}
	user := e.GetComment().GetUser().GetLogin()

	ghc, err := s.Factory.InstallationClient(ctx, e.GetInstallation().GetID())
	if err != nil {
		s.fail(source, user, err)
		return
	}
	client := NewClient(ghc)

	cfg, err := s.Settings.Load(ctx, client, source.RepoRef)
	if err != nil {
		s.fail(source, user, err)
		return
	}

	mig := &move.Migration{
		Source:        source,
		CmdUser:       user,
		CmdCommentID:  e.GetComment().GetID(),
		CmdIsContent:  isContentBearing(e.GetComment().GetBody()),
		SourcePrivate: e.GetRepo().GetPrivate(),
		IssueOpen:     e.GetIssue().GetState() == "open",
		IssueLocked:   e.GetIssue().GetLocked(),
	}

	mover := move.New(client, s.Directory, cfg, slog.Default())
	if err := mover.Move(ctx, mig, cmd); err != nil {
		s.fail(source, user, err)
		return
	}

	if cfg.Perform && mig.TargetNumber > 0 && s.Store != nil {
		if err := s.Store.RecordMove(ctx, source, mig.TargetIssue(), user); err != nil {
			slog.Error("Failed to record move", slog.String("source", source.String()), slog.Any("error", err))
		}
	}
}

// fail surfaces an unexpected fault: structured log plus operator alert.
func (s *WebhookServer) fail(source models.IssueRef, user string, err error) {
	slog.Error("Move failed",
		slog.String("source", source.String()),
		slog.String("user", user),
		slog.Any("error", err))
	s.Notifier.Alert(source.String(), user, err)
}
