// Package settings resolves a repository's effective move configuration
// from its .github/move.yml, falling back to the owner's shared .github
// repository, with documented defaults for everything left unset.
package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"issue-move-bot/internal/cache"
	"issue-move-bot/internal/models"
	"issue-move-bot/internal/move"

	"gopkg.in/yaml.v3"
)

const (
	configPath = ".github/move.yml"
	sharedRepo = ".github"
	cacheTTL   = 5 * time.Minute
)

// ContentGetter is the single remote capability the loader needs.
type ContentGetter interface {
	GetFileContents(ctx context.Context, ref models.RepoRef, path string) ([]byte, error)
}

// file is the yaml schema; pointers distinguish "unset" from "false".
type file struct {
	DeleteCommand       *bool             `yaml:"deleteCommand"`
	CloseSourceIssue    *bool             `yaml:"closeSourceIssue"`
	LockSourceIssue     *bool             `yaml:"lockSourceIssue"`
	MentionAuthors      *bool             `yaml:"mentionAuthors"`
	KeepContentMentions *bool             `yaml:"keepContentMentions"`
	MoveLabels          *bool             `yaml:"moveLabels"`
	Aliases             map[string]string `yaml:"aliases"`
	Perform             *bool             `yaml:"perform"`
}

// Loader fetches and caches per-repository settings.
type Loader struct {
	dryRun bool
	cache  *cache.Cache[string, models.Settings]
}

func NewLoader(dryRun bool) *Loader {
	return &Loader{
		dryRun: dryRun,
		cache:  cache.New[string, models.Settings](),
	}
}

// Load resolves the effective settings for a repository. A repository with
// no settings file anywhere runs with defaults and perform forced off, so
// an unconfigured installation can never mutate anything.
func (l *Loader) Load(ctx context.Context, api ContentGetter, repo models.RepoRef) (models.Settings, error) {
	if cached, ok := l.cache.Get(repo.String()); ok {
		return cached, nil
	}

	data, err := api.GetFileContents(ctx, repo, configPath)
	if errors.Is(err, move.ErrNotFound) {
		shared := models.RepoRef{Owner: repo.Owner, Repo: sharedRepo}
		data, err = api.GetFileContents(ctx, shared, configPath)
	}
	if err != nil {
		if errors.Is(err, move.ErrNotFound) {
			s := models.DefaultSettings(l.dryRun)
			s.Perform = false
			l.cache.Set(repo.String(), s, cacheTTL)
			return s, nil
		}
		return models.Settings{}, fmt.Errorf("loading settings for %s: %w", repo, err)
	}

	s, err := l.parse(data)
	if err != nil {
		return models.Settings{}, fmt.Errorf("parsing settings for %s: %w", repo, err)
	}
	l.cache.Set(repo.String(), s, cacheTTL)
	return s, nil
}

func (l *Loader) parse(data []byte) (models.Settings, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return models.Settings{}, err
	}

	s := models.DefaultSettings(l.dryRun)
	applyBool(&s.DeleteCommand, f.DeleteCommand)
	applyBool(&s.CloseSourceIssue, f.CloseSourceIssue)
	applyBool(&s.LockSourceIssue, f.LockSourceIssue)
	applyBool(&s.MentionAuthors, f.MentionAuthors)
	applyBool(&s.KeepContentMentions, f.KeepContentMentions)
	applyBool(&s.MoveLabels, f.MoveLabels)
	applyBool(&s.Perform, f.Perform)
	for k, v := range f.Aliases {
		s.Aliases[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return s, nil
}

func applyBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
