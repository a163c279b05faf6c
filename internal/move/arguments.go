package move

import (
	"strings"

	"issue-move-bot/internal/models"
)

// GitHub-imposed bounds on repository coordinates.
const (
	maxOwnerLen = 39
	maxRepoLen  = 100
)

// ResolveTarget parses the free-text command argument into a target
// repository reference. A leading "to " prefix is stripped case-insensitively,
// an exact post-trim alias match is substituted, and a missing owner defaults
// to the source repository's owner.
func ResolveTarget(arguments string, source models.RepoRef, aliases map[string]string) (models.RepoRef, error) {
	// Strip the prefix before trimming: "to " with nothing after it must
	// leave an empty, invalid remainder, not the literal repo "to".
	args := strings.TrimLeft(arguments, " \t")
	if len(args) >= 3 && strings.EqualFold(args[:3], "to ") {
		args = args[3:]
	}
	args = strings.TrimSpace(args)
	if alias, ok := aliases[args]; ok {
		args = strings.TrimSpace(alias)
	}

	target := models.RepoRef{Owner: source.Owner}
	if owner, repo, found := strings.Cut(args, "/"); found {
		target.Owner = strings.TrimSpace(owner)
		target.Repo = strings.TrimSpace(repo)
	} else {
		target.Repo = strings.TrimSpace(args)
	}

	if target.Repo == "" || len(target.Owner) > maxOwnerLen || len(target.Repo) > maxRepoLen {
		return models.RepoRef{}, &ValidationError{Arguments: arguments}
	}
	return target, nil
}
