package models

// Settings is the effective per-repository configuration for one command
// invocation. It is resolved by the settings loader and never mutated by
// the pipeline.
type Settings struct {
	Perform             bool
	CloseSourceIssue    bool
	LockSourceIssue     bool
	DeleteCommand       bool
	MentionAuthors      bool
	KeepContentMentions bool
	MoveLabels          bool
	Aliases             map[string]string
}

// DefaultSettings returns the documented defaults. Perform defaults to the
// inverse of the dry-run override.
func DefaultSettings(dryRun bool) Settings {
	return Settings{
		Perform:             !dryRun,
		CloseSourceIssue:    true,
		LockSourceIssue:     false,
		DeleteCommand:       true,
		MentionAuthors:      true,
		KeepContentMentions: false,
		MoveLabels:          true,
		Aliases:             map[string]string{},
	}
}
