package models

import (
	"fmt"
	"time"
)

// RepoRef identifies a GitHub repository.
type RepoRef struct {
	Owner string
	Repo  string
}

func (r RepoRef) String() string {
	return r.Owner + "/" + r.Repo
}

// IssueRef identifies an issue within a repository.
type IssueRef struct {
	RepoRef
	Number int
}

func (r IssueRef) String() string {
	return fmt.Sprintf("%s/%s/issues/%d", r.Owner, r.Repo, r.Number)
}

// Command is the raw text following the trigger token of a chat command.
type Command struct {
	Arguments string
}

// Repository holds the repository metadata the pipeline inspects.
type Repository struct {
	Ref       RepoRef
	Private   bool
	HasIssues bool
	Archived  bool
}

// Issue holds the source issue data needed to recreate it elsewhere.
// BodyHTML is the server-rendered body (html media type).
type Issue struct {
	Title     string
	BodyHTML  string
	Author    string
	CreatedAt time.Time
	Labels    []string
	Open      bool
	Locked    bool
}

// Comment is a single issue comment, rendered body included.
type Comment struct {
	ID        int64
	Author    string
	BodyHTML  string
	CreatedAt time.Time
}
