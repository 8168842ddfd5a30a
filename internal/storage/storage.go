// Package storage declares persisted record shapes and store contracts for
// the note-taking platform.
//
// All feature services share one SQLite database; each service depends only on
// the narrow Store interface for its own tables. Nested structures (questions,
// milestones, board elements, transcripts) persist as JSON TEXT columns.
package storage

import "errors"

// ErrNotFound indicates a requested record is missing.
var ErrNotFound = errors.New("record not found")

// ErrConflict indicates a requested state transition is invalid.
var ErrConflict = errors.New("record conflict")
