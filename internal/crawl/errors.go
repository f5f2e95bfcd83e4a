package crawl

import "errors"

// Parse failure taxonomy (spec.md §4.6). All three are item-level errors
// that enter the retry path.
var (
	// ErrParseShape means the anchor token was not found in the decoded
	// payload — often an anti-bot block page (spec.md §7).
	ErrParseShape = errors.New("parse: anchor not found")
	// ErrParseSyntax means the extracted brace-balanced text was not
	// valid JSON after undefined->null substitution.
	ErrParseSyntax = errors.New("parse: invalid json after extraction")
	// ErrParseIncomplete means required fields (id, name, a sell price)
	// were missing from an otherwise well-formed record.
	ErrParseIncomplete = errors.New("parse: required fields missing")
)

// Orchestration-level errors (spec.md §7, "Orchestration error").
var (
	// ErrJobCancelled is returned by operations attempted against a
	// cancelled job (e.g. a late claim attempt).
	ErrJobCancelled = errors.New("job is cancelled")
	// ErrOwnershipLost is returned when a caller tries to mutate an item
	// it no longer holds (lost a race to another claimant).
	ErrOwnershipLost = errors.New("lost ownership of queue item")
	// ErrGhostCallback marks a webhook callback whose queue item is
	// missing, whose job is cancelled, or whose item is not in
	// "submitted" (a duplicate) — all acknowledged with 200 OK and no
	// side effects (spec.md §4.4 steps 2-3).
	ErrGhostCallback = errors.New("ghost callback")
)
