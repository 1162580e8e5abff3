package matching

import "errors"

var (
	// ErrIncompleteRequirement means sector or training type is missing;
	// matching is meaningless without them.
	ErrIncompleteRequirement = errors.New("requirement sector and training type are required")

	// ErrInvalidLimit means the caller asked for a non-positive result count.
	ErrInvalidLimit = errors.New("result limit must be a positive integer")

	// ErrTimeout means a scoring pass exceeded its wall-clock budget. The
	// caller receives an empty ranked list plus a retry hint rather than a
	// hard error.
	ErrTimeout = errors.New("scoring pass exceeded time budget")

	// ErrSessionNotFound means the match session id is unknown or closed.
	ErrSessionNotFound = errors.New("match session not found")
)
