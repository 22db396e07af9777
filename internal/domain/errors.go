package domain

import "errors"

var (
	// ErrSourceUnavailable aborts a run before any ledger write.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrTransformFailed marks a per-article translation failure.
	ErrTransformFailed = errors.New("transform failed")

	// ErrPublishRejected is a 4xx-equivalent answer from the publish
	// target; retrying the same payload will not help.
	ErrPublishRejected = errors.New("publish rejected")

	// ErrPublishUnavailable is a network or 5xx-equivalent failure.
	ErrPublishUnavailable = errors.New("publish unavailable")

	// ErrDuplicateRecord signals a ledger insert for a URL that already
	// has a record. The pipeline checks HasSeen first, so hitting this
	// indicates a programming error rather than normal dedup.
	ErrDuplicateRecord = errors.New("duplicate sync record")

	// ErrInvalidCandidate marks source data missing its URL key.
	ErrInvalidCandidate = errors.New("invalid candidate")

	// ErrSyncInProgress rejects a trigger while a run is active.
	ErrSyncInProgress = errors.New("sync already in progress")
)
