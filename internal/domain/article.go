package domain

import "time"

// ArticleCandidate is an article fetched from the source API, not yet
// checked against the ledger. Transient, never persisted as-is.
type ArticleCandidate struct {
	SourceURL   string
	ExternalID  string
	Title       string
	Subtitle    string
	Author      string
	Body        string
	BodyFormat  string // "markdown" or "html"
	Language    string
	Tags        []string
	ImageURL    string
	PublishedAt time.Time
}

// Valid reports whether the candidate carries the natural key the
// ledger is keyed on.
func (a ArticleCandidate) Valid() bool {
	return a.SourceURL != ""
}

// SyncStatus is the recorded outcome for one source URL.
type SyncStatus string

const (
	StatusSuccess SyncStatus = "success"
	StatusFailed  SyncStatus = "failed"
	StatusSkipped SyncStatus = "skipped"
)

// SyncRecord is the durable ledger entry for one source URL. At most one
// record per URL ever exists; records are never mutated after insert.
type SyncRecord struct {
	ID           int64      `db:"id"`
	SourceURL    string     `db:"source_url"`
	Title        string     `db:"title"`
	Author       string     `db:"author"`
	Status       SyncStatus `db:"status"`
	RemotePostID *int64     `db:"remote_post_id"`
	RemoteURL    *string    `db:"remote_url"`
	SyncedAt     time.Time  `db:"synced_at"`
}

// PublishedPost is what the publish target reports back for a created post.
type PublishedPost struct {
	ID     int64
	Link   string
	Status string
}
