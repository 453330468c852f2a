// Package core holds the shared types and interfaces of the coinward bot:
// the persisted ledger document, the collaborator contracts (price quotes,
// coin resolution, outbound notifications) and the error taxonomy.
package core

import "context"

// Quoter fetches the current USD price for a set of coin identifiers in a
// single upstream request. A missing entry in the result means the upstream
// has no quote for that coin; callers must skip it rather than fail.
type Quoter interface {
	GetQuotes(ctx context.Context, coinIDs []string) (Quotes, error)
}

// Resolver maps free-form user text to a stable coin identifier and a
// display name. Used only by the add-coin workflow.
type Resolver interface {
	Resolve(ctx context.Context, query string) (coinID, name string, err error)
}

// Notifier delivers outbound messages to a single user. Delivery is
// best-effort and fire-and-forget.
type Notifier interface {
	Notify(userID string, text string)
	OnError(err error)
}

// NotifierWithStart is a notifier bound to a long-running transport.
type NotifierWithStart interface {
	Notifier
	Start()
}

// Storage persists the complete ledger document. Every mutation follows a
// load-modify-save cycle; Save replaces the whole document atomically.
type Storage interface {
	Load(ctx context.Context) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	Close() error
}

// Notification is a message collected during a scheduler tick, dispatched
// after the mutated document has been saved.
type Notification struct {
	UserID string
	Text   string
}
