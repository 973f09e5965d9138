/*
store.go - Persistence collaborator contract

PURPOSE:
  Defines the interface between the pure ledger and whatever holds the
  per-user document tree. The ledger never talks to a store; the service
  layer reads a snapshot, runs a pure operation, and hands the resulting
  partial update back through this interface.

ATOMICITY:
  ApplyUpdate / ApplySafeUpdate are the unit of atomicity. One logical
  ledger operation is issued as ONE call naming every changed field, never
  decomposed into several writes. Implementations must apply the named
  fields together (a single SQL transaction, a single document merge).

SUBSCRIPTIONS:
  Subscribe mirrors a hosted document store's snapshot listener: the
  callback fires with the full institution list after every committed
  write for that owner.

IMPLEMENTATIONS:
  - store/sqlite: Production store, institutions as JSON-column rows
  - store/memory: In-memory store for tests and dev

SEE ALSO:
  - tutor/service.go: The only caller
*/
package ledger

import "context"

// Store holds the per-user document tree: institutions plus the user
// profile that owns the global safe.
type Store interface {
	// Institutions returns all institution documents for the owner.
	Institutions(ctx context.Context, ownerID string) ([]Institution, error)

	// GetInstitution returns one institution or ErrInstitutionNotFound.
	GetInstitution(ctx context.Context, ownerID, id string) (*Institution, error)

	// CreateInstitution stores a new institution document.
	CreateInstitution(ctx context.Context, ownerID string, inst Institution) error

	// ApplyUpdate applies a partial update to one institution, all named
	// fields together. Returns ErrInstitutionNotFound for a missing doc.
	ApplyUpdate(ctx context.Context, ownerID, id string, u Update) error

	// DeleteInstitution removes the document and everything it owns.
	DeleteInstitution(ctx context.Context, ownerID, id string) error

	// Profile returns the owner's profile, creating an empty one on first
	// read (a user always has a safe, even before any money moved).
	Profile(ctx context.Context, ownerID string) (*Profile, error)

	// SaveProfile overwrites name/photo display fields.
	SaveProfile(ctx context.Context, p Profile) error

	// ApplySafeUpdate applies a partial update to the owner's safe.
	ApplySafeUpdate(ctx context.Context, ownerID string, u SafeUpdate) error

	// Subscribe registers a listener for the owner's institution list.
	// The returned function unsubscribes.
	Subscribe(ownerID string, fn func([]Institution)) (unsubscribe func())
}

// Profile is the user-level document: display identity plus the safe.
type Profile struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Photo  string `json:"photo,omitempty"`
	Safe   Safe   `json:"safe"`
}

// Identity supplies the authenticated user. The ledger only needs a stable
// identifier; auth mechanics live elsewhere.
type Identity interface {
	CurrentUserID() string
}

// StaticIdentity is an Identity pinned to one user id (single-tenant
// deployments, tests).
type StaticIdentity string

func (s StaticIdentity) CurrentUserID() string { return string(s) }
