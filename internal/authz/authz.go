// Package authz implements the authorization policy as a pure decision
// function evaluated per request. No state is kept between calls.
package authz

import "errors"

// Actor is an authenticated identity. A nil *Actor means the request carried
// no valid identity.
type Actor struct {
	ID      int64
	IsAdmin bool
}

// Operation is the kind of action being authorized.
type Operation int

const (
	OpList Operation = iota
	OpRetrieve
	OpCreate
	OpUpdate
	OpDelete
)

// String returns the operation name for error messages and logs.
func (op Operation) String() string {
	switch op {
	case OpList:
		return "list"
	case OpRetrieve:
		return "retrieve"
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// Resource is implemented by every ownable entity. Owner returns the id of
// the user that ownership-sensitive operations are checked against: the
// author of a post, the liking user of a like, the author of a comment.
type Resource interface {
	Owner() int64
}

// Immutable marks resources that are audit log entries once created:
// ordinary users may never mutate them, not even their owner. Follow rows
// and unfollow history records implement this.
type Immutable interface {
	ImmutableRecord()
}

var (
	// ErrUnauthenticated is returned when no actor identity is attached to
	// the request. It is surfaced before any other check runs.
	ErrUnauthenticated = errors.New("authentication required")

	// ErrForbidden is returned when the policy denies the operation for an
	// authenticated actor.
	ErrForbidden = errors.New("you do not have permission to perform this action")
)

// Authorize decides whether actor may perform op on res. res may be nil for
// operations that do not target an existing resource (creation flows).
//
// Rules, in order:
//   - no actor: every operation is denied
//   - administrators bypass all ownership checks
//   - reads (list, retrieve) are allowed for any authenticated actor
//   - creation is allowed for any authenticated actor
//   - immutable audit records (Follow, Unfollow) cannot be mutated by
//     non-administrators regardless of ownership
//   - remaining mutations require actor == resource owner
func Authorize(actor *Actor, op Operation, res Resource) error {
	if actor == nil {
		return ErrUnauthenticated
	}
	if actor.IsAdmin {
		return nil
	}
	switch op {
	case OpList, OpRetrieve:
		return nil
	case OpCreate:
		return nil
	}
	if res == nil {
		return ErrForbidden
	}
	if _, audit := res.(Immutable); audit {
		return ErrForbidden
	}
	if res.Owner() == actor.ID {
		return nil
	}
	return ErrForbidden
}
