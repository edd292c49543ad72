package model

import "strconv"

// Scope is the owner partition a request operates in.  An authenticated
// request is scoped to its user id; everything else is guest data, stored
// with a NULL user_id.  The two partitions are never merged in one query.
type Scope struct {
	userID uint64
}

// Guest returns the unauthenticated partition.
func Guest() Scope { return Scope{} }

// Owner returns the partition of the given user.  A zero id is not a valid
// user and yields the guest partition.
func Owner(userID uint64) Scope { return Scope{userID: userID} }

// IsGuest reports whether the scope is the guest partition.
func (s Scope) IsGuest() bool { return s.userID == 0 }

// UserID returns the owning user id and whether the scope is authenticated.
func (s Scope) UserID() (uint64, bool) { return s.userID, s.userID != 0 }

// OwnerValue is the value stored in a user_id column: nil for guest rows.
func (s Scope) OwnerValue() any {
	if s.IsGuest() {
		return nil
	}
	return s.userID
}

// OwnerPtr mirrors OwnerValue for JSON responses.
func (s Scope) OwnerPtr() *uint64 {
	if s.IsGuest() {
		return nil
	}
	id := s.userID
	return &id
}

// Filter returns a SQL predicate restricting column to this partition and
// the arguments it needs.  "user_id = ?" for owners, "user_id IS NULL" for
// guests; there is no form that matches both.
func (s Scope) Filter(column string) (string, []any) {
	if s.IsGuest() {
		return column + " IS NULL", nil
	}
	return column + " = ?", []any{s.userID}
}

// String is used in cache keys, rate-limit keys and logs.
func (s Scope) String() string {
	if s.IsGuest() {
		return "guest"
	}
	return "user:" + strconv.FormatUint(s.userID, 10)
}
