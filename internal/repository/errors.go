// Package repository holds the MySQL data access layer.  Every query that
// touches owned data is filtered by a model.Scope, so rows of one shop are
// invisible to another shop and to guests.
//
// The sentinel errors below let handlers tell failure kinds apart without
// inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a row does not exist in the caller's scope.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when signing up with a registered email.
var ErrEmailExists = errors.New("email already exists")

// ErrInsufficientStock is returned by a strict stock decrement when the
// product has fewer units on hand than the line requests.
var ErrInsufficientStock = errors.New("insufficient stock")

// isDuplicateKey reports whether err is MySQL error 1062 (duplicate entry).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
