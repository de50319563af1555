package entity

import "github.com/uptrace/bun"

// Lifecycle marks whether a record is visible to the application.
// Inactive records are kept for history and never returned by the active scopes.
type Lifecycle string

const (
	LifecycleActive   Lifecycle = "active"
	LifecycleInactive Lifecycle = "inactive"
)

// Active restricts a select query to active rows of its model table.
func Active(q *bun.SelectQuery) *bun.SelectQuery {
	return q.Where("?TableAlias.lifecycle = ?", LifecycleActive)
}
