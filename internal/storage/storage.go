// Package storage defines the keyed record store consumed by the tracker
// core, plus the SQLite and in-memory implementations.
//
// Every failure surfaces as a task.Error so callers see the uniform
// NOT_FOUND / DATABASE_ERROR shapes rather than driver errors.
package storage

import (
	"context"

	"github.com/taskdot/taskdot/internal/task"
)

// TaskStore is the read/write surface shared by a live store and an open
// transaction.
type TaskStore interface {
	// GetTask returns the task with the given ID, or a NOT_FOUND error.
	GetTask(ctx context.Context, id string) (*task.Task, error)

	// GetAllTasks returns every task in insertion order. The order is
	// load-bearing: the duplicate resolver breaks score ties by it.
	GetAllTasks(ctx context.Context) ([]*task.Task, error)

	// CreateTask inserts a new task. The ID must not already exist.
	CreateTask(ctx context.Context, t *task.Task) error

	// UpdateTask replaces the stored record with the same ID.
	UpdateTask(ctx context.Context, t *task.Task) error

	// RemoveTask deletes the task with the given ID, or NOT_FOUND.
	RemoveTask(ctx context.Context, id string) error

	// GetChildTasks returns direct children of parentID in insertion
	// order. Pass "" for root tasks.
	GetChildTasks(ctx context.Context, parentID string) ([]*task.Task, error)

	// RenameTask rewrites a task's ID and parent back-reference in place,
	// leaving every other field (including timestamps) untouched. Used
	// only by the removal cascade.
	RenameTask(ctx context.Context, oldID, newID, newParentID string) error
}

// Transaction is a TaskStore scoped to one atomic unit of work.
type Transaction interface {
	TaskStore
}

// Storage is the full collaborator contract: CRUD plus transactions.
type Storage interface {
	TaskStore

	// RunInTransaction executes fn atomically: if fn returns an error,
	// every change made through the transaction is rolled back.
	RunInTransaction(ctx context.Context, fn func(tx Transaction) error) error

	Close() error
}
