package store

import (
	"context"

	"github.com/iudanet/carestore/internal/models"
)

// ChangeOp is the kind of mutation reported to a delegate.
type ChangeOp string

const (
	OpAdd    ChangeOp = "add"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
)

// Change describes one committed batch of one entity kind.
type Change struct {
	Store    string
	Op       ChangeOp
	Kind     models.Kind
	Entities []models.Entity
}

// Delegate receives change notifications after a batch is committed.
// Calls happen on the writer's goroutine; implementations must not call
// back into the same store's write methods.
type Delegate interface {
	StoreDidChange(ctx context.Context, change Change)
}

// DelegateFunc adapts a function to Delegate.
type DelegateFunc func(ctx context.Context, change Change)

func (f DelegateFunc) StoreDidChange(ctx context.Context, change Change) { f(ctx, change) }
