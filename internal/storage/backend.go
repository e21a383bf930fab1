// Package storage описывает персистентный слой хранилища: непрозрачное
// транзакционное хранилище сериализованных версий сущностей.
package storage

import (
	"context"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/models"
)

// Record - сериализованная версия сущности, ключ - (Kind, ID)
type Record struct {
	Kind models.Kind
	Data []byte
	ID   uuid.UUID
}

// Snapshot - полное состояние хранилища при открытии
type Snapshot struct {
	Meta    map[string][]byte
	Records []Record
}

// Batch - набор изменений, применяемый атомарно
type Batch struct {
	Meta    map[string][]byte
	Records []Record
}

// Empty reports whether the batch carries no changes.
func (b *Batch) Empty() bool {
	return b == nil || (len(b.Records) == 0 && len(b.Meta) == 0)
}

// Backend - транзакционное хранилище записей.
// Commit должен применять batch целиком или не применять вовсе.
//
//go:generate moq -out backend_mock.go . Backend
type Backend interface {
	// Load читает все записи и метаданные
	Load(ctx context.Context) (*Snapshot, error)
	// Commit атомарно сохраняет (insert or replace) записи и метаданные
	Commit(ctx context.Context, batch *Batch) error
	// Close освобождает ресурсы
	Close() error
}
