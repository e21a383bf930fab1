package models

import (
	"bytes"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/iudanet/carestore/internal/crdt"
)

// Versioned содержит поля версионирования, общие для всех сущностей.
// Версии одного идентификатора образуют цепочку через PreviousVersionIDs.
type Versioned struct {
	EffectiveDate      time.Time         `json:"effectiveDate"`                  // с этого момента версия действует
	DeletedDate        *time.Time        `json:"deletedDate,omitempty"`          // soft delete
	CreatedDate        *time.Time        `json:"createdDate,omitempty"`          // назначается хранилищем
	UpdatedDate        *time.Time        `json:"updatedDate,omitempty"`          // назначается хранилищем
	UserInfo           map[string]string `json:"userInfo,omitempty"`             // произвольные данные приложения
	ID                 string            `json:"id"`                             // стабильный идентификатор сущности
	SchemaVersion      string            `json:"schemaVersion,omitempty"`        // версия схемы на момент записи
	GroupIdentifier    string            `json:"groupIdentifier,omitempty"`      // группа, "" - без группы
	Source             string            `json:"source,omitempty"`               // источник данных
	Asset              string            `json:"asset,omitempty"`                // имя ресурса (иконка и т.п.)
	RemoteID           string            `json:"remoteID,omitempty"`             // идентификатор во внешней системе
	Timezone           string            `json:"timezone,omitempty"`             // IANA имя часового пояса
	Tags               []string          `json:"tags,omitempty"`                 // теги
	Notes              []Note            `json:"notes,omitempty"`                // заметки
	PreviousVersionIDs []uuid.UUID       `json:"previousVersionUUIDs,omitempty"` // предыдущие версии
	NextVersionIDs     []uuid.UUID       `json:"nextVersionUUIDs,omitempty"`     // вычисляются хранилищем
	LocalVersionID     uuid.UUID         `json:"uuid"`                           // идентификатор этой версии
}

// Note is free text attached to an entity.
type Note struct {
	Date    time.Time `json:"date"`
	Author  string    `json:"author,omitempty"`
	Title   string    `json:"title,omitempty"`
	Content string    `json:"content,omitempty"`
}

// Header gives access to the versioning fields of any entity embedding Versioned.
func (v *Versioned) Header() *Versioned { return v }

// IsDeleted reports whether the version carries a deletion marker.
func (v *Versioned) IsDeleted() bool { return v.DeletedDate != nil }

// HasNextVersion reports whether this version has been superseded.
func (v *Versioned) HasNextVersion() bool { return len(v.NextVersionIDs) > 0 }

// IsCurrent reports whether the version is the live tip of its chain.
func (v *Versioned) IsCurrent() bool { return !v.HasNextVersion() && !v.IsDeleted() }

// Stamp orders two copies of the same record for last-writer-wins merging.
func (v *Versioned) Stamp() crdt.Stamp {
	var updated time.Time
	if v.UpdatedDate != nil {
		updated = *v.UpdatedDate
	}
	return crdt.Stamp{Timestamp: updated, Tiebreak: v.LocalVersionID.String()}
}

// Clone returns a deep copy of the header.
func (v Versioned) Clone() Versioned {
	c := v
	c.DeletedDate = cloneTime(v.DeletedDate)
	c.CreatedDate = cloneTime(v.CreatedDate)
	c.UpdatedDate = cloneTime(v.UpdatedDate)
	c.UserInfo = maps.Clone(v.UserInfo)
	c.Tags = slices.Clone(v.Tags)
	c.Notes = slices.Clone(v.Notes)
	c.PreviousVersionIDs = slices.Clone(v.PreviousVersionIDs)
	c.NextVersionIDs = slices.Clone(v.NextVersionIDs)
	return c
}

// SortIDs orders version ids by their bytes.
func SortIDs(ids []uuid.UUID) {
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
