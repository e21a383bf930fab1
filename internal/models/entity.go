package models

import (
	"encoding/json"
	"fmt"
)

// Kind names an entity type.
type Kind string

const (
	KindPatient  Kind = "patient"
	KindCarePlan Kind = "carePlan"
	KindContact  Kind = "contact"
	KindTask     Kind = "task"
	KindOutcome  Kind = "outcome"
)

// Kinds lists every entity kind in dependency order.
var Kinds = []Kind{KindPatient, KindCarePlan, KindContact, KindTask, KindOutcome}

// Versioned reports whether updates of this kind create new versions.
// Outcomes are always mutated in place.
func (k Kind) Versioned() bool { return k != KindOutcome }

// Versionable is implemented by pointers to every entity type.
type Versionable interface {
	Header() *Versioned
	Kind() Kind
	References() []Reference
	Clone() Versionable
}

// New returns an empty entity of kind k.
func New(k Kind) (Versionable, error) {
	switch k {
	case KindPatient:
		return &Patient{}, nil
	case KindCarePlan:
		return &CarePlan{}, nil
	case KindContact:
		return &Contact{}, nil
	case KindTask:
		return &Task{}, nil
	case KindOutcome:
		return &Outcome{}, nil
	default:
		return nil, fmt.Errorf("unknown entity kind %q", k)
	}
}

// Entity is a tagged union over all entity kinds. It is the element of
// revision records and change notifications.
type Entity struct {
	Value Versionable
}

// Wrap tags v with its kind.
func Wrap(v Versionable) Entity { return Entity{Value: v} }

// Kind returns the kind of the wrapped value.
func (e Entity) Kind() Kind { return e.Value.Kind() }

// Header returns the versioning fields of the wrapped value.
func (e Entity) Header() *Versioned { return e.Value.Header() }

type entityJSON struct {
	Type   Kind            `json:"type"`
	Object json.RawMessage `json:"object"`
}

// MarshalJSON encodes the entity as {"type": kind, "object": payload}.
func (e Entity) MarshalJSON() ([]byte, error) {
	if e.Value == nil {
		return nil, fmt.Errorf("cannot marshal empty entity")
	}
	obj, err := json.Marshal(e.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", e.Kind(), err)
	}
	return json.Marshal(entityJSON{Type: e.Kind(), Object: obj})
}

// UnmarshalJSON decodes the payload according to its type tag.
func (e *Entity) UnmarshalJSON(data []byte) error {
	var raw entityJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal entity: %w", err)
	}
	v, err := New(raw.Type)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw.Object, v); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", raw.Type, err)
	}
	e.Value = v
	return nil
}
