package schedule

import (
	"bytes"
	"time"
)

// ValueType определяет тип значения outcome/target
type ValueType string

const (
	ValueTypeInteger ValueType = "integer"
	ValueTypeDouble  ValueType = "double"
	ValueTypeBoolean ValueType = "boolean"
	ValueTypeText    ValueType = "text"
	ValueTypeBinary  ValueType = "binary"
	ValueTypeDate    ValueType = "date"
)

// Value is a typed measurement. Schedule elements use it for target values,
// outcomes use it for recorded values.
type Value struct {
	CreatedDate *time.Time `json:"createdDate,omitempty"`
	Date        *time.Time `json:"dateValue,omitempty"`
	Type        ValueType  `json:"type"`
	Text        string     `json:"textValue,omitempty"`
	Units       string     `json:"units,omitempty"`
	Kind        string     `json:"kind,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Binary      []byte     `json:"binaryValue,omitempty"`
	Integer     int64      `json:"integerValue,omitempty"`
	Double      float64    `json:"doubleValue,omitempty"`
	Boolean     bool       `json:"booleanValue,omitempty"`
}

func IntegerValue(v int64) Value  { return Value{Type: ValueTypeInteger, Integer: v} }
func DoubleValue(v float64) Value { return Value{Type: ValueTypeDouble, Double: v} }
func BooleanValue(v bool) Value   { return Value{Type: ValueTypeBoolean, Boolean: v} }
func TextValue(v string) Value    { return Value{Type: ValueTypeText, Text: v} }
func BinaryValue(v []byte) Value  { return Value{Type: ValueTypeBinary, Binary: v} }

func DateValue(v time.Time) Value {
	return Value{Type: ValueTypeDate, Date: &v}
}

// Number returns the numeric reading of integer and double values.
func (v Value) Number() (float64, bool) {
	switch v.Type {
	case ValueTypeInteger:
		return float64(v.Integer), true
	case ValueTypeDouble:
		return v.Double, true
	default:
		return 0, false
	}
}

// Meets reports whether v satisfies target: numbers must reach the target,
// every other type must be equal to it.
func (v Value) Meets(target Value) bool {
	n, ok := v.Number()
	t, tok := target.Number()
	if ok && tok {
		return n >= t
	}
	return v.Equal(target)
}

// Equal compares type and payload. Units, kind and notes are ignored.
func (v Value) Equal(o Value) bool {
	if v.Type != o.Type {
		return false
	}
	switch v.Type {
	case ValueTypeInteger:
		return v.Integer == o.Integer
	case ValueTypeDouble:
		return v.Double == o.Double
	case ValueTypeBoolean:
		return v.Boolean == o.Boolean
	case ValueTypeText:
		return v.Text == o.Text
	case ValueTypeBinary:
		return bytes.Equal(v.Binary, o.Binary)
	case ValueTypeDate:
		if v.Date == nil || o.Date == nil {
			return v.Date == o.Date
		}
		return v.Date.Equal(*o.Date)
	default:
		return false
	}
}

// Clone returns a deep copy.
func (v Value) Clone() Value {
	c := v
	if v.Binary != nil {
		c.Binary = append([]byte(nil), v.Binary...)
	}
	if v.Date != nil {
		d := *v.Date
		c.Date = &d
	}
	if v.CreatedDate != nil {
		d := *v.CreatedDate
		c.CreatedDate = &d
	}
	return c
}
