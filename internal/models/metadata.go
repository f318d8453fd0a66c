package models

import (
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// ValueKind identifies which variant a Value holds.
type ValueKind int

const (
	KindString ValueKind = iota
	KindNumber
	KindBool
)

// Value is a small tagged value for document and chunk metadata.
// It replaces the untyped maps the external callers used to pass around:
// a metadata entry is a string, a number or a bool, nothing else.
type Value struct {
	kind ValueKind
	str  string
	num  float64
	b    bool
}

// String creates a string Value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number creates a numeric Value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool creates a boolean Value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the variant held by the Value.
func (v Value) Kind() ValueKind { return v.kind }

// AsString returns the string variant. Non-string variants are formatted.
func (v Value) AsString() string {
	switch v.kind {
	case KindNumber:
		return fmt.Sprintf("%v", v.num)
	case KindBool:
		return fmt.Sprintf("%v", v.b)
	default:
		return v.str
	}
}

// AsNumber returns the numeric variant, or 0 for other kinds.
func (v Value) AsNumber() float64 { return v.num }

// AsBool returns the boolean variant, or false for other kinds.
func (v Value) AsBool() bool { return v.b }

// native returns the underlying Go value for marshaling.
func (v Value) native() interface{} {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return v.str
	}
}

// MarshalJSON encodes the Value as its underlying JSON type.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.native())
}

// UnmarshalJSON decodes a JSON scalar into a Value. Non-scalar input is
// stored as its textual form rather than rejected, so open metadata from
// callers never fails a request.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case string:
		*v = String(x)
	case float64:
		*v = Number(x)
	case bool:
		*v = Bool(x)
	default:
		*v = String(fmt.Sprintf("%v", x))
	}
	return nil
}

// MarshalBSONValue encodes the Value for the record registry.
func (v Value) MarshalBSONValue() (bsontype.Type, []byte, error) {
	return bson.MarshalValue(v.native())
}

// UnmarshalBSONValue decodes a BSON scalar into a Value.
func (v *Value) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	raw := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeString:
		*v = String(raw.StringValue())
	case bson.TypeDouble:
		*v = Number(raw.Double())
	case bson.TypeInt32:
		*v = Number(float64(raw.Int32()))
	case bson.TypeInt64:
		*v = Number(float64(raw.Int64()))
	case bson.TypeBoolean:
		*v = Bool(raw.Boolean())
	default:
		*v = String(raw.String())
	}
	return nil
}

// Metadata is an open, string-keyed mapping of tagged values.
type Metadata map[string]Value

// Merge returns a copy of m with entries from other overlaid on top.
// Either side may be nil.
func (m Metadata) Merge(other Metadata) Metadata {
	merged := make(Metadata, len(m)+len(other))
	for k, v := range m {
		merged[k] = v
	}
	for k, v := range other {
		merged[k] = v
	}
	return merged
}
