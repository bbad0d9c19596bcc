package models

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gorm.io/datatypes"
)

// FieldKind tags the variant held by a FieldValue.
type FieldKind int

const (
	KindNull FieldKind = iota
	KindString
	KindNumber
)

// FieldValue is the value of one record field: string, number, or null.
// CRM extracts arrive as loose JSON, so the union is validated here at the
// boundary instead of carrying interface{} through the engine.
type FieldValue struct {
	Kind FieldKind
	Str  string
	Num  float64
}

func StringValue(s string) FieldValue {
	return FieldValue{Kind: KindString, Str: s}
}

func NumberValue(n float64) FieldValue {
	return FieldValue{Kind: KindNumber, Num: n}
}

func NullValue() FieldValue {
	return FieldValue{Kind: KindNull}
}

// String renders the raw (un-normalized) value for reason strings and logs.
func (v FieldValue) String() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	default:
		return ""
	}
}

func (v FieldValue) IsNull() bool {
	return v.Kind == KindNull
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindString:
		return json.Marshal(v.Str)
	case KindNumber:
		return json.Marshal(v.Num)
	default:
		return []byte("null"), nil
	}
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch val := raw.(type) {
	case nil:
		*v = NullValue()
	case string:
		*v = StringValue(val)
	case float64:
		*v = NumberValue(val)
	default:
		return fmt.Errorf("field value must be string, number, or null, got %T", raw)
	}
	return nil
}

// Field is one named value on a record. Order is preserved from extraction.
type Field struct {
	Name  string     `json:"name"`
	Value FieldValue `json:"value"`
}

// Record is one extracted CRM entity (contact, account, opportunity, ...).
type Record struct {
	ID     string  `json:"id"`
	Fields []Field `json:"fields"`
}

// Get returns the value of the named field. The second return is false when
// the record carries no field with that name.
func (r Record) Get(name string) (FieldValue, bool) {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return FieldValue{}, false
}

// FieldsToJSON serializes a field list into the JSON column shape used by
// staged_records.
func FieldsToJSON(fields []Field) (datatypes.JSON, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}

// FieldsFromJSON reads a staged_records fields column back into field values,
// rejecting anything outside the string/number/null union.
func FieldsFromJSON(data datatypes.JSON) ([]Field, error) {
	var fields []Field
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}
