package nullable

import (
	"database/sql"
	"encoding/json"
)

// Float64 in `nullable` package
// implements: sql.Scanner by embedding sql.NullFloat64
// implements: json.Marshaler and json.Unmarshaler
type Float64 struct {
	sql.NullFloat64
}

func Float64Of(f float64) Float64 {
	return Float64{sql.NullFloat64{Float64: f, Valid: true}}
}

func (n Float64) MarshalJSON() ([]byte, error) {
	if n.Valid {
		return json.Marshal(n.Float64)
	}
	return []byte("null"), nil
}

func (n *Float64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		n.Valid = false
		n.Float64 = 0
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	n.Float64 = f
	n.Valid = true
	return nil
}

// Ptr returns nil for null, a copy of the value otherwise
func (n Float64) Ptr() *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func (n Float64) IsNil() bool {
	return !n.Valid
}
