package catalog

import (
	"database/sql/driver"
	"fmt"

	"github.com/ecogroup/ecgsite/pdfs"
)

// Specs is a product specification table stored as a JSON object column.
// The JSON form is pdfs.Specs.
type Specs []pdfs.Spec

func (s Specs) Get(param string) (string, bool) {
	return pdfs.Specs(s).Get(param)
}

func (s Specs) MarshalJSON() ([]byte, error) {
	return pdfs.Specs(s).MarshalJSON()
}

func (s *Specs) UnmarshalJSON(data []byte) error {
	return (*pdfs.Specs)(s).UnmarshalJSON(data)
}

// Scan implements sql.Scanner for json/jsonb/text columns
func (s *Specs) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = nil
		return nil
	case []byte:
		return s.UnmarshalJSON(v)
	case string:
		return s.UnmarshalJSON([]byte(v))
	}
	return fmt.Errorf("cannot scan %T into Specs", src)
}

// Value implements driver.Valuer
func (s Specs) Value() (driver.Value, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
