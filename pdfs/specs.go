package pdfs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Specs is a specification table.
// On the wire it is a JSON object of parameter to value; the key order of that object is kept.
type Specs []Spec

func (s Specs) Get(param string) (string, bool) {
	for _, sp := range s {
		if sp.Parameter == param {
			return sp.Value, true
		}
	}
	return "", false
}

func (s Specs) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sp := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(sp.Parameter)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(sp.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (s *Specs) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		*s = nil
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("specifications must be a JSON object")
	}
	out := Specs{}
	seen := map[string]int{}
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		key := tok.(string)
		var raw json.RawMessage
		if err = dec.Decode(&raw); err != nil {
			return err
		}
		value, err := specValue(raw)
		if err != nil {
			return fmt.Errorf("specification %q: %w", key, err)
		}
		// a repeated key keeps its first position and its last value
		if i, dup := seen[key]; dup {
			out[i].Value = value
			continue
		}
		seen[key] = len(out)
		out = append(out, Spec{Parameter: key, Value: value})
	}
	*s = out
	return nil
}

// specValue accepts strings and renders numbers and booleans as written
func specValue(raw json.RawMessage) (string, error) {
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}
	switch raw[0] {
	case '{', '[', 'n':
		return "", errors.New("value must be a string, number or boolean")
	}
	return string(raw), nil
}
