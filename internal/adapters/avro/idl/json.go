package idl

import (
	"bytes"

	"github.com/goccy/go-json"
	"go.trai.ch/zerr"
)

// member is one key of an ordered JSON object.
type member struct {
	Key   string
	Value any
}

// object is a JSON object that keeps insertion order, so compiled schemas read
// in the same order as the IDL they came from.
type object []member

func (o object) with(key string, value any) object {
	for i := range o {
		if o[i].Key == key {
			o[i].Value = value
			return o
		}
	}
	return append(o, member{Key: key, Value: value})
}

// MarshalJSON implements json.Marshaler.
func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := json.Marshal(m.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func unquote(quoted string) (string, error) {
	var s string
	if err := json.Unmarshal([]byte(quoted), &s); err != nil {
		return "", zerr.Wrap(err, "invalid string literal")
	}
	return s, nil
}

func rawValue(text string) (json.RawMessage, error) {
	if !json.Valid([]byte(text)) {
		return nil, zerr.With(zerr.New("invalid JSON value"), "value", text)
	}
	return json.RawMessage(text), nil
}
