// Package avpr models Avro protocol documents, the JSON form shared by .avpr
// files and compiled IDL.
package avpr

import (
	"bytes"
	"maps"
	"slices"

	"github.com/goccy/go-json"
	"go.trai.ch/zerr"
)

// Document is a decoded protocol document. Types and message schemas are kept
// as raw JSON so they can be parsed against a caller-provided schema cache.
type Document struct {
	Protocol  string             `json:"protocol"`
	Namespace string             `json:"namespace,omitempty"`
	Doc       string             `json:"doc,omitempty"`
	Types     []json.RawMessage  `json:"types,omitempty"`
	Messages  map[string]Message `json:"messages,omitempty"`
}

// Message is a protocol message declaration.
type Message struct {
	Doc      string            `json:"doc,omitempty"`
	Request  []Parameter       `json:"request"`
	Response json.RawMessage   `json:"response"`
	Errors   []json.RawMessage `json:"errors,omitempty"`
	OneWay   bool              `json:"one-way,omitempty"`
}

// Parameter is one request parameter of a message.
type Parameter struct {
	Name    string          `json:"name"`
	Type    json.RawMessage `json:"type"`
	Doc     string          `json:"doc,omitempty"`
	Default json.RawMessage `json:"default,omitempty"`
}

// Decode parses a protocol document.
func Decode(data []byte) (*Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, zerr.Wrap(err, "invalid protocol JSON")
	}
	if doc.Protocol == "" {
		return nil, zerr.New("protocol name is missing")
	}
	for name, msg := range doc.Messages {
		if len(bytes.TrimSpace(msg.Response)) == 0 {
			return nil, zerr.With(zerr.New("message has no response"), "message", name)
		}
		if msg.OneWay && !IsNull(msg.Response) {
			return nil, zerr.With(zerr.New("one-way message must return null"), "message", name)
		}
	}
	return &doc, nil
}

// Encode renders the document as indented JSON.
func (d *Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode protocol")
	}
	return data, nil
}

// FullName returns the namespace-qualified protocol name.
func (d *Document) FullName() string {
	if d.Namespace == "" {
		return d.Protocol
	}
	return d.Namespace + "." + d.Protocol
}

// MessageNames returns the message names in sorted order.
func (d *Document) MessageNames() []string {
	return slices.Sorted(maps.Keys(d.Messages))
}

// IsNull reports whether raw is the null schema, in either the string or the object form.
func IsNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if bytes.Equal(trimmed, []byte(`"null"`)) {
		return true
	}
	var obj struct {
		Type string `json:"type"`
	}
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &obj) == nil {
		return obj.Type == "null"
	}
	return false
}
