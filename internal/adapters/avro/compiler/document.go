// Package compiler implements the format compilers that turn Avro sources into Go code.
package compiler

import (
	"github.com/hamba/avro/v2"
	"go.trai.ch/avrogen/internal/adapters/avro/avpr"
	"go.trai.ch/avrogen/internal/adapters/avro/gogen"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/registry"
	"go.trai.ch/zerr"
)

// compileDocument parses a protocol document against a private cache seeded from
// types and writes one file per defined type plus the protocol file.
func compileDocument(doc *avpr.Document, types *registry.Registry, gen *gogen.Generator) ([]string, error) {
	cache := types.SchemaCache()
	parse := func(raw []byte) (avro.Schema, error) {
		return avro.ParseBytesWithCache(raw, doc.Namespace, cache)
	}

	var parsed []avro.Schema
	for i, raw := range doc.Types {
		s, err := parse(raw)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid type"), "index", i)
		}
		parsed = append(parsed, s)
	}

	proto := gogen.Protocol{Name: doc.Protocol, Namespace: doc.Namespace, Doc: doc.Doc}
	for _, name := range doc.MessageNames() {
		msg := doc.Messages[name]
		m := gogen.Message{Name: name, Doc: msg.Doc, OneWay: msg.OneWay}

		for _, param := range msg.Request {
			s, err := parse(param.Type)
			if err != nil {
				err = zerr.With(zerr.Wrap(err, "invalid parameter type"), "message", name)
				return nil, zerr.With(err, "parameter", param.Name)
			}
			m.Params = append(m.Params, gogen.Param{Name: param.Name, Type: s})
			parsed = append(parsed, s)
		}

		response, err := parse(msg.Response)
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "invalid response type"), "message", name)
		}
		m.Response = response
		parsed = append(parsed, response)

		for _, raw := range msg.Errors {
			s, err := parse(raw)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, "invalid error type"), "message", name)
			}
			if named, ok := namedOf(s); ok {
				m.Errors = append(m.Errors, named.FullName())
			}
			parsed = append(parsed, s)
		}
		proto.Messages = append(proto.Messages, m)
	}

	defined, err := definitions(types, gogen.Collect(parsed...))
	if err != nil {
		return nil, err
	}

	data, err := doc.Encode()
	if err != nil {
		return nil, err
	}
	proto.JSON = string(data)

	outputs, err := gen.Types(defined)
	if err != nil {
		return outputs, err
	}
	path, err := gen.Protocol(proto)
	if err != nil {
		return outputs, err
	}
	return append(outputs, path), nil
}

// definitions drops collected types that are already known with an identical
// definition and rejects conflicting redefinitions.
func definitions(types *registry.Registry, collected []avro.NamedSchema) ([]avro.NamedSchema, error) {
	defined := make([]avro.NamedSchema, 0, len(collected))
	for _, n := range collected {
		if existing, ok := types.Lookup(n.FullName()); ok {
			if existing.Fingerprint() != n.Fingerprint() {
				return nil, zerr.With(zerr.Wrap(domain.ErrDuplicateType, "conflicting definition"), "type", n.FullName())
			}
			continue
		}
		defined = append(defined, n)
	}
	return defined, nil
}

// namedOf resolves references and returns the named schema s stands for.
func namedOf(s avro.Schema) (avro.NamedSchema, bool) {
	if ref, ok := s.(*avro.RefSchema); ok {
		var target avro.Schema = ref.Schema()
		s = target
	}
	named, ok := s.(avro.NamedSchema)
	return named, ok
}
