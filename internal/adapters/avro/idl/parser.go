package idl

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"go.trai.ch/avrogen/internal/adapters/avro/avpr"
	"go.trai.ch/zerr"
)

// ReadFunc reads a source file.
type ReadFunc func(path string) ([]byte, error)

// Compiler turns IDL files into protocol documents.
type Compiler struct {
	read ReadFunc
}

// NewCompiler creates a compiler reading imports with read, or os.ReadFile when nil.
func NewCompiler(read ReadFunc) *Compiler {
	if read == nil {
		read = os.ReadFile
	}
	return &Compiler{read: read}
}

// CompileFile compiles the IDL file at path, following its imports.
func (c *Compiler) CompileFile(path string) (*avpr.Document, error) {
	src, err := c.read(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to read IDL file"), "path", path)
	}
	return c.Compile(path, src)
}

// Compile compiles src, which was read from path. Imports are resolved relative to path.
// Each file is included at most once, so import cycles terminate.
func (c *Compiler) Compile(path string, src []byte) (*avpr.Document, error) {
	sess := &session{compiler: c, seen: map[string]bool{absPath(path): true}}
	return sess.parse(path, src)
}

type session struct {
	compiler *Compiler
	seen     map[string]bool
}

func (s *session) parse(path string, src []byte) (*avpr.Document, error) {
	p := &parser{
		sess:     s,
		path:     path,
		s:        NewScanner(src),
		declared: make(map[string]string),
		full:     make(map[string]bool),
	}
	doc, err := p.parseProtocol()
	if err != nil {
		return nil, err
	}
	return doc, nil
}

type annotation struct {
	name  string
	value json.RawMessage
}

type parser struct {
	sess      *session
	path      string
	s         *Scanner
	tok       Token
	namespace string
	doc       *avpr.Document
	// declared maps short names to the full names of types seen so far.
	declared map[string]string
	full     map[string]bool
}

func (p *parser) next() error {
	tok, err := p.s.Next()
	if err != nil {
		return err
	}
	p.tok = tok
	return nil
}

func (p *parser) is(punct string) bool {
	return p.tok.Type == TokenPunctuation && p.tok.Text == punct
}

func (p *parser) isKeyword(word string) bool {
	return p.tok.Type == TokenIdentifier && !p.tok.Quoted && p.tok.Text == word
}

func (p *parser) unexpected(want string) error {
	found := strconv.Quote(p.tok.Text)
	if p.tok.Type == TokenEOF {
		found = "end of file"
	}
	return p.s.errorf(p.tok.Pos, fmt.Sprintf("expected %s, found %s", want, found))
}

func (p *parser) expect(punct string) error {
	if !p.is(punct) {
		return p.unexpected("'" + punct + "'")
	}
	return p.next()
}

func (p *parser) expectKeyword(word string) error {
	if !p.isKeyword(word) {
		return p.unexpected(strconv.Quote(word))
	}
	return p.next()
}

func (p *parser) ident() (string, error) {
	if p.tok.Type != TokenIdentifier {
		return "", p.unexpected("identifier")
	}
	name := p.tok.Text
	return name, p.next()
}

func (p *parser) number() (int, error) {
	if p.tok.Type != TokenNumber {
		return 0, p.unexpected("number")
	}
	n, err := strconv.Atoi(p.tok.Text)
	if err != nil {
		return 0, p.s.errorf(p.tok.Pos, "invalid number "+p.tok.Text)
	}
	return n, p.next()
}

// rawValue reads a JSON value after the current token and advances to the stop character.
func (p *parser) rawValue(stops string) (json.RawMessage, error) {
	pos := p.s.pos()
	text, err := p.s.RawJSON(stops)
	if err != nil {
		return nil, err
	}
	value, err := rawValue(text)
	if err != nil {
		return nil, zerr.With(zerr.With(err, "line", pos.Line), "column", pos.Column)
	}
	return value, p.next()
}

func (p *parser) annotations() ([]annotation, error) {
	var anns []annotation
	for p.is("@") {
		if err := p.next(); err != nil {
			return nil, err
		}
		name, err := p.ident()
		if err != nil {
			return nil, err
		}
		if !p.is("(") {
			return nil, p.unexpected("'('")
		}
		value, err := p.rawValue(")")
		if err != nil {
			return nil, err
		}
		if err := p.expect(")"); err != nil {
			return nil, err
		}
		anns = append(anns, annotation{name: name, value: value})
	}
	return anns, nil
}

func (p *parser) parseProtocol() (*avpr.Document, error) {
	if err := p.next(); err != nil {
		return nil, err
	}
	doc := p.tok.Doc
	anns, err := p.annotations()
	if err != nil {
		return nil, err
	}
	for _, a := range anns {
		if a.name == "namespace" {
			if err := json.Unmarshal(a.value, &p.namespace); err != nil {
				return nil, p.s.errorf(p.tok.Pos, "namespace must be a string")
			}
		}
	}
	if err := p.expectKeyword("protocol"); err != nil {
		return nil, err
	}
	name, err := p.ident()
	if err != nil {
		return nil, err
	}

	p.doc = &avpr.Document{
		Protocol:  name,
		Namespace: p.namespace,
		Doc:       doc,
		Messages:  make(map[string]avpr.Message),
	}

	if err := p.expect("{"); err != nil {
		return nil, err
	}
	for !p.is("}") {
		if p.tok.Type == TokenEOF {
			return nil, p.unexpected("'}'")
		}
		if err := p.parseDeclaration(); err != nil {
			return nil, err
		}
	}
	if err := p.next(); err != nil {
		return nil, err
	}
	if p.tok.Type != TokenEOF {
		return nil, p.unexpected("end of file")
	}
	return p.doc, nil
}

func (p *parser) parseDeclaration() error {
	doc := p.tok.Doc
	anns, err := p.annotations()
	if err != nil {
		return err
	}

	switch {
	case p.isKeyword("import"):
		return p.parseImport()
	case p.isKeyword("record"):
		return p.parseRecord(doc, anns, "record")
	case p.isKeyword("error"):
		return p.parseRecord(doc, anns, "error")
	case p.isKeyword("enum"):
		return p.parseEnum(doc, anns)
	case p.isKeyword("fixed"):
		return p.parseFixed(doc, anns)
	default:
		return p.parseMessage(doc, anns)
	}
}

// named builds the common part of a named type declaration.
func (p *parser) named(kind, name, doc string, anns []annotation) (object, error) {
	obj := object{{"type", kind}, {"name", name}}
	ns := p.namespace
	var props []member
	for _, a := range anns {
		if a.name == "namespace" {
			if err := json.Unmarshal(a.value, &ns); err != nil {
				return nil, p.s.errorf(p.tok.Pos, "namespace must be a string")
			}
			continue
		}
		props = append(props, member{Key: a.name, Value: a.value})
	}
	if ns != "" && !strings.Contains(name, ".") {
		obj = obj.with("namespace", ns)
		p.declare(ns + "." + name)
	} else {
		p.declare(name)
	}
	if doc != "" {
		obj = obj.with("doc", doc)
	}
	return append(obj, props...), nil
}

func (p *parser) declare(fullName string) {
	p.full[fullName] = true
	short := fullName[strings.LastIndex(fullName, ".")+1:]
	if _, ok := p.declared[short]; !ok {
		p.declared[short] = fullName
	}
}

// declareRaw records the name of a type included from another file.
func (p *parser) declareRaw(raw json.RawMessage) {
	var named struct {
		Name      string `json:"name"`
		Namespace string `json:"namespace"`
	}
	if err := json.Unmarshal(raw, &named); err != nil || named.Name == "" {
		return
	}
	if named.Namespace != "" && !strings.Contains(named.Name, ".") {
		p.declare(named.Namespace + "." + named.Name)
		return
	}
	p.declare(named.Name)
}

// qualify resolves a type reference to a full name. Unqualified names prefer a
// type of the protocol namespace, then any type declared with that short name,
// and otherwise are placed in the protocol namespace.
func (p *parser) qualify(name string) string {
	if primitives[name] || strings.Contains(name, ".") {
		return name
	}
	if p.namespace != "" && p.full[p.namespace+"."+name] {
		return p.namespace + "." + name
	}
	if fullName, ok := p.declared[name]; ok {
		return fullName
	}
	if p.namespace == "" {
		return name
	}
	return p.namespace + "." + name
}

func (p *parser) addType(obj object) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return zerr.Wrap(err, "failed to encode type")
	}
	p.doc.Types = append(p.doc.Types, data)
	return nil
}

func (p *parser) parseRecord(doc string, anns []annotation, kind string) error {
	if err := p.next(); err != nil {
		return err
	}
	name, err := p.ident()
	if err != nil {
		return err
	}
	obj, err := p.named(kind, name, doc, anns)
	if err != nil {
		return err
	}
	if err := p.expect("{"); err != nil {
		return err
	}

	fields := []any{}
	for !p.is("}") {
		if p.tok.Type == TokenEOF {
			return p.unexpected("'}'")
		}
		declared, err := p.parseField()
		if err != nil {
			return err
		}
		fields = append(fields, declared...)
	}
	if err := p.next(); err != nil {
		return err
	}

	return p.addType(obj.with("fields", fields))
}

// parseField parses one field declaration, which may declare several variables of the same type.
func (p *parser) parseField() ([]any, error) {
	doc := p.tok.Doc
	typ, optional, err := p.parseType()
	if err != nil {
		return nil, err
	}

	var fields []any
	for {
		varDoc := p.tok.Doc
		anns, err := p.annotations()
		if err != nil {
			return nil, err
		}
		name, err := p.ident()
		if err != nil {
			return nil, err
		}

		field := object{{"name", name}, {"type", typ}}
		if varDoc != "" {
			field = field.with("doc", varDoc)
		} else if doc != "" {
			field = field.with("doc", doc)
		}
		if p.is("=") {
			def, err := p.rawValue(",;")
			if err != nil {
				return nil, err
			}
			if optional && strings.TrimSpace(string(def)) != "null" {
				// A non-null default must match the first branch.
				branches := typ.([]any)
				field = field.with("type", []any{branches[1], branches[0]})
			}
			field = field.with("default", def)
		}
		for _, a := range anns {
			field = field.with(a.name, a.value)
		}
		fields = append(fields, field)

		if p.is(";") {
			return fields, p.next()
		}
		if err := p.expect(","); err != nil {
			return nil, err
		}
	}
}

var logicalKeywords = map[string]object{
	"date":               {{"type", "int"}, {"logicalType", "date"}},
	"time_ms":            {{"type", "int"}, {"logicalType", "time-millis"}},
	"timestamp_ms":       {{"type", "long"}, {"logicalType", "timestamp-millis"}},
	"local_timestamp_ms": {{"type", "long"}, {"logicalType", "local-timestamp-millis"}},
	"uuid":               {{"type", "string"}, {"logicalType", "uuid"}},
}

var primitives = map[string]bool{
	"null": true, "boolean": true, "int": true, "long": true,
	"float": true, "double": true, "bytes": true, "string": true,
}

// parseType parses a type reference. The second result reports the T? shorthand,
// which is returned as the union ["null", T].
func (p *parser) parseType() (any, bool, error) {
	anns, err := p.annotations()
	if err != nil {
		return nil, false, err
	}
	if p.tok.Type != TokenIdentifier {
		return nil, false, p.unexpected("type")
	}
	word, quoted := p.tok.Text, p.tok.Quoted
	if err := p.next(); err != nil {
		return nil, false, err
	}

	var typ any
	switch {
	case quoted:
		typ = p.qualify(word)
	case word == "array" || word == "map":
		if err := p.expect("<"); err != nil {
			return nil, false, err
		}
		inner, _, err := p.parseType()
		if err != nil {
			return nil, false, err
		}
		if err := p.expect(">"); err != nil {
			return nil, false, err
		}
		key := "items"
		if word == "map" {
			key = "values"
		}
		typ = object{{"type", word}, {key, inner}}
	case word == "union":
		if err := p.expect("{"); err != nil {
			return nil, false, err
		}
		branches := []any{}
		for {
			branch, _, err := p.parseType()
			if err != nil {
				return nil, false, err
			}
			branches = append(branches, branch)
			if !p.is(",") {
				break
			}
			if err := p.next(); err != nil {
				return nil, false, err
			}
		}
		if err := p.expect("}"); err != nil {
			return nil, false, err
		}
		typ = branches
	case word == "decimal":
		if err := p.expect("("); err != nil {
			return nil, false, err
		}
		precision, err := p.number()
		if err != nil {
			return nil, false, err
		}
		if err := p.expect(","); err != nil {
			return nil, false, err
		}
		scale, err := p.number()
		if err != nil {
			return nil, false, err
		}
		if err := p.expect(")"); err != nil {
			return nil, false, err
		}
		typ = object{{"type", "bytes"}, {"logicalType", "decimal"}, {"precision", precision}, {"scale", scale}}
	default:
		if logical, ok := logicalKeywords[word]; ok {
			typ = append(object(nil), logical...)
		} else {
			typ = p.qualify(word)
		}
	}

	typ = annotate(typ, anns)

	if p.is("?") {
		if err := p.next(); err != nil {
			return nil, false, err
		}
		return []any{"null", typ}, true, nil
	}
	return typ, false, nil
}

// annotate attaches type annotations as schema properties. Annotations on named
// references and unions have no schema representation and are dropped.
func annotate(typ any, anns []annotation) any {
	if len(anns) == 0 {
		return typ
	}
	var obj object
	switch t := typ.(type) {
	case string:
		if !primitives[t] {
			return typ
		}
		obj = object{{"type", t}}
	case object:
		obj = t
	default:
		return typ
	}
	for _, a := range anns {
		obj = obj.with(a.name, a.value)
	}
	return obj
}

func (p *parser) parseEnum(doc string, anns []annotation) error {
	if err := p.next(); err != nil {
		return err
	}
	name, err := p.ident()
	if err != nil {
		return err
	}
	obj, err := p.named("enum", name, doc, anns)
	if err != nil {
		return err
	}
	if err := p.expect("{"); err != nil {
		return err
	}

	symbols := []string{}
	for !p.is("}") {
		symbol, err := p.ident()
		if err != nil {
			return err
		}
		symbols = append(symbols, symbol)
		if !p.is(",") {
			break
		}
		if err := p.next(); err != nil {
			return err
		}
	}
	if err := p.expect("}"); err != nil {
		return err
	}
	obj = obj.with("symbols", symbols)

	if p.is("=") {
		if err := p.next(); err != nil {
			return err
		}
		def, err := p.ident()
		if err != nil {
			return err
		}
		obj = obj.with("default", def)
		if err := p.expect(";"); err != nil {
			return err
		}
	} else if p.is(";") {
		if err := p.next(); err != nil {
			return err
		}
	}

	return p.addType(obj)
}

func (p *parser) parseFixed(doc string, anns []annotation) error {
	if err := p.next(); err != nil {
		return err
	}
	name, err := p.ident()
	if err != nil {
		return err
	}
	obj, err := p.named("fixed", name, doc, anns)
	if err != nil {
		return err
	}
	if err := p.expect("("); err != nil {
		return err
	}
	size, err := p.number()
	if err != nil {
		return err
	}
	if err := p.expect(")"); err != nil {
		return err
	}
	if err := p.expect(";"); err != nil {
		return err
	}
	return p.addType(obj.with("size", size))
}

func (p *parser) parseMessage(doc string, _ []annotation) error {
	var response any = "null"
	if p.isKeyword("void") {
		if err := p.next(); err != nil {
			return err
		}
	} else {
		typ, _, err := p.parseType()
		if err != nil {
			return err
		}
		response = typ
	}

	namePos := p.tok.Pos
	name, err := p.ident()
	if err != nil {
		return err
	}
	if err := p.expect("("); err != nil {
		return err
	}

	params := []avpr.Parameter{}
	for !p.is(")") {
		param, err := p.parseParameter()
		if err != nil {
			return err
		}
		params = append(params, param)
		if p.is(",") {
			if err := p.next(); err != nil {
				return err
			}
		} else if !p.is(")") {
			return p.unexpected("',' or ')'")
		}
	}
	if err := p.next(); err != nil {
		return err
	}

	msg := avpr.Message{Doc: doc, Request: params, Response: mustJSON(response)}

	if p.isKeyword("throws") {
		if err := p.next(); err != nil {
			return err
		}
		for {
			errType, err := p.ident()
			if err != nil {
				return err
			}
			msg.Errors = append(msg.Errors, mustJSON(p.qualify(errType)))
			if !p.is(",") {
				break
			}
			if err := p.next(); err != nil {
				return err
			}
		}
	}
	if p.isKeyword("oneway") {
		if !avpr.IsNull(msg.Response) {
			return p.s.errorf(p.tok.Pos, "one-way message "+name+" must return void")
		}
		msg.OneWay = true
		if err := p.next(); err != nil {
			return err
		}
	}
	if err := p.expect(";"); err != nil {
		return err
	}

	if _, exists := p.doc.Messages[name]; exists {
		return p.s.errorf(namePos, "duplicate message "+name)
	}
	p.doc.Messages[name] = msg
	return nil
}

func (p *parser) parseParameter() (avpr.Parameter, error) {
	doc := p.tok.Doc
	typ, _, err := p.parseType()
	if err != nil {
		return avpr.Parameter{}, err
	}
	if _, err := p.annotations(); err != nil {
		return avpr.Parameter{}, err
	}
	name, err := p.ident()
	if err != nil {
		return avpr.Parameter{}, err
	}
	param := avpr.Parameter{Name: name, Type: mustJSON(typ), Doc: doc}
	if p.is("=") {
		def, err := p.rawValue(",)")
		if err != nil {
			return avpr.Parameter{}, err
		}
		param.Default = def
	}
	return param, nil
}

func (p *parser) parseImport() error {
	if err := p.next(); err != nil {
		return err
	}
	kindPos := p.tok.Pos
	kind, err := p.ident()
	if err != nil {
		return err
	}
	if p.tok.Type != TokenString {
		return p.unexpected("import path")
	}
	rel := p.tok.Text
	if err := p.next(); err != nil {
		return err
	}
	if err := p.expect(";"); err != nil {
		return err
	}

	path := rel
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(p.path), rel)
	}
	abs := absPath(path)
	if p.sess.seen[abs] {
		return nil
	}
	p.sess.seen[abs] = true

	if kind != "idl" && kind != "protocol" && kind != "schema" {
		return p.s.errorf(kindPos, "unknown import kind "+kind)
	}

	data, err := p.sess.compiler.read(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read import"), "import", path)
	}

	switch kind {
	case "idl":
		sub, err := p.sess.parse(path, data)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to compile import"), "import", path)
		}
		p.merge(sub)
	case "protocol":
		sub, err := avpr.Decode(data)
		if err != nil {
			return zerr.With(err, "import", path)
		}
		for i, t := range sub.Types {
			sub.Types[i] = withNamespace(t, sub.Namespace)
		}
		p.merge(sub)
	case "schema":
		if !json.Valid(data) {
			return zerr.With(zerr.New("invalid schema JSON"), "import", path)
		}
		p.doc.Types = append(p.doc.Types, json.RawMessage(data))
		p.declareRaw(data)
	}
	return nil
}

// merge includes an imported protocol's types and messages. Messages declared by
// the importing protocol take precedence.
func (p *parser) merge(sub *avpr.Document) {
	p.doc.Types = append(p.doc.Types, sub.Types...)
	for _, t := range sub.Types {
		p.declareRaw(t)
	}
	for name, msg := range sub.Messages {
		if _, exists := p.doc.Messages[name]; !exists {
			p.doc.Messages[name] = msg
		}
	}
}

// withNamespace makes an imported type's namespace explicit, so it is not
// re-homed into the importing protocol's namespace.
func withNamespace(raw json.RawMessage, ns string) json.RawMessage {
	if ns == "" {
		return raw
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return raw
	}
	name, _ := m["name"].(string)
	if _, ok := m["namespace"]; ok || name == "" || strings.Contains(name, ".") {
		return raw
	}
	m["namespace"] = ns
	data, err := json.Marshal(m)
	if err != nil {
		return raw
	}
	return data
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		// Values are built from strings, numbers and objects only.
		panic(err)
	}
	return data
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}
