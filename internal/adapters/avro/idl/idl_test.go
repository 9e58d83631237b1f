package idl_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/avrogen/internal/adapters/avro/idl"
)

func TestScanner_Tokens(t *testing.T) {
	s := idl.NewScanner([]byte("/** The doc. */ record `error` {\n  int x = -5; // trailing\n}"))

	var got []idl.Token
	for {
		tok, err := s.Next()
		require.NoError(t, err)
		if tok.Type == idl.TokenEOF {
			break
		}
		got = append(got, tok)
	}

	require.Len(t, got, 9)
	assert.Equal(t, "record", got[0].Text)
	assert.Equal(t, "The doc.", got[0].Doc)
	assert.Equal(t, "error", got[1].Text)
	assert.True(t, got[1].Quoted)
	assert.Equal(t, idl.TokenNumber, got[6].Type)
	assert.Equal(t, "-5", got[6].Text)
	assert.Equal(t, idl.Position{Line: 2, Column: 3}, got[3].Pos)
}

func TestScanner_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unterminated comment", "/* open"},
		{"unterminated string", `"abc`},
		{"stray character", "#"},
		{"lone minus", "- 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := idl.NewScanner([]byte(tt.src)).Next()
			require.Error(t, err)
		})
	}
}

func compile(t *testing.T, src string) map[string]any {
	t.Helper()
	doc, err := idl.NewCompiler(nil).Compile(filepath.Join(t.TempDir(), "test.avdl"), []byte(src))
	require.NoError(t, err)
	data, err := doc.Encode()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func typeNamed(t *testing.T, protocol map[string]any, name string) map[string]any {
	t.Helper()
	types, _ := protocol["types"].([]any)
	for _, raw := range types {
		typ, ok := raw.(map[string]any)
		if ok && typ["name"] == name {
			return typ
		}
	}
	t.Fatalf("type %s not found", name)
	return nil
}

func TestCompile_Protocol(t *testing.T) {
	out := compile(t, `
/** Shop service. */
@namespace("org.shop")
protocol Shop {
  /** A color. */
  enum Color { RED, GREEN, BLUE } = RED;

  fixed Hash(16);

  @namespace("org.other")
  record Item {
    /** The id. */
    string id;
    int count = 1;
    Color? color = null;
    array<string> tags = [];
    map<long> totals;
    union { null, Hash } hash = null;
    decimal(9, 2) price;
    date created;
    timestamp_ms updated;
    uuid ref;
    string @order("descending") name = "x", alias = "y";
  }

  error NotFound {
    string reason;
  }

  Item get(string id) throws NotFound;
  void ping() oneway;
}
`)

	assert.Equal(t, "Shop", out["protocol"])
	assert.Equal(t, "org.shop", out["namespace"])
	assert.Equal(t, "Shop service.", out["doc"])

	color := typeNamed(t, out, "Color")
	assert.Equal(t, "enum", color["type"])
	assert.Equal(t, "org.shop", color["namespace"])
	assert.Equal(t, "A color.", color["doc"])
	assert.Equal(t, []any{"RED", "GREEN", "BLUE"}, color["symbols"])
	assert.Equal(t, "RED", color["default"])

	hash := typeNamed(t, out, "Hash")
	assert.Equal(t, "fixed", hash["type"])
	assert.InDelta(t, 16, hash["size"], 0)

	item := typeNamed(t, out, "Item")
	assert.Equal(t, "org.other", item["namespace"])
	fields := item["fields"].([]any)
	require.Len(t, fields, 12)

	id := fields[0].(map[string]any)
	assert.Equal(t, "The id.", id["doc"])

	color2 := fields[2].(map[string]any)
	assert.Equal(t, []any{"null", "org.shop.Color"}, color2["type"])

	price := fields[6].(map[string]any)["type"].(map[string]any)
	assert.Equal(t, "decimal", price["logicalType"])
	assert.InDelta(t, 9, price["precision"], 0)
	assert.InDelta(t, 2, price["scale"], 0)

	created := fields[7].(map[string]any)["type"].(map[string]any)
	assert.Equal(t, "date", created["logicalType"])

	name := fields[10].(map[string]any)
	assert.Equal(t, "descending", name["order"])
	alias := fields[11].(map[string]any)
	assert.Equal(t, "alias", alias["name"])
	assert.Equal(t, "y", alias["default"])
	assert.NotContains(t, alias, "order")

	notFound := typeNamed(t, out, "NotFound")
	assert.Equal(t, "error", notFound["type"])

	messages := out["messages"].(map[string]any)
	get := messages["get"].(map[string]any)
	assert.Equal(t, "org.other.Item", get["response"])
	assert.Equal(t, []any{"org.shop.NotFound"}, get["errors"])
	ping := messages["ping"].(map[string]any)
	assert.Equal(t, "null", ping["response"])
	assert.Equal(t, true, ping["one-way"])
}

func TestCompile_OptionalWithDefault(t *testing.T) {
	out := compile(t, `protocol P { record R { string? s = "x"; } }`)

	field := typeNamed(t, out, "R")["fields"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"string", "null"}, field["type"])
	assert.Equal(t, "x", field["default"])
}

func TestCompile_AnnotatedPrimitive(t *testing.T) {
	out := compile(t, `protocol P { record R { @logicalType("timestamp-micros") long ts; } }`)

	field := typeNamed(t, out, "R")["fields"].([]any)[0].(map[string]any)
	assert.Equal(t, map[string]any{"type": "long", "logicalType": "timestamp-micros"}, field["type"])
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing protocol", `record R {}`},
		{"missing brace", `protocol P { record R { int x; }`},
		{"trailing tokens", `protocol P {} extra`},
		{"bad default", `protocol P { record R { int x = {; } }`},
		{"oneway with response", `protocol P { int ping() oneway; }`},
		{"duplicate message", `protocol P { void a(); void a(); }`},
		{"unknown import kind", `protocol P { import foo "x.avdl"; }`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := idl.NewCompiler(nil).Compile(filepath.Join(t.TempDir(), "x.avdl"), []byte(tt.src))
			require.Error(t, err)
		})
	}
}

func TestCompile_ErrorPosition(t *testing.T) {
	_, err := idl.NewCompiler(nil).Compile("x.avdl", []byte("protocol P {\n  record {\n}"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected identifier")
}

func TestCompileFile_Imports(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	write("common/shared.avdl", `
@namespace("org.common")
protocol Shared {
  import idl "../main.avdl";
  record Money { long cents; }
  void audit();
}`)
	write("point.avsc", `{"type":"record","name":"Point","namespace":"org.geo","fields":[{"name":"x","type":"int"}]}`)
	write("legacy.avpr", `{"protocol":"Legacy","namespace":"org.legacy","types":[{"type":"enum","name":"Mode","symbols":["A"]}],"messages":{}}`)
	main := write("main.avdl", `
@namespace("org.app")
protocol App {
  import idl "common/shared.avdl";
  import schema "point.avsc";
  import protocol "legacy.avpr";
  record Order { org.common.Money total; org.geo.Point at; org.legacy.Mode mode; }
}`)

	doc, err := idl.NewCompiler(nil).CompileFile(main)
	require.NoError(t, err)

	data, err := doc.Encode()
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	assert.Equal(t, "org.common", typeNamed(t, out, "Money")["namespace"])
	assert.Equal(t, "org.geo", typeNamed(t, out, "Point")["namespace"])
	assert.Equal(t, "org.legacy", typeNamed(t, out, "Mode")["namespace"])
	typeNamed(t, out, "Order")
	assert.Contains(t, doc.Messages, "audit")
	assert.Len(t, doc.Types, 4, "the import cycle back to main.avdl must not duplicate types")
}

func TestCompileFile_MissingImport(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.avdl")
	require.NoError(t, os.WriteFile(path, []byte(`protocol P { import idl "nope.avdl"; }`), 0o600))

	_, err := idl.NewCompiler(nil).CompileFile(path)
	require.Error(t, err)
}

func TestCompileFile_Missing(t *testing.T) {
	_, err := idl.NewCompiler(nil).CompileFile(filepath.Join(t.TempDir(), "absent.avdl"))
	require.Error(t, err)
}
