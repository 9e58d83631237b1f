package compiler_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/hamba/avro/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/avrogen/internal/adapters/avro/compiler"
	"go.trai.ch/avrogen/internal/core/domain"
	"go.trai.ch/avrogen/internal/core/ports"
	"go.trai.ch/avrogen/internal/core/registry"
)

func writeFile(t *testing.T, dir, name, content string) domain.SchemaFile {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return domain.NewSchemaFile(path)
}

func request(src, dest string, files ...domain.SchemaFile) ports.CompileRequest {
	return ports.CompileRequest{
		SourceRoot:  src,
		Files:       files,
		Destination: dest,
		Options:     domain.DefaultCompileOptions(),
		Types:       registry.New(domain.RegistryFlags{}),
	}
}

func failedPaths(res ports.CompileResult) []string {
	var paths []string
	for _, f := range res.Failures {
		paths = append(paths, f.Path)
	}
	return paths
}

const (
	userSchema    = `{"type":"record","name":"User","namespace":"org.app","fields":[{"name":"address","type":"org.app.Address"}]}`
	addressSchema = `{"type":"record","name":"Address","namespace":"org.app","fields":[{"name":"street","type":"string"}]}`
)

func TestFlatSchemaCompiler_CrossFileResolution(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	// User is listed before the file that defines Address.
	user := writeFile(t, src, "a_user.avsc", userSchema)
	address := writeFile(t, src, "b_address.avsc", addressSchema)

	req := request(src, dest, user, address)
	res, err := compiler.NewFlatSchemaCompiler().Compile(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)

	assert.ElementsMatch(t, []string{
		filepath.Join(dest, "org", "app", "user.go"),
		filepath.Join(dest, "org", "app", "address.go"),
	}, res.Outputs)
	for _, out := range res.Outputs {
		assert.FileExists(t, out)
	}

	_, ok := req.Types.Lookup("org.app.Address")
	assert.True(t, ok, "compiled types are added to the run's registry")
}

func TestFlatSchemaCompiler_BatchIsolation(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	good := writeFile(t, src, "good.avsc", addressSchema)
	broken := writeFile(t, src, "broken.avsc", `{"type":"record",`)
	dangling := writeFile(t, src, "dangling.avsc", `{"type":"record","name":"Orphan","namespace":"org.app","fields":[{"name":"m","type":"org.app.Missing"}]}`)
	dependent := writeFile(t, src, "dependent.avsc", `{"type":"record","name":"Child","namespace":"org.app","fields":[{"name":"o","type":"org.app.Orphan"}]}`)

	req := request(src, dest, broken, dependent, good, dangling)
	res, err := compiler.NewFlatSchemaCompiler().Compile(context.Background(), req)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{broken.Path, dependent.Path, dangling.Path}, failedPaths(res))
	for _, f := range res.Failures {
		require.ErrorIs(t, f.Err, domain.ErrParse)
	}
	assert.Equal(t, []string{filepath.Join(dest, "org", "app", "address.go")}, res.Outputs)

	_, ok := req.Types.Lookup("org.app.Orphan")
	assert.False(t, ok, "a failed file contributes no types")
	assert.Equal(t, []string{"org.app.Address"}, req.Types.Names())
}

func TestFlatSchemaCompiler_UnreadableFile(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	good := writeFile(t, src, "good.avsc", addressSchema)
	missing := domain.NewSchemaFile(filepath.Join(src, "gone.avsc"))

	res, err := compiler.NewFlatSchemaCompiler().Compile(context.Background(), request(src, dest, missing, good))
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	require.ErrorIs(t, res.Failures[0].Err, domain.ErrIO)
	assert.Len(t, res.Outputs, 1)
}

func TestFlatSchemaCompiler_ConflictingDefinitions(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	first := writeFile(t, src, "a.avsc", addressSchema)
	second := writeFile(t, src, "b.avsc", `{"type":"record","name":"Address","namespace":"org.app","fields":[{"name":"zip","type":"int"}]}`)
	same := writeFile(t, src, "c.avsc", addressSchema)

	res, err := compiler.NewFlatSchemaCompiler().Compile(context.Background(), request(src, dest, first, second, same))
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, second.Path, res.Failures[0].Path)
	require.ErrorIs(t, res.Failures[0].Err, domain.ErrParse)
	assert.Len(t, res.Outputs, 1, "an identical redefinition generates nothing new")
}

func TestFlatSchemaCompiler_NamespaceLayout(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	placed := writeFile(t, src, "org/app/address.avsc", addressSchema)
	misplaced := writeFile(t, src, "elsewhere/user.avsc", `{"type":"record","name":"User","namespace":"org.app","fields":[]}`)
	rootless := writeFile(t, src, "plain.avsc", `{"type":"enum","name":"Plain","symbols":["A"]}`)

	req := request(src, dest, placed, misplaced, rootless)
	req.Options.UseNamespace = true

	res, err := compiler.NewFlatSchemaCompiler().Compile(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, misplaced.Path, res.Failures[0].Path)
	require.ErrorIs(t, res.Failures[0].Err, domain.ErrNamespaceLayout)
	assert.Len(t, res.Outputs, 2)

	t.Run("not enforced by default", func(t *testing.T) {
		req := request(src, t.TempDir(), misplaced)
		res, err := compiler.NewFlatSchemaCompiler().Compile(context.Background(), req)
		require.NoError(t, err)
		assert.Empty(t, res.Failures)
	})
}

func TestFlatSchemaCompiler_ValidateNames(t *testing.T) {
	src := t.TempDir()
	clash := writeFile(t, src, "clash.avsc", `{"type":"record","name":"Clash","fields":[{"name":"user_id","type":"int"},{"name":"userID","type":"int"}]}`)

	req := request(src, t.TempDir(), clash)
	res, err := compiler.NewFlatSchemaCompiler().Compile(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Failures, "colliding names are disambiguated unless validation is on")

	req = request(src, t.TempDir(), clash)
	req.Types = registry.New(domain.RegistryFlags{ValidateNames: true})
	res, err = compiler.NewFlatSchemaCompiler().Compile(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	require.ErrorIs(t, res.Failures[0].Err, domain.ErrParse)
}

func TestFlatSchemaCompiler_ValidateDefaults(t *testing.T) {
	src := t.TempDir()
	bad := writeFile(t, src, "bad.avsc", `{"type":"record","name":"Bad","fields":[{"name":"u","type":["string","null"],"default":null}]}`)

	req := request(src, t.TempDir(), bad)
	req.Types = registry.New(domain.RegistryFlags{ValidateDefaults: true})
	res, err := compiler.NewFlatSchemaCompiler().Compile(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Failures, 1)
	require.ErrorIs(t, res.Failures[0].Err, domain.ErrParse)
}

func TestFlatSchemaCompiler_Cancelled(t *testing.T) {
	src := t.TempDir()
	file := writeFile(t, src, "a.avsc", addressSchema)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := compiler.NewFlatSchemaCompiler().Compile(ctx, request(src, t.TempDir(), file))
	require.ErrorIs(t, err, context.Canceled)
}

const shopIDL = `
@namespace("org.shop")
protocol Shop {
  record Item { string id; org.app.Address ship_to; }
  error NotFound { string id; }
  Item get(string id) throws NotFound;
}
`

func seeded(t *testing.T) *registry.Registry {
	t.Helper()
	types := registry.New(domain.RegistryFlags{})
	s, err := avro.ParseWithCache(addressSchema, "", &avro.SchemaCache{})
	require.NoError(t, err)
	require.NoError(t, types.Add(s.(avro.NamedSchema)))
	return types
}

func TestIDLCompiler(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	file := writeFile(t, src, "shop.avdl", shopIDL)

	req := request(src, dest, file)
	req.Types = seeded(t)

	c := compiler.NewIDLCompiler()
	assert.Equal(t, domain.FormatIDL, c.Format())

	res, err := c.Compile(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, res.Failures)

	dir := filepath.Join(dest, "org", "shop")
	assert.Equal(t, []string{
		filepath.Join(dir, "item.go"),
		filepath.Join(dir, "not_found.go"),
		filepath.Join(dir, "shop_protocol.go"),
	}, res.Outputs, "registry types resolve without being regenerated")

	proto, err := os.ReadFile(filepath.Join(dir, "shop_protocol.go"))
	require.NoError(t, err)
	assert.Contains(t, string(proto), "Get(ctx context.Context, id string) (Item, error)")
}

func TestIDLCompiler_Fatal(t *testing.T) {
	src := t.TempDir()

	t.Run("parse error", func(t *testing.T) {
		file := writeFile(t, src, "bad.avdl", `protocol P { record R { int x } }`)
		_, err := compiler.NewIDLCompiler().Compile(context.Background(), request(src, t.TempDir(), file))
		require.ErrorIs(t, err, domain.ErrParse)
	})

	t.Run("unresolved reference", func(t *testing.T) {
		file := writeFile(t, src, "dangling.avdl", `protocol P { record R { Missing m; } }`)
		_, err := compiler.NewIDLCompiler().Compile(context.Background(), request(src, t.TempDir(), file))
		require.ErrorIs(t, err, domain.ErrParse)
	})

	t.Run("missing file", func(t *testing.T) {
		file := domain.NewSchemaFile(filepath.Join(src, "absent.avdl"))
		_, err := compiler.NewIDLCompiler().Compile(context.Background(), request(src, t.TempDir(), file))
		require.ErrorIs(t, err, domain.ErrIO)
	})
}

const shopProtocol = `{
  "protocol": "Shop",
  "namespace": "org.shop",
  "types": [
    {"type": "enum", "name": "Kind", "symbols": ["BOOK", "TOY"]},
    {"type": "record", "name": "Item", "fields": [{"name": "kind", "type": "Kind"}]}
  ],
  "messages": {
    "list": {"request": [{"name": "kind", "type": "Kind"}], "response": {"type": "array", "items": "Item"}},
    "notify": {"request": [], "response": "null", "one-way": true}
  }
}`

func TestProtocolCompiler(t *testing.T) {
	src, dest := t.TempDir(), t.TempDir()
	file := writeFile(t, src, "shop.avpr", shopProtocol)

	c := compiler.NewProtocolCompiler()
	assert.Equal(t, domain.FormatProtocol, c.Format())

	res, err := c.Compile(context.Background(), request(src, dest, file))
	require.NoError(t, err)

	dir := filepath.Join(dest, "org", "shop")
	assert.Equal(t, []string{
		filepath.Join(dir, "kind.go"),
		filepath.Join(dir, "item.go"),
		filepath.Join(dir, "shop_protocol.go"),
	}, res.Outputs)

	proto, err := os.ReadFile(filepath.Join(dir, "shop_protocol.go"))
	require.NoError(t, err)
	assert.Contains(t, string(proto), "List(ctx context.Context, kind Kind) ([]Item, error)")
	assert.Contains(t, string(proto), "Notify(ctx context.Context) error")
}

func TestProtocolCompiler_Fatal(t *testing.T) {
	src := t.TempDir()
	file := writeFile(t, src, "bad.avpr", `{"protocol": ""}`)

	_, err := compiler.NewProtocolCompiler().Compile(context.Background(), request(src, t.TempDir(), file))
	require.ErrorIs(t, err, domain.ErrParse)
}
