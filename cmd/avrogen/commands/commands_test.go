package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/avrogen/cmd/avrogen/commands"
	"go.trai.ch/avrogen/internal/app"
	"go.trai.ch/avrogen/internal/build"
)

type mockApp struct {
	runFunc   func(ctx context.Context, opts app.RunOptions) (*app.Summary, error)
	cleanFunc func(ctx context.Context, opts app.CleanOptions) error
	watchFunc func(ctx context.Context, opts app.WatchOptions, report func(*app.Summary, error)) error
}

func (m *mockApp) Run(ctx context.Context, opts app.RunOptions) (*app.Summary, error) {
	if m.runFunc != nil {
		return m.runFunc(ctx, opts)
	}
	return &app.Summary{}, nil
}

func (m *mockApp) Clean(ctx context.Context, opts app.CleanOptions) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Watch(ctx context.Context, opts app.WatchOptions, report func(*app.Summary, error)) error {
	if m.watchFunc != nil {
		return m.watchFunc(ctx, opts, report)
	}
	return nil
}

func sampleSummary() *app.Summary {
	return &app.Summary{
		Dirs: []app.DirSummary{
			{SourceDir: "/src/a", Outputs: 2},
			{SourceDir: "/src/b", Cached: true, Outputs: 1},
			{SourceDir: "/src/c", Failures: []app.Failure{{Path: "/src/c/bad.avsc", Error: "schema parse failed"}}},
		},
		Outputs: []string{"/gen/a.go", "/gen/b.go", "/gen/c.go"},
	}
}

func TestCommands_Generate(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.RunOptions
		mock := &mockApp{
			runFunc: func(_ context.Context, opts app.RunOptions) (*app.Summary, error) {
				captured = opts
				return &app.Summary{}, nil
			},
		}

		cli := commands.New(mock)
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"generate", "-c", "conf/avrogen.yaml", "--force"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, app.RunOptions{ConfigPath: "conf/avrogen.yaml", Force: true}, captured)
	})

	t.Run("prints summary", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, app.RunOptions) (*app.Summary, error) {
				return sampleSummary(), nil
			},
		}

		cli := commands.New(mock)
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"generate"})

		require.NoError(t, cli.Execute(context.Background()))
		out := buf.String()
		assert.Contains(t, out, "/src/a 2 files")
		assert.Contains(t, out, "/src/b 1 file (cached)")
		assert.Contains(t, out, "/src/c/bad.avsc: schema parse failed")
		assert.Contains(t, out, "Generated 3 files from 3 directories, 1 cached, 1 file skipped")
	})

	t.Run("prints json", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, app.RunOptions) (*app.Summary, error) {
				return sampleSummary(), nil
			},
		}

		cli := commands.New(mock)
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, new(bytes.Buffer))
		cli.SetArgs([]string{"gen", "--json"})

		require.NoError(t, cli.Execute(context.Background()))
		var decoded app.Summary
		require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, *sampleSummary(), decoded)
	})

	t.Run("returns error and partial summary", func(t *testing.T) {
		mock := &mockApp{
			runFunc: func(context.Context, app.RunOptions) (*app.Summary, error) {
				return &app.Summary{Dirs: []app.DirSummary{{SourceDir: "/src/ok"}}}, errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		buf := new(bytes.Buffer)
		cli.SetOutput(buf, buf)
		cli.SetArgs([]string{"generate"})

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
		assert.Contains(t, buf.String(), "/src/ok")
	})

	t.Run("rejects arguments", func(t *testing.T) {
		cli := commands.New(&mockApp{})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"generate", "extra"})

		require.Error(t, cli.Execute(context.Background()))
	})
}

func TestCommands_Clean(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want app.CleanOptions
	}{
		{name: "default", args: []string{"clean"}, want: app.CleanOptions{}},
		{name: "all", args: []string{"clean", "--all"}, want: app.CleanOptions{All: true}},
		{name: "config", args: []string{"clean", "-a", "-c", "x.yaml"}, want: app.CleanOptions{ConfigPath: "x.yaml", All: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured app.CleanOptions
			mock := &mockApp{
				cleanFunc: func(_ context.Context, opts app.CleanOptions) error {
					captured = opts
					return nil
				},
			}

			cli := commands.New(mock)
			cli.SetArgs(tt.args)
			require.NoError(t, cli.Execute(context.Background()))
			assert.Equal(t, tt.want, captured)
		})
	}
}

func TestCommands_Watch(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	mock := &mockApp{
		watchFunc: func(_ context.Context, opts app.WatchOptions, report func(*app.Summary, error)) error {
			assert.Equal(t, "w.yaml", opts.ConfigPath)
			report(sampleSummary(), nil)
			report(nil, errors.New("broken import"))
			return nil
		},
	}

	cli := commands.New(mock)
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cli.SetOutput(out, errOut)
	cli.SetArgs([]string{"watch", "-c", "w.yaml"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, out.String(), "Generated 3 files")
	assert.Contains(t, errOut.String(), "build failed: broken import")
}

func TestCommands_Version(t *testing.T) {
	cli := commands.New(&mockApp{})

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.Contains(t, buf.String(), build.Version)
	assert.Contains(t, buf.String(), build.Commit)
}
