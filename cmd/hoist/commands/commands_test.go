package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/hoist/cmd/hoist/commands"
	"go.trai.ch/hoist/internal/app"
	"go.trai.ch/hoist/internal/build"
	"go.trai.ch/hoist/internal/core/domain"
)

type mockApp struct {
	resolveFunc func(ctx context.Context, opts app.Options) (*app.Outcome, error)
	installFunc func(ctx context.Context, opts app.Options) (*app.Outcome, domain.ApplyResult, error)
	whyFunc     func(ctx context.Context, opts app.Options, consumer, name string) (domain.Explanation, error)
	reportFunc  func(ctx context.Context, opts app.Options) (*domain.Report, error)
}

func (m *mockApp) Resolve(ctx context.Context, opts app.Options) (*app.Outcome, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx, opts)
	}
	return sampleOutcome(), nil
}

func (m *mockApp) Install(ctx context.Context, opts app.Options) (*app.Outcome, domain.ApplyResult, error) {
	if m.installFunc != nil {
		return m.installFunc(ctx, opts)
	}
	return sampleOutcome(), domain.ApplyResult{}, nil
}

func (m *mockApp) Why(ctx context.Context, opts app.Options, consumer, name string) (domain.Explanation, error) {
	if m.whyFunc != nil {
		return m.whyFunc(ctx, opts, consumer, name)
	}
	return domain.Explanation{}, nil
}

func (m *mockApp) Report(ctx context.Context, opts app.Options) (*domain.Report, error) {
	if m.reportFunc != nil {
		return m.reportFunc(ctx, opts)
	}
	return &domain.Report{HoistingRate: 1}, nil
}

type logControl struct {
	verbose bool
	json    bool
}

func (l *logControl) SetVerbose(enable bool) { l.verbose = enable }
func (l *logControl) SetJSON(enable bool)    { l.json = enable }

func sampleOutcome() *app.Outcome {
	return &app.Outcome{
		Resolution: domain.NewResolution(),
		Plan: &domain.InstallPlan{Entries: []domain.PlacementEntry{
			{
				Target:    "node_modules/lodash",
				Kind:      domain.PlacementSharedCopy,
				Name:      "lodash",
				Version:   "4.17.21",
				Consumers: []string{"ui"},
			},
			{
				Target:    "apps/web/node_modules/ui",
				Kind:      domain.PlacementLocalLink,
				Name:      "ui",
				Source:    "packages/ui",
				Version:   "1.0.0",
				Consumers: []string{"web"},
			},
		}},
	}
}

func execute(t *testing.T, cli *commands.CLI, args ...string) (string, error) {
	t.Helper()
	t.Setenv("NO_COLOR", "1")
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, new(bytes.Buffer))
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Resolve(t *testing.T) {
	t.Run("wires persistent flags", func(t *testing.T) {
		var captured app.Options
		mock := &mockApp{
			resolveFunc: func(_ context.Context, opts app.Options) (*app.Outcome, error) {
				captured = opts
				return sampleOutcome(), nil
			},
		}

		out, err := execute(t, commands.New(mock, nil),
			"resolve", "-C", "repo", "--registry", "/offline", "--no-lockfile")
		require.NoError(t, err)
		assert.Equal(t, app.Options{Dir: "repo", Registry: "/offline", NoLockfile: true}, captured)
		assert.Contains(t, out, "Install plan (2 placements)")
		assert.Contains(t, out, "node_modules/lodash shared-copy lodash@4.17.21 for ui")
		assert.Contains(t, out, "apps/web/node_modules/ui local-link packages/ui")
		assert.Contains(t, out, "Hoisting rate: 100.0%")
	})

	t.Run("prints the canonical plan as json", func(t *testing.T) {
		out, err := execute(t, commands.New(&mockApp{}, nil), "resolve", "--json")
		require.NoError(t, err)

		want, err := sampleOutcome().Plan.Encode()
		require.NoError(t, err)
		assert.Equal(t, string(want), out)
	})

	t.Run("returns resolve errors", func(t *testing.T) {
		mock := &mockApp{
			resolveFunc: func(_ context.Context, _ app.Options) (*app.Outcome, error) {
				return nil, errors.New("simulated error")
			},
		}

		_, err := execute(t, commands.New(mock, nil), "resolve")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects arguments", func(t *testing.T) {
		_, err := execute(t, commands.New(&mockApp{}, nil), "resolve", "extra")
		require.Error(t, err)
	})
}

func TestCommands_LogFlags(t *testing.T) {
	logs := &logControl{}
	_, err := execute(t, commands.New(&mockApp{}, logs), "resolve", "-v", "--json-logs")
	require.NoError(t, err)
	assert.True(t, logs.verbose)
	assert.True(t, logs.json)
}

func TestCommands_Install(t *testing.T) {
	t.Run("prints the apply summary", func(t *testing.T) {
		mock := &mockApp{
			installFunc: func(_ context.Context, _ app.Options) (*app.Outcome, domain.ApplyResult, error) {
				return sampleOutcome(), domain.ApplyResult{Applied: 1, Skipped: 1, Pruned: 3, Resumed: true}, nil
			},
		}

		out, err := execute(t, commands.New(mock, nil), "install")
		require.NoError(t, err)
		assert.Contains(t, out, "Installed 2 placements: 1 applied, 1 unchanged, 3 pruned (resumed)")
	})

	t.Run("returns apply errors", func(t *testing.T) {
		applyErr := domain.NewError(domain.KindPlanApply, "node_modules/lodash", errors.New("disk full"))
		mock := &mockApp{
			installFunc: func(_ context.Context, _ app.Options) (*app.Outcome, domain.ApplyResult, error) {
				return nil, domain.ApplyResult{}, applyErr
			},
		}

		_, err := execute(t, commands.New(mock, nil), "install")
		require.Error(t, err)
		assert.Equal(t, domain.KindPlanApply, domain.KindOf(err))
	})
}

func TestCommands_Why(t *testing.T) {
	explanation := domain.Explanation{
		Consumer:       "web",
		Name:           "lodash",
		Spec:           "^3.0.0",
		Provider:       "registry",
		Version:        "3.10.1",
		HoistedVersion: "4.17.21",
		Reason:         "range ^3.0.0 excludes hoisted 4.17.21",
		Target:         "apps/web/node_modules/lodash",
	}

	t.Run("passes consumer and dependency", func(t *testing.T) {
		var gotConsumer, gotName string
		mock := &mockApp{
			whyFunc: func(_ context.Context, _ app.Options, consumer, name string) (domain.Explanation, error) {
				gotConsumer, gotName = consumer, name
				return explanation, nil
			},
		}

		out, err := execute(t, commands.New(mock, nil), "why", "web", "lodash")
		require.NoError(t, err)
		assert.Equal(t, "web", gotConsumer)
		assert.Equal(t, "lodash", gotName)
		assert.Contains(t, out, "hoisted:  no (shared copy is 4.17.21)")
		assert.Contains(t, out, "target:   apps/web/node_modules/lodash")
	})

	t.Run("prints json", func(t *testing.T) {
		mock := &mockApp{
			whyFunc: func(_ context.Context, _ app.Options, _, _ string) (domain.Explanation, error) {
				return explanation, nil
			},
		}

		out, err := execute(t, commands.New(mock, nil), "why", "web", "lodash", "--json")
		require.NoError(t, err)

		var got domain.Explanation
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, explanation, got)
	})

	t.Run("requires two arguments", func(t *testing.T) {
		_, err := execute(t, commands.New(&mockApp{}, nil), "why", "web")
		require.Error(t, err)
	})
}

func TestCommands_Report(t *testing.T) {
	report := &domain.Report{
		HoistingRate:      0.5,
		HoistedInstances:  1,
		ExternalInstances: 2,
		SharedCopies:      1,
		NestedCopies:      1,
		Duplicates: []domain.Duplicate{{
			Name:    "lodash",
			Hoisted: "4.17.21",
			Shared:  []string{"ui"},
			Nested:  []domain.NestedUse{{Consumer: "web", Range: "^3.0.0", Version: "3.10.1"}},
		}},
		Cycles: []string{"a -> b -> a"},
	}

	t.Run("leaves the target unset without the flag", func(t *testing.T) {
		var captured app.Options
		mock := &mockApp{
			reportFunc: func(_ context.Context, opts app.Options) (*domain.Report, error) {
				captured = opts
				return report, nil
			},
		}

		out, err := execute(t, commands.New(mock, nil), "report")
		require.NoError(t, err)
		assert.Nil(t, captured.MinHoistingRate)
		assert.Contains(t, out, "hoisting rate: 50.0% (1 of 2 external instances)")
		assert.Contains(t, out, "ui share 4.17.21")
		assert.Contains(t, out, "web wants ^3.0.0, gets 3.10.1")
		assert.Contains(t, out, "a -> b -> a")
	})

	t.Run("prints the report before the rate error", func(t *testing.T) {
		var captured app.Options
		rateErr := domain.NewError(domain.KindHoistingRateBelowTarget, "", errors.New("below target"))
		mock := &mockApp{
			reportFunc: func(_ context.Context, opts app.Options) (*domain.Report, error) {
				captured = opts
				return report, rateErr
			},
		}

		out, err := execute(t, commands.New(mock, nil), "report", "--min-rate", "0.9")
		require.Error(t, err)
		assert.Equal(t, domain.KindHoistingRateBelowTarget, domain.KindOf(err))
		require.NotNil(t, captured.MinHoistingRate)
		assert.InDelta(t, 0.9, *captured.MinHoistingRate, 1e-9)
		assert.Contains(t, out, "Hoisting report")
	})

	t.Run("prints json", func(t *testing.T) {
		mock := &mockApp{
			reportFunc: func(_ context.Context, _ app.Options) (*domain.Report, error) {
				return report, nil
			},
		}

		out, err := execute(t, commands.New(mock, nil), "report", "--json")
		require.NoError(t, err)

		var got domain.Report
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, *report, got)
	})

	t.Run("returns errors without a report", func(t *testing.T) {
		mock := &mockApp{
			reportFunc: func(_ context.Context, _ app.Options) (*domain.Report, error) {
				return nil, errors.New("discovery failed")
			},
		}

		out, err := execute(t, commands.New(mock, nil), "report")
		require.Error(t, err)
		assert.Empty(t, out)
	})
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, commands.New(&mockApp{}, nil), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hoist version "+build.Version)
	assert.Contains(t, out, build.Commit)
}

func TestCommands_VersionFlag(t *testing.T) {
	out, err := execute(t, commands.New(&mockApp{}, nil), "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "hoist version "+build.Version)
}
