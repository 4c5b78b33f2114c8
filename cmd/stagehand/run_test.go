package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/alexisbeaulieu97/stagehand/internal/create"
	"github.com/alexisbeaulieu97/stagehand/internal/logger"
	"github.com/alexisbeaulieu97/stagehand/internal/model"
	"github.com/alexisbeaulieu97/stagehand/internal/plugin"
	"github.com/alexisbeaulieu97/stagehand/internal/publish"
)

func writeRunConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "publish.yaml")
	content := `
version: "1.0"
name: cli_publish
targets:
  - local
comment: "from the cli"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func withTestPipeline(t *testing.T, p *Pipeline) {
	t.Helper()
	original := appPipeline
	t.Cleanup(func() { appPipeline = original })
	SetPipeline(p)
}

func TestRunCommandPrintsReport(t *testing.T) {
	withTestPipeline(t, &Pipeline{
		Creators: []*create.Creator{{
			Identifier:  "cli_creator",
			ProductType: "render",
			Collect: func(cctx *create.Context) ([]*model.Instance, error) {
				return []*model.Instance{{Name: "renderMain", Active: true}}, nil
			},
		}},
		PublishPlugins: []*plugin.Plugin{{
			ID:               "collect",
			Name:             "CollectScene",
			Order:            plugin.CollectorOrder,
			EnabledByDefault: true,
			InstanceScoped:   true,
			Process: func(ctx context.Context, pctx *model.Context, instance *model.Instance, log *logger.Logger) error {
				return nil
			},
		}},
	})

	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", writeRunConfig(t)})

	require.NoError(t, root.Execute())

	var report publish.Report
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	require.Equal(t, publish.ReportVersion, report.ReportVersion)
	require.Len(t, report.PluginsData, 1)
	require.True(t, report.PluginsData[0].Passed)
}

func TestRunCommandFailsOnBadConfig(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", filepath.Join(t.TempDir(), "missing.yaml")})

	require.Error(t, root.Execute())
}

func TestReportCommandSummarizesSavedReport(t *testing.T) {
	report := publish.Report{
		PluginsData: []publish.PluginRecord{
			{ID: "p1", Name: "CollectScene", Passed: true},
			{ID: "p2", Name: "ValidateMesh", Errored: true, IsBlocking: true},
		},
		Context:       publish.ContextDetail{Label: "Context"},
		ID:            "abc123",
		CreatedAt:     "2026-08-31T12:00:00Z",
		ReportVersion: publish.ReportVersion,
	}
	data, err := json.Marshal(report)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	root := newRootCmd()
	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"report", path})

	require.NoError(t, root.Execute())
	require.Contains(t, out.String(), "abc123")
	require.Contains(t, out.String(), "1 passed")
	require.Contains(t, out.String(), "ValidateMesh: blocking error")
}
