package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"importfix/internal/core/app"
	"importfix/internal/core/config"
	"importfix/internal/engine/resolver"
	"importfix/internal/ui/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFiles(t *testing.T, tmpDir string) {
	files := map[string]string{
		"app/__init__.py":          "",
		"app/models.py":            "class User:\n    pass\n\n\nclass Order:\n    pass\n",
		"app/api/__init__.py":      "",
		"app/api/serializers.py":   "class User:\n    fields = ()\n",
		"app/api/views.py":         "def show(pk):\n    return User(pk)\n",
		"app/services/billing.py":  "def charge(order_id):\n    return Order(order_id)\n",
		"legacy/models.py":         "class Order:\n    pass\n",
		"scripts/report.py":        "from app.models import *\n\nprint(User, Order)\n",
		"scripts/run.py":           "import sys\n\nsys.exit(entrypoint())\n",
		"build/generated.py":       "def charge():\n    pass\n",
		"app/api/broken_module.py": "def broken(:\n    pass\n",
	}
	for rel, content := range files {
		path := filepath.Join(tmpDir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func findings(t *testing.T, analysis *app.Analysis, path string) resolver.FileFindings {
	t.Helper()
	for _, f := range analysis.Findings {
		if f.File == path {
			return f
		}
	}
	t.Fatalf("no findings for %s", path)
	return resolver.FileFindings{}
}

func TestFullPipelineIntegration(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	cfg := config.DefaultConfig()
	cfg.Exclude.Dirs = append(cfg.Exclude.Dirs, "legacy")
	cfg.Analysis.Workers = 3

	appInstance, err := app.New(cfg)
	require.NoError(t, err)

	ctx := context.Background()
	analysis, err := appInstance.Analyze(ctx, tmpDir)
	require.NoError(t, err)

	// build/ is excluded by default and legacy/ by configuration.
	assert.Nil(t, analysis.File("build/generated.py"))
	assert.Nil(t, analysis.File("legacy/models.py"))

	require.Len(t, analysis.Issues, 1)
	assert.Equal(t, "app/api/broken_module.py", analysis.Issues[0].Path)

	// Same-package definition wins over the shallower one.
	views := findings(t, analysis, "app/api/views.py")
	require.Len(t, views.Missing, 1)
	assert.Equal(t, "app.api.serializers", views.Missing[0].Module)
	assert.Equal(t, []string{"app.api.serializers", "app.models"}, views.Missing[0].Candidates)

	billing := findings(t, analysis, "app/services/billing.py")
	require.Len(t, billing.Missing, 1)
	assert.Equal(t, "app.models", billing.Missing[0].Module)

	// A star import of a project module covers its public names.
	assert.Empty(t, findings(t, analysis, "scripts/report.py").Missing)

	run := findings(t, analysis, "scripts/run.py")
	assert.Empty(t, run.Missing)
	assert.Equal(t, []string{"entrypoint"}, run.Unresolved)

	rep := report.Build(analysis, report.Options{TopN: 5, ShowUnresolved: true})
	var buf bytes.Buffer
	require.NoError(t, report.RenderJSON(&buf, rep))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	summary := decoded["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["missing_imports"])
	assert.EqualValues(t, 2, summary["files_with_missing"])

	batch := appInstance.Apply(ctx, analysis)
	assert.Equal(t, 2, batch.Applied())
	assert.Zero(t, batch.Failed())

	viewsSrc, err := os.ReadFile(filepath.Join(tmpDir, "app/api/views.py"))
	require.NoError(t, err)
	assert.Contains(t, string(viewsSrc), "from app.api.serializers import User\n")
	assert.Contains(t, string(viewsSrc), "def show(pk):\n    return User(pk)\n")

	again, err := appInstance.Analyze(ctx, tmpDir)
	require.NoError(t, err)
	assert.Zero(t, again.MissingCount())
	assert.Len(t, again.Issues, 1, "the broken module is still reported")
}

func TestScoringConfigChangesChoice(t *testing.T) {
	tmpDir := t.TempDir()
	createTestFiles(t, tmpDir)

	cfg := config.DefaultConfig()
	zero := 0
	cfg.Scoring.PackageBonus = &zero

	appInstance, err := app.New(cfg)
	require.NoError(t, err)

	analysis, err := appInstance.Analyze(context.Background(), tmpDir)
	require.NoError(t, err)

	// Without the package bonus the shallower module wins.
	views := findings(t, analysis, "app/api/views.py")
	require.Len(t, views.Missing, 1)
	assert.Equal(t, "app.models", views.Missing[0].Module)
}
