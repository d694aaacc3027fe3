package app

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"importfix/internal/core/config"
	"importfix/internal/core/errors"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func defaultScanOptions() ScanOptions {
	cfg := config.DefaultConfig()
	return ScanOptions{
		ExcludeDirs:  cfg.Exclude.Dirs,
		ExcludeFiles: []string{"*_pb2.py"},
		Extensions:   cfg.Python.Extensions,
	}
}

func TestScanProject(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"main.py":                "",
		"app/__init__.py":        "",
		"app/models.py":          "",
		"app/README.md":          "",
		"app/api_pb2.py":         "",
		"app/__pycache__/x.py":   "",
		".venv/lib/site.py":      "",
		"node_modules/pkg/x.py":  "",
		"tests/test_models.py":   "",
		"build/lib/generated.py": "",
		"scripts/Tool.PY":        "",
	})

	project, issues, err := ScanProject(root, defaultScanOptions())
	if err != nil {
		t.Fatalf("ScanProject failed: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("unexpected issues: %+v", issues)
	}
	want := []string{
		"app/__init__.py",
		"app/models.py",
		"main.py",
		"scripts/Tool.PY",
		"tests/test_models.py",
	}
	if !reflect.DeepEqual(project.Files, want) {
		t.Errorf("unexpected files:\n got %v\nwant %v", project.Files, want)
	}
	if project.Root != root {
		t.Errorf("unexpected root %s", project.Root)
	}
}

func TestScanProject_UnreadableDirectory(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"ok.py":         "",
		"locked/bad.py": "",
	})
	locked := filepath.Join(root, "locked")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	defer os.Chmod(locked, 0o755)

	project, issues, err := ScanProject(root, defaultScanOptions())
	if err != nil {
		t.Fatalf("ScanProject failed: %v", err)
	}
	if !reflect.DeepEqual(project.Files, []string{"ok.py"}) {
		t.Errorf("unexpected files %v", project.Files)
	}
	if len(issues) != 1 || issues[0].Code != errors.CodeDirectoryAccessFailure || issues[0].Path != "locked" {
		t.Errorf("expected one directory access issue, got %+v", issues)
	}
}

func TestScanProject_InvalidPattern(t *testing.T) {
	if _, _, err := ScanProject(t.TempDir(), ScanOptions{ExcludeDirs: []string{"[bad"}}); err == nil {
		t.Fatal("expected error for invalid exclude pattern")
	}
}

func TestScanProject_PatternNormalization(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"generated/models.py": "",
		"app.py":              "",
	})
	project, _, err := ScanProject(root, ScanOptions{
		ExcludeDirs: []string{"./generated/", "  "},
		Extensions:  []string{"py"},
	})
	if err != nil {
		t.Fatalf("ScanProject failed: %v", err)
	}
	if !reflect.DeepEqual(project.Files, []string{"app.py"}) {
		t.Errorf("unexpected files %v", project.Files)
	}
}

func TestScanProject_SkipsSymlinkedFiles(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	writeTree(t, root, map[string]string{"a.py": "def helper():\n    pass\n"})
	writeTree(t, outside, map[string]string{"b.py": "print(helper())\n"})
	if err := os.Symlink(filepath.Join(outside, "b.py"), filepath.Join(root, "b.py")); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	project, issues, err := ScanProject(root, defaultScanOptions())
	if err != nil {
		t.Fatalf("ScanProject failed: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("unexpected issues: %+v", issues)
	}
	if !reflect.DeepEqual(project.Files, []string{"a.py"}) {
		t.Errorf("expected the symlinked file to be skipped, got %v", project.Files)
	}
}

func TestResolveRoot(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.py")
	if err := os.WriteFile(file, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	if got, err := ResolveRoot(dir); err != nil || got != filepath.Clean(dir) {
		t.Errorf("ResolveRoot(dir) = %q, %v", got, err)
	}
	if _, err := ResolveRoot(filepath.Join(dir, "missing")); !errors.IsCode(err, errors.CodeNotFound) {
		t.Errorf("expected NOT_FOUND, got %v", err)
	}
	if _, err := ResolveRoot(file); !errors.IsCode(err, errors.CodeValidationError) {
		t.Errorf("expected VALIDATION_ERROR for a file, got %v", err)
	}
}
