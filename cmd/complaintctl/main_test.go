package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	if err := root.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("complaintctl %s: %v (%s)", strings.Join(args, " "), err, out.String())
	}
	return out.String()
}

func TestSampleImportExportRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "complaints.db"))
	t.Setenv("UPLOAD_DIR", filepath.Join(dir, "uploads"))

	sample := filepath.Join(dir, "sample.xlsx")
	if out := runCLI(t, "sample", sample); !strings.Contains(out, "wrote sample workbook") {
		t.Fatalf("unexpected sample output: %s", out)
	}
	if _, err := os.Stat(sample); err != nil {
		t.Fatalf("expected sample workbook: %v", err)
	}

	if out := runCLI(t, "import", sample, "--dry-run"); !strings.Contains(out, "dry_run: 1 rows, 1 created") {
		t.Fatalf("unexpected dry run output: %s", out)
	}
	if out := runCLI(t, "import", sample); !strings.Contains(out, "apply: 1 rows, 1 created") {
		t.Fatalf("unexpected import output: %s", out)
	}

	exported := filepath.Join(dir, "export.xlsx")
	if out := runCLI(t, "export", exported); !strings.Contains(out, "exported 1 complaints") {
		t.Fatalf("unexpected export output: %s", out)
	}
}

func TestExportRejectsNonWorkbookPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "complaints.db"))

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"export", filepath.Join(dir, "export.csv")})
	if err := root.ExecuteContext(context.Background()); err == nil {
		t.Fatal("expected an error for a non-workbook output path")
	}
}
