package workspace

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_CreateAndCleanup(t *testing.T) {
	tempBase := t.TempDir()
	mgr := NewManager(tempBase)

	if err := mgr.Create(); err != nil {
		t.Fatalf("Create() failed: %v", err)
	}

	wsPath := mgr.GetPath()
	if wsPath == "" {
		t.Fatal("GetPath() returned empty string")
	}
	if !strings.HasPrefix(filepath.Base(wsPath), "contentbuilder-") {
		t.Errorf("Expected timestamped directory, got: %s", wsPath)
	}
	if _, err := os.Stat(wsPath); os.IsNotExist(err) {
		t.Errorf("Workspace directory does not exist: %s", wsPath)
	}

	sub, err := mgr.CreateSubdir("source-0")
	if err != nil {
		t.Fatalf("CreateSubdir() failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "f.md"), []byte("x"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := mgr.Cleanup(); err != nil {
		t.Fatalf("Cleanup() failed: %v", err)
	}
	if _, err := os.Stat(wsPath); !os.IsNotExist(err) {
		t.Errorf("Workspace directory still exists after cleanup: %s", wsPath)
	}
	if err := mgr.Cleanup(); err != nil {
		t.Errorf("second Cleanup() should be a no-op, got %v", err)
	}
}

func TestManager_UniqueDirectories(t *testing.T) {
	base := t.TempDir()
	a, b := NewManager(base), NewManager(base)
	if err := a.Create(); err != nil {
		t.Fatal(err)
	}
	if err := b.Create(); err != nil {
		t.Fatal(err)
	}
	if a.GetPath() == b.GetPath() {
		t.Fatalf("expected distinct workspaces, both got %s", a.GetPath())
	}
}

func TestManager_SubdirBeforeCreate(t *testing.T) {
	if _, err := NewManager(t.TempDir()).CreateSubdir("x"); err == nil {
		t.Fatal("expected error before Create()")
	}
}
