package safefile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRejectSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "rounds.txt")
	link := filepath.Join(dir, "link.txt")
	if err := os.WriteFile(target, []byte("1 ab"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	if err := RejectSymlink(target); err != nil {
		t.Errorf("regular file should pass: %v", err)
	}
	err := RejectSymlink(link)
	if err == nil || !strings.Contains(err.Error(), "symbolic link") {
		t.Errorf("symlink: got %v", err)
	}
	if err := RejectSymlink(filepath.Join(dir, "missing")); !os.IsNotExist(err) {
		t.Errorf("missing file: got %v", err)
	}
}

func TestReadFileMax(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "vxverify.yaml")
	if err := os.WriteFile(f, []byte("version: \"1\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := ReadFileMax(f, 1024)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "version: \"1\"\n" {
		t.Errorf("got %q", got)
	}

	if _, err := ReadFileMax(f, 4); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("size cap: got %v", err)
	}
	if _, err := ReadFileMax(dir, 1024); err == nil || !strings.Contains(err.Error(), "directory") {
		t.Errorf("directory: got %v", err)
	}

	link := filepath.Join(dir, "link.yaml")
	if err := os.Symlink(f, link); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadFileMax(link, 1024); err == nil {
		t.Error("expected symlink to be rejected")
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "out.yaml")

	if err := WriteFile(f, []byte("a"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := WriteFile(f, []byte("bb"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(f)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "bb" {
		t.Errorf("got %q, want %q", got, "bb")
	}
	info, err := os.Stat(f)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("perm = %v", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestWriteFile_RefusesSymlink(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "target")
	link := filepath.Join(dir, "link")
	if err := os.WriteFile(target, []byte("keep"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, link); err != nil {
		t.Fatal(err)
	}

	if err := WriteFile(link, []byte("overwrite"), 0o644); err == nil {
		t.Fatal("expected error writing through symlink")
	}
	got, _ := os.ReadFile(target)
	if string(got) != "keep" {
		t.Errorf("target modified: %q", got)
	}
}
