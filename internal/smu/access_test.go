package smu

import (
	"encoding/binary"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"testing"
)

// writeEntry creates an entry file under root.
func writeEntry(t *testing.T, root, name string, content []byte) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), content, 0644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

// syntheticSysfs builds a ryzen_smu_drv directory for a Vermeer part
// with an 8-core table padded to the driver's real 0x240903 size.
func syntheticSysfs(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeEntry(t, root, EntryFirmwareVersion, []byte("SMU v46.54.0\n"))
	writeEntry(t, root, EntryDriverVersion, []byte("0.1.7\n"))
	writeEntry(t, root, EntryCodename, []byte("12\n"))
	writeEntry(t, root, EntryTableVersion, []byte("0x240903\n"))
	writeEntry(t, root, EntryTableSize, []byte("6832\n"))

	table := make([]byte, 6832)
	copy(table, syntheticTable(Layout0x240903, 8))
	writeEntry(t, root, EntryTable, table)
	return root
}

func TestAccessMetadata(t *testing.T) {
	access, err := Open(syntheticSysfs(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if got, err := access.FirmwareVersion(); err != nil || got != "SMU v46.54.0" {
		t.Errorf("FirmwareVersion = %q, %v", got, err)
	}
	if got, err := access.DriverVersion(); err != nil || got != "0.1.7" {
		t.Errorf("DriverVersion = %q, %v", got, err)
	}
	if got, err := access.Codename(); err != nil || got != Vermeer {
		t.Errorf("Codename = %v, %v", got, err)
	}
	if got, err := access.TableVersion(); err != nil || got != 0x240903 {
		t.Errorf("TableVersion = %#x, %v", got, err)
	}
	if got, err := access.TableSize(); err != nil || got != 6832 {
		t.Errorf("TableSize = %d, %v", got, err)
	}
	if got, err := access.TableBytes(); err != nil || len(got) != 6832 {
		t.Errorf("TableBytes = %d bytes, %v", len(got), err)
	}
	raw, err := access.ReadString(EntryCodename)
	if err != nil || raw != "12\n" {
		t.Errorf("ReadString(codename) = %q, %v", raw, err)
	}
}

func TestOpenMissingRoot(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "ryzen_smu_drv"))
	if !errors.Is(err, ErrAccessUnavailable) {
		t.Fatalf("err = %v, want access unavailable", err)
	}
}

func TestOpenFileRoot(t *testing.T) {
	root := t.TempDir()
	writeEntry(t, root, "notadir", []byte("x"))
	if _, err := Open(filepath.Join(root, "notadir")); !errors.Is(err, ErrAccessUnavailable) {
		t.Fatalf("err = %v, want access unavailable", err)
	}
}

func TestReadMissingEntry(t *testing.T) {
	access, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_, err = access.ReadBytes(EntryTable)
	if !errors.Is(err, ErrAccessUnavailable) {
		t.Fatalf("err = %v, want access unavailable", err)
	}
	var e *Error
	errors.As(err, &e)
	if e.Path != filepath.Join(access.Root(), EntryTable) {
		t.Errorf("Path = %q", e.Path)
	}
}

func TestReadRootRemovedAfterOpen(t *testing.T) {
	root := syntheticSysfs(t)
	access, err := Open(root)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("RemoveAll: %v", err)
	}
	if _, err := access.TableVersion(); !errors.Is(err, ErrAccessUnavailable) {
		t.Fatalf("err = %v, want access unavailable", err)
	}
}

func TestReadUnreadableEntry(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root bypasses file permissions")
	}
	root := syntheticSysfs(t)
	path := filepath.Join(root, EntryTable)
	if err := os.Chmod(path, 0); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	access, _ := Open(root)
	if _, err := access.TableBytes(); !errors.Is(err, ErrAccessDenied) {
		t.Fatalf("err = %v, want access denied", err)
	}
}

func TestClassifyReadError(t *testing.T) {
	tests := []struct {
		errno syscall.Errno
		want  ErrorKind
	}{
		{syscall.ENOENT, KindAccessUnavailable},
		{syscall.ENODEV, KindAccessUnavailable},
		{syscall.ENXIO, KindAccessUnavailable},
		{syscall.EACCES, KindAccessDenied},
		{syscall.EPERM, KindAccessDenied},
		{syscall.EIO, KindTransportIO},
		{syscall.EBUSY, KindTransportIO},
	}
	for _, tt := range tests {
		cause := &fs.PathError{Op: "open", Path: "/x", Err: tt.errno}
		err := classifyReadError("/x", cause)
		if got := KindOf(err); got != tt.want {
			t.Errorf("%v: kind = %v, want %v", tt.errno, got, tt.want)
		}
		if !errors.Is(err, tt.errno) {
			t.Errorf("%v: cause not preserved in chain", tt.errno)
		}
	}
}

func TestTableVersionFormats(t *testing.T) {
	word := make([]byte, 4)
	binary.LittleEndian.PutUint32(word, 0x620205)

	tests := []struct {
		name string
		raw  []byte
		want uint32
	}{
		{"hex", []byte("0x240903\n"), 0x240903},
		{"upper hex", []byte("0X620205"), 0x620205},
		{"decimal", []byte("2361603\n"), 0x240903},
		{"leading zero decimal", []byte("0012"), 12},
		{"binary word", word, 0x620205},
		{"garbage", []byte("not a version"), 0},
		{"empty", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := parseTableVersion(tt.raw); got != tt.want {
				t.Errorf("parseTableVersion(%q) = %#x, want %#x", tt.raw, got, tt.want)
			}
		})
	}
}

func TestUnparsableMetadataDefaultsToZero(t *testing.T) {
	root := syntheticSysfs(t)
	writeEntry(t, root, EntryCodename, []byte("vermeer\n"))
	writeEntry(t, root, EntryTableSize, []byte("big\n"))
	access, _ := Open(root)

	if got, err := access.Codename(); err != nil || got != Unsupported {
		t.Errorf("Codename = %v, %v; want Unsupported, nil", got, err)
	}
	if got, err := access.TableSize(); err != nil || got != 0 {
		t.Errorf("TableSize = %d, %v; want 0, nil", got, err)
	}
}
