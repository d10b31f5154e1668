package smu

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultPath is where the ryzen_smu kernel module exports its entries.
const DefaultPath = "/sys/kernel/ryzen_smu_drv"

// Entry names under the access root.
const (
	EntryFirmwareVersion = "version"
	EntryDriverVersion   = "drv_version"
	EntryCodename        = "codename"
	EntryTableVersion    = "pm_table_version"
	EntryTableSize       = "pm_table_size"
	EntryTable           = "pm_table"
)

// Driver is the read surface a Reader needs. *Access implements it.
type Driver interface {
	CodenameID() (uint32, error)
	TableVersion() (uint32, error)
	TableBytes() ([]byte, error)
}

// Access reads the driver's entries from one directory. It keeps no
// state between reads; every call goes to the filesystem, since the
// module can be unloaded between polls.
type Access struct {
	root string
}

// Open binds an Access to root. It fails with KindAccessUnavailable if
// root does not exist or is not a directory.
func Open(root string) (*Access, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, &Error{Kind: KindAccessUnavailable, Path: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &Error{Kind: KindAccessUnavailable, Path: root}
	}
	return &Access{root: root}, nil
}

// Root returns the directory this Access reads from.
func (a *Access) Root() string { return a.root }

// ReadBytes returns the raw content of entry name. The read itself is
// attempted and its error classified.
func (a *Access) ReadBytes(name string) ([]byte, error) {
	path := filepath.Join(a.root, name)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, classifyReadError(path, err)
	}
	return data, nil
}

// ReadString returns the raw text of entry name.
func (a *Access) ReadString(name string) (string, error) {
	data, err := a.ReadBytes(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FirmwareVersion returns the SMU firmware version string, trimmed.
func (a *Access) FirmwareVersion() (string, error) {
	s, err := a.ReadString(EntryFirmwareVersion)
	return strings.TrimSpace(s), err
}

// DriverVersion returns the kernel module version string, trimmed.
func (a *Access) DriverVersion() (string, error) {
	s, err := a.ReadString(EntryDriverVersion)
	return strings.TrimSpace(s), err
}

// CodenameID returns the numeric codename id. Unparsable text yields 0
// (Unsupported) and no error.
func (a *Access) CodenameID() (uint32, error) {
	s, err := a.ReadString(EntryCodename)
	if err != nil {
		return 0, err
	}
	id, _ := parseUint32(s)
	return id, nil
}

// Codename returns the resolved processor family.
func (a *Access) Codename() (Codename, error) {
	id, err := a.CodenameID()
	return CodenameFromID(id), err
}

// TableVersion returns the PM table format version. The entry may be
// decimal text, 0x-prefixed hex text, or a raw 4-byte little-endian
// word; anything else yields 0.
func (a *Access) TableVersion() (uint32, error) {
	raw, err := a.ReadBytes(EntryTableVersion)
	if err != nil {
		return 0, err
	}
	return parseTableVersion(raw), nil
}

// TableSize returns the size the driver declares for the table. It is
// advisory; decoding validates the buffer on its own.
func (a *Access) TableSize() (int, error) {
	s, err := a.ReadString(EntryTableSize)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0, nil
	}
	return n, nil
}

// TableBytes returns the raw PM table.
func (a *Access) TableBytes() ([]byte, error) {
	return a.ReadBytes(EntryTable)
}

func parseTableVersion(raw []byte) uint32 {
	if v, ok := parseUint32(string(raw)); ok {
		return v
	}
	if len(raw) == 4 {
		return binary.LittleEndian.Uint32(raw)
	}
	return 0
}

// parseUint32 accepts decimal or 0x/0X-prefixed hex. Leading zeros are
// decimal, not octal.
func parseUint32(s string) (uint32, bool) {
	s = strings.TrimSpace(s)
	base := 10
	if rest, ok := strings.CutPrefix(s, "0x"); ok {
		s, base = rest, 16
	} else if rest, ok := strings.CutPrefix(s, "0X"); ok {
		s, base = rest, 16
	}
	v, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, false
	}
	return uint32(v), true
}
