//go:build unix

package smu

import (
	"errors"

	"golang.org/x/sys/unix"
)

// deviceGone reports errnos the kernel returns when a sysfs entry's
// backing module went away while the file was being read.
func deviceGone(err error) bool {
	return errors.Is(err, unix.ENODEV) || errors.Is(err, unix.ENXIO)
}
