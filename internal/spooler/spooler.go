// Package spooler provides access to the operating system's print subsystem:
// opening printer connections, acquiring device-mode memory regions, and
// committing modified device modes back to a printer handle.
//
// The Spooler interface mirrors the OS primitives directly; Session layers
// the strict acquire/lock/copy/unlock/release bracket on top of them. The
// real implementation talks to winspool.drv and is only built on Windows;
// Mock is an in-memory implementation used for tests and mock-mode runs.
package spooler

import (
	"fmt"

	"github.com/locivir/printsettings/internal/devmode"
)

// Handle is an open connection to a named printer. Handles are owned by a
// single Session for the duration of one operation and are never shared.
type Handle interface {
	// Printer returns the name the handle was opened with.
	Printer() string
}

// Region is a system-owned memory region holding a device-mode block.
// A Region must be locked before its bytes can be read or written, and must
// be freed exactly once.
type Region interface{}

// PrinterInfo describes an installed printer.
type PrinterInfo struct {
	Name    string `json:"name"`
	Port    string `json:"port,omitempty"`
	Driver  string `json:"driver,omitempty"`
	Default bool   `json:"default"`
}

// Spooler is the boundary to the OS print subsystem.
type Spooler interface {
	// Open establishes a connection to the named printer.
	Open(name string) (Handle, error)

	// Close releases a printer connection.
	Close(h Handle) error

	// DevModeRegion allocates a region holding the printer's current
	// default device mode. The caller owns the region and must Free it.
	DevModeRegion(h Handle) (Region, error)

	// Lock pins the region's memory and returns its bytes. The returned
	// slice is only valid until Unlock.
	Lock(r Region) ([]byte, error)

	// Unlock releases a lock taken with Lock.
	Unlock(r Region)

	// Free releases the region's memory.
	Free(r Region)

	// Commit makes the region's (possibly modified) device mode
	// authoritative for the printer handle.
	Commit(h Handle, r Region) error

	// Printers enumerates the installed printers.
	Printers() ([]PrinterInfo, error)
}

// OpenError indicates that a connection to a printer could not be
// established: the printer is missing, offline, or access was denied.
type OpenError struct {
	Printer string
	Err     error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("spooler: open printer %q: %v", e.Printer, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// RestoreError indicates that writing a device-mode block back into a live
// printer handle failed during the byte-copy or commit phase.
type RestoreError struct {
	Printer string
	Err     error
}

func (e *RestoreError) Error() string {
	return fmt.Sprintf("spooler: restore device mode for %q: %v", e.Printer, e.Err)
}

func (e *RestoreError) Unwrap() error { return e.Err }

// readDeclared copies the block out of a locked region buffer, sized by the
// region's own header fields rather than any caller-supplied constant.
func readDeclared(buf []byte) ([]byte, error) {
	n, err := devmode.DeclaredLen(buf)
	if err != nil {
		return nil, err
	}
	if n < devmode.MinHeaderLen {
		return nil, fmt.Errorf("declared device-mode length %d below header minimum", n)
	}
	if n > len(buf) {
		return nil, fmt.Errorf("declared device-mode length %d exceeds region of %d bytes", n, len(buf))
	}
	raw := make([]byte, n)
	copy(raw, buf[:n])
	return raw, nil
}
