//go:build !windows

package spooler

import "errors"

var errUnsupported = errors.New("print subsystem access requires Windows")

// System is a stub on non-Windows platforms so that the library, daemon,
// and CLI build everywhere. Every operation fails; use Mock instead.
type System struct{}

// NewSystem returns a spooler whose operations all fail with a
// platform-unsupported error.
func NewSystem() Spooler { return &System{} }

func (s *System) Open(name string) (Handle, error)       { return nil, errUnsupported }
func (s *System) Close(h Handle) error                   { return errUnsupported }
func (s *System) DevModeRegion(h Handle) (Region, error) { return nil, errUnsupported }
func (s *System) Lock(r Region) ([]byte, error)          { return nil, errUnsupported }
func (s *System) Unlock(r Region)                        {}
func (s *System) Free(r Region)                          {}
func (s *System) Commit(h Handle, r Region) error        { return errUnsupported }
func (s *System) Printers() ([]PrinterInfo, error)       { return nil, errUnsupported }

// DefaultPrinterName returns "" on non-Windows platforms.
func DefaultPrinterName() string { return "" }

var _ Spooler = (*System)(nil)
