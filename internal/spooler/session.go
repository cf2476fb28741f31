package spooler

import (
	"fmt"
	"log/slog"

	"github.com/locivir/printsettings/internal/devmode"
)

// Session brackets one capture or restore operation against a single
// printer. It owns the connection handle and the device-mode region
// exclusively from open to close, and releases both on every exit path.
// Sessions are synchronous and must not be shared between goroutines.
type Session struct {
	sp Spooler
}

// NewSession returns a session that performs its operations through sp.
func NewSession(sp Spooler) *Session {
	return &Session{sp: sp}
}

// Capture opens printerName, reads its current device-mode block, and
// releases every acquired resource before returning. The number of bytes
// read is dictated by the dmSize + dmDriverExtra fields of the region's own
// header. A connection failure yields *OpenError.
func (s *Session) Capture(printerName string) (devmode.Block, error) {
	h, err := s.sp.Open(printerName)
	if err != nil {
		return devmode.Block{}, &OpenError{Printer: printerName, Err: err}
	}
	defer func() {
		if cerr := s.sp.Close(h); cerr != nil {
			slog.Warn("spooler: close printer", "printer", printerName, "err", cerr)
		}
	}()

	region, err := s.sp.DevModeRegion(h)
	if err != nil {
		return devmode.Block{}, fmt.Errorf("spooler: device-mode region for %q: %w", printerName, err)
	}
	defer s.sp.Free(region)

	// The lock is scoped to the byte copy and nothing else.
	raw, err := func() ([]byte, error) {
		buf, err := s.sp.Lock(region)
		if err != nil {
			return nil, err
		}
		defer s.sp.Unlock(region)
		return readDeclared(buf)
	}()
	if err != nil {
		return devmode.Block{}, fmt.Errorf("spooler: capture device mode for %q: %w", printerName, err)
	}

	block, err := devmode.FromRaw(raw)
	if err != nil {
		return devmode.Block{}, fmt.Errorf("spooler: capture device mode for %q: %w", printerName, err)
	}
	slog.Debug("spooler: captured device mode",
		"printer", printerName,
		"size", block.Size(),
		"driver_extra", block.DriverExtra(),
	)
	return block, nil
}

// Restore opens a fresh connection to printerName, overwrites its
// device-mode region in place with block's bytes, and commits the region
// back into the printer handle. The commit is what makes the restored bytes
// authoritative for subsequent print operations. On a copy-phase fault the
// region is unlocked before the failure is surfaced; the region and the
// connection are released in all cases.
func (s *Session) Restore(printerName string, block devmode.Block) error {
	h, err := s.sp.Open(printerName)
	if err != nil {
		return &OpenError{Printer: printerName, Err: err}
	}
	defer func() {
		if cerr := s.sp.Close(h); cerr != nil {
			slog.Warn("spooler: close printer", "printer", printerName, "err", cerr)
		}
	}()

	region, err := s.sp.DevModeRegion(h)
	if err != nil {
		return &RestoreError{Printer: printerName, Err: err}
	}
	defer s.sp.Free(region)

	err = func() error {
		buf, err := s.sp.Lock(region)
		if err != nil {
			return err
		}
		defer s.sp.Unlock(region)
		if len(buf) < block.Len() {
			return fmt.Errorf("region of %d bytes cannot hold %d-byte block", len(buf), block.Len())
		}
		copy(buf, block.Bytes())
		return nil
	}()
	if err != nil {
		return &RestoreError{Printer: printerName, Err: err}
	}

	if err := s.sp.Commit(h, region); err != nil {
		return &RestoreError{Printer: printerName, Err: err}
	}
	slog.Debug("spooler: restored device mode", "printer", printerName, "bytes", block.Len())
	return nil
}
