package spooler

import (
	"encoding/binary"
	"fmt"
	"sync"
	"unicode/utf16"
)

// Mock is a thread-safe in-memory spooler for tests and mock-mode runs.
// It keeps a device-mode block per printer, supports failure injection at
// each lifecycle stage, and accounts every acquire/release pair so tests
// can assert that no handle, region, or lock leaks.
type Mock struct {
	mu    sync.Mutex
	modes map[string][]byte

	counts MockCounts

	failOpen     bool
	failRegion   bool
	failLock     bool
	failCommit   bool
	truncateLock int // if > 0, Lock returns only this many bytes
}

// MockCounts holds resource-accounting counters.
type MockCounts struct {
	Opens   int
	Closes  int
	Allocs  int
	Frees   int
	Locks   int
	Unlocks int
	Commits int
}

type mockHandle struct {
	name string
}

func (h *mockHandle) Printer() string { return h.name }

type mockRegion struct {
	buf []byte
}

// DefaultPrinter is the printer preloaded into every new Mock.
const DefaultPrinter = "Mock Office Printer"

// NewMock creates a mock spooler with DefaultPrinter pre-installed.
func NewMock() *Mock {
	m := &Mock{modes: make(map[string][]byte)}
	m.AddPrinter(DefaultPrinter, 220, 16)
	return m
}

// AddPrinter installs a printer with a fabricated device-mode block of the
// given public size and driver-private trailer length.
func (m *Mock) AddPrinter(name string, size, extra int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.modes[name] = fabricateMode(name, size, extra)
}

// SetDeviceMode replaces a printer's device-mode bytes directly.
func (m *Mock) SetDeviceMode(name string, raw []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(raw))
	copy(cp, raw)
	m.modes[name] = cp
}

// DeviceMode returns a copy of a printer's current device-mode bytes.
func (m *Mock) DeviceMode(name string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.modes[name]
	if !ok {
		return nil
	}
	cp := make([]byte, len(raw))
	copy(cp, raw)
	return cp
}

// SetFailOpen makes Open fail for all printers.
func (m *Mock) SetFailOpen(fail bool) { m.mu.Lock(); defer m.mu.Unlock(); m.failOpen = fail }

// SetFailRegion makes DevModeRegion fail.
func (m *Mock) SetFailRegion(fail bool) { m.mu.Lock(); defer m.mu.Unlock(); m.failRegion = fail }

// SetFailLock makes Lock fail.
func (m *Mock) SetFailLock(fail bool) { m.mu.Lock(); defer m.mu.Unlock(); m.failLock = fail }

// SetFailCommit makes Commit fail.
func (m *Mock) SetFailCommit(fail bool) { m.mu.Lock(); defer m.mu.Unlock(); m.failCommit = fail }

// SetTruncateLock makes Lock return a buffer truncated to n bytes, forcing
// a fault in the caller's byte-copy phase.
func (m *Mock) SetTruncateLock(n int) { m.mu.Lock(); defer m.mu.Unlock(); m.truncateLock = n }

// Counts returns a snapshot of the accounting counters.
func (m *Mock) Counts() MockCounts {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts
}

// Balanced reports whether every open, alloc, and lock has been matched by
// its release.
func (m *Mock) Balanced() bool {
	c := m.Counts()
	return c.Opens == c.Closes && c.Allocs == c.Frees && c.Locks == c.Unlocks
}

func (m *Mock) Open(name string) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOpen {
		return nil, fmt.Errorf("mock: open refused")
	}
	if _, ok := m.modes[name]; !ok {
		return nil, fmt.Errorf("mock: unknown printer %q", name)
	}
	m.counts.Opens++
	return &mockHandle{name: name}, nil
}

func (m *Mock) Close(h Handle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.Closes++
	return nil
}

func (m *Mock) DevModeRegion(h Handle) (Region, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failRegion {
		return nil, fmt.Errorf("mock: region allocation refused")
	}
	raw := m.modes[h.Printer()]
	buf := make([]byte, len(raw))
	copy(buf, raw)
	m.counts.Allocs++
	return &mockRegion{buf: buf}, nil
}

func (m *Mock) Lock(r Region) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failLock {
		return nil, fmt.Errorf("mock: lock refused")
	}
	m.counts.Locks++
	buf := r.(*mockRegion).buf
	if m.truncateLock > 0 && m.truncateLock < len(buf) {
		return buf[:m.truncateLock], nil
	}
	return buf, nil
}

func (m *Mock) Unlock(r Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.Unlocks++
}

func (m *Mock) Free(r Region) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts.Frees++
}

func (m *Mock) Commit(h Handle, r Region) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCommit {
		return fmt.Errorf("mock: commit refused")
	}
	buf := r.(*mockRegion).buf
	cp := make([]byte, len(buf))
	copy(cp, buf)
	m.modes[h.Printer()] = cp
	m.counts.Commits++
	return nil
}

func (m *Mock) Printers() ([]PrinterInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	infos := make([]PrinterInfo, 0, len(m.modes))
	for name := range m.modes {
		infos = append(infos, PrinterInfo{
			Name:    name,
			Port:    "MOCK:",
			Driver:  "Mock Driver",
			Default: name == DefaultPrinter,
		})
	}
	return infos, nil
}

// fabricateMode builds a synthetic but structurally valid device-mode block
// with the declared lengths in its own header and a patterned trailer.
func fabricateMode(name string, size, extra int) []byte {
	raw := make([]byte, size+extra)
	for i, c := range utf16.Encode([]rune(name)) {
		if i >= deviceNameChars-1 {
			break
		}
		binary.LittleEndian.PutUint16(raw[i*2:], c)
	}
	binary.LittleEndian.PutUint16(raw[68:], uint16(size))
	binary.LittleEndian.PutUint16(raw[70:], uint16(extra))
	if len(raw) >= 96 {
		binary.LittleEndian.PutUint32(raw[72:], 0x0003) // orientation | paper size
		binary.LittleEndian.PutUint16(raw[76:], 1)      // portrait
		binary.LittleEndian.PutUint16(raw[78:], 9)      // DMPAPER_A4
	}
	for i := size; i < size+extra; i++ {
		raw[i] = byte(0xA0 + i%0x20)
	}
	return raw
}

const deviceNameChars = 32

// Ensure Mock implements Spooler.
var _ Spooler = (*Mock)(nil)
