//go:build windows

package spooler

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	winspool              = windows.NewLazySystemDLL("winspool.drv")
	procOpenPrinter       = winspool.NewProc("OpenPrinterW")
	procClosePrinter      = winspool.NewProc("ClosePrinter")
	procDocumentProps     = winspool.NewProc("DocumentPropertiesW")
	procEnumPrinters      = winspool.NewProc("EnumPrintersW")
	procGetDefaultPrinter = winspool.NewProc("GetDefaultPrinterW")

	kernel32         = windows.NewLazySystemDLL("kernel32.dll")
	procGlobalAlloc  = kernel32.NewProc("GlobalAlloc")
	procGlobalFree   = kernel32.NewProc("GlobalFree")
	procGlobalLock   = kernel32.NewProc("GlobalLock")
	procGlobalUnlock = kernel32.NewProc("GlobalUnlock")
	procGlobalSize   = kernel32.NewProc("GlobalSize")
)

const (
	dmOutBuffer = 0x02 // DM_OUT_BUFFER
	dmInBuffer  = 0x08 // DM_IN_BUFFER

	ghnd = 0x0042 // GMEM_MOVEABLE | GMEM_ZEROINIT

	printerEnumLocal       = 0x02
	printerEnumConnections = 0x04

	printerAttributeDefault = 0x04 // PRINTER_ATTRIBUTE_DEFAULT
)

// printerInfo2 mirrors PRINTER_INFO_2W from winspool.h.
type printerInfo2 struct {
	pServerName         *uint16
	pPrinterName        *uint16
	pShareName          *uint16
	pPortName           *uint16
	pDriverName         *uint16
	pComment            *uint16
	pLocation           *uint16
	pDevMode            uintptr
	pSepFile            *uint16
	pPrintProcessor     *uint16
	pDatatype           *uint16
	pParameters         *uint16
	pSecurityDescriptor uintptr
	attributes          uint32
	priority            uint32
	defaultPriority     uint32
	startTime           uint32
	untilTime           uint32
	status              uint32
	cJobs               uint32
	averagePPM          uint32
}

// System is the winspool-backed spooler. Device-mode regions are movable
// global memory blocks; regions must be locked before their bytes are
// addressable, exactly as the Win32 contract requires.
type System struct{}

// NewSystem returns the real Windows print-subsystem spooler.
func NewSystem() Spooler { return &System{} }

type winHandle struct {
	name   string
	name16 *uint16
	h      windows.Handle
}

func (h *winHandle) Printer() string { return h.name }

type winRegion struct {
	hmem uintptr
}

func (s *System) Open(name string) (Handle, error) {
	name16, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return nil, err
	}
	var h windows.Handle
	r1, _, e1 := procOpenPrinter.Call(
		uintptr(unsafe.Pointer(name16)),
		uintptr(unsafe.Pointer(&h)),
		0, // default access
	)
	if r1 == 0 {
		return nil, fmt.Errorf("OpenPrinterW: %w", e1)
	}
	return &winHandle{name: name, name16: name16, h: h}, nil
}

func (s *System) Close(h Handle) error {
	wh := h.(*winHandle)
	r1, _, e1 := procClosePrinter.Call(uintptr(wh.h))
	if r1 == 0 {
		return fmt.Errorf("ClosePrinter: %w", e1)
	}
	return nil
}

func (s *System) DevModeRegion(h Handle) (Region, error) {
	wh := h.(*winHandle)

	// With no buffers and mode 0, DocumentProperties reports the DEVMODE
	// size this driver requires, driver-private trailer included.
	n, _, e1 := procDocumentProps.Call(0, uintptr(wh.h), uintptr(unsafe.Pointer(wh.name16)), 0, 0, 0)
	if int32(n) <= 0 {
		return nil, fmt.Errorf("DocumentPropertiesW size query: %w", e1)
	}

	hmem, _, e1 := procGlobalAlloc.Call(ghnd, n)
	if hmem == 0 {
		return nil, fmt.Errorf("GlobalAlloc(%d): %w", n, e1)
	}

	// Fill the region with the printer's current default device mode.
	ptr, _, e1 := procGlobalLock.Call(hmem)
	if ptr == 0 {
		procGlobalFree.Call(hmem)
		return nil, fmt.Errorf("GlobalLock: %w", e1)
	}
	r1, _, e1 := procDocumentProps.Call(0, uintptr(wh.h), uintptr(unsafe.Pointer(wh.name16)), ptr, 0, dmOutBuffer)
	procGlobalUnlock.Call(hmem)
	if int32(r1) < 0 {
		procGlobalFree.Call(hmem)
		return nil, fmt.Errorf("DocumentPropertiesW(DM_OUT_BUFFER): %w", e1)
	}

	return &winRegion{hmem: hmem}, nil
}

func (s *System) Lock(r Region) ([]byte, error) {
	wr := r.(*winRegion)
	ptr, _, e1 := procGlobalLock.Call(wr.hmem)
	if ptr == 0 {
		return nil, fmt.Errorf("GlobalLock: %w", e1)
	}
	size, _, _ := procGlobalSize.Call(wr.hmem)
	if size == 0 {
		procGlobalUnlock.Call(wr.hmem)
		return nil, fmt.Errorf("GlobalSize reported empty region")
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size), nil
}

func (s *System) Unlock(r Region) {
	procGlobalUnlock.Call(r.(*winRegion).hmem)
}

func (s *System) Free(r Region) {
	procGlobalFree.Call(r.(*winRegion).hmem)
}

func (s *System) Commit(h Handle, r Region) error {
	wh := h.(*winHandle)
	wr := r.(*winRegion)

	ptr, _, e1 := procGlobalLock.Call(wr.hmem)
	if ptr == 0 {
		return fmt.Errorf("GlobalLock: %w", e1)
	}
	defer procGlobalUnlock.Call(wr.hmem)

	// Merging the region back through the driver validates the bytes and
	// makes them authoritative for this handle.
	r1, _, e1 := procDocumentProps.Call(0, uintptr(wh.h), uintptr(unsafe.Pointer(wh.name16)), ptr, ptr, dmInBuffer|dmOutBuffer)
	if int32(r1) < 0 {
		return fmt.Errorf("DocumentPropertiesW(DM_IN_BUFFER|DM_OUT_BUFFER): %w", e1)
	}
	return nil
}

func (s *System) Printers() ([]PrinterInfo, error) {
	const flags = printerEnumLocal | printerEnumConnections

	var needed, returned uint32
	procEnumPrinters.Call(flags, 0, 2, 0, 0,
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&returned)))
	if needed == 0 {
		return nil, nil
	}

	buf := make([]byte, needed)
	r1, _, e1 := procEnumPrinters.Call(flags, 0, 2,
		uintptr(unsafe.Pointer(&buf[0])), uintptr(needed),
		uintptr(unsafe.Pointer(&needed)), uintptr(unsafe.Pointer(&returned)))
	if r1 == 0 {
		return nil, fmt.Errorf("EnumPrintersW: %w", e1)
	}

	infos := make([]PrinterInfo, 0, returned)
	entries := unsafe.Slice((*printerInfo2)(unsafe.Pointer(&buf[0])), returned)
	for _, e := range entries {
		infos = append(infos, PrinterInfo{
			Name:    windows.UTF16PtrToString(e.pPrinterName),
			Port:    windows.UTF16PtrToString(e.pPortName),
			Driver:  windows.UTF16PtrToString(e.pDriverName),
			Default: e.attributes&printerAttributeDefault != 0,
		})
	}
	return infos, nil
}

// DefaultPrinterName returns the system default printer, or "" if none is
// configured.
func DefaultPrinterName() string {
	var n uint32
	procGetDefaultPrinter.Call(0, uintptr(unsafe.Pointer(&n)))
	if n == 0 {
		return ""
	}
	buf := make([]uint16, n)
	r1, _, _ := procGetDefaultPrinter.Call(uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&n)))
	if r1 == 0 {
		return ""
	}
	return windows.UTF16ToString(buf)
}

// Ensure System implements Spooler.
var _ Spooler = (*System)(nil)
