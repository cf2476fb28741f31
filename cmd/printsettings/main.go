// Command printsettings captures and restores printer settings from the
// command line, using the same store as printsettingsd.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/locivir/printsettings/internal/discovery"
	"github.com/locivir/printsettings/internal/identity"
	"github.com/locivir/printsettings/internal/settings"
	"github.com/locivir/printsettings/internal/spooler"
	"github.com/locivir/printsettings/internal/store"
)

const usage = `usage: printsettings [flags] <command> [args]

Commands:
  capture <label> [printer]  save the named printer's current settings
  restore <label>            reinstate previously saved settings
  show <label>               print a saved setting and its decoded summary
  list                       list saved settings for this application
  printers                   list installed printers
  discover                   browse the local network for printers

Flags:
`

func main() {
	var (
		mock      = flag.Bool("mock", false, "use mock spooler (no print system required)")
		cfgDir    = flag.String("config-dir", "", "config directory (default: per-user config dir)")
		storeKind = flag.String("store", "auto", "settings backend: registry, file or auto")
		debug     = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	logLevel := slog.LevelWarn
	if *debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel})))

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(args, *mock, *cfgDir, *storeKind); err != nil {
		fmt.Fprintln(os.Stderr, "printsettings:", err)
		os.Exit(1)
	}
}

func run(args []string, mock bool, cfgDir, storeKind string) error {
	cmd := args[0]

	// discover has no store or spooler dependency
	if cmd == "discover" {
		return runDiscover()
	}

	var sp spooler.Spooler
	if mock {
		sp = spooler.NewMock()
	} else {
		sp = spooler.NewSystem()
	}

	if cmd == "printers" {
		return runPrinters(sp)
	}

	if cfgDir == "" {
		dir, err := identity.ConfigDir()
		if err != nil {
			return fmt.Errorf("determine config directory: %w", err)
		}
		cfgDir = dir
	}
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	st, err := store.Open(storeKind, cfgDir)
	if err != nil {
		return err
	}
	if c, ok := st.(interface{ Close() }); ok {
		defer c.Close()
	}

	svc := settings.New(sp, st, nil, identity.AppIDFromDir(cfgDir))

	switch cmd {
	case "capture":
		if len(args) < 2 {
			return fmt.Errorf("capture: missing label")
		}
		printer := ""
		if len(args) >= 3 {
			printer = args[2]
		}
		if printer == "" {
			printer = spooler.DefaultPrinterName()
		}
		if printer == "" {
			return fmt.Errorf("capture: no printer given and no default printer")
		}
		rec, err := svc.Capture(printer, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("captured %q from %q (%d bytes encoded)\n", rec.Label, rec.PrinterName, len(rec.DevMode))
		return nil

	case "restore":
		if len(args) < 2 {
			return fmt.Errorf("restore: missing label")
		}
		rec, err := svc.Restore(args[1])
		if err != nil {
			return err
		}
		fmt.Printf("restored %q to %q\n", rec.Label, rec.PrinterName)
		return nil

	case "show":
		if len(args) < 2 {
			return fmt.Errorf("show: missing label")
		}
		rec, summary, err := svc.Describe(args[1])
		if err != nil {
			return err
		}
		fmt.Printf("label:    %s\n", rec.Label)
		fmt.Printf("printer:  %s\n", rec.PrinterName)
		fmt.Printf("app id:   %s\n", rec.AppID)
		fmt.Printf("size:     %d+%d bytes\n", summary.Size, summary.DriverExtra)
		if summary.Orientation != "" {
			fmt.Printf("orient:   %s\n", summary.Orientation)
		}
		if summary.PaperSize != 0 {
			fmt.Printf("paper:    %d\n", summary.PaperSize)
		}
		if summary.Copies != 0 {
			fmt.Printf("copies:   %d\n", summary.Copies)
		}
		if summary.Duplex != "" {
			fmt.Printf("duplex:   %s\n", summary.Duplex)
		}
		if summary.Color != "" {
			fmt.Printf("color:    %s\n", summary.Color)
		}
		return nil

	case "list":
		recs, err := svc.List()
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Println("no saved settings")
			return nil
		}
		for _, rec := range recs {
			fmt.Printf("%-20s %s\n", rec.Label, rec.PrinterName)
		}
		return nil

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func runPrinters(sp spooler.Spooler) error {
	printers, err := sp.Printers()
	if err != nil {
		return err
	}
	for _, p := range printers {
		marker := " "
		if p.Default {
			marker = "*"
		}
		fmt.Printf("%s %-30s %s\n", marker, p.Name, p.Port)
	}
	return nil
}

func runDiscover() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	printers, err := discovery.Browse(ctx, 4*time.Second)
	if err != nil {
		return err
	}
	if len(printers) == 0 {
		fmt.Println("no network printers found")
		return nil
	}
	for _, p := range printers {
		fmt.Printf("%-30s %s:%d (%s)\n", p.Name, p.Host, p.Port, p.Service)
	}
	return nil
}
