// Package discovery finds network printers advertised over mDNS/DNS-SD and
// optionally advertises the printsettings agent itself so that it is
// discoverable on the LAN.
package discovery

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
)

// Service types printers commonly advertise.
var printerServiceTypes = []string{"_ipp._tcp", "_printer._tcp"}

// Printer describes a network printer found during a browse.
type Printer struct {
	Name    string   `json:"name"`
	Service string   `json:"service"`
	Host    string   `json:"host"`
	Port    int      `json:"port"`
	Addrs   []string `json:"addrs,omitempty"`
	TXT     []string `json:"txt,omitempty"`
}

// Browse searches the local network for printers for the given duration and
// returns the deduplicated results sorted by name.
func Browse(ctx context.Context, timeout time.Duration) ([]Printer, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Browse all service types concurrently against the same deadline.
	var mu sync.Mutex
	found := make(map[string]Printer)
	var wg sync.WaitGroup

	for _, service := range printerServiceTypes {
		resolver, err := zeroconf.NewResolver(nil)
		if err != nil {
			return nil, fmt.Errorf("discovery: resolver: %w", err)
		}

		entries := make(chan *zeroconf.ServiceEntry)
		wg.Add(1)
		go func(service string) {
			defer wg.Done()
			for e := range entries {
				p := Printer{
					Name:    e.Instance,
					Service: service,
					Host:    e.HostName,
					Port:    e.Port,
					TXT:     e.Text,
				}
				for _, ip := range e.AddrIPv4 {
					p.Addrs = append(p.Addrs, ip.String())
				}
				mu.Lock()
				found[service+"/"+e.Instance] = p
				mu.Unlock()
			}
		}(service)

		if err := resolver.Browse(ctx, service, "local.", entries); err != nil {
			return nil, fmt.Errorf("discovery: browse %s: %w", service, err)
		}
	}
	wg.Wait()

	printers := make([]Printer, 0, len(found))
	for _, p := range found {
		printers = append(printers, p)
	}
	sort.Slice(printers, func(i, j int) bool { return printers[i].Name < printers[j].Name })
	return printers, nil
}

// Advertiser registers the agent as an mDNS/DNS-SD service.
type Advertiser struct {
	name string // instance name, e.g. the hostname
	port int
}

// NewAdvertiser creates an Advertiser that will announce on the given port.
func NewAdvertiser(name string, port int) *Advertiser {
	return &Advertiser{name: name, port: port}
}

// Start registers the mDNS service and blocks until ctx is cancelled, at
// which point it shuts down the server cleanly.
func (a *Advertiser) Start(ctx context.Context) error {
	txt := []string{"service=printsettings"}

	server, err := zeroconf.Register(
		a.name,                  // instance name
		"_printsettings._tcp",   // service type
		"local.",                // domain
		a.port,                  // port
		txt,                     // TXT records
		nil,                     // ifaces — nil means all interfaces
	)
	if err != nil {
		return fmt.Errorf("discovery: register: %w", err)
	}
	slog.Info("discovery: registered mDNS service", "name", a.name, "port", a.port)

	<-ctx.Done()

	server.Shutdown()
	slog.Info("discovery: mDNS service unregistered")
	return nil
}

// Hostname returns the local hostname used as the default instance name.
func Hostname() string {
	h, err := os.Hostname()
	if err != nil {
		return "printsettings"
	}
	return h
}
