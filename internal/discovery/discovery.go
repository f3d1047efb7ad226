// Package discovery advertises the gestpipe API over mDNS so companion apps
// on the local network can find it.
package discovery

import (
	"fmt"
	"log"
	"net"
	"os"
	"strconv"
	"sync"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the DNS-SD service type.
	ServiceType = "_gestpipe._tcp"
	// ServiceDomain is the mDNS domain.
	ServiceDomain = "local."
)

// registerFunc matches zeroconf.Register.
type registerFunc func(instance, service, domain string, port int, text []string, ifaces []net.Interface) (*zeroconf.Server, error)

// Advertiser registers and withdraws the mDNS record.
type Advertiser struct {
	mu       sync.Mutex
	instance string
	port     int
	version  string
	server   *zeroconf.Server
	running  bool
	register registerFunc
}

// New creates an advertiser for the API listening on port. An empty instance
// is derived from the host name.
func New(instance string, port int, version string) *Advertiser {
	if instance == "" {
		host, _ := os.Hostname()
		instance = host + "-gestpipe"
	}
	return &Advertiser{
		instance: instance,
		port:     port,
		version:  version,
		register: zeroconf.Register,
	}
}

// PortFromAddr extracts the port from a listen address like "127.0.0.1:8080".
func PortFromAddr(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q: %w", p, err)
	}
	return port, nil
}

// Text returns the TXT records published with the service.
func (a *Advertiser) Text() []string {
	return []string{
		"version=" + a.version,
		"path=/api",
		"events=/api/events/ws",
	}
}

// Instance returns the advertised instance name.
func (a *Advertiser) Instance() string {
	return a.instance
}

// Running reports whether the record is registered.
func (a *Advertiser) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.running
}

// Start registers the service. Calling Start twice is a no-op.
func (a *Advertiser) Start() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.running {
		return nil
	}
	server, err := a.register(a.instance, ServiceType, ServiceDomain, a.port, a.Text(), nil)
	if err != nil {
		return fmt.Errorf("register mDNS service: %w", err)
	}
	a.server = server
	a.running = true
	log.Printf("Advertising %s.%s%s on port %d", a.instance, ServiceType, ServiceDomain, a.port)
	return nil
}

// Stop withdraws the service.
func (a *Advertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.running {
		return
	}
	if a.server != nil {
		a.server.Shutdown()
		a.server = nil
	}
	a.running = false
	log.Printf("Stopped mDNS advertisement")
}
