// ABOUTME: mDNS discovery of the radio relay on the local network
// ABOUTME: The relay advertises _squelch._udp; clients browse for it
package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/sirupsen/logrus"
)

const serviceType = "_squelch._udp"

// RelayInfo describes a discovered relay.
type RelayInfo struct {
	Name string
	Host string
	Port int
}

// Addr renders the relay as host:port.
func (r RelayInfo) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Manager handles mDNS advertisement and browsing.
type Manager struct {
	name   string
	port   int
	log    *logrus.Entry
	ctx    context.Context
	cancel context.CancelFunc
	relays chan RelayInfo
}

// NewManager creates a discovery manager for the given service name/port.
func NewManager(name string, port int) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		name:   name,
		port:   port,
		log:    logrus.WithField("component", "discovery"),
		ctx:    ctx,
		cancel: cancel,
		relays: make(chan RelayInfo, 10),
	}
}

// Advertise announces this relay on the local network until Stop.
func (m *Manager) Advertise() error {
	ips, err := localIPs()
	if err != nil {
		return fmt.Errorf("discovery: local addresses: %w", err)
	}

	service, err := mdns.NewMDNSService(m.name, serviceType, "", "", m.port, ips, nil)
	if err != nil {
		return fmt.Errorf("discovery: service record: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return fmt.Errorf("discovery: mdns server: %w", err)
	}

	m.log.WithFields(logrus.Fields{
		"name": m.name,
		"port": m.port,
	}).Info("advertising relay")

	go func() {
		<-m.ctx.Done()
		_ = server.Shutdown()
	}()

	return nil
}

// Browse starts looking for relays; results arrive on Relays().
func (m *Manager) Browse() {
	go m.browseLoop()
}

func (m *Manager) browseLoop() {
	for {
		select {
		case <-m.ctx.Done():
			return
		default:
		}

		entries := make(chan *mdns.ServiceEntry, 10)

		go func() {
			for entry := range entries {
				if entry.AddrV4 == nil {
					continue
				}
				relay := RelayInfo{
					Name: entry.Name,
					Host: entry.AddrV4.String(),
					Port: entry.Port,
				}
				m.log.WithField("relay", relay.Addr()).Info("discovered relay")

				select {
				case m.relays <- relay:
				case <-m.ctx.Done():
					return
				}
			}
		}()

		_ = mdns.Query(&mdns.QueryParam{
			Service: serviceType,
			Domain:  "local",
			Timeout: 3 * time.Second,
			Entries: entries,
		})
		close(entries)
	}
}

// Relays returns the channel of discovered relays.
func (m *Manager) Relays() <-chan RelayInfo {
	return m.relays
}

// Stop shuts down advertisement and browsing.
func (m *Manager) Stop() {
	m.cancel()
}

// localIPs returns the machine's non-loopback IPv4 addresses.
func localIPs() ([]net.IP, error) {
	var ips []net.IP

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
				ips = append(ips, ipnet.IP)
			}
		}
	}

	return ips, nil
}
