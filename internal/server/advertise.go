package server

import (
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type the preview server is announced as.
const ServiceType = "_airpaint._tcp"

// Advertiser announces the preview server on the local network.
type Advertiser struct {
	server *mdns.Server
}

// Advertise announces port over mDNS with the session id in the TXT record.
func Advertise(port int, session string) (*Advertiser, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	info := []string{"airpaint", "session=" + session}
	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, nil, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	srv, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	return &Advertiser{server: srv}, nil
}

// Close stops the announcement.
func (a *Advertiser) Close() error {
	return a.server.Shutdown()
}

// PortOf returns the numeric port of a listen address such as ":8080".
func PortOf(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	port, err := strconv.Atoi(p)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", p)
	}
	return port, nil
}
