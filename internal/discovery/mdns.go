package discovery

import (
	"fmt"
	"os"

	"github.com/hashicorp/mdns"
)

const serviceType = "_sketchsync._tcp"

// Advertises the server on the local network so LAN clients can find it
// without configuration. Returns the mDNS server for shutdown.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(
		host,
		serviceType,
		"",
		"",
		port,
		nil,
		[]string{"sketchsync"},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	return server, nil
}

// Finds advertised servers on the local network
func Browse(found func(addr string)) error {
	entries := make(chan *mdns.ServiceEntry, 8)
	go func() {
		for e := range entries {
			if e.AddrV4 == nil || e.Port == 0 {
				continue
			}
			found(fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port))
		}
	}()
	return mdns.Lookup(serviceType, entries)
}
