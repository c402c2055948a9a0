package discovery

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures broker browsing.
type BrowserConfig struct {
	// Interface restricts browsing to a named network interface.
	// Empty browses all multicast-capable interfaces.
	Interface string

	// IncludeTLS also browses the TLS service type.
	IncludeTLS bool
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		IncludeTLS: true,
	}
}

// Browser discovers brokers via mDNS.
type Browser struct {
	config BrowserConfig

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

// NewBrowser creates a broker browser.
func NewBrowser(config BrowserConfig) *Browser {
	return &Browser{config: config}
}

// Browse searches for brokers until ctx ends. Services are aggregated
// by instance name: addresses seen on multiple interfaces are combined
// into a single entry, emitted once.
func (b *Browser) Browse(ctx context.Context) (<-chan *BrokerService, error) {
	ctx, cancel := context.WithCancel(ctx)
	b.mu.Lock()
	b.cancel = cancel
	b.mu.Unlock()

	out := make(chan *BrokerService)

	entries := make(chan *zeroconf.ServiceEntry)
	removed := make(chan *zeroconf.ServiceEntry)

	opts := b.browserOptions()

	// Process entries with aggregation.
	go func() {
		defer close(out)

		services := make(map[string]*BrokerService)

		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				svc := entryToBroker(entry)
				if svc == nil {
					continue
				}

				existing, found := services[svc.InstanceName]
				if found {
					existing.Addresses = mergeAddresses(existing.Addresses, svc.Addresses)
				} else {
					services[svc.InstanceName] = svc
					select {
					case out <- svc:
					case <-ctx.Done():
						return
					}
				}

			case entry, ok := <-removed:
				if !ok {
					continue
				}
				if existing, found := services[entry.Instance]; found {
					existing.Addresses = removeAddresses(existing.Addresses, entry)
					if len(existing.Addresses) == 0 {
						delete(services, entry.Instance)
					}
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	// Start browsing in background.
	go func() {
		_ = zeroconf.Browse(ctx, ServiceTypeBroker, Domain, entries, removed, opts...)
	}()
	if b.config.IncludeTLS {
		// The TLS service type browses on its own channels and feeds
		// the same aggregation loop. zeroconf closes its channels when
		// the browse ends, so they cannot be shared between browses.
		tlsEntries := make(chan *zeroconf.ServiceEntry)
		tlsRemoved := make(chan *zeroconf.ServiceEntry)
		go forward(ctx, tlsEntries, entries)
		go forward(ctx, tlsRemoved, removed)
		go func() {
			_ = zeroconf.Browse(ctx, ServiceTypeBrokerTLS, Domain, tlsEntries, tlsRemoved, opts...)
		}()
	}

	return out, nil
}

// FindFirst returns the first broker found within the timeout.
func (b *Browser) FindFirst(ctx context.Context, timeout time.Duration) (*BrokerService, error) {
	if timeout == 0 {
		timeout = BrowseTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ch, err := b.Browse(ctx)
	if err != nil {
		return nil, err
	}

	select {
	case svc, ok := <-ch:
		if !ok || svc == nil {
			return nil, ErrNoBrokerFound
		}
		return svc, nil
	case <-ctx.Done():
		return nil, ErrNoBrokerFound
	}
}

// Stop cancels any active browse.
func (b *Browser) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stopped = true
	if b.cancel != nil {
		b.cancel()
	}
}

// browserOptions returns zeroconf client options based on config.
func (b *Browser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// forward relays entries from src to dst until either side ends.
func forward(ctx context.Context, src <-chan *zeroconf.ServiceEntry, dst chan<- *zeroconf.ServiceEntry) {
	for {
		select {
		case entry, ok := <-src:
			if !ok {
				return
			}
			select {
			case dst <- entry:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

// entryToBroker converts a zeroconf entry to a BrokerService.
func entryToBroker(entry *zeroconf.ServiceEntry) *BrokerService {
	if entry == nil || entry.Instance == "" {
		return nil
	}

	addrs := make([]string, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	for _, ip := range entry.AddrIPv4 {
		addrs = append(addrs, ip.String())
	}
	for _, ip := range entry.AddrIPv6 {
		addrs = append(addrs, ip.String())
	}

	return &BrokerService{
		InstanceName: entry.Instance,
		Host:         entry.HostName,
		Port:         uint16(entry.Port),
		Addresses:    addrs,
		TLS:          entry.Service == ServiceTypeBrokerTLS,
		TXT:          entry.Text,
	}
}

// mergeAddresses appends addresses not already present.
func mergeAddresses(existing, found []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range found {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops the addresses carried by a goodbye entry.
func removeAddresses(addresses []string, entry *zeroconf.ServiceEntry) []string {
	toRemove := make(map[string]bool)
	for _, ip := range entry.AddrIPv4 {
		toRemove[ip.String()] = true
	}
	for _, ip := range entry.AddrIPv6 {
		toRemove[ip.String()] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
