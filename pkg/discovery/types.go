package discovery

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceTypeBroker is the registered DNS-SD service type for
	// AMQP brokers over TCP.
	ServiceTypeBroker = "_amqp._tcp"

	// ServiceTypeBrokerTLS is the service type for TLS endpoints.
	ServiceTypeBrokerTLS = "_amqps._tcp"

	// Domain is the mDNS domain.
	Domain = "local"
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for mDNS browsing.
	BrowseTimeout = 10 * time.Second
)

// Discovery errors.
var (
	// ErrNoBrokerFound indicates browsing ended without a result.
	ErrNoBrokerFound = errors.New("discovery: no broker found")
)

// BrokerService describes one discovered broker.
type BrokerService struct {
	// InstanceName is the DNS-SD instance name.
	InstanceName string

	// Host is the advertised hostname.
	Host string

	// Port is the advertised AMQP port.
	Port uint16

	// Addresses holds the broker's IP addresses, aggregated across
	// interfaces.
	Addresses []string

	// TLS is true for services advertised under the TLS service type.
	TLS bool

	// TXT holds the raw TXT records, for broker-specific metadata.
	TXT []string
}

// Endpoint returns a host:port dial address, preferring the first
// resolved IP address over the advertised hostname.
func (s *BrokerService) Endpoint() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

// URI returns an amqp:// or amqps:// connection URI for the broker
// with the protocol's default credentials.
func (s *BrokerService) URI() string {
	scheme := "amqp"
	if s.TLS {
		scheme = "amqps"
	}
	return fmt.Sprintf("%s://%s", scheme, s.Endpoint())
}
