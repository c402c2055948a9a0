package uri

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Protocol default ports.
const (
	// DefaultPort is the standard port for plain TCP connections.
	DefaultPort = 5672

	// DefaultTLSPort is the standard port for TLS connections.
	DefaultTLSPort = 5671
)

const (
	defaultHost  = "localhost"
	defaultUser  = "guest"
	defaultPass  = "guest"
	defaultVHost = "/"
)

// Parsing errors.
var (
	// ErrScheme indicates a scheme other than amqp or amqps.
	ErrScheme = errors.New("uri: scheme must be amqp or amqps")

	// ErrParam indicates an unparseable query parameter value.
	ErrParam = errors.New("uri: bad query parameter")
)

// Endpoint describes one broker endpoint and the connection parameters
// carried by its URI.
type Endpoint struct {
	// TLS selects an amqps (TLS) connection.
	TLS bool

	// Host is the broker hostname or address.
	Host string

	// Port is the broker TCP port.
	Port int

	// Username and Password are the credentials handed to the protocol
	// engine for authentication. The transport never interprets them.
	Username string
	Password string

	// VHost is the virtual host to request, without the leading slash
	// separator ("/" is the protocol default).
	VHost string

	// Name is the connection name advertised to the broker during the
	// handshake. Empty means anonymous.
	Name string

	// Platform is the client platform string advertised to the broker.
	// Callers that want runtime information pass DefaultPlatform()
	// explicitly; Parse never fills it in.
	Platform string

	// Heartbeat is the requested heartbeat interval from the heartbeat
	// query parameter. Zero means no preference was expressed.
	Heartbeat time.Duration

	// ConnectTimeout is the dial timeout from the connection_timeout
	// query parameter. Zero means no limit was expressed.
	ConnectTimeout time.Duration
}

// Defaults returns the endpoint a bare "amqp://" parses to:
// guest/guest at localhost:5672, virtual host "/".
func Defaults() Endpoint {
	return Endpoint{
		Host:     defaultHost,
		Port:     DefaultPort,
		Username: defaultUser,
		Password: defaultPass,
		VHost:    defaultVHost,
	}
}

// Parse parses an AMQP connection URI into an Endpoint, applying the
// protocol defaults for any omitted component.
func Parse(raw string) (Endpoint, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("uri: %w", err)
	}

	ep := Defaults()

	switch u.Scheme {
	case "amqp":
	case "amqps":
		ep.TLS = true
		ep.Port = DefaultTLSPort
	default:
		return Endpoint{}, fmt.Errorf("%w: %q", ErrScheme, u.Scheme)
	}

	if h := u.Hostname(); h != "" {
		ep.Host = h
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Endpoint{}, fmt.Errorf("uri: bad port %q", p)
		}
		ep.Port = port
	}

	if u.User != nil {
		ep.Username = u.User.Username()
		ep.Password = ""
		if pass, ok := u.User.Password(); ok {
			ep.Password = pass
		}
	}

	// The path is the virtual host. url.Parse has already percent-decoded
	// it, so amqp://host/%2Fprod yields the vhost "/prod".
	if u.Path != "" {
		switch {
		case u.Host == "" && strings.HasPrefix(u.Path, "///"):
			// amqp:/// carries no authority; the vhost starts after the
			// third slash
			if len(u.Path) > 3 {
				ep.VHost = u.Path[3:]
			}
		case strings.HasPrefix(u.Path, "/"):
			if len(u.Path) > 1 {
				ep.VHost = u.Path[1:]
			}
		default:
			ep.VHost = u.Path
		}
	}

	q := u.Query()
	if v := q.Get("heartbeat"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			return Endpoint{}, fmt.Errorf("%w: heartbeat=%q", ErrParam, v)
		}
		ep.Heartbeat = time.Duration(secs) * time.Second
	}
	if v := q.Get("connection_timeout"); v != "" {
		millis, err := strconv.Atoi(v)
		if err != nil || millis < 0 {
			return Endpoint{}, fmt.Errorf("%w: connection_timeout=%q", ErrParam, v)
		}
		ep.ConnectTimeout = time.Duration(millis) * time.Millisecond
	}

	return ep, nil
}

// DefaultPlatform returns a platform string built from the Go runtime,
// e.g. "go1.24.0 linux/amd64".
func DefaultPlatform() string {
	return fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
}

// Scheme returns "amqps" for TLS endpoints and "amqp" otherwise.
func (e Endpoint) Scheme() string {
	if e.TLS {
		return "amqps"
	}
	return "amqp"
}

// Addr returns the host:port dial address.
func (e Endpoint) Addr() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String returns the URI form of the endpoint with the password redacted,
// safe for logs and error messages.
func (e Endpoint) String() string {
	var sb strings.Builder
	sb.WriteString(e.Scheme())
	sb.WriteString("://")
	if e.Username != "" {
		sb.WriteString(url.UserPassword(e.Username, "xxxxx").String())
		sb.WriteByte('@')
	}
	sb.WriteString(e.Addr())
	if e.VHost != defaultVHost {
		sb.WriteByte('/')
		sb.WriteString(url.PathEscape(e.VHost))
	}
	return sb.String()
}
