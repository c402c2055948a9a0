// Package brokertest provides a scripted in-process broker for
// exercising the client transport. The broker listens on a loopback
// port, asserts the 8-octet protocol preamble, then plays a script of
// steps: frames, raw byte chunks (to force arbitrary fragmentation),
// pauses and shutdowns. Everything the client writes after the preamble
// is recorded for assertions.
package brokertest

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"fmt"
	"io"
	"math/big"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/warren-mq/warren-go/pkg/wire"
)

// A Step is one scripted broker action, executed in order once the
// preamble has been verified.
type Step func(b *Broker, conn net.Conn) error

// SendFrame emits one complete frame in a single write.
func SendFrame(t wire.FrameType, channel uint16, payload []byte) Step {
	return SendRaw(wire.AppendFrame(nil, t, channel, payload))
}

// SendRaw emits arbitrary bytes in a single write. Splitting one frame
// across several SendRaw steps (with pauses between) reproduces any
// fragmentation pattern a stream socket can deliver.
func SendRaw(data []byte) Step {
	return func(_ *Broker, conn net.Conn) error {
		_, err := conn.Write(data)
		return err
	}
}

// Pause waits, letting previously written bytes arrive as their own
// read on the client side.
func Pause(d time.Duration) Step {
	return func(_ *Broker, _ net.Conn) error {
		time.Sleep(d)
		return nil
	}
}

// AwaitWrite blocks until the client has written at least n bytes past
// the preamble.
func AwaitWrite(n int) Step {
	return func(b *Broker, _ net.Conn) error {
		deadline := time.Now().Add(5 * time.Second)
		for time.Now().Before(deadline) {
			if len(b.Received()) >= n {
				return nil
			}
			time.Sleep(5 * time.Millisecond)
		}
		return fmt.Errorf("brokertest: timed out waiting for %d bytes from client", n)
	}
}

// CloseWrite half-closes the broker's write side.
func CloseWrite() Step {
	return func(_ *Broker, conn net.Conn) error {
		if cw, ok := conn.(interface{ CloseWrite() error }); ok {
			return cw.CloseWrite()
		}
		return nil
	}
}

// Hangup drops the connection without ceremony.
func Hangup() Step {
	return func(_ *Broker, conn net.Conn) error {
		return conn.Close()
	}
}

// Broker is the scripted broker. One Broker accepts one connection.
type Broker struct {
	tb testing.TB
	ln net.Listener

	script []Step

	mu       sync.Mutex
	received bytes.Buffer
	preamble []byte

	accepted chan struct{}
	done     chan struct{}
}

// New starts a broker on a loopback port and runs the script against
// the first accepted connection. The listener is torn down when the
// test ends.
func New(tb testing.TB, script ...Step) *Broker {
	tb.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("brokertest: listen: %v", err)
	}
	return serve(tb, ln, script)
}

// NewTLS starts a broker behind TLS with a self-signed certificate for
// 127.0.0.1. Clients must verify against CertPool (or skip
// verification).
func NewTLS(tb testing.TB, script ...Step) (*Broker, *x509.CertPool) {
	tb.Helper()

	cert, pool := selfSignedCert(tb)
	ln, err := tls.Listen("tcp", "127.0.0.1:0", &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		tb.Fatalf("brokertest: tls listen: %v", err)
	}
	return serve(tb, ln, script), pool
}

func serve(tb testing.TB, ln net.Listener, script []Step) *Broker {
	b := &Broker{
		tb:       tb,
		ln:       ln,
		script:   script,
		accepted: make(chan struct{}),
		done:     make(chan struct{}),
	}
	tb.Cleanup(b.Close)

	go b.run()
	return b
}

// Addr returns the broker's host:port.
func (b *Broker) Addr() string {
	return b.ln.Addr().String()
}

// Port returns the broker's TCP port.
func (b *Broker) Port() int {
	return b.ln.Addr().(*net.TCPAddr).Port
}

// URI returns an amqp:// connection URI for the broker.
func (b *Broker) URI() string {
	return fmt.Sprintf("amqp://guest:guest@%s", b.Addr())
}

// Received returns a copy of everything the client wrote after the
// preamble.
func (b *Broker) Received() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.received.Bytes()...)
}

// ReceivedFrames parses the recorded client bytes as a frame sequence.
// Incomplete trailing bytes fail the test.
func (b *Broker) ReceivedFrames() []wire.Frame {
	b.tb.Helper()

	data := b.Received()
	var frames []wire.Frame
	for len(data) > 0 {
		if len(data) < wire.FrameHeaderSize {
			b.tb.Fatalf("brokertest: %d trailing bytes are not a frame", len(data))
		}
		total := int(wire.PayloadSize(data)) + wire.FrameOverhead
		if len(data) < total {
			b.tb.Fatalf("brokertest: truncated frame: have %d of %d bytes", len(data), total)
		}
		f := wire.Frame(data[:total])
		if err := f.Validate(); err != nil {
			b.tb.Fatalf("brokertest: client sent invalid frame: %v", err)
		}
		frames = append(frames, f)
		data = data[total:]
	}
	return frames
}

// WaitAccepted blocks until the client connection arrived.
func (b *Broker) WaitAccepted(timeout time.Duration) error {
	select {
	case <-b.accepted:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("brokertest: no connection within %v", timeout)
	}
}

// WaitDone blocks until the script has finished and the client hung up.
func (b *Broker) WaitDone(timeout time.Duration) error {
	select {
	case <-b.done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("brokertest: session not finished within %v", timeout)
	}
}

// Close shuts the listener down. Registered as a test cleanup.
func (b *Broker) Close() {
	b.ln.Close()
}

// run accepts one connection, verifies the preamble, runs the script
// and then drains the client until it hangs up.
func (b *Broker) run() {
	defer close(b.done)

	conn, err := b.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close()
	close(b.accepted)

	// Reader goroutine: the preamble first, then record everything.
	preambleOK := make(chan error, 1)
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)

		preamble := make([]byte, len(wire.ProtocolHeader))
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if _, err := io.ReadFull(conn, preamble); err != nil {
			preambleOK <- fmt.Errorf("reading preamble: %w", err)
			return
		}
		conn.SetReadDeadline(time.Time{})
		if !bytes.Equal(preamble, wire.ProtocolHeader) {
			preambleOK <- fmt.Errorf("bad preamble % X", preamble)
			return
		}
		preambleOK <- nil

		buf := make([]byte, 64*1024)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				b.mu.Lock()
				b.received.Write(buf[:n])
				b.mu.Unlock()
			}
			if err != nil {
				return
			}
		}
	}()

	if err := <-preambleOK; err != nil {
		b.tb.Errorf("brokertest: %v", err)
		return
	}

	for _, step := range b.script {
		if err := step(b, conn); err != nil {
			b.tb.Errorf("brokertest: script step failed: %v", err)
			return
		}
	}

	<-readerDone
}

// selfSignedCert mints a throwaway server certificate for 127.0.0.1.
func selfSignedCert(tb testing.TB) (tls.Certificate, *x509.CertPool) {
	tb.Helper()

	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		tb.Fatalf("brokertest: generate key: %v", err)
	}

	template := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject: pkix.Name{
			CommonName: "brokertest",
		},
		NotBefore:             time.Now(),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		DNSNames:              []string{"localhost"},
		IsCA:                  true,
		BasicConstraintsValid: true,
	}

	der, err := x509.CreateCertificate(rand.Reader, template, template, &key.PublicKey, key)
	if err != nil {
		tb.Fatalf("brokertest: create certificate: %v", err)
	}

	leaf, err := x509.ParseCertificate(der)
	if err != nil {
		tb.Fatalf("brokertest: parse certificate: %v", err)
	}

	pool := x509.NewCertPool()
	pool.AddCert(leaf)

	return tls.Certificate{
		Certificate: [][]byte{der},
		PrivateKey:  key,
		Leaf:        leaf,
	}, pool
}
