package client

import (
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// DNSClient sends single-attempt A record queries to one server over UDP.
//
// Every query opens its own socket for the open/send/receive/close cycle,
// so a single client may be shared by concurrent callers.
type DNSClient struct {
	serverAddr string
	timeout    time.Duration

	// Transaction IDs come from a client-scoped source rather than the
	// process-wide generator.
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDNSClient creates a client for the given server address. An address
// without a port gets the default DNS port 53.
func NewDNSClient(serverAddr string, timeout time.Duration) *DNSClient {
	host, port, err := net.SplitHostPort(serverAddr)
	if err != nil {
		host = serverAddr
		port = "53"
	}
	addr := net.JoinHostPort(host, port)

	log.WithField("server", addr).Debug("creating DNS client")
	return &DNSClient{
		serverAddr: addr,
		timeout:    timeout,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DNSClient) transactionID() uint16 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint16(c.rng.Intn(1 << 16))
}

// Exchange sends one query datagram and waits for one reply datagram of at
// most 512 bytes. The socket is closed on every exit path. A missed
// deadline surfaces as a [net.Error] with Timeout() true.
func (c *DNSClient) Exchange(query []byte) ([]byte, error) {
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.Dial("udp", c.serverAddr)
	if err != nil {
		return nil, fmt.Errorf("connecting to DNS server: %w", err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.timeout))

	if _, err := conn.Write(query); err != nil {
		return nil, fmt.Errorf("sending query: %w", err)
	}

	response := make([]byte, maxUDPSize)
	n, err := conn.Read(response)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	return response[:n], nil
}

// LookupA resolves domain to an IPv4 address, preserving the failure cause
// for callers that want diagnostics.
func (c *DNSClient) LookupA(domain string) (string, error) {
	query := &Query{
		ID:    c.transactionID(),
		Flags: FlagRecursionDesired,
		Name:  domain,
	}
	packed, err := query.Encode()
	if err != nil {
		return "", fmt.Errorf("encoding query: %w", err)
	}

	logger := log.WithFields(log.Fields{
		"server": c.serverAddr,
		"domain": domain,
		"msgId":  query.ID,
	})
	logger.Debug("sending DNS query")

	start := time.Now()
	response, err := c.Exchange(packed)
	if err != nil {
		return "", err
	}

	addr, err := DecodeResponse(response)
	if err != nil {
		return "", err
	}

	logger.WithFields(log.Fields{
		"address": addr,
		"elapsed": time.Since(start).String(),
	}).Debug("received DNS answer")

	return addr, nil
}

// ResolveA is the single-attempt resolution entry point. Transport errors,
// timeouts, and malformed responses all collapse into an empty result; the
// underlying cause is available in the debug log only.
func (c *DNSClient) ResolveA(domain string) string {
	addr, err := c.LookupA(domain)
	if err != nil {
		var netErr net.Error
		log.WithFields(log.Fields{
			"server":  c.serverAddr,
			"domain":  domain,
			"timeout": errors.As(err, &netErr) && netErr.Timeout(),
		}).WithError(err).Debug("DNS resolution failed")
		return ""
	}
	return addr
}
