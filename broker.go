package sarama

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rcrowley/go-metrics"
)

// Broker represents both a Kafka broker's cluster metadata (id, address,
// rack) and, once Open is called, the single TCP connection this client
// keeps to it. Per spec.md §4.2/§9's "one request in flight per connection"
// invariant, every Send/sendReceive round trip runs with the broker's lock
// held for the full request/response exchange rather than pipelining — there is
// never more than one outstanding request on the wire at a time.
type Broker struct {
	id   int32
	addr string
	rack *string

	conf          *Config
	correlationID int32

	lock    sync.Mutex
	opened  int32
	conn    net.Conn
	connErr error

	registry metrics.Registry
}

// NewBroker creates and returns a Broker targeting the given host:port
// address, unconnected until Open is called.
func NewBroker(addr string) *Broker {
	return &Broker{id: -1, addr: addr}
}

// Open connects the broker to its host:port using the given client
// configuration (nil selects NewConfig()'s defaults). Calling it again
// while already open or opening returns ErrAlreadyConnected.
func (b *Broker) Open(conf *Config) error {
	if !atomic.CompareAndSwapInt32(&b.opened, 0, 1) {
		return ErrAlreadyConnected
	}

	if conf == nil {
		conf = NewConfig()
	}
	if err := conf.Validate(); err != nil {
		return err
	}
	b.conf = conf
	b.registry = conf.MetricRegistry

	dialer := net.Dialer{Timeout: conf.Net.DialTimeout}

	go withRecover(func() {
		b.lock.Lock()
		defer b.lock.Unlock()

		var conn net.Conn
		var err error
		switch {
		case conf.Net.Proxy.Enable:
			conn, err = conf.Net.Proxy.Dialer.Dial("tcp", b.addr)
			if err == nil && conf.Net.TLS.Enable {
				conn, err = tlsClient(conn, b.addr, conf.Net.TLS.Config)
			}
		case conf.Net.TLS.Enable:
			conn, err = tlsDial(dialer, b.addr, conf.Net.TLS.Config)
		default:
			conn, err = dialer.Dial("tcp", b.addr)
		}
		if err != nil {
			b.connErr = err
			atomic.StoreInt32(&b.opened, 0)
			return
		}
		b.conn = conn

		if conf.Net.SASL.Enable {
			if err := b.authenticateViaSASL(); err != nil {
				_ = b.conn.Close()
				b.conn = nil
				b.connErr = err
				atomic.StoreInt32(&b.opened, 0)
				return
			}
		}
	})

	return nil
}

// Connected reports whether Open has completed and produced a live
// connection.
func (b *Broker) Connected() (bool, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.conn != nil, b.connErr
}

// Close tears down the broker's connection. Closing a broker with no live
// connection (never opened, already closed, or whose dial failed) returns
// ErrNotConnected.
func (b *Broker) Close() error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.conn == nil {
		return ErrNotConnected
	}

	err := b.conn.Close()
	b.conn = nil
	b.connErr = nil
	atomic.StoreInt32(&b.opened, 0)
	return err
}

// ID returns the broker's node id, or -1 if unknown (a seed broker created
// directly from a bootstrap address before metadata has been fetched).
func (b *Broker) ID() int32 {
	return b.id
}

// Addr returns the broker's host:port.
func (b *Broker) Addr() string {
	return b.addr
}

// Rack returns the broker's configured rack, if the cluster reported one.
func (b *Broker) Rack() string {
	if b.rack == nil {
		return ""
	}
	return *b.rack
}

func (b *Broker) decode(pd packetDecoder, version int16) (err error) {
	if b.id, err = pd.getInt32(); err != nil {
		return err
	}

	host, err := pd.getString()
	if err != nil {
		return err
	}

	port, err := pd.getInt32()
	if err != nil {
		return err
	}

	if version >= 1 {
		b.rack, err = pd.getNullableString()
		if err != nil {
			return err
		}
	}

	b.addr = net.JoinHostPort(host, fmt.Sprint(port))
	return nil
}

func (b *Broker) encode(pe packetEncoder, version int16) (err error) {
	host, portstr, err := net.SplitHostPort(b.addr)
	if err != nil {
		return err
	}
	port, err := parsePort(portstr)
	if err != nil {
		return err
	}

	pe.putInt32(b.id)
	if err = pe.putString(host); err != nil {
		return err
	}
	pe.putInt32(port)

	if version >= 1 {
		if err = pe.putNullableString(b.rack); err != nil {
			return err
		}
	}

	return nil
}

// Send issues req and blocks until a matching response has been framed and
// decoded into resp, or an error occurs. It owns the broker's lock for the
// whole round trip, enforcing the one-request-in-flight invariant.
func (b *Broker) Send(clientID string, req protocolBody, resp versionedDecoder) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.conn == nil {
		if b.connErr != nil {
			return b.connErr
		}
		return ErrNotConnected
	}

	return b.sendReceive(clientID, req, resp)
}

// Fetch issues a FetchRequest and returns the decoded FetchResponse, the
// typed convenience wrapper the consumer's per-broker fetch loop uses
// instead of building its own response value around Send.
func (b *Broker) Fetch(request *FetchRequest) (*FetchResponse, error) {
	clientID := "sarama"
	if b.conf != nil {
		clientID = b.conf.ClientID
	}

	response := new(FetchResponse)
	if err := b.Send(clientID, request, response); err != nil {
		return nil, err
	}
	return response, nil
}

// sendReceive performs one request/response round trip assuming the
// caller already holds b.lock and has confirmed b.conn is live. It is
// shared by Send and the SASL handshake, which runs inside Open's
// connection goroutine before any other caller can observe the broker
// as usable.
func (b *Broker) sendReceive(clientID string, req protocolBody, resp versionedDecoder) error {
	correlationID := atomic.AddInt32(&b.correlationID, 1)

	wrapper := &request{correlationID: correlationID, clientID: clientID, body: req}
	buf, err := encode(wrapper, b.registry)
	if err != nil {
		return err
	}

	if b.conf.Net.WriteTimeout > 0 {
		_ = b.conn.SetWriteDeadline(time.Now().Add(b.conf.Net.WriteTimeout))
	}
	if _, err = b.conn.Write(buf); err != nil {
		return err
	}

	if resp == nil {
		return nil
	}

	if b.conf.Net.ReadTimeout > 0 {
		_ = b.conn.SetReadDeadline(time.Now().Add(b.conf.Net.ReadTimeout))
	}

	header := make([]byte, 8)
	if _, err = readFull(b.conn, header); err != nil {
		return err
	}

	var hdr responseHeader
	if err = decode(header, &hdr, b.registry); err != nil {
		return err
	}
	if hdr.correlationID != correlationID {
		return PacketDecodingError{fmt.Sprintf("correlation ID didn't match, got %d, expected %d", hdr.correlationID, correlationID)}
	}

	body := make([]byte, hdr.length-4)
	if _, err = readFull(b.conn, body); err != nil {
		return err
	}

	return versionedDecode(body, resp, req.version(), b.registry)
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	read := 0
	for read < len(buf) {
		n, err := conn.Read(buf[read:])
		read += n
		if err != nil {
			return read, err
		}
	}
	return read, nil
}

func parsePort(s string) (int32, error) {
	var port int32
	if _, err := fmt.Sscanf(s, "%d", &port); err != nil {
		return 0, err
	}
	return port, nil
}
