// Package udp provides the transport for a running scsynth instance,
// speaking OSC over a single connected UDP socket. The engine addresses its
// replies to the socket's source port, so one socket carries both
// directions.
package udp

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strconv"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/chabad360/go-osc/osc"

	"github.com/nilswloka/overtone/transport"
)

// TransportName is the name used to register this transport.
const TransportName = "udp"

// scsynth rejects datagrams above its internal packet limit.
const maxPacketSize = 65507

var bundlePrefix = []byte("#bundle")

func init() {
	transport.Register(TransportName, Build)
}

// Build dials the engine's OSC endpoint and starts the receive loop.
func Build(ctx context.Context, cfg transport.Config, sink transport.Sink, logger watermill.LoggerAdapter) (transport.Transport, error) {
	addr := net.JoinHostPort(cfg.GetHost(), strconv.Itoa(cfg.GetPort()))
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, err
	}

	t := &Transport{
		conn:   conn,
		sink:   sink,
		log:    logger,
		closed: make(chan struct{}),
	}
	go t.readLoop()
	return t, nil
}

// Transport is a connected UDP socket to one engine instance.
type Transport struct {
	conn   *net.UDPConn
	sink   transport.Sink
	log    watermill.LoggerAdapter
	closed chan struct{}
}

// Send transmits one message as a single datagram.
func (t *Transport) Send(msg *osc.Message) error {
	data, err := msg.MarshalBinary()
	if err != nil {
		return err
	}
	if len(data) > maxPacketSize {
		return errors.New("udp: message exceeds maximum packet size")
	}
	_, err = t.conn.Write(data)
	return err
}

// SendBundle wraps the messages in one immediate-time bundle so the engine
// applies them together.
func (t *Transport) SendBundle(msgs ...*osc.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	b := osc.NewBundle(time.Now())
	for _, m := range msgs {
		if err := b.Append(m); err != nil {
			return err
		}
	}
	data, err := b.MarshalBinary()
	if err != nil {
		return err
	}
	if len(data) > maxPacketSize {
		return errors.New("udp: bundle exceeds maximum packet size")
	}
	_, err = t.conn.Write(data)
	return err
}

// Close stops the receive loop and closes the socket.
func (t *Transport) Close() error {
	close(t.closed)
	return t.conn.Close()
}

func (t *Transport) readLoop() {
	buf := make([]byte, maxPacketSize)
	for {
		n, err := t.conn.Read(buf)
		if err != nil {
			select {
			case <-t.closed:
				return
			default:
			}
			t.log.Error("udp receive failed", err, nil)
			return
		}

		data := make([]byte, n)
		copy(data, buf[:n])
		t.deliver(data)
	}
}

func (t *Transport) deliver(data []byte) {
	if bytes.HasPrefix(data, bundlePrefix) {
		bundle, err := osc.NewBundleFromData(data)
		if err != nil {
			t.log.Error("decode inbound bundle failed", err, nil)
			return
		}
		t.deliverBundle(bundle)
		return
	}

	msg, err := osc.NewMessageFromData(data)
	if err != nil {
		t.log.Error("decode inbound message failed", err, nil)
		return
	}
	t.sink(msg)
}

func (t *Transport) deliverBundle(b *osc.Bundle) {
	for _, el := range b.Elements {
		switch p := el.(type) {
		case *osc.Message:
			t.sink(p)
		case *osc.Bundle:
			t.deliverBundle(p)
		}
	}
}
