package client

import (
	"sort"

	"github.com/chabad360/go-osc/osc"

	errspkg "github.com/nilswloka/overtone/internal/errors"
	"github.com/nilswloka/overtone/internal/logging"
	"github.com/nilswloka/overtone/transport"
)

// SendSynthDef forwards a compiled synthdef blob to the engine and retains
// it. Retained definitions are replayed on every reconnect, so they survive
// engine restarts. While offline the definition is retained but not sent; it
// reaches the engine with the next connect.
func (c *Client) SendSynthDef(name string, blob []byte) error {
	if name == "" {
		return errspkg.InvalidArgument("synthdef name is required")
	}
	if len(blob) == 0 {
		return errspkg.InvalidArgument("synthdef %q has an empty definition", name)
	}

	c.defsMu.Lock()
	if _, exists := c.defs[name]; !exists {
		c.defOrder = append(c.defOrder, name)
	}
	c.defs[name] = blob
	c.defsMu.Unlock()

	tr, err := c.transportForCommand()
	if err != nil {
		c.log.Debug("synthdef retained while offline", logging.LogFields{"name": name})
		return nil
	}

	msg := osc.NewMessage(addrRecvDef, blob)
	c.metrics.messageSent(msg.Address)
	return tr.Send(msg)
}

// LoadedSynthDefs returns the names of the retained definitions, sorted.
func (c *Client) LoadedSynthDefs() []string {
	c.defsMu.Lock()
	defer c.defsMu.Unlock()

	names := make([]string, 0, len(c.defs))
	for name := range c.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// replaySynthDefs resends every retained definition, in the order they were
// first loaded. Called from the connected lifecycle handler.
func (c *Client) replaySynthDefs(tr transport.Transport) {
	c.defsMu.Lock()
	blobs := make([][]byte, 0, len(c.defOrder))
	for _, name := range c.defOrder {
		blobs = append(blobs, c.defs[name])
	}
	count := len(blobs)
	c.defsMu.Unlock()

	for _, blob := range blobs {
		msg := osc.NewMessage(addrRecvDef, blob)
		c.metrics.messageSent(msg.Address)
		if err := tr.Send(msg); err != nil {
			c.log.Error("synthdef replay failed", err, nil)
		}
	}
	if count > 0 {
		c.log.Info("replayed synthdefs", logging.LogFields{"count": count})
	}
}
