package client

import (
	"github.com/nilswloka/overtone/internal/dispatch"
	"github.com/nilswloka/overtone/internal/logging"
)

// TriggerHandler is invoked when a running node emits a trigger.
type TriggerHandler func(nodeID, triggerID int32, value float32)

type triggerKey struct {
	node    int32
	trigger int32
}

// HandleTrigger registers a handler for (node, trigger) notifications.
// Re-registering the same pair overwrites. Registrations are client-managed
// only: a stale registration for a freed node is inert but not cleaned up
// automatically.
func (c *Client) HandleTrigger(nodeID, triggerID int32, fn TriggerHandler) {
	c.trigMu.Lock()
	defer c.trigMu.Unlock()
	if fn == nil {
		delete(c.triggers, triggerKey{nodeID, triggerID})
		return
	}
	c.triggers[triggerKey{nodeID, triggerID}] = fn
}

// RemoveTriggerHandler drops the handler for (node, trigger), if any.
func (c *Client) RemoveTriggerHandler(nodeID, triggerID int32) {
	c.trigMu.Lock()
	defer c.trigMu.Unlock()
	delete(c.triggers, triggerKey{nodeID, triggerID})
}

// dispatchTrigger feeds the global /tr subscription: args are node id,
// trigger id, value.
func (c *Client) dispatchTrigger(e dispatch.Event) {
	args := e.Args()
	if len(args) < 3 {
		c.log.Debug("malformed trigger notification", logging.LogFields{"args": args})
		return
	}
	nodeID, ok1 := args[0].(int32)
	triggerID, ok2 := args[1].(int32)
	value, ok3 := args[2].(float32)
	if !ok1 || !ok2 || !ok3 {
		c.log.Debug("malformed trigger notification", logging.LogFields{"args": args})
		return
	}

	c.trigMu.Lock()
	fn := c.triggers[triggerKey{nodeID, triggerID}]
	c.trigMu.Unlock()

	if fn != nil {
		fn(nodeID, triggerID, value)
	}
}
