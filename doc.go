// Package overtone is a control-plane client for a remote scsynth-style
// synthesis engine, driven over OSC. The audio happens inside the engine;
// this package owns everything needed to drive it safely from concurrent Go
// code: identifier allocation and recycling for nodes, buffers, and buses,
// correlation of fire-and-forget commands with their eventual replies,
// session lifecycle across connect, quit, and reconnect, and encoding of the
// node, group, and buffer command vocabulary.
//
// A Client owns all of its state. Nothing is registered globally, so
// independent sessions (including sessions in tests) coexist:
//
//	conf := overtone.DefaultConfig()
//	c, err := overtone.NewClient(conf, overtone.NewSlogServiceLogger(slog.Default()), overtone.Dependencies{})
//	if err != nil { ... }
//	defer c.Close()
//	if err := c.Connect(); err != nil { ... }
//	id, err := c.NewSynth("sine", overtone.TargetSynthGroup(), overtone.PositionTail, overtone.P("freq", 440))
//
// # Transports
//
// Two transports are registered out of the box:
//   - udp: a running scsynth instance (import transport/udp)
//   - channel: an in-memory loopback with a scriptable fake engine,
//     for testing and local development (import transport/channel)
//
// Importing a transport package registers it:
//
//	import _ "github.com/nilswloka/overtone/transport/udp"
//
// # Inbound notifications
//
// Every inbound engine message is dispatched by topic: once on
// EventOSCReceived with the full message, and once on its own address.
// Client wires the global subscriptions that keep the allocator honest
// (/n_end releases node ids) and feed trigger handlers (/tr); applications
// can hook any address or lifecycle topic through Client.Events.
package overtone
