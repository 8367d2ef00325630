package client

// OSC command and notification addresses of the scsynth control protocol.
const (
	addrNewSynth        = "/s_new"
	addrNewGroup        = "/g_new"
	addrFreeNode        = "/n_free"
	addrRunNode         = "/n_run"
	addrBeforeNode      = "/n_before"
	addrAfterNode       = "/n_after"
	addrSetControl      = "/n_set"
	addrSetControlRange = "/n_setn"
	addrMapControl      = "/n_map"
	addrQueryTree       = "/g_queryTree"
	addrQueryTreeReply  = "/g_queryTree.reply"
	addrFreeAll         = "/g_freeAll"

	addrAllocBuffer    = "/b_alloc"
	addrFreeBuffer     = "/b_free"
	addrGetBufferRange = "/b_getn"
	addrSetBufferRange = "/b_setn"

	addrNotify      = "/notify"
	addrStatus      = "/status"
	addrStatusReply = "/status.reply"
	addrSync        = "/sync"
	addrSynced      = "/synced"
	addrQuit        = "/quit"
	addrRecvDef     = "/d_recv"
	addrDumpOSC     = "/dumpOSC"
	addrClearSched  = "/clearSched"

	addrNodeGo  = "/n_go"
	addrNodeEnd = "/n_end"
	addrTrigger = "/tr"
	addrDone    = "/done"
	addrFail    = "/fail"
)

// Lifecycle event topics published on the client's dispatcher. They share
// the topic namespace with OSC addresses but deliberately do not look like
// protocol paths.
const (
	// EventConnected fires synchronously once a connection is fully
	// established (synth group created, synthdefs replayed).
	EventConnected = "connection-established"

	// EventQuit fires synchronously while a session is shutting down, before
	// the transport closes.
	EventQuit = "shutdown"

	// EventOSCReceived fires asynchronously for every inbound engine
	// message, carrying the full message; path-specific subscribers
	// piggyback on the address-as-topic publication instead.
	EventOSCReceived = "osc-msg-received"
)
