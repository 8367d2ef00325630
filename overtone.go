package overtone

import (
	allocpkg "github.com/nilswloka/overtone/internal/alloc"
	clientpkg "github.com/nilswloka/overtone/internal/client"
	configpkg "github.com/nilswloka/overtone/internal/config"
	dispatchpkg "github.com/nilswloka/overtone/internal/dispatch"
	errspkg "github.com/nilswloka/overtone/internal/errors"
	loggingpkg "github.com/nilswloka/overtone/internal/logging"
	replypkg "github.com/nilswloka/overtone/internal/reply"
)

type (
	Config       = configpkg.Config
	Client       = clientpkg.Client
	Dependencies = clientpkg.Dependencies
	Negotiator   = clientpkg.Negotiator
	State        = clientpkg.State

	Position   = clientpkg.Position
	Param      = clientpkg.Param
	BusMapping = clientpkg.BusMapping
	Target     = clientpkg.Target

	NodeTree = clientpkg.NodeTree
	NodeKind = clientpkg.NodeKind
	Control  = clientpkg.Control

	Buffer         = clientpkg.Buffer
	EngineStatus   = clientpkg.EngineStatus
	TriggerHandler = clientpkg.TriggerHandler

	IDCategory = allocpkg.Category

	Dispatcher = dispatchpkg.Dispatcher
	Event      = dispatchpkg.Event
	Handler    = dispatchpkg.Handler
	Action     = dispatchpkg.Action
	Correlator = replypkg.Correlator
	Pending    = replypkg.Pending

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger
)

var (
	NewClient = clientpkg.NewClient

	DefaultConfig = configpkg.Default
	ConfigFromEnv = configpkg.FromEnv

	NewSlogServiceLogger      = loggingpkg.NewSlogServiceLogger
	NewWatermillServiceLogger = loggingpkg.NewWatermillServiceLogger
	NopLogger                 = loggingpkg.Nop

	TargetNode       = clientpkg.TargetNode
	TargetBuffer     = clientpkg.TargetBuffer
	TargetRef        = clientpkg.TargetRef
	TargetRoot       = clientpkg.TargetRoot
	TargetSynthGroup = clientpkg.TargetSynthGroup
	P                = clientpkg.P

	ErrResourceExhausted = errspkg.ErrResourceExhausted
	ErrNotConnected      = errspkg.ErrNotConnected
	ErrTimedOut          = errspkg.ErrTimedOut
	ErrInvalidArgument   = errspkg.ErrInvalidArgument
	ErrConfigRequired    = errspkg.ErrConfigRequired
	ErrLoggerRequired    = errspkg.ErrLoggerRequired
)

// Session states.
const (
	StateNoAudio    = clientpkg.StateNoAudio
	StateConnecting = clientpkg.StateConnecting
	StateConnected  = clientpkg.StateConnected
)

// Node placement positions, encoded as the engine's add-action codes.
const (
	PositionHead    = clientpkg.PositionHead
	PositionTail    = clientpkg.PositionTail
	PositionBefore  = clientpkg.PositionBefore
	PositionAfter   = clientpkg.PositionAfter
	PositionReplace = clientpkg.PositionReplace
)

// Identifier categories.
const (
	CategoryNode        = allocpkg.CategoryNode
	CategoryAudioBuffer = allocpkg.CategoryAudioBuffer
	CategoryAudioBus    = allocpkg.CategoryAudioBus
	CategoryControlBus  = allocpkg.CategoryControlBus
)

// Lifecycle event topics on Client.Events.
const (
	EventConnected   = clientpkg.EventConnected
	EventQuit        = clientpkg.EventQuit
	EventOSCReceived = clientpkg.EventOSCReceived
)

// RootGroupID is the engine's root group id, pre-allocated and never freed.
const RootGroupID = clientpkg.RootGroupID

// Named targets.
const (
	RefRoot       = clientpkg.RefRoot
	RefSynthGroup = clientpkg.RefSynthGroup
)

// Node kinds reported by subtree queries.
const (
	NodeKindGroup = clientpkg.NodeKindGroup
	NodeKindSynth = clientpkg.NodeKindSynth
)
