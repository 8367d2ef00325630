// Package errors defines the error taxonomy of the overtone client.
//
// The four operational failure classes are sentinels so callers can branch
// with errors.Is: a timed-out reply is retryable, a not-connected failure
// means reconnect first, exhaustion and invalid arguments are fatal to the
// call. Context (category, capacity, state, topic) travels in the wrapped
// message, attached with fmt.Errorf and %w.
package errors

import (
	sterrors "errors"
	"fmt"
)

var (
	// ErrResourceExhausted reports that an identifier category is at capacity.
	ErrResourceExhausted = sterrors.New("overtone: resource exhausted")

	// ErrNotConnected reports an operation attempted outside the Connected state.
	ErrNotConnected = sterrors.New("overtone: not connected")

	// ErrTimedOut reports that a reply-correlated wait exceeded its budget.
	ErrTimedOut = sterrors.New("overtone: timed out")

	// ErrInvalidArgument reports malformed position, target, or control arguments.
	ErrInvalidArgument = sterrors.New("overtone: invalid argument")
)

// Construction requirements for NewClient.
var (
	ErrConfigRequired    = sterrors.New("overtone: config is required")
	ErrLoggerRequired    = sterrors.New("overtone: logger is required")
	ErrTransportRequired = sterrors.New("overtone: transport is required")
)

// ResourceExhausted builds an ErrResourceExhausted with the category name and
// its capacity, as surfaced to the user.
func ResourceExhausted(category string, capacity int) error {
	return fmt.Errorf("%w: category %q at capacity %d", ErrResourceExhausted, category, capacity)
}

// NotConnected builds an ErrNotConnected naming the state the session was in.
func NotConnected(state string) error {
	return fmt.Errorf("%w: session state is %q", ErrNotConnected, state)
}

// TimedOut builds an ErrTimedOut naming the reply topic and the budget in
// milliseconds, so timeouts are distinguishable from connection failures.
func TimedOut(topic string, budgetMs int64) error {
	return fmt.Errorf("%w: no reply on %q within %dms", ErrTimedOut, topic, budgetMs)
}

// InvalidArgument builds an ErrInvalidArgument with a caller-supplied detail.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}
