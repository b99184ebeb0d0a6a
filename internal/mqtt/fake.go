package mqtt

import (
	"github.com/sweeney/irrigator/internal/logic"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// Statuses contains every status that was sent (changes only).
	Statuses []logic.Status

	// Payloads contains the JSON status payloads that were sent.
	Payloads [][]byte

	// Suppressed counts statuses dropped because nothing changed.
	Suppressed int

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	// Pending controls the return value of Buffered.
	Pending int

	filter changeFilter
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Publish records the status if it differs from the last one sent.
func (f *FakePublisher) Publish(st logic.Status) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	if !f.filter.changed(st) {
		f.Suppressed++
		return nil
	}

	f.Statuses = append(f.Statuses, st)

	payload, err := FormatPayload(st)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Buffered reports the scripted number of queued messages.
func (f *FakePublisher) Buffered() int {
	return f.Pending
}
