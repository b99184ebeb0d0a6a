package controller

import (
	"errors"
	"fmt"

	"github.com/sweeney/irrigator/internal/logic"
)

// SinkError reports a failure of one named sink.
type SinkError struct {
	Sink string
	Err  error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink %s: %v", e.Sink, e.Err)
}

func (e *SinkError) Unwrap() error {
	return e.Err
}

// NamedSink pairs a StatusSink with a name for error reporting.
type NamedSink struct {
	Name string
	Sink StatusSink
}

// Sinks fans a status out to several sinks. Every sink is called even if an
// earlier one fails.
type Sinks []NamedSink

// Publish sends st to every sink and joins their failures.
func (s Sinks) Publish(st logic.Status) error {
	var errs []error
	for _, ns := range s {
		if err := ns.Sink.Publish(st); err != nil {
			errs = append(errs, &SinkError{Sink: ns.Name, Err: err})
		}
	}
	return errors.Join(errs...)
}
