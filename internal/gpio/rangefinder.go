//go:build linux

package gpio

import (
	"errors"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

var errNoEcho = errors.New("echo timeout")

// RealRangefinder measures the distance from the sensor to the water surface
// with an HC-SR04 style trigger/echo pair.
type RealRangefinder struct {
	chip   *gpiocdev.Chip
	trig   *gpiocdev.Line
	echo   *gpiocdev.Line
	events chan gpiocdev.LineEvent

	samples int
	timeout time.Duration
	spacing time.Duration
}

// NewRealRangefinder requests the trigger pin as an output and watches both
// edges of the echo pin. Edge timestamps come from the kernel, so pulse widths
// are unaffected by scheduling latency.
func NewRealRangefinder(pinTrig, pinEcho int) (*RealRangefinder, error) {
	chip, err := gpiocdev.NewChip(Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	r := &RealRangefinder{
		chip:    chip,
		events:  make(chan gpiocdev.LineEvent, 8),
		samples: DefaultEchoSamples,
		timeout: DefaultEchoTimeout,
		spacing: DefaultEchoSpacing,
	}

	r.trig, err = chip.RequestLine(pinTrig, gpiocdev.AsOutput(0))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request trig pin %d: %w", pinTrig, err)
	}

	r.echo, err = chip.RequestLine(pinEcho,
		gpiocdev.AsInput,
		gpiocdev.WithPullDown,
		gpiocdev.WithBothEdges,
		gpiocdev.WithEventHandler(r.handleEvent))
	if err != nil {
		r.trig.Close()
		chip.Close()
		return nil, fmt.Errorf("request echo pin %d: %w", pinEcho, err)
	}

	return r, nil
}

func (r *RealRangefinder) handleEvent(evt gpiocdev.LineEvent) {
	select {
	case r.events <- evt:
	default:
		// Nobody is measuring; stale edges are dropped.
	}
}

// ReadWaterDistance takes several pings and returns the averaged distance in
// cm. Failed pings are skipped; if none succeed the error wraps
// logic.ErrSensorRead. Worst case it blocks for samples*(timeout+spacing).
func (r *RealRangefinder) ReadWaterDistance() (int, error) {
	var echoes []time.Duration
	for i := 0; i < r.samples; i++ {
		if i > 0 {
			time.Sleep(r.spacing)
		}
		pulse, err := r.ping()
		if err != nil {
			continue
		}
		echoes = append(echoes, pulse)
	}
	return averageCM(echoes)
}

func (r *RealRangefinder) ping() (time.Duration, error) {
	r.drain()

	if err := r.trig.SetValue(0); err != nil {
		return 0, fmt.Errorf("trig low: %w", err)
	}
	time.Sleep(5 * time.Microsecond)
	if err := r.trig.SetValue(1); err != nil {
		return 0, fmt.Errorf("trig high: %w", err)
	}
	time.Sleep(10 * time.Microsecond)
	if err := r.trig.SetValue(0); err != nil {
		return 0, fmt.Errorf("trig low: %w", err)
	}

	timeout := time.NewTimer(r.timeout)
	defer timeout.Stop()

	var rise time.Duration
	risen := false
	for {
		select {
		case evt := <-r.events:
			switch evt.Type {
			case gpiocdev.LineEventRisingEdge:
				rise = evt.Timestamp
				risen = true
			case gpiocdev.LineEventFallingEdge:
				if risen {
					return evt.Timestamp - rise, nil
				}
			}
		case <-timeout.C:
			return 0, errNoEcho
		}
	}
}

func (r *RealRangefinder) drain() {
	for {
		select {
		case <-r.events:
		default:
			return
		}
	}
}

// Close releases GPIO resources.
// Reconfigures the trigger pin to input with pull-down (matching Pi boot
// defaults) before closing.
func (r *RealRangefinder) Close() error {
	var errs []error

	if r.echo != nil {
		if err := r.echo.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close echo pin: %w", err))
		}
	}
	if r.trig != nil {
		if err := r.trig.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure trig pin: %w", err))
		}
		if err := r.trig.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close trig pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
