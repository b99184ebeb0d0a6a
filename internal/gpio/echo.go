package gpio

import (
	"fmt"
	"time"

	"github.com/sweeney/irrigator/internal/logic"
)

// Ultrasonic measurement defaults.
const (
	DefaultEchoSamples = 5
	DefaultEchoTimeout = 25 * time.Millisecond
	DefaultEchoSpacing = 50 * time.Millisecond
)

// echoToCM converts a round-trip echo pulse width into a one-way distance.
// Speed of sound is taken as 0.0343 cm/µs.
func echoToCM(pulse time.Duration) int {
	return int(float64(pulse.Microseconds()) * 0.0343 / 2)
}

// averageCM averages the distances of the valid echoes. With no valid echo
// the measurement failed and the error wraps logic.ErrSensorRead.
func averageCM(echoes []time.Duration) (int, error) {
	if len(echoes) == 0 {
		return 0, fmt.Errorf("no valid echoes: %w", logic.ErrSensorRead)
	}
	total := 0
	for _, e := range echoes {
		total += echoToCM(e)
	}
	return total / len(echoes), nil
}
