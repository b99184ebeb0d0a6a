//go:build !linux

package gpio

import "errors"

var errUnsupported = errors.New("gpio: not supported on this platform (requires Linux)")

// RealRelay is not available on non-Linux platforms.
type RealRelay struct{}

// NewRealRelay returns an error on non-Linux platforms.
func NewRealRelay(pin int, activeLow bool) (*RealRelay, error) {
	return nil, errUnsupported
}

// SetPump is not implemented on non-Linux platforms.
func (r *RealRelay) SetPump(on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealRelay) Close() error {
	return nil
}

// RealRangefinder is not available on non-Linux platforms.
type RealRangefinder struct{}

// NewRealRangefinder returns an error on non-Linux platforms.
func NewRealRangefinder(pinTrig, pinEcho int) (*RealRangefinder, error) {
	return nil, errUnsupported
}

// ReadWaterDistance is not implemented on non-Linux platforms.
func (r *RealRangefinder) ReadWaterDistance() (int, error) {
	return 0, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (r *RealRangefinder) Close() error {
	return nil
}
