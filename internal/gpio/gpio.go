// Package gpio drives the pump relay and the ultrasonic water-level sensor
// with hardware abstraction.
// The real implementations use the Linux GPIO character device.
// The fake implementations allow testing without hardware.
package gpio

// Chip is the GPIO character device used by the real implementations.
const Chip = "gpiochip0"

// Default pin definitions (BCM numbering)
const (
	DefaultPinRelay = 17 // Pump relay
	DefaultPinTrig  = 23 // Ultrasonic trigger
	DefaultPinEcho  = 24 // Ultrasonic echo
)
