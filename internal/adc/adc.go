// Package adc reads the soil moisture probe through an ADS1115 I2C ADC.
//
// The probe is a capacitive sensor: higher readings mean drier soil. Raw
// conversions are scaled into 0..logic.MoistureMax so thresholds keep the
// same meaning as a 12-bit microcontroller ADC.
package adc

import (
	"fmt"

	"github.com/sweeney/irrigator/internal/logic"
)

// Defaults for an ADS1115 on the Pi's primary I2C bus.
const (
	DefaultBus     = "1"
	DefaultAddr    = 0x48
	DefaultChannel = 0
)

const (
	regConversion = 0x00
	regConfig     = 0x01

	cfgStartSingle = 0x8000
	cfgMuxSingle   = 0x4    // AINx vs GND, shifted by channel
	cfgPGA4V096    = 0x1    // +/-4.096V full scale
	cfgModeSingle  = 0x0100 // single-shot
	cfgRate128     = 0x0080 // 128 samples/s
	cfgCompDisable = 0x0003
)

// configWord builds the config register value that starts a single-shot
// conversion on the given single-ended channel.
func configWord(channel int) (uint16, error) {
	if channel < 0 || channel > 3 {
		return 0, fmt.Errorf("adc channel %d out of range 0..3", channel)
	}
	return cfgStartSingle |
		uint16(cfgMuxSingle+channel)<<12 |
		cfgPGA4V096<<9 |
		cfgModeSingle |
		cfgRate128 |
		cfgCompDisable, nil
}

// scale maps a signed 16-bit conversion into 0..logic.MoistureMax.
// Single-ended inputs cannot go meaningfully negative; noise below ground reads as 0.
func scale(raw int16) int {
	if raw < 0 {
		return 0
	}
	v := int(raw) >> 3
	if v > logic.MoistureMax {
		v = logic.MoistureMax
	}
	return v
}
