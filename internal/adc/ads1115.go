package adc

import (
	"encoding/binary"
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// conversionDelay covers one conversion at 128 SPS plus margin.
const conversionDelay = 9 * time.Millisecond

// ADS1115 reads one single-ended channel of an ADS1115.
type ADS1115 struct {
	bus     i2c.BusCloser
	dev     i2c.Dev
	channel int
	config  uint16
}

// NewADS1115 opens the named I2C bus and binds the device at addr.
func NewADS1115(busName string, addr uint16, channel int) (*ADS1115, error) {
	cfg, err := configWord(channel)
	if err != nil {
		return nil, err
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %q: %w", busName, err)
	}
	return &ADS1115{
		bus:     bus,
		dev:     i2c.Dev{Bus: bus, Addr: addr},
		channel: channel,
		config:  cfg,
	}, nil
}

// ReadMoisture starts a conversion, waits for it and returns the scaled value.
func (a *ADS1115) ReadMoisture() (int, error) {
	w := []byte{regConfig, 0, 0}
	binary.BigEndian.PutUint16(w[1:], a.config)
	if err := a.dev.Tx(w, nil); err != nil {
		return 0, fmt.Errorf("start conversion: %w", err)
	}

	time.Sleep(conversionDelay)

	r := make([]byte, 2)
	if err := a.dev.Tx([]byte{regConversion}, r); err != nil {
		return 0, fmt.Errorf("read conversion: %w", err)
	}
	return scale(int16(binary.BigEndian.Uint16(r))), nil
}

// Close releases the I2C bus.
func (a *ADS1115) Close() error {
	return a.bus.Close()
}
