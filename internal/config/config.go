// Package config loads the irrigator's YAML configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/irrigator/internal/adc"
	"github.com/sweeney/irrigator/internal/gpio"
	"github.com/sweeney/irrigator/internal/logic"
)

const (
	DefaultPath      = "/etc/irrigator/config.yaml"
	DefaultBroker    = "tcp://192.168.1.200:1883"
	DefaultClientID  = "irrigator"
	DefaultHTTPAddr  = ":80"
	DefaultHeartbeat = 15 * time.Minute
	DefaultI2CBus    = adc.DefaultBus
	DefaultADCAddr   = adc.DefaultAddr
	DefaultRelayPin  = gpio.DefaultPinRelay
	DefaultTrigPin   = gpio.DefaultPinTrig
	DefaultEchoPin   = gpio.DefaultPinEcho
)

// Duration is a time.Duration written as a Go duration string ("3s", "15m").
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// File is the on-disk configuration. Zero values are replaced by defaults.
type File struct {
	Control  Control  `yaml:"control"`
	Hardware Hardware `yaml:"hardware"`
	MQTT     MQTT     `yaml:"mqtt"`
	HTTP     HTTP     `yaml:"http"`
	// Heartbeat is the interval between HEARTBEAT events; "0s" disables them.
	Heartbeat *Duration `yaml:"heartbeat"`
}

// Control holds the irrigation thresholds and timing. The moisture
// thresholds are pointers because 0 is a valid raw reading.
type Control struct {
	EmptyThresholdCM      int      `yaml:"empty_threshold_cm"`
	DryThreshold          *int     `yaml:"dry_threshold"`
	WetThreshold          *int     `yaml:"wet_threshold"`
	LowWaterConfirmations int      `yaml:"low_water_confirmations"`
	MinRunDuration        Duration `yaml:"min_run_duration"`
	AbsorptionDuration    Duration `yaml:"absorption_duration"`
	TickPeriod            Duration `yaml:"tick_period"`
}

// Hardware holds pin and bus assignments.
type Hardware struct {
	RelayPin       int    `yaml:"relay_pin"`
	RelayActiveLow *bool  `yaml:"relay_active_low"`
	TrigPin        int    `yaml:"trig_pin"`
	EchoPin        int    `yaml:"echo_pin"`
	I2CBus         string `yaml:"i2c_bus"`
	ADCAddr        uint16 `yaml:"adc_addr"`
	ADCChannel     int    `yaml:"adc_channel"`
}

// MQTT holds broker settings.
type MQTT struct {
	Broker     string `yaml:"broker"`
	ClientID   string `yaml:"client_id"`
	BufferSize int    `yaml:"buffer_size"`
}

// HTTP holds the status server settings.
type HTTP struct {
	Addr string `yaml:"addr"`
}

// Load parses the YAML config file, applies defaults, and validates.
// Unknown keys are rejected.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	f := &File{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyDefaults(f)
	if err := Validate(f); err != nil {
		return nil, err
	}
	return f, nil
}

// Default returns the configuration used when no file is given.
func Default() *File {
	f := &File{}
	applyDefaults(f)
	return f
}

func applyDefaults(f *File) {
	def := logic.DefaultConfig()
	c := &f.Control
	if c.EmptyThresholdCM == 0 {
		c.EmptyThresholdCM = def.EmptyThresholdCM
	}
	if c.DryThreshold == nil {
		dry := def.DryThreshold
		c.DryThreshold = &dry
	}
	if c.WetThreshold == nil {
		wet := def.WetThreshold
		c.WetThreshold = &wet
	}
	if c.LowWaterConfirmations == 0 {
		c.LowWaterConfirmations = def.LowWaterConfirmations
	}
	if c.MinRunDuration == 0 {
		c.MinRunDuration = Duration(def.MinRunDuration)
	}
	if c.AbsorptionDuration == 0 {
		c.AbsorptionDuration = Duration(def.AbsorptionDuration)
	}
	if c.TickPeriod == 0 {
		c.TickPeriod = Duration(def.TickPeriod)
	}

	h := &f.Hardware
	if h.RelayPin == 0 {
		h.RelayPin = DefaultRelayPin
	}
	if h.RelayActiveLow == nil {
		activeLow := true
		h.RelayActiveLow = &activeLow
	}
	if h.TrigPin == 0 {
		h.TrigPin = DefaultTrigPin
	}
	if h.EchoPin == 0 {
		h.EchoPin = DefaultEchoPin
	}
	if h.I2CBus == "" {
		h.I2CBus = DefaultI2CBus
	}
	if h.ADCAddr == 0 {
		h.ADCAddr = DefaultADCAddr
	}

	if f.MQTT.Broker == "" {
		f.MQTT.Broker = DefaultBroker
	}
	if f.MQTT.ClientID == "" {
		f.MQTT.ClientID = DefaultClientID
	}
	if f.HTTP.Addr == "" {
		f.HTTP.Addr = DefaultHTTPAddr
	}
	if f.Heartbeat == nil {
		hb := Duration(DefaultHeartbeat)
		f.Heartbeat = &hb
	}
}

// Validate enforces invariants the YAML types cannot express.
func Validate(f *File) error {
	if f == nil {
		return fmt.Errorf("config is required")
	}
	if err := f.Logic().Validate(); err != nil {
		return err
	}

	h := f.Hardware
	pins := map[int]string{}
	for _, p := range []struct {
		name string
		pin  int
	}{{"relay_pin", h.RelayPin}, {"trig_pin", h.TrigPin}, {"echo_pin", h.EchoPin}} {
		if p.pin < 0 {
			return fmt.Errorf("hardware.%s must be >= 0", p.name)
		}
		if other, dup := pins[p.pin]; dup {
			return fmt.Errorf("hardware.%s and hardware.%s share pin %d", other, p.name, p.pin)
		}
		pins[p.pin] = p.name
	}
	if h.ADCChannel < 0 || h.ADCChannel > 3 {
		return fmt.Errorf("hardware.adc_channel must be 0..3")
	}
	if f.MQTT.BufferSize < 0 {
		return fmt.Errorf("mqtt.buffer_size must be >= 0")
	}
	if f.Heartbeat != nil && *f.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must be >= 0")
	}
	return nil
}

// Logic returns the control settings as a logic.Config.
func (f *File) Logic() logic.Config {
	c := f.Control
	return logic.Config{
		EmptyThresholdCM:      c.EmptyThresholdCM,
		DryThreshold:          intOr(c.DryThreshold, -1),
		WetThreshold:          intOr(c.WetThreshold, -1),
		LowWaterConfirmations: c.LowWaterConfirmations,
		MinRunDuration:        time.Duration(c.MinRunDuration),
		AbsorptionDuration:    time.Duration(c.AbsorptionDuration),
		TickPeriod:            time.Duration(c.TickPeriod),
	}
}

// HeartbeatInterval returns the heartbeat interval; zero means disabled.
func (f *File) HeartbeatInterval() time.Duration {
	if f.Heartbeat == nil {
		return 0
	}
	return time.Duration(*f.Heartbeat)
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}
