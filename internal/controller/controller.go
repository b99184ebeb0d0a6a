// Package controller runs one irrigation tick at a time: it gathers readings
// from the sensor and override collaborators, steps the logic.Machine, drives
// the pump relay and hands the resulting status to the observers.
package controller

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/sweeney/irrigator/internal/logic"
)

// MoistureSensor returns one raw soil moisture reading in 0..logic.MoistureMax.
type MoistureSensor interface {
	ReadMoisture() (int, error)
}

// WaterLevelSensor returns the distance in cm from the sensor to the water
// surface. A larger distance means less water.
type WaterLevelSensor interface {
	ReadWaterDistance() (int, error)
}

// Pump switches the pump relay.
type Pump interface {
	SetPump(on bool) error
}

// OverrideSource is polled once per tick for the manual command.
type OverrideSource interface {
	Override() logic.OverrideCommand
}

// StatusSink receives the status after every tick.
type StatusSink interface {
	Publish(st logic.Status) error
}

// Controller owns the state machine and its collaborators.
// RunOnce must not be called concurrently.
type Controller struct {
	machine  *logic.Machine
	moisture MoistureSensor
	water    WaterLevelSensor
	pump     Pump
	override OverrideSource
	sink     StatusSink
	now      func() time.Time

	last    logic.PumpCommand
	started bool
	status  logic.Status
}

// Options groups the collaborators of a Controller. Override and Sink may be nil.
type Options struct {
	Moisture MoistureSensor
	Water    WaterLevelSensor
	Pump     Pump
	Override OverrideSource
	Sink     StatusSink
	Now      func() time.Time
}

// New validates cfg and creates a Controller with the machine in IDLE.
func New(cfg logic.Config, opts Options) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Moisture == nil || opts.Water == nil || opts.Pump == nil {
		return nil, errors.New("controller: moisture, water and pump are required")
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		machine:  logic.NewMachine(cfg, opts.Now()),
		moisture: opts.Moisture,
		water:    opts.Water,
		pump:     opts.Pump,
		override: opts.Override,
		sink:     opts.Sink,
		now:      opts.Now,
	}, nil
}

// RunOnce performs one tick. The pump is driven with the resulting command
// on every tick; an error is returned only if that fails. Sink failures are
// logged and never change the command.
func (c *Controller) RunOnce() (logic.Status, error) {
	t := c.now()

	in := logic.Input{Time: t}
	in.Moisture, in.MoistureErr = c.moisture.ReadMoisture()
	if in.MoistureErr != nil {
		log.Printf("moisture read error: %v", in.MoistureErr)
	}

	if c.machine.WantsWaterReading(t) {
		cm, err := c.water.ReadWaterDistance()
		if err != nil {
			log.Printf("water level read error: %v", err)
		}
		in.Water = &logic.WaterReading{DistanceCM: cm, Err: err}
	}

	if c.override != nil {
		in.Override = c.override.Override()
	}

	cmd, st := c.machine.Step(in)
	c.status = st

	if !c.started || cmd != c.last {
		log.Printf("pump: on=%v reason=%s phase=%s mode=%s moisture=%d water_ok=%v",
			cmd.PumpOn, cmd.Reason, st.Phase, st.Mode, st.MoistureRaw, st.WaterOK)
	}
	c.started = true
	c.last = cmd

	var pumpErr error
	if err := c.pump.SetPump(cmd.PumpOn); err != nil {
		pumpErr = fmt.Errorf("set pump: %w", err)
	}

	if c.sink != nil {
		if err := c.sink.Publish(st); err != nil {
			log.Printf("publish error: %v", err)
		}
	}

	return st, pumpErr
}

// Status returns the status produced by the most recent tick.
func (c *Controller) Status() logic.Status {
	return c.status
}

// Counts returns the machine's occurrence counters.
func (c *Controller) Counts() logic.Counts {
	return c.machine.CountsSnapshot()
}

// CheckHeartbeat delegates to the machine; see logic.Machine.CheckHeartbeat.
func (c *Controller) CheckHeartbeat(now time.Time, interval time.Duration) *logic.HeartbeatData {
	return c.machine.CheckHeartbeat(now, interval)
}

// Stop switches the pump off. It is called on shutdown and leaves the
// machine untouched.
func (c *Controller) Stop() error {
	if err := c.pump.SetPump(false); err != nil {
		return fmt.Errorf("stop pump: %w", err)
	}
	return nil
}
