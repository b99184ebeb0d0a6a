// Package override holds the manual pump command set by remote channels
// (MQTT, HTTP) and read once per tick by the controller.
package override

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/sweeney/irrigator/internal/logic"
)

// Holder is a thread-safe store for the current override command.
type Holder struct {
	mu  sync.Mutex
	cmd logic.OverrideCommand
}

// NewHolder creates a Holder with no override active.
func NewHolder() *Holder {
	return &Holder{}
}

// Override returns the current command.
func (h *Holder) Override() logic.OverrideCommand {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.cmd
}

// Set stores cmd. Setting an inactive command releases the override.
// Activation, release and pump direction changes are logged.
func (h *Holder) Set(cmd logic.OverrideCommand, source string) {
	if !cmd.Active {
		cmd.PumpOn = false
	}

	h.mu.Lock()
	prev := h.cmd
	h.cmd = cmd
	h.mu.Unlock()

	switch {
	case cmd.Active && !prev.Active:
		log.Printf("override: activated by %s pump_on=%v", source, cmd.PumpOn)
	case !cmd.Active && prev.Active:
		log.Printf("override: released by %s", source)
	case cmd.Active && cmd.PumpOn != prev.PumpOn:
		log.Printf("override: %s set pump_on=%v", source, cmd.PumpOn)
	}
}

// Clear releases the override.
func (h *Holder) Clear(source string) {
	h.Set(logic.OverrideCommand{}, source)
}

// Command is the JSON form of an override command.
type Command struct {
	Active *bool `json:"active"`
	PumpOn bool  `json:"pump_on"`
}

// Parse decodes a JSON override command such as {"active":true,"pump_on":true}.
// A missing "active" field means active, so {"pump_on":false} forces the pump off.
// An empty payload releases the override.
func Parse(data []byte) (logic.OverrideCommand, error) {
	if len(data) == 0 {
		return logic.OverrideCommand{}, nil
	}
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return logic.OverrideCommand{}, fmt.Errorf("parse override: %w", err)
	}
	active := true
	if c.Active != nil {
		active = *c.Active
	}
	return logic.OverrideCommand{Active: active, PumpOn: active && c.PumpOn}, nil
}
