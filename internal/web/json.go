package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sweeney/irrigator/internal/logic"
)

var errEmptyBody = errors.New("empty body: send {\"active\":true,\"pump_on\":true} or use DELETE")

// OverrideJSON is the JSON envelope returned by the override endpoints.
type OverrideJSON struct {
	Override OverrideInner `json:"override"`
}

// OverrideInner contains the manual command in effect.
type OverrideInner struct {
	Active bool `json:"active"`
	PumpOn bool `json:"pump_on"`
}

// ErrorJSON is returned for rejected requests.
type ErrorJSON struct {
	Error string `json:"error"`
}

func writeOverride(w http.ResponseWriter, code int, cmd logic.OverrideCommand) {
	writeJSON(w, code, OverrideJSON{Override: OverrideInner{Active: cmd.Active, PumpOn: cmd.PumpOn}})
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, ErrorJSON{Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	data, _ := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(data)
}
