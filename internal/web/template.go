package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sweeney/irrigator/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"ago": func(t time.Time) string {
		if t.IsZero() {
			return "never"
		}
		return humanize.Time(t)
	},
	"orUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"reading": func(v int, unit string) string {
		if v < 0 {
			return "unknown"
		}
		return humanize.Comma(int64(v)) + unit
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="10">
<title>Irrigator</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.alert { color: red; font-weight: bold; }
.manual { color: orange; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Irrigator</h1>
{{if not .Ready}}<p>Waiting for first reading</p>{{else}}{{with .Status}}
<h2>Pump</h2>
<table>
<tr><th>Pump</th><td id="pump" class="{{if .PumpOn}}on{{else}}off{{end}}">{{if .PumpOn}}ON{{else}}OFF{{end}}</td></tr>
<tr><th>Reason</th><td id="reason" class="{{if eq (print .Reason) "SAFETY_CUTOFF"}}alert{{else if eq (print .Reason) "MANUAL"}}manual{{end}}">{{orUnknown (print .Reason)}}</td></tr>
<tr><th>Phase</th><td id="phase">{{orUnknown (print .Phase)}}</td></tr>
<tr><th>Override</th><td>{{if .Override.Active}}<span class="manual">active, pump {{if .Override.PumpOn}}on{{else}}off{{end}}</span>{{else}}none{{end}}</td></tr>
</table>

<h2>Sensors</h2>
<table>
<tr><th>Moisture</th><td id="moisture">{{reading .MoistureRaw ""}}{{if ge .MoistureRaw 0}} ({{.MoisturePct}}%){{end}}</td></tr>
<tr><th>Mode</th><td>{{orUnknown (print .Mode)}}</td></tr>
<tr><th>Water level</th><td>{{reading .DistanceCM " cm"}} from sensor</td></tr>
<tr><th>Reservoir</th><td class="{{if .WaterOK}}on{{else}}alert{{end}}">{{if .WaterOK}}ok{{else}}EMPTY{{end}}</td></tr>
</table>
{{end}}{{end}}
<h2>Activity</h2>
<table>
<tr><th>Last pulse</th><td>{{ago .LastPulse}}</td></tr>
<tr><th>Pulses</th><td>{{.Counts.Pulses}}</td></tr>
<tr><th>Safety trips</th><td>{{.Counts.SafetyTrips}}</td></tr>
<tr><th>Manual ticks</th><td>{{.Counts.ManualTicks}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}{{if .MQTTBuffered}} ({{.MQTTBuffered}} queued){{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Run ID</th><td>{{.RunID}}</td></tr>
<tr><th>Thresholds</th><td>dry &gt; {{.Config.DryThreshold}}, wet &lt; {{.Config.WetThreshold}}, empty &gt; {{.Config.EmptyThresholdCM}} cm</td></tr>
<tr><th>Pulse</th><td>{{.Config.MinRunMs}}ms on, {{.Config.AbsorptionMs}}ms soak</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	indexTmpl.Execute(w, snap)
}
