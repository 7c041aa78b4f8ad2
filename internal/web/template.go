package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/ledctl/internal/logic"
	"github.com/sweeney/ledctl/internal/status"
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
	"stateClass": func(s logic.State) string {
		switch s {
		case logic.StateOn:
			return "on"
		case logic.StateOff:
			return "off"
		}
		return "unknown"
	},
	"stateOrUnknown": func(s logic.State) string {
		if s == "" {
			return "UNKNOWN"
		}
		return string(s)
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>LED Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { font-weight: bold; }
.on.red { color: #c00; }
.on.yellow { color: #c90; }
.on.green { color: #090; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>LED Controller</h1>

<h2>Channels</h2>
<table>
{{range .Channels}}<tr><th>{{.Name}} (line {{.Pin}})</th><td id="{{.Name}}-state" class="{{.Name}} {{stateClass .State}}">{{stateOrUnknown .State}}</td></tr>
{{end}}<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Last Command</h2>
<table>
{{if .LastCommandAt.IsZero}}<tr><td>none yet</td></tr>
{{else}}<tr><th>Command</th><td>{{.LastCommand}}</td></tr>
<tr><th>Reply</th><td>{{.LastReply}}</td></tr>
<tr><th>At</th><td>{{.LastCommandAt.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
{{end}}</table>

<h2>Command Counts</h2>
<table>
{{range .Ordered}}<tr><th>{{.Token}}</th><td>{{.Count}}</td></tr>
{{end}}<tr><th>unknown</th><td>{{.Counts.Unknown}}</td></tr>
<tr><th>GPIO errors</th><td>{{.GPIOErrors}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Serial</th><td>{{.Config.Device}} @ {{.Config.Baud}}</td></tr>
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{else}}<tr><th>MQTT</th><td>disabled</td></tr>
{{end}}{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>GPIO chip</th><td>{{.Config.Chip}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/metrics">metrics</a></p>
</body>
</html>
`

type channelRow struct {
	Name  string
	Pin   int
	State logic.State
}

func renderHTML(w io.Writer, snap status.Snapshot) error {
	pins := map[logic.Channel]int{
		logic.Red:    snap.Config.PinRed,
		logic.Yellow: snap.Config.PinYellow,
		logic.Green:  snap.Config.PinGreen,
	}
	rows := make([]channelRow, 0, logic.NumChannels)
	for _, c := range logic.Channels {
		rows = append(rows, channelRow{Name: c.String(), Pin: pins[c], State: snap.Channels.Get(c)})
	}

	// Snapshot.Channels is shadowed by the display rows.
	data := struct {
		status.Snapshot
		Channels []channelRow
		Ordered  []status.TokenCount
		Uptime   time.Duration
	}{
		Snapshot: snap,
		Channels: rows,
		Ordered:  status.CountsInOrder(snap),
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
