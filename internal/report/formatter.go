package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path"
	"strings"
	"time"

	"wanwatch/internal/types"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// TimeLayout is the timestamp layout used in every message
const TimeLayout = "2006-01-02 15:04:05"

// Template names
const (
	tplReport        = "report"
	tplStartup       = "startup"
	tplResolveFailed = "resolve_failed"
	tplShutdown      = "shutdown"
	tplFault         = "fault"
	tplVisitor       = "visitor"
)

// Formatter renders notification messages for Telegram's HTML parse mode.
// Rendering has no side effects; the timestamp comes from the clock.
type Formatter struct {
	templates *template.Template
	now       func() time.Time
}

// reportData is the input to the report template
type reportData struct {
	Time     time.Time
	Address  types.Address
	Location types.Location
	Changed  bool
}

// startupData is the input to the startup template
type startupData struct {
	Time      time.Time
	Interval  time.Duration
	Mode      string
	Hostname  string
	MonitorID string
}

// faultData is the input to the fault template
type faultData struct {
	Time    time.Time
	Error   string
	Backoff time.Duration
}

// NewFormatter parses the embedded templates. A nil clock means time.Now.
func NewFormatter(now func() time.Time) (*Formatter, error) {
	if now == nil {
		now = time.Now
	}

	tmpl := template.New("").Funcs(templateFuncs)

	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		content, err := templateFS.ReadFile(path.Join("templates", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read template file %s: %w", entry.Name(), err)
		}

		name := strings.TrimSuffix(entry.Name(), path.Ext(entry.Name()))
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", entry.Name(), err)
		}
	}

	return &Formatter{templates: tmpl, now: now}, nil
}

// Report renders a status report, or a change report when changed is set.
// Every location field appears, absent ones as N/A.
func (f *Formatter) Report(addr types.Address, loc types.Location, changed bool) (string, error) {
	return f.render(tplReport, reportData{
		Time:     f.now(),
		Address:  addr,
		Location: loc,
		Changed:  changed,
	})
}

// Startup renders the monitor started message
func (f *Formatter) Startup(interval time.Duration, mode types.RunMode, hostname, monitorID string) (string, error) {
	return f.render(tplStartup, startupData{
		Time:      f.now(),
		Interval:  interval,
		Mode:      string(mode),
		Hostname:  hostname,
		MonitorID: monitorID,
	})
}

// ResolveFailed renders the alert sent when no provider returned an address
func (f *Formatter) ResolveFailed() (string, error) {
	return f.render(tplResolveFailed, struct{ Time time.Time }{f.now()})
}

// Shutdown renders the monitor stopped message
func (f *Formatter) Shutdown() (string, error) {
	return f.render(tplShutdown, struct{ Time time.Time }{f.now()})
}

// Fault renders the alert sent when a check cycle crashed
func (f *Formatter) Fault(cause error, backoff time.Duration) (string, error) {
	return f.render(tplFault, faultData{
		Time:    f.now(),
		Error:   cause.Error(),
		Backoff: backoff,
	})
}

// Visitor renders the message relayed for an address posted by a web client
func (f *Formatter) Visitor(addr types.Address) (string, error) {
	return f.render(tplVisitor, struct {
		Time    time.Time
		Address types.Address
	}{f.now(), addr})
}

func (f *Formatter) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := f.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Template functions available in all templates
var templateFuncs = template.FuncMap{
	"formatTime": func(t time.Time) string {
		return t.Format(TimeLayout)
	},
	"formatDuration": func(d time.Duration) string {
		return d.Round(time.Second).String()
	},
	"title": func(s string) string {
		return cases.Title(language.English).String(s)
	},
}
