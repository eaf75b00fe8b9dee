package report

import (
	"errors"
	"strings"
	"testing"
	"time"

	"wanwatch/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedTime = time.Date(2024, 5, 1, 12, 30, 45, 0, time.Local)

func newTestFormatter(t *testing.T) *Formatter {
	t.Helper()
	f, err := NewFormatter(func() time.Time { return fixedTime })
	require.NoError(t, err)
	return f
}

func floatPtr(f float64) *float64 {
	return &f
}

func TestReportStatus(t *testing.T) {
	f := newTestFormatter(t)

	msg, err := f.Report("1.2.3.4", types.Location{
		Country:     "Vietnam",
		CountryCode: "VN",
		City:        "Hanoi",
		Region:      "Hanoi",
		ISP:         "Viettel Group",
		Org:         "Viettel Corporation",
		Lat:         floatPtr(21.0292),
		Lon:         floatPtr(105.8526),
		Timezone:    "Asia/Bangkok",
	}, false)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(msg, "📊 <b>SYSTEM STATUS REPORT</b>"))
	assert.NotContains(t, msg, "CHANGED")
	assert.Contains(t, msg, "<code>1.2.3.4</code>")
	assert.Contains(t, msg, "2024-05-01 12:30:45")
	assert.Contains(t, msg, "• Country: Vietnam")
	assert.Contains(t, msg, "• Country Code: VN")
	assert.Contains(t, msg, "• Latitude: 21.0292")
	assert.Contains(t, msg, "• Longitude: 105.8526")
	assert.Contains(t, msg, "• Timezone: Asia/Bangkok")
	assert.NotContains(t, msg, types.NotAvailable)
}

func TestReportChanged(t *testing.T) {
	f := newTestFormatter(t)

	msg, err := f.Report("5.6.7.8", types.Location{}, true)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg, "🔄 <b>NETWORK STATUS CHANGED</b>"))
}

func TestReportMissingFieldsRenderNotAvailable(t *testing.T) {
	f := newTestFormatter(t)

	msg, err := f.Report("1.2.3.4", types.Location{}, false)
	require.NoError(t, err)

	labels := []string{"Country", "Country Code", "City", "Region", "ISP", "Organization", "Latitude", "Longitude", "Timezone"}
	last := -1
	for _, label := range labels {
		line := "• " + label + ": " + types.NotAvailable
		idx := strings.Index(msg, line)
		require.GreaterOrEqual(t, idx, 0, "missing %q", line)
		assert.Greater(t, idx, last, "%s out of order", label)
		last = idx
	}
	assert.Equal(t, len(labels), strings.Count(msg, types.NotAvailable))
}

func TestReportEscapesValues(t *testing.T) {
	f := newTestFormatter(t)

	msg, err := f.Report("1.2.3.4", types.Location{ISP: "AT&T <Mobility>"}, false)
	require.NoError(t, err)
	assert.Contains(t, msg, "• ISP: AT&amp;T &lt;Mobility&gt;")
}

func TestStartup(t *testing.T) {
	f := newTestFormatter(t)

	msg, err := f.Startup(5*time.Minute, types.RunModeContinuous, "edge", "monitor-1")
	require.NoError(t, err)
	assert.Contains(t, msg, "NETWORK MONITOR STARTED")
	assert.Contains(t, msg, "2024-05-01 12:30:45")
	assert.Contains(t, msg, "Check interval: 5m0s")
	assert.Contains(t, msg, "Mode: Continuous")
	assert.Contains(t, msg, "<code>edge</code> (monitor-1)")
}

func TestAlerts(t *testing.T) {
	f := newTestFormatter(t)

	msg, err := f.ResolveFailed()
	require.NoError(t, err)
	assert.Contains(t, msg, "Cannot retrieve network status")
	assert.Contains(t, msg, "2024-05-01 12:30:45")

	msg, err = f.Shutdown()
	require.NoError(t, err)
	assert.Contains(t, msg, "NETWORK MONITOR STOPPED")

	msg, err = f.Fault(errors.New("index out of range"), time.Minute)
	require.NoError(t, err)
	assert.Contains(t, msg, "MONITOR FAULT")
	assert.Contains(t, msg, "<code>index out of range</code>")
	assert.Contains(t, msg, "Retrying in 1m0s")
}

func TestVisitor(t *testing.T) {
	f := newTestFormatter(t)

	msg, err := f.Visitor("203.0.113.7")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(msg, "📡 <b>NEW VISITOR IP</b>"))
	assert.Contains(t, msg, "<code>203.0.113.7</code>")
	assert.Contains(t, msg, "2024-05-01 12:30:45")
}
