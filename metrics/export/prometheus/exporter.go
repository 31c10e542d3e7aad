// Package prometheus renders authkit metrics in the Prometheus text
// exposition format. The exporter reads counter snapshots directly; it does
// not depend on the Prometheus client library.
package prometheus

import (
	"net/http"
	"strconv"
	"strings"

	authkit "github.com/MrEthical07/authkit"
)

type metricsSource interface {
	MetricsSnapshot() authkit.MetricsSnapshot
	AuditDropped() uint64
}

type counterDef struct {
	id   authkit.MetricID
	name string
	help string
}

var counterDefs = []counterDef{
	{authkit.MetricLoginSuccess, "authkit_login_success_total", "Successful logins."},
	{authkit.MetricLoginFailure, "authkit_login_failure_total", "Rejected credential verifications."},
	{authkit.MetricLoginRateLimited, "authkit_login_rate_limited_total", "Logins rejected by the attempt guard."},
	{authkit.MetricRefreshSuccess, "authkit_refresh_success_total", "Completed token rotations."},
	{authkit.MetricRefreshFailure, "authkit_refresh_failure_total", "Rejected refresh calls."},
	{authkit.MetricRefreshRateLimited, "authkit_refresh_rate_limited_total", "Refreshes rejected by the throttle."},
	{authkit.MetricRotationConflict, "authkit_rotation_conflict_total", "Refreshes rejected because the token was absent (already rotated or revoked)."},
	{authkit.MetricLogout, "authkit_logout_total", "Revoke-all logout calls."},
	{authkit.MetricTokensSwept, "authkit_tokens_swept_total", "Expired refresh records removed by the sweeper."},
}

// Exporter renders engine counters as Prometheus text.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an exporter reading from the given [authkit.Engine].
func NewExporter(engine *authkit.Engine) *Exporter {
	return &Exporter{source: engine}
}

// NewExporterFromSource creates an exporter from a custom snapshot source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler serving the current metrics.
func (p *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(p.Render()))
	})
}

// Render returns the metrics in text exposition format.
func (p *Exporter) Render() string {
	if p == nil || p.source == nil {
		return ""
	}

	snapshot := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snapshot.Counters) == 0 && dropped == 0 {
		return ""
	}

	var b strings.Builder
	b.Grow(4096)

	for _, def := range counterDefs {
		writeCounter(&b, def.name, def.help, snapshot.Counters[def.id])
	}

	writeCounter(&b, "authkit_audit_dropped_total", "Dropped audit events due to dispatcher backpressure.", dropped)

	return b.String()
}

func writeCounter(b *strings.Builder, name, help string, value uint64) {
	b.WriteString("# HELP ")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(escapeHelp(help))
	b.WriteByte('\n')
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}

func escapeHelp(help string) string {
	help = strings.ReplaceAll(help, "\\", "\\\\")
	help = strings.ReplaceAll(help, "\n", "\\n")
	return help
}
