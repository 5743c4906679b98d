package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordAPIRequest(t *testing.T) {
	before := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/tiles", "200"))

	RecordAPIRequest("GET", "/api/tiles", 200, 15*time.Millisecond)

	after := testutil.ToFloat64(APIRequestsTotal.WithLabelValues("GET", "/api/tiles", "200"))
	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}
}

func TestRecordProbe(t *testing.T) {
	tests := []struct {
		outcome string
	}{
		{"online"},
		{"offline"},
		{"error"},
		{"skipped"},
	}

	for _, tt := range tests {
		t.Run(tt.outcome, func(t *testing.T) {
			before := testutil.ToFloat64(ProbesTotal.WithLabelValues(tt.outcome))
			RecordProbe(tt.outcome, 20*time.Millisecond)
			after := testutil.ToFloat64(ProbesTotal.WithLabelValues(tt.outcome))
			if after-before != 1 {
				t.Errorf("counter delta = %v, want 1", after-before)
			}
		})
	}
}

func TestRecordUpstream(t *testing.T) {
	ok := UpstreamRequestsTotal.WithLabelValues("Plex", "now_playing", "success")
	failed := UpstreamRequestsTotal.WithLabelValues("Plex", "now_playing", "error")
	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	RecordUpstream("Plex", "now_playing", time.Millisecond, nil)
	RecordUpstream("Plex", "now_playing", time.Millisecond, errors.New("boom"))
	RecordUpstream("Plex", "now_playing", time.Millisecond, errors.New("boom"))

	if d := testutil.ToFloat64(ok) - okBefore; d != 1 {
		t.Errorf("success delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(failed) - failedBefore; d != 2 {
		t.Errorf("error delta = %v, want 2", d)
	}
}

func TestRecordTitleCache(t *testing.T) {
	hits, misses := testutil.ToFloat64(TitleCacheHits), testutil.ToFloat64(TitleCacheMisses)

	RecordTitleCache(true)
	RecordTitleCache(false)
	RecordTitleCache(false)

	if d := testutil.ToFloat64(TitleCacheHits) - hits; d != 1 {
		t.Errorf("hits delta = %v, want 1", d)
	}
	if d := testutil.ToFloat64(TitleCacheMisses) - misses; d != 2 {
		t.Errorf("misses delta = %v, want 2", d)
	}
}

func TestRecordHostUsage(t *testing.T) {
	RecordHostUsage(12, 40, 75, 3)

	for resource, want := range map[string]float64{"cpu": 12, "ram": 40, "storage": 75} {
		if got := testutil.ToFloat64(HostUsagePercent.WithLabelValues(resource)); got != want {
			t.Errorf("%s = %v, want %v", resource, got, want)
		}
	}
	if got := testutil.ToFloat64(HostNetworkMbps); got != 3 {
		t.Errorf("network = %v, want 3", got)
	}
}

func TestRecordCircuitState(t *testing.T) {
	tests := []struct {
		state string
		want  float64
	}{
		{"open", 2},
		{"half-open", 1},
		{"closed", 0},
	}
	for _, tt := range tests {
		RecordCircuitState("plex.lan:32400", tt.state)
		if got := testutil.ToFloat64(UpstreamCircuitState.WithLabelValues("plex.lan:32400")); got != tt.want {
			t.Errorf("state %s gauge = %v, want %v", tt.state, got, tt.want)
		}
	}
}
