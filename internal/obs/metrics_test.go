package obs

import (
	"runtime"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                                     "/",
		"/metrics":                             "/metrics",
		"/v1/journals":                         "/v1/journals",
		"/v1/journals/jnl_01H":                 "/v1/journals/:id",
		"/v1/journals/jnl_01H/balance":         "/v1/journals/:id/balance",
		"/v1/journals/jnl_01H/postings?limit=5": "/v1/journals/:id/postings",
		"/v1/journals/jnl_01H/accounts/cash":   "/v1/journals/:id/accounts/:account",
		"/v1/journals/jnl_01H/auto-balance":    "/v1/journals/:id/auto-balance",
		"/v1/info":                             "/v1/info",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

func TestSetBuildInfoKeepsOneSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(buildInfo)

	SetBuildInfo("v0.1.0", "abc123")
	SetBuildInfo("v0.2.0", "def456")

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) != 1 || families[0].GetName() != "tacc_build_info" {
		t.Fatalf("unexpected families %v", families)
	}
	series := families[0].GetMetric()
	if len(series) != 1 {
		t.Fatalf("expected 1 build info series, got %d", len(series))
	}
	labels := map[string]string{}
	for _, lp := range series[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	if labels["version"] != "v0.2.0" || labels["commit"] != "def456" || labels["go_version"] != runtime.Version() {
		t.Fatalf("unexpected labels %v", labels)
	}
	if v := series[0].GetGauge().GetValue(); v != 1 {
		t.Fatalf("build info value = %v, want 1", v)
	}
}
