package metrics

import (
	"errors"
	"testing"

	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
	"github.com/tarmac-project/sqlmap"
	"github.com/tarmac-project/sqlmap/hostmock"
)

func TestNew(t *testing.T) {
	t.Parallel()

	tt := []struct {
		name        string
		cfg         Config
		wantNS      string
		wantEnabled bool
	}{
		{
			name:        "custom namespace",
			cfg:         Config{SDKConfig: sqlmap.RuntimeConfig{Namespace: "custom"}},
			wantNS:      "custom",
			wantEnabled: true,
		},
		{
			name:        "default namespace with override",
			cfg:         Config{HostCall: func(string, string, string, []byte) ([]byte, error) { return nil, nil }},
			wantNS:      sqlmap.DefaultNamespace,
			wantEnabled: true,
		},
		{
			name:   "disabled",
			cfg:    Config{Disabled: true},
			wantNS: sqlmap.DefaultNamespace,
		},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := New(tc.cfg)
			if err != nil {
				t.Fatalf("New returned error: %v", err)
			}
			if c.e.namespace != tc.wantNS {
				t.Fatalf("namespace mismatch: want %q, got %q", tc.wantNS, c.e.namespace)
			}
			if c.Enabled() != tc.wantEnabled {
				t.Fatalf("enabled mismatch: want %v, got %v", tc.wantEnabled, c.Enabled())
			}
		})
	}
}

func TestMetricConstructors(t *testing.T) {
	t.Parallel()

	c, err := New(Config{Disabled: true})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	counter := func(n string) error { _, err := c.NewCounter(n); return err }
	gauge := func(n string) error { _, err := c.NewGauge(n); return err }
	histogram := func(n string) error { _, err := c.NewHistogram(n); return err }

	tt := []struct {
		name        string
		constructor func(string) error
		metricName  string
		wantErr     error
	}{
		{"counter valid", counter, "sqlmap_puts", nil},
		{"gauge valid", gauge, "sqlmap_maps_live", nil},
		{"histogram valid", histogram, "sqlmap_resize_capacity", nil},
		{"counter empty name", counter, "", ErrInvalidMetricName},
		{"gauge whitespace name", gauge, " \n\t ", ErrInvalidMetricName},
		{"histogram dashed name", histogram, "resize-capacity", ErrInvalidMetricName},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.constructor(tc.metricName); !errors.Is(err, tc.wantErr) {
				t.Fatalf("unexpected error: want %v got %v", tc.wantErr, err)
			}
		})
	}
}

func TestEmission(t *testing.T) {
	t.Parallel()

	m := hostmock.New(hostmock.Config{Namespace: "tarmac", Strict: true, Handlers: map[hostmock.Route]hostmock.Handler{
		{Capability: capabilityName, Function: fnCounter}:   hostmock.Reply(nil),
		{Capability: capabilityName, Function: fnGauge}:     hostmock.Reply(nil),
		{Capability: capabilityName, Function: fnHistogram}: hostmock.Reply(nil),
	}})

	c, err := New(Config{HostCall: m.HostCall})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	t.Run("Counter", func(t *testing.T) {
		counter, err := c.NewCounter("sqlmap_puts")
		if err != nil {
			t.Fatalf("NewCounter returned error: %v", err)
		}
		counter.Inc()

		calls := m.CallsTo(capabilityName, fnCounter)
		if len(calls) != 1 {
			t.Fatalf("expected 1 call, got %d", len(calls))
		}
		var req proto.MetricsCounter
		if err := req.UnmarshalVT(calls[0].Payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if req.GetName() != "sqlmap_puts" {
			t.Fatalf("metric name mismatch: %q", req.GetName())
		}
	})

	t.Run("Gauge", func(t *testing.T) {
		gauge, err := c.NewGauge("sqlmap_maps_live")
		if err != nil {
			t.Fatalf("NewGauge returned error: %v", err)
		}
		gauge.Inc()
		gauge.Dec()

		calls := m.CallsTo(capabilityName, fnGauge)
		if len(calls) != 2 {
			t.Fatalf("expected 2 calls, got %d", len(calls))
		}
		for i, want := range []string{actionInc, actionDec} {
			var req proto.MetricsGauge
			if err := req.UnmarshalVT(calls[i].Payload); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if req.GetName() != "sqlmap_maps_live" || req.GetAction() != want {
				t.Fatalf("unexpected gauge payload %q/%q", req.GetName(), req.GetAction())
			}
		}
	})

	t.Run("Histogram", func(t *testing.T) {
		histogram, err := c.NewHistogram("sqlmap_resize_capacity")
		if err != nil {
			t.Fatalf("NewHistogram returned error: %v", err)
		}
		histogram.Observe(64)

		calls := m.CallsTo(capabilityName, fnHistogram)
		if len(calls) != 1 {
			t.Fatalf("expected 1 call, got %d", len(calls))
		}
		var req proto.MetricsHistogram
		if err := req.UnmarshalVT(calls[0].Payload); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if req.GetName() != "sqlmap_resize_capacity" || req.GetValue() != 64 {
			t.Fatalf("unexpected histogram payload %q/%v", req.GetName(), req.GetValue())
		}
	})
}

func TestHostFailureIgnored(t *testing.T) {
	t.Parallel()

	m := hostmock.New(hostmock.Config{Fail: errors.New("host failure should not panic")})
	c, _ := New(Config{HostCall: m.HostCall})

	counter, _ := c.NewCounter("sqlmap_puts")
	counter.Inc()

	if n := len(m.Calls()); n != 1 {
		t.Fatalf("expected 1 attempted call, got %d", n)
	}
}

func TestDisabledIsSilent(t *testing.T) {
	t.Parallel()

	m := hostmock.New(hostmock.Config{})
	c, _ := New(Config{Disabled: true, HostCall: m.HostCall})

	counter, _ := c.NewCounter("a")
	gauge, _ := c.NewGauge("b")
	histogram, _ := c.NewHistogram("c")

	counter.Inc()
	gauge.Inc()
	gauge.Dec()
	histogram.Observe(1)

	if n := len(m.Calls()); n != 0 {
		t.Fatalf("expected no host calls, got %d", n)
	}
}
