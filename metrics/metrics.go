package metrics

import (
	"errors"
	"fmt"
	"regexp"

	proto "github.com/tarmac-project/protobuf-go/sdk/metrics"
	"github.com/tarmac-project/sqlmap"
	wapc "github.com/wapc/wapc-guest-tinygo"
)

const (
	capabilityName = "metrics"
	fnCounter      = "counter"
	fnGauge        = "gauge"
	fnHistogram    = "histogram"
	actionInc      = "inc"
	actionDec      = "dec"
)

var (
	// ErrInvalidMetricName indicates a metric name that does not match the supported format.
	ErrInvalidMetricName = errors.New("metric name is invalid")

	validName = regexp.MustCompile(`^[a-zA-Z0-9_:]+$`)
)

// HostCall defines the waPC host function signature used by metrics operations.
type HostCall func(string, string, string, []byte) ([]byte, error)

// Config controls how a Client interacts with the host runtime.
type Config struct {
	// SDKConfig provides the runtime namespace used for host calls.
	SDKConfig sqlmap.RuntimeConfig

	// HostCall overrides the waPC host function used for metrics operations.
	HostCall HostCall

	// Disabled turns every handle into a no-op. Names are still validated.
	Disabled bool
}

type vtMessage interface {
	MarshalVT() ([]byte, error)
}

// emitter ships one metric update. A nil hostCall drops it.
type emitter struct {
	namespace string
	hostCall  HostCall
}

func (e *emitter) send(fn string, msg vtMessage) {
	if e.hostCall == nil {
		return
	}
	payload, err := msg.MarshalVT()
	if err != nil {
		return
	}
	_, _ = e.hostCall(e.namespace, capabilityName, fn, payload)
}

// Client creates metric handles bound to the host.
type Client struct {
	e *emitter
}

// New creates a metrics client with namespace defaults and optional host-call override.
func New(cfg Config) (*Client, error) {
	e := &emitter{namespace: cfg.SDKConfig.WithDefaults().Namespace}
	switch {
	case cfg.Disabled:
	case cfg.HostCall != nil:
		e.hostCall = cfg.HostCall
	default:
		e.hostCall = wapc.HostCall
	}
	return &Client{e: e}, nil
}

// Enabled reports whether handles from c reach the host.
func (c *Client) Enabled() bool { return c.e.hostCall != nil }

func checkName(name string) error {
	if !validName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidMetricName, name)
	}
	return nil
}

// Counter is a monotonically increasing metric.
type Counter struct {
	name string
	e    *emitter
}

// NewCounter creates a named counter metric handle.
func (c *Client) NewCounter(name string) (*Counter, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return &Counter{name: name, e: c.e}, nil
}

// Inc increments the counter by one.
func (m *Counter) Inc() {
	m.e.send(fnCounter, &proto.MetricsCounter{Name: m.name})
}

// Gauge is a metric that moves up and down by one.
type Gauge struct {
	name string
	e    *emitter
}

// NewGauge creates a named gauge metric handle.
func (c *Client) NewGauge(name string) (*Gauge, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return &Gauge{name: name, e: c.e}, nil
}

// Inc increments the gauge by one.
func (m *Gauge) Inc() {
	m.e.send(fnGauge, &proto.MetricsGauge{Name: m.name, Action: actionInc})
}

// Dec decrements the gauge by one.
func (m *Gauge) Dec() {
	m.e.send(fnGauge, &proto.MetricsGauge{Name: m.name, Action: actionDec})
}

// Histogram records a distribution of observed values.
type Histogram struct {
	name string
	e    *emitter
}

// NewHistogram creates a named histogram metric handle.
func (c *Client) NewHistogram(name string) (*Histogram, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return &Histogram{name: name, e: c.e}, nil
}

// Observe records a value for the histogram.
func (m *Histogram) Observe(value float64) {
	m.e.send(fnHistogram, &proto.MetricsHistogram{Name: m.name, Value: value})
}
