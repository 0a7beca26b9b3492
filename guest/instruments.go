package guest

import "github.com/tarmac-project/sqlmap/metrics"

// Metric names reported to the host.
const (
	MetricMapsCreated        = "sqlmap_maps_created"
	MetricMapsLive           = "sqlmap_maps_live"
	MetricPuts               = "sqlmap_puts"
	MetricAllocationFailures = "sqlmap_allocation_failures"
	MetricInvalidHandles     = "sqlmap_invalid_handles"
	MetricResizeCapacity     = "sqlmap_resize_capacity"
)

type instruments struct {
	created        *metrics.Counter
	live           *metrics.Gauge
	puts           *metrics.Counter
	allocFailures  *metrics.Counter
	invalidHandles *metrics.Counter
	resizes        *metrics.Histogram
}

func newInstruments(cfg metrics.Config) (*instruments, error) {
	c, err := metrics.New(cfg)
	if err != nil {
		return nil, err
	}

	var inst instruments
	counters := []struct {
		name string
		dst  **metrics.Counter
	}{
		{MetricMapsCreated, &inst.created},
		{MetricPuts, &inst.puts},
		{MetricAllocationFailures, &inst.allocFailures},
		{MetricInvalidHandles, &inst.invalidHandles},
	}
	for _, ctr := range counters {
		if *ctr.dst, err = c.NewCounter(ctr.name); err != nil {
			return nil, err
		}
	}

	if inst.live, err = c.NewGauge(MetricMapsLive); err != nil {
		return nil, err
	}
	if inst.resizes, err = c.NewHistogram(MetricResizeCapacity); err != nil {
		return nil, err
	}
	return &inst, nil
}
