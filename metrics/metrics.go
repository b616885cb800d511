// Copyright 2018 The klaytn Authors
// This file is part of the klaytn library.
//
// The klaytn library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The klaytn library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the klaytn library. If not, see <http://www.gnu.org/licenses/>.

// Package metrics bridges the per-package rcrowley/go-metrics
// registries (eth/evm, eth/executor, ...) onto a Prometheus exporter,
// mirroring the shape of the teacher's cmd/kcn/main.go "Enabling
// Prometheus Exporter" startup block.
package metrics

import (
	"net"
	"net/http"
	"runtime"
	"time"

	gometrics "github.com/rcrowley/go-metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/klaytn/evmexec/log"
)

var logger = log.NewModuleLogger(log.Common)

// Registry is the process-wide go-metrics registry every package's
// counters/gauges are registered against via
// gometrics.NewRegisteredCounter(name, nil) (nil selects this default).
var Registry = gometrics.DefaultRegistry

// bridge adapts Registry's counters/gauges/meters into Prometheus
// Collector.Collect, so client_golang's exporter can serve them
// without each call site registering twice.
type bridge struct{}

func (bridge) Describe(chan<- *prometheus.Desc) {
	// Intentionally unchecked: Registry's member set changes at
	// runtime as new pools/coordinators register metrics, so no
	// descriptors are sent here, which makes Prometheus treat this
	// collector as unchecked rather than a fixed Desc set.
}

func (bridge) Collect(ch chan<- prometheus.Metric) {
	Registry.Each(func(name string, v interface{}) {
		desc := prometheus.NewDesc(sanitize(name), name, nil, nil)
		switch m := v.(type) {
		case gometrics.Counter:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(m.Count()))
		case gometrics.Gauge:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, float64(m.Value()))
		case gometrics.Meter:
			ch <- prometheus.MustNewConstMetric(desc, prometheus.CounterValue, float64(m.Count()))
		}
	})
}

func sanitize(name string) string {
	out := make([]byte, len(name))
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') {
			out[i] = c
		} else {
			out[i] = '_'
		}
	}
	return "evmexec_" + string(out)
}

// ServePrometheus registers the bridge collector and starts the
// /metrics HTTP endpoint in the background; it returns once the
// listener is confirmed bound, matching the teacher's
// "go pClient.UpdatePrometheusMetrics(); go http.ListenAndServe(...)"
// startup shape.
func ServePrometheus(addr string) error {
	if err := prometheus.Register(bridge{}); err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	logger.Info("prometheus exporter listening", "addr", addr)
	go func() {
		if err := http.Serve(ln, mux); err != nil {
			logger.Error("prometheus exporter stopped", "err", err)
		}
	}()
	return nil
}

// CollectProcessMetrics periodically refreshes runtime gauges
// (goroutine count), matching the teacher's
// "go metrics.CollectProcessMetrics(3 * time.Second)" call.
func CollectProcessMetrics(refresh time.Duration) {
	goroutines := gometrics.NewRegisteredGauge("system/goroutines", Registry)
	for range time.Tick(refresh) {
		goroutines.Update(int64(runtime.NumGoroutine()))
	}
}
