// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const badgerMetricNamePrefix = "database_blob_"

type blobMetrics struct {
	lsmSize  prometheus.Gauge
	vlogSize prometheus.Gauge
	gcRuns   prometheus.Counter
}

func (d *BlobStoreBadger) registerBlobMetrics() {
	promautoFactory := promauto.With(d.promRegistry)
	d.metrics = &blobMetrics{
		lsmSize: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: badgerMetricNamePrefix + "lsm_size_bytes",
			Help: "size of the badger LSM tree",
		}),
		vlogSize: promautoFactory.NewGauge(prometheus.GaugeOpts{
			Name: badgerMetricNamePrefix + "vlog_size_bytes",
			Help: "size of the badger value log",
		}),
		gcRuns: promautoFactory.NewCounter(prometheus.CounterOpts{
			Name: badgerMetricNamePrefix + "gc_runs_total",
			Help: "value log GC passes that rewrote a file",
		}),
	}
}

func (d *BlobStoreBadger) updateSizeMetrics() {
	if d.metrics == nil {
		return
	}
	lsm, vlog := d.DB().Size()
	d.metrics.lsmSize.Set(float64(lsm))
	d.metrics.vlogSize.Set(float64(vlog))
}
