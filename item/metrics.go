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

package item

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type itemMetrics struct {
	credited *prometheus.CounterVec
	failures prometheus.Counter
}

func (m *itemMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.credited = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metavault_items_credited_total",
			Help: "items credited by category",
		},
		[]string{"category"},
	)
	m.failures = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "metavault_item_credit_failures_total",
			Help: "rejected item credit batches",
		},
	)
}

func (m *itemMetrics) observe(ids, amounts []uint64, err error) {
	if err != nil {
		m.failures.Inc()
		return
	}
	for idx, id := range ids {
		m.credited.WithLabelValues(strconv.FormatUint(id, 10)).
			Add(float64(amounts[idx]))
	}
}
