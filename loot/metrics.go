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

package loot

import (
	"errors"

	"github.com/blinklabs-io/metavault/access"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type lootMetrics struct {
	operations   *prometheus.CounterVec
	cratesOpened prometheus.Counter
	unitsDrawn   *prometheus.CounterVec
}

func (m *lootMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.operations = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metavault_loot_operations_total",
			Help: "loot distributor operations by kind and result",
		},
		[]string{"op", "result"},
	)
	m.cratesOpened = promautoFactory.NewCounter(
		prometheus.CounterOpts{
			Name: "metavault_loot_crates_opened_total",
			Help: "crates opened",
		},
	)
	m.unitsDrawn = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "metavault_loot_units_drawn_total",
			Help: "crate units drawn by category name",
		},
		[]string{"category"},
	)
}

func (m *lootMetrics) observe(op string, err error) {
	m.operations.WithLabelValues(op, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, access.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, access.ErrPaused):
		return "paused"
	case errors.Is(err, ErrInvalidPayment):
		return "payment"
	case errors.Is(err, ErrSupplyExhausted):
		return "exhausted"
	case errors.Is(err, ErrInvalidCount),
		errors.Is(err, ErrLengthMismatch),
		errors.Is(err, ErrUnknownCategory),
		errors.Is(err, ErrZeroAddress):
		return "invalid"
	default:
		return "error"
	}
}
