// Copyright (c) 2025, NVIDIA CORPORATION.  All rights reserved.
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

package machine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ticksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "millwork_machine_ticks_total",
			Help: "Total number of machine ticks by resulting state",
		},
		[]string{"state"},
	)

	completionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "millwork_machine_completions_total",
			Help: "Total number of committed batches",
		},
		[]string{"sink"}, // true when the input was destroyed by the sink recipe
	)

	chargeWithdrawn = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "millwork_machine_charge_withdrawn_total",
			Help: "Total charge spent on processing steps",
		},
	)

	tickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "millwork_machine_tick_duration_seconds",
			Help:    "Time taken by a single machine tick",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005},
		},
	)
)
