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

package world

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	worldStepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "millwork_world_step_duration_seconds",
			Help:    "Time taken to tick every machine once",
			Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
	)

	worldMachines = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "millwork_world_machines",
			Help: "Number of machines by state after the last step",
		},
		[]string{"state"},
	)

	worldGridStored = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "millwork_world_grid_stored",
			Help: "Charge held by the shared grid after the last step",
		},
	)

	worldOverruns = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "millwork_world_overruns_total",
			Help: "Number of steps that took longer than the tick interval",
		},
	)
)
