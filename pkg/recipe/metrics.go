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

package recipe

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	registrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "millwork_recipe_registrations_total",
			Help: "Total number of recipe registration attempts",
		},
		[]string{"result"}, // registered or rejected
	)

	resolutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "millwork_recipe_resolutions_total",
			Help: "Total number of recipe lookups by input",
		},
		[]string{"result"}, // hit or miss
	)

	exportsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "millwork_recipe_exports_total",
			Help: "Total number of recipes offered to an external registry",
		},
		[]string{"result"}, // exported, skipped or failed
	)

	catalogLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "millwork_recipe_catalog_load_duration_seconds",
			Help:    "Time taken to load a recipe catalog",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
	)
)
