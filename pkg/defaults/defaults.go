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

package defaults

import "time"

// Machine layout and budget defaults.
const (
	// SlotsPerSide is the number of input slots; the output range has the same size.
	SlotsPerSide = 9

	// MaxStackSize caps the count a single inventory slot may hold.
	MaxStackSize = 64

	// ChargeCapacity is the maximum charge a machine can buffer.
	ChargeCapacity = 8_000.0

	// StepCost is the charge withdrawn for one step of progress.
	// A full buffer pays for ChargeCapacity/StepCost steps.
	StepCost = 160.0

	// SinkDuration is the step count of the built-in sink recipe.
	SinkDuration = 100

	// RecipeDuration is the step count assigned by the builder when none is given.
	RecipeDuration = 100
)

// Recipe naming defaults.
const (
	// Namespace prefixes recipe IDs derived from outputs.
	Namespace = "millwork"

	// RecipeGroup is the group recipes are exported under when none is given.
	RecipeGroup = "millwork:processing"

	// SinkRecipeID names the built-in sink recipe.
	SinkRecipeID = "millwork:destruction"
)

// World loop defaults.
const (
	// TickInterval is the fixed timestep of the world loop (20 ticks/s).
	TickInterval = 50 * time.Millisecond

	// TickParallelism bounds how many machines are ticked concurrently.
	TickParallelism = 8

	// GridSupplyPerTick is the charge generated into the shared grid each tick.
	GridSupplyPerTick = 1_000.0

	// GridCapacity bounds the charge the shared grid can hold.
	GridCapacity = 100_000.0

	// SnapshotInterval is how often the daemon persists machine snapshots.
	SnapshotInterval = 30 * time.Second
)

// Server timeouts for HTTP server configuration.
const (
	// ServerReadTimeout is the maximum duration for reading request headers.
	ServerReadTimeout = 10 * time.Second

	// ServerReadHeaderTimeout prevents slow header attacks.
	ServerReadHeaderTimeout = 5 * time.Second

	// ServerWriteTimeout is the maximum duration for writing a response.
	ServerWriteTimeout = 30 * time.Second

	// ServerIdleTimeout is the maximum duration to wait for the next request.
	ServerIdleTimeout = 120 * time.Second

	// ServerShutdownTimeout is the maximum duration for graceful shutdown.
	ServerShutdownTimeout = 30 * time.Second
)

// HTTP client timeouts for fetching remote catalogs.
const (
	// HTTPClientTimeout bounds a whole catalog download.
	HTTPClientTimeout = 30 * time.Second

	// HTTPConnectTimeout bounds establishing the TCP connection.
	HTTPConnectTimeout = 5 * time.Second

	// HTTPTLSHandshakeTimeout bounds the TLS handshake.
	HTTPTLSHandshakeTimeout = 5 * time.Second

	// HTTPResponseHeaderTimeout bounds waiting for response headers.
	HTTPResponseHeaderTimeout = 10 * time.Second

	// HTTPKeepAlive is the keep-alive period for client connections.
	HTTPKeepAlive = 30 * time.Second
)

// Kubernetes and registry timeouts.
const (
	// ConfigMapWriteTimeout is the timeout for writing snapshots to ConfigMaps.
	ConfigMapWriteTimeout = 30 * time.Second

	// ConfigMapReadTimeout is the timeout for reading snapshots from ConfigMaps.
	ConfigMapReadTimeout = 15 * time.Second

	// OCIPushTimeout is the timeout for publishing a catalog artifact.
	OCIPushTimeout = 2 * time.Minute
)
