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

// Package server implements the millwork HTTP API.
//
// The server core is independent of the simulation: it provides health and
// readiness probes, a Prometheus /metrics endpoint and a middleware chain
// applied to every configured handler:
//
//   - metrics (RED, labelled by route pattern)
//   - API version negotiation (Accept: application/vnd.millwork.v1+json)
//   - request IDs (X-Request-Id, generated when absent or malformed)
//   - panic recovery
//   - token bucket rate limiting (golang.org/x/time/rate)
//   - debug request logging
//
// API supplies the simulation routes:
//
//	GET  /v1/recipes[?satisfiable=true][&group=...]
//	GET  /v1/recipes/resolve?item=minecraft:cobblestone&count=1
//	GET  /v1/recipes/{id}
//	GET  /v1/machines
//	GET  /v1/machines/{id}
//	POST /v1/machines/{id}/insert   {"slot": 0, "item": "minecraft:cobblestone", "count": 8}
//	POST /v1/machines/{id}/extract  {"slot": 9, "count": 1}
//	GET  /v1/grid
//
// Wiring:
//
//	api := &server.API{World: w, Registry: reg}
//	s := server.New(server.WithName("millworkd"), server.WithHandler(api.Handlers()))
//	return s.Start(ctx)
//
// Errors are JSON ErrorResponse bodies; structured errors from pkg/errors
// map onto HTTP status codes through HTTPStatus.
//
// PORT, SHUTDOWN_TIMEOUT_SECONDS and RATE_LIMIT override the defaults.
package server
