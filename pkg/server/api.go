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

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/machine"
	"github.com/millwork-dev/millwork/pkg/recipe"
	"github.com/millwork-dev/millwork/pkg/serializer"
	"github.com/millwork-dev/millwork/pkg/world"
)

// maxBodyBytes caps slot operation request bodies.
const maxBodyBytes = 64 << 10

// API serves recipes and machines of a running world.
type API struct {
	World    *world.World
	Registry *recipe.Registry
}

// Handlers returns the API routes keyed by ServeMux pattern.
func (a *API) Handlers() map[string]http.HandlerFunc {
	return map[string]http.HandlerFunc{
		"GET /v1/recipes":                a.handleRecipes,
		"GET /v1/recipes/resolve":        a.handleResolve,
		"GET /v1/recipes/{id}":           a.handleRecipe,
		"GET /v1/machines":               a.handleMachines,
		"GET /v1/machines/{id}":          a.handleMachine,
		"POST /v1/machines/{id}/insert":  a.handleInsert,
		"POST /v1/machines/{id}/extract": a.handleExtract,
		"GET /v1/grid":                   a.handleGrid,
	}
}

// RecipeList is the GET /v1/recipes response.
type RecipeList struct {
	Count   int              `json:"count"`
	Recipes []recipe.Summary `json:"recipes"`
}

func (a *API) handleRecipes(w http.ResponseWriter, r *http.Request) {
	recipes := a.Registry.Recipes()
	if v := r.URL.Query().Get("satisfiable"); v != "" {
		ok, err := strconv.ParseBool(v)
		if err != nil {
			WriteError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest,
				"Invalid satisfiable flag", false, map[string]any{"satisfiable": v})
			return
		}
		if ok {
			recipes = a.Registry.Satisfiable()
		}
	}
	group := r.URL.Query().Get("group")

	resp := RecipeList{Recipes: make([]recipe.Summary, 0, len(recipes))}
	for _, rec := range recipes {
		if group != "" && rec.Group() != group {
			continue
		}
		resp.Recipes = append(resp.Recipes, rec.Summarize())
	}
	resp.Count = len(resp.Recipes)
	serializer.RespondJSON(w, http.StatusOK, resp)
}

func (a *API) handleRecipe(w http.ResponseWriter, r *http.Request) {
	id := recipe.ID(r.PathValue("id"))
	rec, ok := a.Registry.Lookup(id)
	if !ok {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Recipe not found", false,
			map[string]any{"recipe": id})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, rec.Summarize())
}

// ResolveResponse is the GET /v1/recipes/resolve response.
type ResolveResponse struct {
	Input    item.Stack     `json:"input"`
	Recipe   recipe.Summary `json:"recipe"`
	Duration int            `json:"duration"`
}

func (a *API) handleResolve(w http.ResponseWriter, r *http.Request) {
	stack, err := stackFromQuery(r)
	if err != nil {
		WriteErrorFromErr(w, r, err, "Invalid resolve query")
		return
	}

	rec, ok := a.Registry.Resolve(stack)
	if !ok {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "No recipe accepts the input", false,
			map[string]any{"input": stack.String()})
		return
	}
	serializer.RespondJSON(w, http.StatusOK, ResolveResponse{
		Input:    stack,
		Recipe:   rec.Summarize(),
		Duration: rec.Duration(stack),
	})
}

// stackFromQuery reads ?item=ns:path&count=n.
func stackFromQuery(r *http.Request) (item.Stack, error) {
	q := r.URL.Query()
	raw := strings.TrimSpace(q.Get("item"))
	if raw == "" {
		return item.Empty, errors.New(errors.ErrCodeInvalidRequest, "item query parameter is required")
	}
	id, err := item.ParseID(raw)
	if err != nil {
		return item.Empty, errors.Wrap(errors.ErrCodeInvalidRequest, "invalid item id", err)
	}
	count := 1
	if c := q.Get("count"); c != "" {
		count, err = strconv.Atoi(c)
		if err != nil || count <= 0 {
			return item.Empty, errors.NewWithContext(errors.ErrCodeInvalidRequest,
				"count must be a positive integer", map[string]any{"count": c})
		}
	}
	return item.NewStack(id, count), nil
}

// MachineList is the GET /v1/machines response.
type MachineList struct {
	Count    int              `json:"count"`
	Machines []machine.Status `json:"machines"`
}

func (a *API) handleMachines(w http.ResponseWriter, r *http.Request) {
	ms := a.World.Machines()
	resp := MachineList{Count: len(ms), Machines: make([]machine.Status, 0, len(ms))}
	for _, m := range ms {
		resp.Machines = append(resp.Machines, m.Status())
	}
	serializer.RespondJSON(w, http.StatusOK, resp)
}

func (a *API) machine(w http.ResponseWriter, r *http.Request) (*machine.Machine, bool) {
	id := r.PathValue("id")
	m, ok := a.World.Machine(id)
	if !ok {
		WriteError(w, r, http.StatusNotFound, ErrCodeNotFound, "Machine not found", false,
			map[string]any{"machine": id})
	}
	return m, ok
}

func (a *API) handleMachine(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}
	serializer.RespondJSON(w, http.StatusOK, m.Status())
}

// InsertRequest is the POST /v1/machines/{id}/insert body. A nil Slot
// spreads the stack over the whole input range.
type InsertRequest struct {
	Slot  *int   `json:"slot,omitempty"`
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// SlotResponse reports the outcome of a slot operation.
type SlotResponse struct {
	Accepted  int            `json:"accepted,omitempty"`
	Remainder item.Stack     `json:"remainder"`
	Extracted item.Stack     `json:"extracted"`
	Status    machine.Status `json:"status"`
}

func (a *API) handleInsert(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}

	var req InsertRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteErrorFromErr(w, r, err, "Invalid insert request")
		return
	}
	id, err := item.ParseID(req.Item)
	if err != nil || req.Count <= 0 {
		WriteError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest,
			"Insert needs a valid item and a positive count", false,
			map[string]any{"item": req.Item, "count": req.Count})
		return
	}
	stack := item.NewStack(id, req.Count)

	slot := 0
	if req.Slot != nil {
		slot = *req.Slot
	}
	if !m.CanInsert(slot, stack) {
		WriteError(w, r, http.StatusUnprocessableEntity, ErrCodeInvalidRequest,
			"Machine does not accept the item in this slot", false,
			map[string]any{"machine": m.ID(), "slot": slot, "item": stack.String()})
		return
	}

	var rest item.Stack
	if req.Slot != nil {
		rest = m.Insert(slot, stack)
	} else {
		rest = m.InsertAny(stack)
	}
	serializer.RespondJSON(w, http.StatusOK, SlotResponse{
		Accepted:  stack.Count - rest.Count,
		Remainder: rest,
		Status:    m.Status(),
	})
}

// ExtractRequest is the POST /v1/machines/{id}/extract body.
type ExtractRequest struct {
	Slot     int  `json:"slot"`
	Count    int  `json:"count"`
	Simulate bool `json:"simulate,omitempty"`
}

func (a *API) handleExtract(w http.ResponseWriter, r *http.Request) {
	m, ok := a.machine(w, r)
	if !ok {
		return
	}

	var req ExtractRequest
	if err := decodeBody(w, r, &req); err != nil {
		WriteErrorFromErr(w, r, err, "Invalid extract request")
		return
	}
	if req.Count <= 0 {
		WriteError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest,
			"count must be positive", false, map[string]any{"count": req.Count})
		return
	}

	out := m.Extract(req.Slot, req.Count, req.Simulate)
	serializer.RespondJSON(w, http.StatusOK, SlotResponse{
		Extracted: out,
		Status:    m.Status(),
	})
}

// GridResponse is the GET /v1/grid response.
type GridResponse struct {
	Stored   float64 `json:"stored"`
	Ticks    uint64  `json:"ticks"`
	Machines int     `json:"machines"`
}

func (a *API) handleGrid(w http.ResponseWriter, r *http.Request) {
	serializer.RespondJSON(w, http.StatusOK, GridResponse{
		Stored:   a.World.Grid().Stored(),
		Ticks:    a.World.Ticks(),
		Machines: len(a.World.Machines()),
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidRequest, fmt.Sprintf("malformed %T body", v), err)
	}
	return nil
}
