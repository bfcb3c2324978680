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
	"log/slog"
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/millwork-dev/millwork/pkg/charge"
	"github.com/millwork-dev/millwork/pkg/defaults"
	"github.com/millwork-dev/millwork/pkg/errors"
	"github.com/millwork-dev/millwork/pkg/inventory"
	"github.com/millwork-dev/millwork/pkg/item"
	"github.com/millwork-dev/millwork/pkg/recipe"
)

// Event is delivered to the Notifier when a batch commits.
type Event struct {
	Machine  string
	Recipe   recipe.ID
	Sink     bool
	Outputs  []item.Stack
	Consumed item.Stack
	// Pitch is the randomized playback pitch for the completion cue.
	Pitch float64
}

// Notifier receives completion events. It is called after the tick has
// released the machine, so it may query the machine.
type Notifier interface {
	Completed(e Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(e Event)

// Completed implements Notifier.
func (f NotifierFunc) Completed(e Event) {
	f(e)
}

// Option configures a Machine.
type Option func(*Machine)

// WithConfig replaces the default configuration.
func WithConfig(cfg Config) Option {
	return func(m *Machine) {
		m.cfg = cfg
	}
}

// WithPolicy replaces the standard processing policy.
func WithPolicy(p Policy) Option {
	return func(m *Machine) {
		m.policy = p
	}
}

// WithSeed makes output polling and cue pitches reproducible.
func WithSeed(seed uint64) Option {
	return func(m *Machine) {
		m.rng = rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	}
}

// WithNotifier sets the completion notifier.
func WithNotifier(n Notifier) Option {
	return func(m *Machine) {
		m.notifier = n
	}
}

// WithID sets the machine ID instead of a generated one.
func WithID(id string) Option {
	return func(m *Machine) {
		m.id = id
		m.named = id != ""
	}
}

// WithProvider connects the machine to a charge network.
func WithProvider(p charge.Provider) Option {
	return func(m *Machine) {
		m.provider = p
	}
}

// Machine is a single processing machine. Slots [0, N) are input and
// [N, 2N) are output. All methods are safe for concurrent use; Tick runs the
// whole per-tick algorithm under the machine lock.
type Machine struct {
	mu sync.Mutex

	id       string
	named    bool
	cfg      Config
	reg      *recipe.Registry
	policy   Policy
	provider charge.Provider
	notifier Notifier
	rng      *rand.Rand

	pool   *charge.Pool
	slots  *inventory.Slots
	input  *inventory.Range
	output *inventory.Range

	active      *recipe.Recipe
	activeSlot  int
	lastRecipe  recipe.ID
	progress    int
	duration    int
	state       State
	completions uint64
}

// New returns an idle machine resolving recipes from reg.
func New(reg *recipe.Registry, opts ...Option) (*Machine, error) {
	if reg == nil {
		return nil, errors.New(errors.ErrCodeInvalidRequest, "machine requires a recipe registry")
	}
	m := &Machine{
		cfg:   DefaultConfig(),
		reg:   reg,
		state: StateIdle,
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.cfg.Validate(); err != nil {
		return nil, err
	}
	if m.id == "" {
		m.id = uuid.NewString()
	}
	if m.policy == nil {
		m.policy = NewProcessing(reg, m.cfg)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	n := m.cfg.Slots
	m.pool = charge.NewPool(m.cfg.Capacity)
	m.slots = inventory.NewSlots(2*n,
		inventory.WithLimit(m.cfg.StackLimit),
		inventory.WithChangeHook(m.markDirty))
	m.input = inventory.NewRange(m.slots, 0, n)
	m.output = inventory.NewRange(m.slots, n, n)
	return m, nil
}

// ID returns the machine identifier.
func (m *Machine) ID() string {
	return m.id
}

// Config returns the machine configuration.
func (m *Machine) Config() Config {
	return m.cfg
}

// Connect attaches the machine to a charge network.
func (m *Machine) Connect(p charge.Provider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.provider = p
}

// markDirty runs on every slot change. The caller already holds m.mu.
func (m *Machine) markDirty() {
	m.active = nil
}

// Tick advances the machine by one step and returns the resulting state.
func (m *Machine) Tick() State {
	start := time.Now()
	state, ev, notifier := m.advance()

	tickDuration.Observe(time.Since(start).Seconds())
	ticksTotal.WithLabelValues(string(state)).Inc()
	if ev != nil {
		completionsTotal.WithLabelValues(strconv.FormatBool(ev.Sink)).Inc()
		if notifier != nil {
			notifier.Completed(*ev)
		}
	}
	return state
}

func (m *Machine) advance() (State, *Event, Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ev := m.tick()
	return state, ev, m.notifier
}

func (m *Machine) tick() (State, *Event) {
	m.pool.TopUp(m.provider)

	// Input may have been changed since the recipe was resolved.
	if m.active != nil && !m.active.Matches(m.input.Stack(m.activeSlot)) {
		m.active = nil
	}
	if m.active == nil && !m.resolve() {
		return m.setState(StateIdle), nil
	}

	if m.progress < m.duration {
		before := m.pool.Balance()
		if !m.policy.Step(m.pool) {
			return m.setState(StateStalled), nil
		}
		chargeWithdrawn.Add(max(0, before-m.pool.Balance()))
		m.progress++
		if m.progress < m.duration {
			return m.setState(StateRunning), nil
		}
	}

	// Committing mutates the slots, which clears m.active.
	r := m.active
	res, ok := m.policy.Complete(Batch{
		Recipe: r,
		Slot:   m.activeSlot,
		Input:  m.input,
		Output: m.output,
		RNG:    m.rng,
	})
	if !ok {
		return m.setState(StateOutputBlocked), nil
	}

	ev := &Event{
		Machine:  m.id,
		Recipe:   r.ID(),
		Sink:     r.IsSink(),
		Outputs:  res.Outputs,
		Consumed: res.Consumed,
		Pitch:    0.7 + m.rng.Float64()*0.25,
	}
	m.progress = 0
	m.active = nil
	m.completions++
	slog.Debug("batch completed",
		"machine", m.id,
		"recipe", ev.Recipe,
		"outputs", len(ev.Outputs),
		"consumed", ev.Consumed.String())
	return m.setState(StateCompleted), ev
}

// resolve selects the first occupied input slot and its recipe, then caches
// the duration. Progress carries over when the same recipe is re-resolved and
// restarts when the recipe changes.
func (m *Machine) resolve() bool {
	slot, ok := inventory.FirstOccupied(m.input)
	if !ok {
		return false
	}
	stack := m.input.Stack(slot)
	r, ok := m.policy.Resolve(stack)
	if !ok || r == nil {
		return false
	}

	m.active, m.activeSlot = r, slot
	m.duration = max(1, m.durationOf(r, stack))
	if r.ID() != m.lastRecipe {
		if m.progress > 0 {
			slog.Debug("recipe changed, restarting batch",
				"machine", m.id, "from", m.lastRecipe, "to", r.ID(), "progress", m.progress)
		}
		m.progress = 0
		m.lastRecipe = r.ID()
	}
	m.progress = min(m.progress, m.duration)
	return true
}

// durationOf asks the policy for the step count. A panicking duration function
// falls back to the default duration instead of taking the machine down.
func (m *Machine) durationOf(r *recipe.Recipe, stack item.Stack) (steps int) {
	defer func() {
		if p := recover(); p != nil {
			steps = defaults.RecipeDuration
			if r.IsSink() {
				steps = m.cfg.SinkDuration
			}
			slog.Warn("duration function panicked, using default",
				"machine", m.id, "recipe", r.ID(), "input", stack.String(), "panic", p, "steps", steps)
		}
	}()
	return m.policy.Duration(r, stack)
}

func (m *Machine) setState(s State) State {
	if s != m.state {
		slog.Debug("machine state changed", "machine", m.id, "from", m.state, "to", s)
	}
	m.state = s
	return s
}

// CanInsert reports whether s may be inserted into slot. Only input slots
// accept items, and only items a registered recipe can process; the sink
// fallback does not count.
func (m *Machine) CanInsert(slot int, s item.Stack) bool {
	if slot < 0 || slot >= m.cfg.Slots || s.IsEmpty() {
		return false
	}
	r, ok := m.reg.Resolve(s)
	return ok && !r.IsSink()
}

// Insert merges s into the given input slot and returns what did not fit.
func (m *Machine) Insert(slot int, s item.Stack) item.Stack {
	if !m.CanInsert(slot, s) {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return inventory.Add(inventory.NewRange(m.input, slot, 1), s)
}

// InsertAny distributes s over the input range and returns what did not fit.
func (m *Machine) InsertAny(s item.Stack) item.Stack {
	if !m.CanInsert(0, s) {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return inventory.Add(m.input, s)
}

// Extract removes up to amount items from slot. Input slots never yield
// anything, whatever the amount requested.
func (m *Machine) Extract(slot, amount int, simulate bool) item.Stack {
	if slot < m.cfg.Slots || slot >= 2*m.cfg.Slots {
		return item.Empty
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return inventory.Extract(m.slots, slot, amount, simulate)
}

// Status is a point-in-time read model of a machine.
type Status struct {
	ID          string       `json:"id" yaml:"id"`
	State       State        `json:"state" yaml:"state"`
	Recipe      recipe.ID    `json:"recipe,omitempty" yaml:"recipe,omitempty"`
	Sink        bool         `json:"sink,omitempty" yaml:"sink,omitempty"`
	ActiveSlot  int          `json:"activeSlot" yaml:"activeSlot"`
	Progress    int          `json:"progress" yaml:"progress"`
	Duration    int          `json:"duration" yaml:"duration"`
	Charge      float64      `json:"charge" yaml:"charge"`
	Capacity    float64      `json:"capacity" yaml:"capacity"`
	Completions uint64       `json:"completions" yaml:"completions"`
	Input       []item.Stack `json:"input" yaml:"input"`
	Output      []item.Stack `json:"output" yaml:"output"`
}

// Status returns the current read model.
func (m *Machine) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	contents := m.slots.Contents()
	st := Status{
		ID:          m.id,
		State:       m.state,
		ActiveSlot:  -1,
		Progress:    m.progress,
		Duration:    m.duration,
		Charge:      m.pool.Balance(),
		Capacity:    m.pool.Capacity(),
		Completions: m.completions,
		Input:       contents[:m.cfg.Slots:m.cfg.Slots],
		Output:      contents[m.cfg.Slots:],
	}
	if m.active != nil {
		st.Recipe = m.active.ID()
		st.Sink = m.active.IsSink()
		st.ActiveSlot = m.activeSlot
	}
	return st
}

// State returns the state of the last tick.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Charge returns the buffered charge.
func (m *Machine) Charge() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pool.Balance()
}

// Progress returns the current step counter.
func (m *Machine) Progress() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.progress
}

// Stack returns the content of slot.
func (m *Machine) Stack(slot int) item.Stack {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots.Stack(slot)
}
