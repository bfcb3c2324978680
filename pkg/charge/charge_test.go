package charge

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPoolTopUp(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		provider Provider
		want     float64
		balance  float64
	}{
		{"unlimited fills to capacity", 0, Unlimited{}, 8000, 8000},
		{"bounded by free space", 7900, Unlimited{}, 100, 8000},
		{"per tick offer", 0, PerTick(160), 160, 160},
		{"offline is zero", 100, Offline{}, 0, 100},
		{"nil provider is zero", 100, nil, 0, 100},
		{"full pool pulls nothing", 8000, PerTick(500), 0, 8000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPool(8000)
			p.Restore(tt.start)
			got := p.TopUp(tt.provider)
			assert.InDelta(t, tt.want, got, 1e-9)
			assert.InDelta(t, tt.balance, p.Balance(), 1e-9)
		})
	}
}

func TestPoolWithdraw(t *testing.T) {
	p := NewPool(8000)
	p.Offer(320)

	assert.True(t, p.Withdraw(160))
	assert.True(t, p.Withdraw(160))
	assert.False(t, p.Withdraw(160))
	assert.InDelta(t, 0, p.Balance(), 1e-9)
	assert.False(t, p.Withdraw(-1))
}

func TestPoolRejectsNonFinite(t *testing.T) {
	p := NewPool(8000)
	p.Offer(500)

	assert.False(t, p.CanAfford(math.NaN()))
	assert.False(t, p.Withdraw(math.NaN()))
	assert.False(t, p.Withdraw(math.Inf(1)))
	assert.InDelta(t, 500, p.Balance(), 1e-9)

	for _, c := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		q := NewPool(c)
		assert.Zero(t, q.Capacity())
		assert.Zero(t, q.Offer(10))
	}
}

func TestPoolBounds(t *testing.T) {
	p := NewPool(100)

	assert.InDelta(t, 100, p.Offer(250), 1e-9)
	assert.InDelta(t, 0, p.Offer(1), 1e-9)
	assert.InDelta(t, 0, p.Offer(-5), 1e-9)

	p.Restore(-3)
	assert.InDelta(t, 0, p.Balance(), 1e-9)
	p.Restore(1e9)
	assert.InDelta(t, 100, p.Balance(), 1e-9)
}

// a full buffer pays for exactly 50 steps at the default cost
func TestPoolFullCycle(t *testing.T) {
	p := NewPool(8000)
	p.TopUp(Unlimited{})

	steps := 0
	for p.Withdraw(160) {
		steps++
	}
	assert.Equal(t, 50, steps)
}

func TestGrid(t *testing.T) {
	g := NewGrid(1000)
	assert.InDelta(t, 1000, g.Generate(1500), 1e-9)

	got, err := g.Draw(300)
	assert.NoError(t, err)
	assert.InDelta(t, 300, got, 1e-9)
	assert.InDelta(t, 700, g.Stored(), 1e-9)

	g.SetOnline(false)
	got, err = g.Draw(10)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Zero(t, got)

	g.SetOnline(true)
	got, _ = g.Draw(5000)
	assert.InDelta(t, 700, got, 1e-9)
}

func TestGridConcurrentDraws(t *testing.T) {
	g := NewGrid(10_000)
	g.Generate(10_000)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		total float64
	)
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, _ := g.Draw(300)
			mu.Lock()
			total += got
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.InDelta(t, 10_000, total, 1e-9)
	assert.InDelta(t, 0, g.Stored(), 1e-9)
}
