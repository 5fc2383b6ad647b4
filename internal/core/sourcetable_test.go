package core

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sliink/hopmon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func TestNewSourceTable(t *testing.T) {
	t.Run("Uses the given threshold", func(t *testing.T) {
		table := NewSourceTable(time.Minute)
		assert.Equal(t, time.Minute, table.Threshold())
		assert.Equal(t, "source_table", table.ID())
	})

	t.Run("Non-positive threshold selects the default", func(t *testing.T) {
		assert.Equal(t, DefaultStaleThreshold, NewSourceTable(0).Threshold())
		assert.Equal(t, 180*time.Second, NewSourceTable(-time.Second).Threshold())
	})

	t.Run("Starts empty", func(t *testing.T) {
		table := NewSourceTable(0)
		assert.Equal(t, 0, table.Len())
		assert.Empty(t, table.Snapshot(t0).Sources)
	})
}

func TestSourceTableUpdate(t *testing.T) {
	t.Run("Update then snapshot is live", func(t *testing.T) {
		table := NewSourceTable(0)
		table.Update("NodeA", 1, t0)

		snapshot := table.Snapshot(t0)
		require.Len(t, snapshot.Sources, 1)
		assert.Equal(t, model.SourceStatus{Source: "NodeA", Retries: 1, LastSeen: t0, Live: true}, snapshot.Sources[0])
		assert.Equal(t, t0, snapshot.TakenAt)
		assert.Equal(t, DefaultStaleThreshold, snapshot.Threshold)
	})

	t.Run("Overwrite does not accumulate", func(t *testing.T) {
		table := NewSourceTable(0)
		table.Update("NodeA", 7, t0)
		table.Update("NodeA", 2, t0.Add(time.Second))

		snapshot := table.Snapshot(t0.Add(time.Second))
		require.Len(t, snapshot.Sources, 1)
		assert.Equal(t, 2, snapshot.Sources[0].Retries)
		assert.Equal(t, t0.Add(time.Second), snapshot.Sources[0].LastSeen)
		assert.Equal(t, 1, table.Len())
	})

	t.Run("Snapshot keeps first-seen order", func(t *testing.T) {
		table := NewSourceTable(0)
		table.Update("NodeC", 0, t0)
		table.Update("NodeA", 0, t0)
		table.Update("NodeB", 0, t0)
		table.Update("NodeC", 5, t0.Add(time.Second))

		var order []string
		for _, s := range table.Snapshot(t0).Sources {
			order = append(order, s.Source)
		}
		assert.Equal(t, []string{"NodeC", "NodeA", "NodeB"}, order)
	})

	t.Run("Snapshots are copies", func(t *testing.T) {
		table := NewSourceTable(0)
		table.Update("NodeA", 1, t0)

		snapshot := table.Snapshot(t0)
		table.Update("NodeA", 9, t0)
		assert.Equal(t, 1, snapshot.Sources[0].Retries)
	})
}

func TestSourceTableStaleness(t *testing.T) {
	t.Run("Boundary is inclusive", func(t *testing.T) {
		table := NewSourceTable(0)
		table.Update("NodeA", 1, t0)

		assert.True(t, table.Snapshot(t0.Add(180*time.Second)).Sources[0].Live)
		assert.False(t, table.Snapshot(t0.Add(180*time.Second+time.Nanosecond)).Sources[0].Live)
	})

	t.Run("Source goes offline and comes back", func(t *testing.T) {
		table := NewSourceTable(0)
		table.Update("NodeA", 1, t0)

		status, ok := table.Snapshot(t0.Add(181 * time.Second)).Lookup("NodeA")
		require.True(t, ok)
		assert.False(t, status.Live)
		assert.Equal(t, 1, status.Retries)

		table.Update("NodeA", 3, t0.Add(200*time.Second))
		status, _ = table.Snapshot(t0.Add(200 * time.Second)).Lookup("NodeA")
		assert.True(t, status.Live)
		assert.Equal(t, 3, status.Retries)
	})

	t.Run("Offline sources are kept", func(t *testing.T) {
		table := NewSourceTable(0)
		table.Update("NodeA", 1, t0)

		snapshot := table.Snapshot(t0.Add(24 * time.Hour))
		assert.Len(t, snapshot.Sources, 1)
		assert.Equal(t, 1, snapshot.OfflineCount())
	})

	t.Run("SetThreshold applies to later snapshots", func(t *testing.T) {
		table := NewSourceTable(0)
		table.Update("NodeA", 1, t0)

		table.SetThreshold(time.Minute)
		assert.False(t, table.Snapshot(t0.Add(61*time.Second)).Sources[0].Live)

		table.SetThreshold(0)
		assert.Equal(t, time.Minute, table.Threshold())
	})
}

func TestSourceTableConcurrency(t *testing.T) {
	table := NewSourceTable(0)

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(2)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				table.Update(fmt.Sprintf("Node%d", i%10), w, t0)
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				_ = table.Snapshot(t0)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, table.Len())
}
