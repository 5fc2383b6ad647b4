package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/sliink/hopmon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() model.Snapshot {
	now := time.Date(2024, 3, 15, 10, 33, 0, 0, time.UTC)
	return model.Snapshot{
		TakenAt:   now,
		Threshold: 180 * time.Second,
		Sources: []model.SourceStatus{
			{Source: "NodeA", Retries: 4, LastSeen: now.Add(-10 * time.Second), Live: true},
			{Source: "NodeLongName", Retries: 2, LastSeen: now.Add(-200 * time.Second), Live: false},
			{Source: "NodeC", Retries: 0, LastSeen: now, Live: true},
		},
	}
}

func TestBarLength(t *testing.T) {
	tests := []struct {
		name     string
		retries  int
		max      int
		space    int
		expected int
	}{
		{"Largest value fills the space", 8, 8, 40, 40},
		{"Half of the largest value", 4, 8, 40, 20},
		{"Zero retries draws nothing", 0, 8, 40, 0},
		{"All zero draws nothing", 0, 0, 40, 0},
		{"Small values get one cell", 1, 1000, 40, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, barLength(tt.retries, tt.max, tt.space))
		})
	}
}

func TestTablePresenterFormat(t *testing.T) {
	t.Run("Draws one row per source in snapshot order", func(t *testing.T) {
		p := NewTablePresenter(&bytes.Buffer{}, Options{Width: 60})
		out := p.Format(testSnapshot())

		lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
		require.Len(t, lines, 5)
		assert.Contains(t, lines[0], "Retries per source")
		assert.Contains(t, lines[0], "1/3 offline")
		assert.True(t, strings.HasPrefix(lines[2], "NodeA "))
		assert.True(t, strings.HasPrefix(lines[3], "NodeLongName "))
		assert.True(t, strings.HasPrefix(lines[4], "NodeC "))
	})

	t.Run("Shows the value and status at each bar", func(t *testing.T) {
		p := NewTablePresenter(&bytes.Buffer{}, Options{Width: 60})
		lines := strings.Split(p.Format(testSnapshot()), "\n")

		assert.True(t, strings.HasSuffix(lines[2], " 4 live"))
		assert.True(t, strings.HasSuffix(lines[3], " 2 OFFLINE"))
		assert.True(t, strings.HasSuffix(lines[4], " 0 live"))
		assert.Greater(t, strings.Count(lines[2], "█"), strings.Count(lines[3], "█"))
		assert.Zero(t, strings.Count(lines[4], "█"))
	})

	t.Run("Rows fit the width", func(t *testing.T) {
		p := NewTablePresenter(&bytes.Buffer{}, Options{Width: 60})
		for _, line := range strings.Split(p.Format(testSnapshot()), "\n")[2:] {
			assert.LessOrEqual(t, len([]rune(line)), 60)
		}
	})

	t.Run("Empty table shows a waiting message", func(t *testing.T) {
		p := NewTablePresenter(&bytes.Buffer{}, Options{})
		out := p.Format(model.Snapshot{Threshold: 180 * time.Second})
		assert.Contains(t, out, "waiting for hop records")
	})

	t.Run("Plain output has no escape codes", func(t *testing.T) {
		p := NewTablePresenter(&bytes.Buffer{}, Options{})
		assert.NotContains(t, p.Format(testSnapshot()), "\x1b[")
	})

	t.Run("Forced color marks live and offline rows differently", func(t *testing.T) {
		p := NewTablePresenter(&bytes.Buffer{}, Options{ForceColor: true, Width: 60})
		lines := strings.Split(p.Format(testSnapshot()), "\n")

		assert.Contains(t, lines[2], "\x1b[")
		assert.Contains(t, lines[2], "38;2;0;255;65")
		assert.Contains(t, lines[3], "38;2;255;59;48")
	})
}

func TestTablePresenterRender(t *testing.T) {
	t.Run("Writes the chart without clearing a non-terminal", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewTablePresenter(&buf, Options{Title: "Hops"})

		require.NoError(t, p.Render(testSnapshot()))
		assert.True(t, strings.HasPrefix(buf.String(), "Hops"))
		assert.NotContains(t, buf.String(), clearScreen)
	})
}
