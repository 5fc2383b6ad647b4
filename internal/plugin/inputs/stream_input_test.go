package inputs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sliink/hopmon/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drain polls Collect until want lines arrived or the stream reported an error
type drain struct {
	mu    sync.Mutex
	lines []string
	errs  []error
}

func (d *drain) poll(input *StreamInput) {
	batch, err := input.Collect(context.Background())
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, record := range batch.Records {
		d.lines = append(d.lines, record.Line)
	}
	if err != nil {
		d.errs = append(d.errs, err)
	}
}

func TestStreamInputReader(t *testing.T) {
	t.Run("Queues lines from the reader", func(t *testing.T) {
		input := NewStreamInput("stdin_input")
		input.SetReader(strings.NewReader("first\r\nsecond\nthird\n"))
		require.True(t, input.Initialize())
		require.True(t, input.Start())
		defer input.Stop()

		d := &drain{}
		assert.Eventually(t, func() bool {
			d.poll(input)
			return len(d.errs) > 0
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, []string{"first", "second", "third"}, d.lines)
		assert.ErrorIs(t, d.errs[0], io.EOF)
		assert.Equal(t, model.StatusDegraded, input.GetStatus())
	})

	t.Run("End of input is reported once", func(t *testing.T) {
		input := NewStreamInput("stdin_input")
		input.SetReader(strings.NewReader(""))
		require.True(t, input.Initialize())
		require.True(t, input.Start())
		defer input.Stop()

		d := &drain{}
		assert.Eventually(t, func() bool {
			d.poll(input)
			return len(d.errs) > 0
		}, time.Second, 5*time.Millisecond)

		for i := 0; i < 3; i++ {
			d.poll(input)
		}
		assert.Len(t, d.errs, 1)
	})

	t.Run("Lines stream in as they are written", func(t *testing.T) {
		r, w := io.Pipe()
		input := NewStreamInput("stdin_input")
		input.SetReader(r)
		require.True(t, input.Initialize())
		require.True(t, input.Start())
		defer input.Stop()

		go func() {
			io.WriteString(w, "15/03/2024;10:30:00;NodeA;NodeB;42;NodeC;3;DATA;1\n")
		}()

		d := &drain{}
		assert.Eventually(t, func() bool {
			d.poll(input)
			return len(d.lines) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Empty(t, d.errs)
		assert.Equal(t, model.StatusRunning, input.GetStatus())

		w.Close()
	})

	t.Run("Full queue holds the reader back", func(t *testing.T) {
		input := NewStreamInput("stdin_input")
		input.Configure(map[string]interface{}{"buffer_size": 2})
		input.SetReader(strings.NewReader("a\nb\nc\nd\ne\n"))
		require.True(t, input.Initialize())
		require.True(t, input.Start())
		defer input.Stop()

		d := &drain{}
		assert.Eventually(t, func() bool {
			d.poll(input)
			return len(d.errs) > 0
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, d.lines)
		assert.Zero(t, input.BufferStatus()["stdin_input"].Dropped)
	})

	t.Run("Overlong line is skipped and reading continues", func(t *testing.T) {
		valid := "15/03/2024;10:30:00;NodeA;NodeB;42;NodeC;3;DATA;1"
		input := NewStreamInput("stdin_input")
		input.SetReader(strings.NewReader(strings.Repeat("x", DefaultMaxLineLength+10) + "\n" + valid + "\n"))
		require.True(t, input.Initialize())
		require.True(t, input.Start())
		defer input.Stop()

		d := &drain{}
		assert.Eventually(t, func() bool {
			d.poll(input)
			return len(d.errs) > 0
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, []string{valid}, d.lines)
		assert.ErrorIs(t, d.errs[0], io.EOF)
		assert.Equal(t, 1, input.Discarded())
	})

	t.Run("Last line without a newline is kept", func(t *testing.T) {
		input := NewStreamInput("stdin_input")
		input.SetReader(strings.NewReader("first\nlast"))
		require.True(t, input.Initialize())
		require.True(t, input.Start())
		defer input.Stop()

		d := &drain{}
		assert.Eventually(t, func() bool {
			d.poll(input)
			return len(d.errs) > 0
		}, time.Second, 5*time.Millisecond)

		assert.Equal(t, []string{"first", "last"}, d.lines)
	})

	t.Run("Collect before Start returns nothing", func(t *testing.T) {
		input := NewStreamInput("stdin_input")
		require.True(t, input.Initialize())

		batch, err := input.Collect(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 0, batch.Size())
	})
}

func TestStreamInputFile(t *testing.T) {
	t.Run("Missing endpoint is unavailable", func(t *testing.T) {
		input := NewStreamInput("stdin_input")
		input.Configure(map[string]interface{}{"endpoint": filepath.Join(t.TempDir(), "missing")})
		require.True(t, input.Initialize())

		assert.False(t, input.Start())
		assert.Equal(t, model.StatusError, input.GetStatus())
	})

	t.Run("Reads a file endpoint", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "hops.txt")
		require.NoError(t, os.WriteFile(path, []byte("x;y\n"), 0o644))

		input := NewStreamInput("stdin_input")
		input.Configure(map[string]interface{}{"endpoint": path})
		require.True(t, input.Initialize())
		require.True(t, input.Start())
		defer input.Stop()

		d := &drain{}
		assert.Eventually(t, func() bool {
			d.poll(input)
			return len(d.lines) == 1
		}, time.Second, 5*time.Millisecond)
		assert.Equal(t, "x;y", d.lines[0])

		// a regular file is not reopened after its end
		for i := 0; i < 5; i++ {
			d.poll(input)
		}
		assert.Len(t, d.lines, 1)
	})
}
