// Package render draws source table snapshots on a terminal.
package render

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sliink/hopmon/internal/model"
	"golang.org/x/term"
)

const (
	liveColor    = lipgloss.Color("#00FF41")
	offlineColor = lipgloss.Color("#FF3B30")
	faintColor   = lipgloss.Color("#808080")

	defaultWidth = 80
	clearScreen  = "\033[H\033[2J"
)

// Options control how a TablePresenter draws
type Options struct {
	// Title is printed above the chart
	Title string
	// ForceColor renders colors even when the writer is not a terminal
	ForceColor bool
	// Width overrides the detected terminal width
	Width int
}

// TablePresenter renders one bar per source, scaled to the largest retries
// value. Live sources are green, offline sources red.
type TablePresenter struct {
	out      io.Writer
	fd       int
	tty      bool
	options  Options
	renderer *lipgloss.Renderer
	mutex    sync.Mutex
}

// NewTablePresenter creates a presenter writing to out
func NewTablePresenter(out io.Writer, options Options) *TablePresenter {
	p := &TablePresenter{
		out:     out,
		fd:      -1,
		options: options,
	}

	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.fd = int(f.Fd())
		p.tty = true
	}

	p.renderer = lipgloss.NewRenderer(out)
	if options.ForceColor {
		p.renderer.SetColorProfile(termenv.TrueColor)
	} else if !p.tty {
		p.renderer.SetColorProfile(termenv.Ascii)
	}

	if p.options.Title == "" {
		p.options.Title = "Retries per source"
	}

	return p
}

// Render draws the snapshot. On a terminal the screen is cleared first so
// the chart updates in place.
func (p *TablePresenter) Render(snapshot model.Snapshot) error {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	var b strings.Builder
	if p.tty {
		b.WriteString(clearScreen)
	}
	b.WriteString(p.Format(snapshot))

	_, err := io.WriteString(p.out, b.String())
	return err
}

// Format returns the chart for a snapshot without writing it
func (p *TablePresenter) Format(snapshot model.Snapshot) string {
	title := p.renderer.NewStyle().Bold(true)
	faint := p.renderer.NewStyle().Foreground(faintColor)

	var b strings.Builder
	b.WriteString(title.Render(p.options.Title))
	b.WriteString(faint.Render(fmt.Sprintf("  %s  stale after %s  %d/%d offline",
		snapshot.TakenAt.Format("15:04:05"),
		snapshot.Threshold,
		snapshot.OfflineCount(),
		len(snapshot.Sources))))
	b.WriteString("\n\n")

	if len(snapshot.Sources) == 0 {
		b.WriteString(faint.Render("waiting for hop records"))
		b.WriteString("\n")
		return b.String()
	}

	nameWidth := 0
	maxRetries := 0
	for _, source := range snapshot.Sources {
		if w := lipgloss.Width(source.Source); w > nameWidth {
			nameWidth = w
		}
		if source.Retries > maxRetries {
			maxRetries = source.Retries
		}
	}

	valueWidth := len(fmt.Sprint(maxRetries))
	// name, space, bar, space, value, space, status label
	barSpace := p.width() - nameWidth - valueWidth - len(" OFFLINE") - 2
	if barSpace < 1 {
		barSpace = 1
	}

	label := p.renderer.NewStyle().Width(nameWidth)
	for _, source := range snapshot.Sources {
		color := liveColor
		status := "live"
		if !source.Live {
			color = offlineColor
			status = "OFFLINE"
		}
		bar := p.renderer.NewStyle().Foreground(color)

		b.WriteString(label.Render(source.Source))
		b.WriteString(" ")
		b.WriteString(bar.Render(strings.Repeat("█", barLength(source.Retries, maxRetries, barSpace))))
		b.WriteString(" ")
		b.WriteString(fmt.Sprint(source.Retries))
		b.WriteString(" ")
		b.WriteString(bar.Render(status))
		b.WriteString("\n")
	}

	return b.String()
}

func (p *TablePresenter) width() int {
	if p.options.Width > 0 {
		return p.options.Width
	}
	if p.tty {
		if w, _, err := term.GetSize(p.fd); err == nil && w > 0 {
			return w
		}
	}
	return defaultWidth
}

// barLength scales retries into [0, space]. Any non-zero value gets at
// least one cell.
func barLength(retries, maxRetries, space int) int {
	if retries <= 0 || maxRetries <= 0 {
		return 0
	}
	n := retries * space / maxRetries
	if n < 1 {
		n = 1
	}
	return n
}
