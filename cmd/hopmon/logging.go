package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/sliink/hopmon/internal/core"
	"github.com/sliink/hopmon/internal/model"
	"golang.org/x/term"
)

// newLogger builds the operator logger. The "auto" format writes text to a
// terminal and JSON otherwise.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	options := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "auto", "":
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			return slog.New(slog.NewTextHandler(w, options)), nil
		}
		return slog.New(slog.NewJSONHandler(w, options)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, options)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, options)), nil
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}
}

// eventLevel maps an event type to the level it is logged at
func eventLevel(eventType model.EventType) slog.Level {
	switch eventType {
	case model.EventTransportError, model.EventLogDegraded:
		return slog.LevelWarn
	case model.EventError:
		return slog.LevelError
	case model.EventLineDropped, model.EventComponentStatusChange, model.EventConfigChange:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

// subscribeLogger forwards operator relevant events to the logger. Accepted
// records are not logged; the chart and the data log already show them.
func subscribeLogger(bus *core.EventBus, logger *slog.Logger) {
	types := []model.EventType{
		model.EventLineDropped,
		model.EventTransportError,
		model.EventLogDegraded,
		model.EventComponentStatusChange,
		model.EventConfigChange,
		model.EventInfo,
		model.EventError,
	}

	bus.SubscribeAll(types, "operator_log", func(event core.Event) {
		attrs := []any{"event", string(event.Type), "source", event.SourceID}

		switch data := event.Data.(type) {
		case error:
			attrs = append(attrs, "error", data.Error())
		case map[string]interface{}:
			for _, key := range []string{"reason", "line", "error"} {
				if v, ok := data[key]; ok {
					attrs = append(attrs, key, v)
				}
			}
		case nil:
		default:
			attrs = append(attrs, "detail", fmt.Sprint(data))
		}

		logger.Log(context.Background(), eventLevel(event.Type), eventMessage(event.Type), attrs...)
	})
}

func eventMessage(eventType model.EventType) string {
	switch eventType {
	case model.EventLineDropped:
		return "line dropped"
	case model.EventTransportError:
		return "transport error"
	case model.EventLogDegraded:
		return "data log degraded"
	case model.EventComponentStatusChange:
		return "status change"
	case model.EventConfigChange:
		return "configuration changed"
	case model.EventError:
		return "error"
	default:
		return "event"
	}
}
