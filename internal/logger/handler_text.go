package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"
)

// textTimeLayout is the record timestamp of text output. `aliasd logs --since`
// parses it back.
const textTimeLayout = "2006-01-02 15:04:05"

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiCyan   = "\033[36m"
	ansiGray   = "\033[90m"
)

// textHandler writes one line per record:
//
//	[2006-01-02 15:04:05] [LEVEL] message key=value key="quoted value"
//
// Group names prefix keys with "group.".
type textHandler struct {
	level  slog.Leveler
	w      io.Writer
	mu     *sync.Mutex
	prefix string // rendered WithAttrs attributes
	group  string // dotted group prefix, with trailing dot
	color  bool
}

func newTextHandler(w io.Writer, level slog.Leveler, color bool) *textHandler {
	return &textHandler{level: level, w: w, mu: &sync.Mutex{}, color: color}
}

func (h *textHandler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *textHandler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(r.Time.Format(textTimeLayout))
	sb.WriteString("] [")
	sb.WriteString(h.levelLabel(r.Level))
	sb.WriteString("] ")
	sb.WriteString(r.Message)
	sb.WriteString(h.prefix)

	r.Attrs(func(a slog.Attr) bool {
		h.writeAttr(&sb, h.group, a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *textHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var sb strings.Builder
	for _, a := range attrs {
		h.writeAttr(&sb, h.group, a)
	}
	clone := *h
	clone.prefix = h.prefix + sb.String()
	return &clone
}

func (h *textHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}

func (h *textHandler) levelLabel(l slog.Level) string {
	label, color := "ERROR", ansiRed
	switch {
	case l < slog.LevelInfo:
		label, color = "DEBUG", ansiGray
	case l < slog.LevelWarn:
		label, color = "INFO", ansiGreen
	case l < slog.LevelError:
		label, color = "WARN", ansiYellow
	}
	if !h.color {
		return label
	}
	return color + label + ansiReset
}

func (h *textHandler) writeAttr(sb *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}

	if a.Value.Kind() == slog.KindGroup {
		inner := group
		if a.Key != "" {
			inner = group + a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			h.writeAttr(sb, inner, ga)
		}
		return
	}

	sb.WriteByte(' ')
	if h.color {
		sb.WriteString(ansiCyan)
	}
	sb.WriteString(group)
	sb.WriteString(a.Key)
	if h.color {
		sb.WriteString(ansiReset)
	}
	sb.WriteByte('=')
	sb.WriteString(textValue(a.Value))
}

// textValue renders v, quoting strings that would break key=value parsing.
func textValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		s := v.String()
		if s == "" || strings.ContainsAny(s, " \t\n\"=") {
			return strconv.Quote(s)
		}
		return s
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'f', 3, 64)
	case slog.KindTime:
		return v.Time().Format(time.RFC3339)
	case slog.KindAny:
		if err, ok := v.Any().(error); ok {
			return strconv.Quote(err.Error())
		}
		return fmt.Sprintf("%+v", v.Any())
	default:
		return v.String()
	}
}
