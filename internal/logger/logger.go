// Package logger is the compiler's user-facing diagnostic stream. Every
// phase reports through a shared Log value instead of returning raw errors,
// so a single compilation can collect more than one diagnostic before the
// pipeline gives up (spec §7: first diagnostic wins for control flow, but
// later phases still get a chance to report before that happens within the
// same phase).
package logger

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

type MsgKind uint8

const (
	Error MsgKind = iota
	Warning
	Note
)

func (kind MsgKind) String() string {
	switch kind {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Note:
		return "note"
	default:
		return "unknown"
	}
}

// MsgLocation pinpoints a diagnostic in source text. Line is 1-based,
// Column is 0-based in bytes, matching the teacher's own MsgLocation.
type MsgLocation struct {
	File     string
	Line     int
	Column   int
	LineText string
}

type MsgData struct {
	Text     string
	Location *MsgLocation
}

type Msg struct {
	Kind  MsgKind
	Data  MsgData
	Notes []MsgData
}

// SortableMsgs orders diagnostics by file, then position, then severity,
// so a multi-error compile reads top-to-bottom the way a human would scan
// the source.
type SortableMsgs []Msg

func (a SortableMsgs) Len() int      { return len(a) }
func (a SortableMsgs) Swap(i, j int) { a[i], a[j] = a[j], a[i] }
func (a SortableMsgs) Less(i, j int) bool {
	ai, aj := a[i].Data.Location, a[j].Data.Location
	if ai == nil || aj == nil {
		return ai == nil && aj != nil
	}
	if ai.File != aj.File {
		return ai.File < aj.File
	}
	if ai.Line != aj.Line {
		return ai.Line < aj.Line
	}
	if ai.Column != aj.Column {
		return ai.Column < aj.Column
	}
	return a[i].Kind < a[j].Kind
}

// Log collects diagnostics for one Compile call. AddMsg is safe to call
// from a single goroutine only, matching the single-threaded compilation
// model of spec §5.
type Log struct {
	AddMsg    func(Msg)
	HasErrors func() bool
	Done      func() []Msg
}

func NewDeferLog() Log {
	var msgs SortableMsgs
	hasErrors := false
	return Log{
		AddMsg: func(msg Msg) {
			if msg.Kind == Error {
				hasErrors = true
			}
			msgs = append(msgs, msg)
		},
		HasErrors: func() bool { return hasErrors },
		Done: func() []Msg {
			sort.Stable(msgs)
			return msgs
		},
	}
}

type UseColor uint8

const (
	ColorIfTerminal UseColor = iota
	ColorNever
	ColorAlways
)

type OutputOptions struct {
	IncludeSource bool
	Color         UseColor
}

type Colors struct {
	Reset string
	Bold  string
	Dim   string
	Red   string
	Green string
}

var TerminalColors = Colors{
	Reset: "\033[0m",
	Bold:  "\033[1m",
	Dim:   "\033[37m",
	Red:   "\033[31m",
	Green: "\033[32m",
}

func colorsFor(options OutputOptions, terminalInfo TerminalInfo) Colors {
	use := false
	switch options.Color {
	case ColorAlways:
		use = SupportsColorEscapes
	case ColorIfTerminal:
		use = terminalInfo.UseColorEscapes
	}
	if use {
		return TerminalColors
	}
	return Colors{}
}

// String renders a single diagnostic in clang's one-line-plus-caret style,
// the same format the teacher's internal/logger targets.
func (msg Msg) String(options OutputOptions, terminalInfo TerminalInfo) string {
	colors := colorsFor(options, terminalInfo)
	text := msgString(colors, options.IncludeSource, msg.Kind, msg.Data)
	for _, note := range msg.Notes {
		text += msgString(colors, options.IncludeSource, Note, note)
	}
	return text
}

func msgString(colors Colors, includeSource bool, kind MsgKind, data MsgData) string {
	kindColor := colors.Bold
	if kind == Error {
		kindColor = colors.Red
	}

	if data.Location == nil {
		return fmt.Sprintf("%s%s%s: %s%s\n", kindColor, kind.String(), colors.Reset, data.Text, colors.Reset)
	}

	loc := data.Location
	header := fmt.Sprintf("%s%s:%d:%d: %s%s%s: %s%s\n",
		colors.Bold, loc.File, loc.Line, loc.Column, kindColor, kind.String(), colors.Reset, data.Text, colors.Reset)
	if !includeSource || loc.LineText == "" {
		return header
	}

	caret := strings.Repeat(" ", loc.Column) + "^"
	return fmt.Sprintf("%s    %s\n    %s%s%s\n", header, loc.LineText, colors.Green, caret, colors.Reset)
}

func hasNoColorEnvironmentVariable() bool {
	_, ok := os.LookupEnv("NO_COLOR")
	return ok
}

type TerminalInfo struct {
	IsTTY           bool
	UseColorEscapes bool
	Width           int
	Height          int
}

// PrintToStderr renders every message in msgs to stderr, honoring terminal
// color/width detection (GetTerminalInfo, platform-specific).
func PrintToStderr(msgs []Msg, options OutputOptions) {
	terminalInfo := GetTerminalInfo(os.Stderr)
	for _, msg := range msgs {
		os.Stderr.WriteString(msg.String(options, terminalInfo))
	}
}
