package alert

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/code19m/errx"
	"github.com/creasty/defaults"
	"github.com/samber/lo"
)

const (
	defaultInlineCode = "`"
	defaultCodeBlock  = "```"

	truncationMark = "..."
)

// Config defines how alerts are rendered.
type Config struct {
	// BasePath is the absolute source root of the application.
	// It is stripped from every trace frame. Empty disables stripping.
	BasePath string `yaml:"base_path"`

	// DependencyMarkers are path segments identifying third-party code.
	// Trace lines containing any of them are dropped.
	DependencyMarkers []string `yaml:"dependency_markers" default:"[\"vendor/\",\"pkg/mod/\"]"`

	// AmbientMention is the recipient tag of Background alerts.
	AmbientMention string `yaml:"ambient_mention" default:"@here"`

	// BroadcastMention is the recipient tag of InRequest alerts.
	BroadcastMention string `yaml:"broadcast_mention" default:"@channel"`

	// InlineCode wraps the message of InRequest alerts. Default is a single backtick.
	InlineCode string `yaml:"inline_code"`

	// CodeBlock wraps the trace of InRequest alerts. Default is a triple backtick.
	CodeBlock string `yaml:"code_block"`

	// MaxMessageLength caps the message, in runes. Zero takes the default;
	// a negative value disables the limit.
	MaxMessageLength int `yaml:"max_message_length" default:"500"`

	// MaxTraceLength caps the trace, in runes. Zero takes the default;
	// a negative value disables the limit.
	MaxTraceLength int `yaml:"max_trace_length" default:"3000"`

	// Suppress lists the error kinds that are never reported.
	// When the key is absent DefaultSuppressedKinds is used;
	// an explicit empty list reports everything.
	Suppress []string `yaml:"suppress"`
}

// Formatter decides, sanitizes and formats alerts.
// It holds no mutable state and is safe for concurrent use.
type Formatter struct {
	cfg Config
}

// NewFormatter creates a Formatter, filling unset Config fields with defaults.
func NewFormatter(cfg Config) (*Formatter, error) {
	if err := defaults.Set(&cfg); err != nil {
		return nil, errx.Wrap(err)
	}
	if cfg.InlineCode == "" {
		cfg.InlineCode = defaultInlineCode
	}
	if cfg.CodeBlock == "" {
		cfg.CodeBlock = defaultCodeBlock
	}

	cfg.DependencyMarkers = lo.Filter(cfg.DependencyMarkers, func(m string, _ int) bool {
		return m != ""
	})

	return &Formatter{cfg: cfg}, nil
}

// Config returns the effective configuration.
func (f *Formatter) Config() Config {
	return f.cfg
}

// Decide reports whether e should be reported under policy.
func (f *Formatter) Decide(e RaisedError, policy SuppressionPolicy) bool {
	return !policy.Suppresses(e.Kind)
}

// SanitizeTrace removes basePath from every frame, drops the lines that point
// into third-party dependencies and joins what is left with newlines.
//
// The result never contains basePath, and sanitizing an already sanitized
// trace returns it unchanged.
func (f *Formatter) SanitizeTrace(rawTrace []string, basePath string) string {
	if len(rawTrace) == 0 {
		return ""
	}

	stripped := lo.Map(rawTrace, func(frame string, _ int) string {
		return stripAll(frame, basePath)
	})

	lines := strings.Split(strings.Join(stripped, "\n"), "\n")
	kept := lo.Filter(lines, func(line string, _ int) bool {
		return !f.isDependencyLine(line)
	})

	return strings.Join(kept, "\n")
}

// Format renders e with an already sanitized trace.
// It never fails: missing fields render as empty strings.
func (f *Formatter) Format(e RaisedError, sanitizedTrace string, severity Severity) Alert {
	msg := truncateRunes(e.Message, f.cfg.MaxMessageLength)
	trace := truncateLines(sanitizedTrace, f.cfg.MaxTraceLength)

	a := Alert{Location: location(e)}

	if severity == InRequest {
		a.HeaderMention = f.cfg.BroadcastMention
		a.Message = wrap(msg, f.cfg.InlineCode, f.cfg.InlineCode)
		a.Trace = wrap(trace, f.cfg.CodeBlock+"\n", "\n"+f.cfg.CodeBlock)
		return a
	}

	a.HeaderMention = f.cfg.AmbientMention
	a.Message = msg
	a.Trace = trace

	return a
}

// Build runs Decide and, only for reportable errors, sanitizes the trace
// against the configured base path and formats the alert.
func (f *Formatter) Build(e RaisedError, policy SuppressionPolicy, severity Severity) (Alert, bool) {
	if !f.Decide(e, policy) {
		return Alert{}, false
	}
	trace := f.SanitizeTrace(e.RawTrace, f.cfg.BasePath)
	return f.Format(e, trace, severity), true
}

func (f *Formatter) isDependencyLine(line string) bool {
	return lo.SomeBy(f.cfg.DependencyMarkers, func(marker string) bool {
		return strings.Contains(line, marker)
	})
}

// stripAll removes basePath until none is left, since a removal can join
// two halves into a new occurrence.
func stripAll(s, basePath string) string {
	if basePath == "" {
		return s
	}
	for strings.Contains(s, basePath) {
		s = strings.ReplaceAll(s, basePath, "")
	}
	return s
}

func location(e RaisedError) string {
	if e.SourceFile == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", e.SourceFile, e.SourceLine)
}

func wrap(s, open, closing string) string {
	if s == "" {
		return ""
	}
	return open + s + closing
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + truncationMark
}

// truncateLines keeps whole lines while they fit into limit runes and
// appends a footer with the number of dropped lines.
func truncateLines(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}

	lines := strings.Split(s, "\n")

	var kept []string
	size := 0
	for _, line := range lines {
		n := utf8.RuneCountInString(line)
		if len(kept) > 0 {
			n++ // separator
		}
		if size+n > limit {
			break
		}
		kept = append(kept, line)
		size += n
	}

	if len(kept) == 0 {
		kept = []string{truncateRunes(lines[0], limit)}
	}

	return fmt.Sprintf("%s\n%s (%d more lines)", strings.Join(kept, "\n"), truncationMark, len(lines)-len(kept))
}
