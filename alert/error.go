package alert

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/code19m/errx"
	"github.com/samber/lo"
	"github.com/spf13/cast"
)

const maxCapturedFrames = 64

// RaisedError is a snapshot of a failure taken at the moment it happened.
type RaisedError struct {
	// Kind identifies the error category matched against a SuppressionPolicy.
	Kind string
	// Message is the raw error message.
	Message string
	// SourceFile and SourceLine point at the place the error was raised.
	SourceFile string
	SourceLine int
	// RawTrace holds one string per stack frame, innermost first.
	RawTrace []string
}

// KindOf resolves the kind of err from its errx type.
// Errors that are not errx errors resolve to the internal kind.
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	return errx.AsErrorX(err).Type().String()
}

// FromError snapshots a returned (not panicking) error.
//
// For errx errors the errx trace, one entry per line, is used as the raw trace
// and its first "[file:line] func" entry as the source location. Other errors
// carry no trace and get neither.
func FromError(err error) RaisedError {
	if err == nil {
		return RaisedError{}
	}

	r := RaisedError{
		Kind:    KindOf(err),
		Message: err.Error(),
	}

	var e errx.ErrorX
	if !errors.As(err, &e) {
		return r
	}

	r.RawTrace = splitNonEmpty(e.Trace())
	for _, line := range r.RawTrace {
		if file, n, ok := traceLocation(line); ok {
			r.SourceFile, r.SourceLine = file, n
			break
		}
	}

	return r
}

// traceLocation parses the "[file:line]" prefix of an errx trace entry.
func traceLocation(line string) (string, int, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "[") {
		return "", 0, false
	}

	end := strings.Index(line, "]")
	if end < 0 {
		return "", 0, false
	}

	loc := line[1:end]
	sep := strings.LastIndex(loc, ":")
	if sep <= 0 {
		return "", 0, false
	}

	n, err := cast.ToIntE(loc[sep+1:])
	if err != nil || n <= 0 {
		return "", 0, false
	}

	return loc[:sep], n, true
}

// Capture snapshots err together with the stack of the calling goroutine.
//
// skip is the number of additional frames to leave out above the caller of Capture.
// When Capture runs inside a deferred function while a panic unwinds, the trace
// starts at the function that panicked and the location points at it.
func Capture(err error, skip int) RaisedError {
	pcs := make([]uintptr, maxCapturedFrames)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return RaisedError{Kind: KindOf(err), Message: errMessage(err)}
	}

	var frames []runtime.Frame
	it := runtime.CallersFrames(pcs[:n])
	for {
		f, more := it.Next()
		frames = append(frames, f)
		if !more {
			break
		}
	}

	frames = fromPanicOrigin(frames)

	r := RaisedError{
		Kind:    KindOf(err),
		Message: errMessage(err),
		RawTrace: lo.Map(frames, func(f runtime.Frame, i int) string {
			return formatFrame(i, f)
		}),
	}
	if len(frames) > 0 {
		r.SourceFile = frames[0].File
		r.SourceLine = frames[0].Line
	}

	return r
}

// fromPanicOrigin drops the frames above the panic site when the stack
// belongs to a panicking goroutine. Runtime helpers between runtime.gopanic
// and user code (sigpanic, panicdivide and friends) are dropped as well.
func fromPanicOrigin(frames []runtime.Frame) []runtime.Frame {
	idx := -1
	for i, f := range frames {
		if f.Function == "runtime.gopanic" {
			idx = i
			break
		}
	}
	if idx == -1 {
		return frames
	}

	i := idx + 1
	for i < len(frames) && isRuntimeFrame(frames[i]) {
		i++
	}
	if i >= len(frames) {
		return frames
	}
	return frames[i:]
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func isRuntimeFrame(f runtime.Frame) bool {
	return strings.HasPrefix(f.Function, "runtime.") || strings.HasPrefix(f.Function, "internal/runtime/")
}

func formatFrame(i int, f runtime.Frame) string {
	fn := f.Function
	if fn == "" {
		fn = "unknown"
	}
	return fmt.Sprintf("#%d %s(%d): %s()", i, f.File, f.Line, fn)
}

func splitNonEmpty(s string) []string {
	return lo.Filter(strings.Split(s, "\n"), func(line string, _ int) bool {
		return strings.TrimSpace(line) != ""
	})
}
