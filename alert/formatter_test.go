package alert_test

import (
	"strings"
	"testing"

	"github.com/code19m/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rise-and-shine/errwatch/alert"
)

func newFormatter(t *testing.T, cfg alert.Config) *alert.Formatter {
	t.Helper()
	f, err := alert.NewFormatter(cfg)
	require.NoError(t, err)
	return f
}

func TestDecide(t *testing.T) {
	f := newFormatter(t, alert.Config{})
	policy := alert.NewPolicy("AuthenticationError", "ValidationError")

	tests := []struct {
		name     string
		kind     string
		expected bool
	}{
		{name: "suppressed kind", kind: "AuthenticationError", expected: false},
		{name: "other suppressed kind", kind: "ValidationError", expected: false},
		{name: "reportable kind", kind: "RuntimeError", expected: true},
		{name: "empty kind", kind: "", expected: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := f.Decide(alert.RaisedError{Kind: tc.kind}, policy)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestDecide_ZeroPolicyReportsEverything(t *testing.T) {
	f := newFormatter(t, alert.Config{})
	assert.True(t, f.Decide(alert.RaisedError{Kind: errx.T_Authentication.String()}, alert.SuppressionPolicy{}))
}

func TestSanitizeTrace(t *testing.T) {
	f := newFormatter(t, alert.Config{DependencyMarkers: []string{"external-deps"}})

	tests := []struct {
		name     string
		raw      []string
		basePath string
		expected string
	}{
		{
			name: "strips base path and drops dependency frames",
			raw: []string{
				"#0 /app/src/Foo.php(10): bar()",
				"#1 /app/external-deps/lib/Baz.php(5): qux()",
			},
			basePath: "/app/src",
			expected: "#0 /Foo.php(10): bar()",
		},
		{
			name:     "empty trace",
			raw:      nil,
			basePath: "/app/src",
			expected: "",
		},
		{
			name: "only dependency frames",
			raw: []string{
				"#0 /app/external-deps/a.php(1): a()",
				"#1 /app/external-deps/b.php(2): b()",
			},
			basePath: "/app/src",
			expected: "",
		},
		{
			name: "keeps order of surviving frames",
			raw: []string{
				"#0 /app/src/A.php(1): a()",
				"#1 /app/external-deps/X.php(9): x()",
				"#2 /app/src/B.php(2): b()",
				"#3 /app/src/C.php(3): c()",
			},
			basePath: "/app/src",
			expected: "#0 /A.php(1): a()\n#2 /B.php(2): b()\n#3 /C.php(3): c()",
		},
		{
			name:     "frame with embedded newline is filtered line by line",
			raw:      []string{"#0 /app/src/A.php(1): a()\n#1 /app/external-deps/X.php(9): x()"},
			basePath: "/app/src",
			expected: "#0 /A.php(1): a()",
		},
		{
			name:     "empty base path leaves frames untouched",
			raw:      []string{"#0 /app/src/A.php(1): a()"},
			basePath: "",
			expected: "#0 /app/src/A.php(1): a()",
		},
		{
			name:     "removal that splices a new occurrence",
			raw:      []string{"#0 /a/abb(1): f()"},
			basePath: "/ab",
			expected: "#0 (1): f()",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := f.SanitizeTrace(tc.raw, tc.basePath)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestSanitizeTrace_Idempotent(t *testing.T) {
	f := newFormatter(t, alert.Config{})

	traces := [][]string{
		{"#0 /srv/app/main.go(10): main.main()"},
		{
			"#0 /srv/app/internal/calc.go(42): calc.Divide()",
			"#1 /root/go/pkg/mod/github.com/gofiber/fiber/v2@v2.52.9/router.go(145): fiber.(*App).next()",
			"#2 /srv/app/vendor/github.com/x/y.go(7): y.Z()",
			"#3 /srv/app/cmd/server/main.go(30): main.run()",
		},
		{"#0 /srv/app/srv/app/x.go(1): x()"},
		{""},
		nil,
	}

	for _, raw := range traces {
		once := f.SanitizeTrace(raw, "/srv/app")
		twice := f.SanitizeTrace(strings.Split(once, "\n"), "/srv/app")
		assert.Equal(t, once, twice)

		joined := f.SanitizeTrace([]string{once}, "/srv/app")
		assert.Equal(t, once, joined)
	}
}

func TestSanitizeTrace_NeverContainsBasePath(t *testing.T) {
	f := newFormatter(t, alert.Config{})

	raw := []string{
		"#0 /srv/app/a.go(1): a()",
		"#1 /srv/ap/srv/app/p/b.go(2): b()",
		"#2 /srv/app/srv/app/c.go(3): c()",
	}

	got := f.SanitizeTrace(raw, "/srv/app")
	assert.NotContains(t, got, "/srv/app")
}

func TestSanitizeTrace_DefaultMarkers(t *testing.T) {
	f := newFormatter(t, alert.Config{})

	got := f.SanitizeTrace([]string{
		"#0 /srv/app/handler.go(12): app.Handle()",
		"#1 /home/u/go/pkg/mod/github.com/gofiber/fiber/v2@v2.52.9/ctx.go(1): fiber.(*Ctx).Next()",
		"#2 /srv/app/vendor/github.com/lib/x.go(4): x.Do()",
	}, "/srv/app")

	assert.Equal(t, "#0 /handler.go(12): app.Handle()", got)
}

func TestFormat(t *testing.T) {
	f := newFormatter(t, alert.Config{})
	e := alert.RaisedError{
		Kind:       "RuntimeError",
		Message:    "Division by zero",
		SourceFile: "/app/src/Calc.php",
		SourceLine: 42,
	}

	t.Run("in request wraps message and trace", func(t *testing.T) {
		a := f.Format(e, "#0 /Calc.php(42): divide()", alert.InRequest)

		assert.Equal(t, "@channel", a.HeaderMention)
		assert.Equal(t, "`Division by zero`", a.Message)
		assert.Equal(t, "/app/src/Calc.php:42", a.Location)
		assert.Equal(t, "```\n#0 /Calc.php(42): divide()\n```", a.Trace)
	})

	t.Run("background leaves message and trace plain", func(t *testing.T) {
		a := f.Format(e, "#0 /Calc.php(42): divide()", alert.Background)

		assert.Equal(t, "@here", a.HeaderMention)
		assert.Equal(t, "Division by zero", a.Message)
		assert.Equal(t, "/app/src/Calc.php:42", a.Location)
		assert.Equal(t, "#0 /Calc.php(42): divide()", a.Trace)
	})

	t.Run("malformed input renders empty fields", func(t *testing.T) {
		a := f.Format(alert.RaisedError{}, "", alert.InRequest)

		assert.Equal(t, "@channel", a.HeaderMention)
		assert.Empty(t, a.Message)
		assert.Empty(t, a.Location)
		assert.Empty(t, a.Trace)
	})
}

func TestFormat_CustomDelimitersAndMentions(t *testing.T) {
	f := newFormatter(t, alert.Config{
		AmbientMention:   "<!here>",
		BroadcastMention: "<!channel>",
		InlineCode:       "'",
		CodeBlock:        "~~~",
	})
	e := alert.RaisedError{Message: "boom"}

	in := f.Format(e, "trace", alert.InRequest)
	assert.Equal(t, "<!channel>", in.HeaderMention)
	assert.Equal(t, "'boom'", in.Message)
	assert.Equal(t, "~~~\ntrace\n~~~", in.Trace)

	bg := f.Format(e, "trace", alert.Background)
	assert.Equal(t, "<!here>", bg.HeaderMention)
}

func TestFormat_Bounded(t *testing.T) {
	f := newFormatter(t, alert.Config{MaxMessageLength: 5, MaxTraceLength: 12})

	a := f.Format(alert.RaisedError{Message: "exploded badly"}, "line-one\nline-two\nline-three", alert.Background)

	assert.Equal(t, "explo...", a.Message)
	assert.Equal(t, "line-one\n... (2 more lines)", a.Trace)
}

func TestFormat_Limits(t *testing.T) {
	long := strings.Repeat("x", 600)
	trace := strings.TrimSuffix(strings.Repeat(strings.Repeat("y", 99)+"\n", 40), "\n")

	t.Run("zero takes the defaults", func(t *testing.T) {
		f := newFormatter(t, alert.Config{})
		assert.Equal(t, 500, f.Config().MaxMessageLength)
		assert.Equal(t, 3000, f.Config().MaxTraceLength)

		a := f.Format(alert.RaisedError{Message: long}, trace, alert.Background)
		assert.Equal(t, strings.Repeat("x", 500)+"...", a.Message)
		assert.Contains(t, a.Trace, "more lines)")
	})

	t.Run("negative disables truncation", func(t *testing.T) {
		f := newFormatter(t, alert.Config{MaxMessageLength: -1, MaxTraceLength: -1})

		a := f.Format(alert.RaisedError{Message: long}, trace, alert.Background)
		assert.Equal(t, long, a.Message)
		assert.Equal(t, trace, a.Trace)
	})
}

func TestFormat_BoundedSingleLongLine(t *testing.T) {
	f := newFormatter(t, alert.Config{MaxTraceLength: 4})

	a := f.Format(alert.RaisedError{}, "abcdefgh\nij", alert.Background)

	assert.Equal(t, "abcd...\n... (1 more lines)", a.Trace)
}

func TestBuild(t *testing.T) {
	f := newFormatter(t, alert.Config{BasePath: "/app/src"})
	policy := alert.NewPolicy("AuthenticationError")

	e := alert.RaisedError{
		Kind:       "RuntimeError",
		Message:    "Division by zero",
		SourceFile: "/app/src/Calc.php",
		SourceLine: 42,
		RawTrace:   []string{"#0 /app/src/Calc.php(42): divide()"},
	}

	t.Run("reported", func(t *testing.T) {
		a, ok := f.Build(e, policy, alert.Background)
		require.True(t, ok)
		assert.Equal(t, "/app/src/Calc.php:42", a.Location)
		assert.Contains(t, a.Message, "Division by zero")
		assert.Equal(t, "#0 /Calc.php(42): divide()", a.Trace)
	})

	t.Run("suppressed", func(t *testing.T) {
		suppressed := e
		suppressed.Kind = "AuthenticationError"

		a, ok := f.Build(suppressed, policy, alert.Background)
		assert.False(t, ok)
		assert.Equal(t, alert.Alert{}, a)
	})
}

func TestAlertText(t *testing.T) {
	a := alert.Alert{
		HeaderMention: "@here",
		Message:       "boom",
		Location:      "/app/main.go:7",
		Trace:         "#0 /main.go(7): main.main()",
	}

	expected := "@here\n**Error:** boom\n**Location:** /app/main.go:7\n**Trace:**\n#0 /main.go(7): main.main()"
	assert.Equal(t, expected, a.Text())

	assert.Equal(t, "@here\n**Error:** boom", alert.Alert{HeaderMention: "@here", Message: "boom"}.Text())
	assert.Empty(t, alert.Alert{}.Text())
}
