package util

import (
	"os"
	"strings"
	"testing"

	"github.com/lni/dragonboat/v4/logger"
)

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 30)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("line %q is longer than %d characters", line, Wrap)
		}
	}

	long := strings.Repeat("x", Wrap+10)
	if got := WrapString("a " + long); got != "a\n"+long {
		t.Errorf("unexpected wrapping of a long word: %q", got)
	}
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]logger.LogLevel{
		"debug": logger.DEBUG,
		"INFO":  logger.INFO,
		"warn":  logger.WARNING,
		"error": logger.ERROR,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; expected %v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("verbose"); err == nil {
		t.Errorf("expected an error for an unknown level")
	}
}

func TestLoggerFormat(t *testing.T) {
	var out strings.Builder
	logOutput = &out
	defer func() { logOutput = os.Stderr }()
	l := CreateLogger("test").(*dcollLogger)
	l.SetLevel(logger.INFO)

	l.Debugf("hidden")
	l.Infof("shown %d", 1)

	got := out.String()
	if strings.Contains(got, "hidden") {
		t.Errorf("debug message logged at info level: %q", got)
	}
	if !strings.Contains(got, "INFO  | test       | shown 1") {
		t.Errorf("unexpected log line: %q", got)
	}
}
