package testutil

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

// Test binaries log everything at trace level, but only print it with -v.
func init() {
	logrus.SetLevel(logrus.TraceLevel)

	for _, arg := range os.Args {
		if arg == "-test.v" || strings.HasPrefix(arg, "-test.v=true") {
			return
		}
	}
	logrus.StandardLogger().Out = io.Discard
}

// CaptureLogs records every entry written to the standard logger until the
// test ends.
func CaptureLogs(t *testing.T) *test.Hook {
	hook := test.NewGlobal()
	t.Cleanup(func() {
		hook.Reset()
		removeHook(hook)
	})
	return hook
}

func removeHook(hook logrus.Hook) {
	std := logrus.StandardLogger()
	replaced := make(logrus.LevelHooks)
	for level, hooks := range std.Hooks {
		for _, h := range hooks {
			if h != hook {
				replaced[level] = append(replaced[level], h)
			}
		}
	}
	std.ReplaceHooks(replaced)
}
