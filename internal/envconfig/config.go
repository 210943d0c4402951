// Package envconfig reads imgtensor settings from IMGTENSOR_* environment
// variables. Every getter reads the environment on each call, so tests can
// change variables with t.Setenv.
package envconfig

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/gogpu/gputypes"
)

// Backend returns the preferred tensorizer backend name, or "" to let the
// library choose. Configurable via IMGTENSOR_BACKEND.
func Backend() string {
	return strings.ToLower(Var("IMGTENSOR_BACKEND"))
}

// LogLevel returns the log level. Configurable via IMGTENSOR_DEBUG:
// unset or false is WARN, 1 or true is DEBUG, and other integers n give
// level -4n.
func LogLevel() slog.Level {
	level := slog.LevelWarn
	if s := Var("IMGTENSOR_DEBUG"); s != "" {
		if b, err := strconv.ParseBool(s); err == nil {
			if b {
				level = slog.LevelDebug
			}
		} else if i, err := strconv.ParseInt(s, 10, 64); err == nil && i != 0 {
			level = slog.Level(i * -4)
		}
	}
	return level
}

// Jobs returns how many images the CLI converts in parallel.
// Configurable via IMGTENSOR_JOBS. Default: the number of CPUs.
func Jobs() uint {
	return Uint("IMGTENSOR_JOBS", uint(runtime.NumCPU()))() //nolint:gosec // NumCPU is positive
}

// Power returns the GPU adapter preference. Configurable via
// IMGTENSOR_POWER ("low" or "high"). Default: high performance.
func Power() gputypes.PowerPreference {
	switch s := strings.ToLower(Var("IMGTENSOR_POWER")); s {
	case "", "high", "high-performance":
		return gputypes.PowerPreferenceHighPerformance
	case "low", "low-power":
		return gputypes.PowerPreferenceLowPower
	case "none":
		return gputypes.PowerPreferenceNone
	default:
		slog.Warn("invalid environment variable, using default", "key", "IMGTENSOR_POWER", "value", s, "default", "high")
		return gputypes.PowerPreferenceHighPerformance
	}
}

// Bool returns a getter for a boolean variable. Unparsable values count as
// true, so IMGTENSOR_X=yes enables a flag.
func Bool(k string) func() bool {
	return func() bool {
		if s := Var(k); s != "" {
			b, err := strconv.ParseBool(s)
			if err != nil {
				return true
			}
			return b
		}
		return false
	}
}

// Uint returns a getter for an unsigned integer variable. Invalid values
// log a warning and yield defaultValue.
func Uint(key string, defaultValue uint) func() uint {
	return func() uint {
		if s := Var(key); s != "" {
			if n, err := strconv.ParseUint(s, 10, 64); err != nil || n == 0 {
				slog.Warn("invalid environment variable, using default", "key", key, "value", s, "default", defaultValue)
			} else {
				return uint(n)
			}
		}
		return defaultValue
	}
}

// EnvVar describes one variable for the CLI's help output.
type EnvVar struct {
	Name        string
	Value       any
	Description string
}

// AsMap returns every variable with its current value.
func AsMap() map[string]EnvVar {
	return map[string]EnvVar{
		"IMGTENSOR_BACKEND": {"IMGTENSOR_BACKEND", Backend(), "Tensorizer backend: gpu or cpu (default: gpu with CPU fallback)"},
		"IMGTENSOR_DEBUG":   {"IMGTENSOR_DEBUG", LogLevel(), "Show additional debug information (e.g. IMGTENSOR_DEBUG=1)"},
		"IMGTENSOR_JOBS":    {"IMGTENSOR_JOBS", Jobs(), "Images converted in parallel by the CLI (default: number of CPUs)"},
		"IMGTENSOR_POWER":   {"IMGTENSOR_POWER", Power(), "GPU adapter preference: low or high (default: high)"},
	}
}

// Values returns every variable formatted as a string.
func Values() map[string]string {
	vals := make(map[string]string)
	for k, v := range AsMap() {
		vals[k] = fmt.Sprintf("%v", v.Value)
	}
	return vals
}

// Var returns an environment variable stripped of surrounding space and
// quotes.
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
