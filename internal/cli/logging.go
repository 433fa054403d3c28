package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/pflag"
)

// EnvLogLevel overrides the default log level when --log-level is not given.
const EnvLogLevel = "PLUGINMGMT_LOG_LEVEL"

const defaultLogLevel = "warn"

func addLogFlags(flags *pflag.FlagSet) {
	flags.String("log-level", defaultLogLevel, "log level (trace, debug, info, warn, error, off); env "+EnvLogLevel)
	flags.BoolP("verbose", "v", false, "enable verbose output (debug logging, gateway plugin logs)")
}

// logLevel resolves the effective level: an explicit --log-level wins over
// the environment, and --verbose raises anything quieter to debug.
func logLevel(flags *pflag.FlagSet) (hclog.Level, error) {
	name := defaultLogLevel
	if f := flags.Lookup("log-level"); f != nil {
		name = f.Value.String()
		if !f.Changed {
			if env := os.Getenv(EnvLogLevel); env != "" {
				name = env
			}
		}
	}

	level := hclog.LevelFromString(strings.TrimSpace(name))
	if level == hclog.NoLevel {
		return hclog.NoLevel, fmt.Errorf("invalid log level %q", name)
	}

	if verbose, _ := flags.GetBool("verbose"); verbose && level > hclog.Debug {
		level = hclog.Debug
	}
	return level, nil
}

func newLogger(w io.Writer, level hclog.Level) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:   "pluginmgmt",
		Output: w,
		Level:  level,
	})
}
