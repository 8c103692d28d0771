package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/spf13/viper"
	"github.com/vk/taskroute/internal/app"
	"github.com/vk/taskroute/internal/router"
)

// EnvPrefix prefixes the environment variables that supply flag defaults,
// e.g. TASKROUTE_LOG_LEVEL for -log-level.
const EnvPrefix = "TASKROUTE"

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// flagDefaults returns the flag defaults, overridden by TASKROUTE_* variables.
func flagDefaults() *viper.Viper {
	v := viper.New()
	v.SetDefault("config", "")
	v.SetDefault("modules_path", "modules")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("taskroute", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
taskroute - Route a command line to a module, task and action.

Usage:
  taskroute [options] [module:]task [action] [key=value | value ...]

Arguments:
  [module:]task   Task to run, optionally qualified by its module.
  action          Action of the task.
  key=value       Named param. The keys module, task and action set that name.
  value           Positional param, keyed 0, 1, 2, ... and bound to the
                  action param declared at that position.

Run 'taskroute help' to list the available actions.

Options:
`)
		flagSet.PrintDefaults()
	}

	defaults := flagDefaults()
	configFlag := flagSet.String("config", defaults.GetString("config"), "Path to a config file or directory. Env: TASKROUTE_CONFIG.")
	modulesPathFlag := flagSet.String("modules-path", defaults.GetString("modules_path"), "Path to the directory containing module manifests. Env: TASKROUTE_MODULES_PATH.")
	logLevelFlag := flagSet.String("log-level", defaults.GetString("log_level"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'. Env: TASKROUTE_LOG_LEVEL.")
	logFormatFlag := flagSet.String("log-format", defaults.GetString("log_format"), "Log output format. Options: 'text' or 'json'. Env: TASKROUTE_LOG_FORMAT.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.", "positional", flagSet.NArg())

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	arguments, err := Arguments(flagSet.Args())
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("CLI parameter validation complete.", "arguments", len(arguments))

	config, err := app.NewConfig(app.Config{
		ConfigPath:  *configFlag,
		ModulesPath: *modulesPathFlag,
		LogFormat:   logFormat,
		LogLevel:    logLevel,
		Arguments:   arguments,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}

// ErrDuplicateArgument is returned when one key is given twice.
var ErrDuplicateArgument = errors.New("argument given more than once")

// Arguments turns positional command-line tokens into the mapping handed
// to the router. A `key=value` token sets key. The first bare token is the
// task, written `task` or `module:task`; the second bare token is the
// action; every later bare token is a positional param keyed by its index
// among those params ("0", "1", ...).
func Arguments(tokens []string) (map[string]string, error) {
	out := make(map[string]string, len(tokens))
	set := func(key, val string) error {
		if _, dup := out[key]; dup {
			return fmt.Errorf("%w: '%s'", ErrDuplicateArgument, key)
		}
		out[key] = val
		return nil
	}

	bare := 0
	for _, tok := range tokens {
		if key, val, ok := strings.Cut(tok, "="); ok {
			if key == "" {
				return nil, fmt.Errorf("invalid argument '%s': empty key", tok)
			}
			if err := set(key, val); err != nil {
				return nil, err
			}
			continue
		}

		var err error
		switch bare {
		case 0:
			err = setTask(tok, set)
		case 1:
			err = set(router.KeyAction, tok)
		default:
			err = set(strconv.Itoa(bare-2), tok)
		}
		if err != nil {
			return nil, err
		}
		bare++
	}
	return out, nil
}

func setTask(tok string, set func(key, val string) error) error {
	module, task, qualified := strings.Cut(tok, ":")
	if !qualified {
		return set(router.KeyTask, tok)
	}
	if module == "" || task == "" {
		return fmt.Errorf("invalid task '%s': expected 'module:task'", tok)
	}
	if err := set(router.KeyModule, module); err != nil {
		return err
	}
	return set(router.KeyTask, task)
}
