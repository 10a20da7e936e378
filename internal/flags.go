package internal

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// Flag describes a command-line flag backed by a package-level variable,
// optionally overridable through an environment variable.
type Flag struct {
	Name    string
	Env     string
	Usage   string
	String  *string
	Int     *int
	Bool    *bool
	Default interface{}
}

// Configuration values populated from flags and the environment.
var (
	Env      string
	LogLevel string
	Debug    bool

	Host    string
	Port    int
	LogPath string

	RunSeconds int

	ClientID          int
	ClientTimeoutMS   int
	ClientJitterMinMS int
	ClientJitterMaxMS int

	ServerKeepaliveMS int
	ServerDelayMinMS  int
	ServerDelayMaxMS  int
)

// Flag definitions.
var (
	EnvFlag = Flag{
		Name:    "env",
		Env:     "PINGPONG_ENV",
		Usage:   "deployment environment (dev, prod)",
		String:  &Env,
		Default: "dev",
	}
	LogLevelFlag = Flag{
		Name:    "log-level",
		Env:     "PINGPONG_LOG_LEVEL",
		Usage:   "diagnostic log level (trace, debug, info, warn, error)",
		String:  &LogLevel,
		Default: "info",
	}

	DebugFlag = Flag{
		Name:    "debug",
		Env:     "PINGPONG_DEBUG",
		Usage:   "force debug verbosity regardless of log level",
		Bool:    &Debug,
		Default: false,
	}

	HostFlag = Flag{
		Name:    "host",
		Env:     "PINGPONG_HOST",
		Usage:   "host to listen on (server) or connect to (client)",
		String:  &Host,
		Default: "127.0.0.1",
	}
	PortFlag = Flag{
		Name:    "port",
		Env:     "PINGPONG_PORT",
		Usage:   "port to listen on (server) or connect to (client)",
		Int:     &Port,
		Default: 8888,
	}
	LogPathFlag = Flag{
		Name:    "log",
		Env:     "PINGPONG_LOG",
		Usage:   "audit log file path (empty selects the per-role default)",
		String:  &LogPath,
		Default: "",
	}
	RunSecondsFlag = Flag{
		Name:    "timeout",
		Env:     "PINGPONG_TIMEOUT",
		Usage:   "run duration in seconds",
		Int:     &RunSeconds,
		Default: 300,
	}

	ClientIDFlag = Flag{
		Name:    "id",
		Env:     "PINGPONG_CLIENT_ID",
		Usage:   "client identity used in log paths and diagnostics",
		Int:     &ClientID,
		Default: 1,
	}
	ClientTimeoutMSFlag = Flag{
		Name:    "reply-timeout-ms",
		Env:     "PINGPONG_REPLY_TIMEOUT_MS",
		Usage:   "how long the client waits for a correlated reply",
		Int:     &ClientTimeoutMS,
		Default: 2000,
	}
	ClientJitterMinMSFlag = Flag{
		Name:    "jitter-min-ms",
		Env:     "PINGPONG_JITTER_MIN_MS",
		Usage:   "lower bound of the pause between client cycles",
		Int:     &ClientJitterMinMS,
		Default: 300,
	}
	ClientJitterMaxMSFlag = Flag{
		Name:    "jitter-max-ms",
		Env:     "PINGPONG_JITTER_MAX_MS",
		Usage:   "upper bound of the pause between client cycles",
		Int:     &ClientJitterMaxMS,
		Default: 3000,
	}

	ServerKeepaliveMSFlag = Flag{
		Name:    "keepalive-ms",
		Env:     "PINGPONG_KEEPALIVE_MS",
		Usage:   "interval between keepalive broadcasts",
		Int:     &ServerKeepaliveMS,
		Default: 5000,
	}
	ServerDelayMinMSFlag = Flag{
		Name:    "delay-min-ms",
		Env:     "PINGPONG_DELAY_MIN_MS",
		Usage:   "lower bound of the simulated processing delay",
		Int:     &ServerDelayMinMS,
		Default: 100,
	}
	ServerDelayMaxMSFlag = Flag{
		Name:    "delay-max-ms",
		Env:     "PINGPONG_DELAY_MAX_MS",
		Usage:   "upper bound of the simulated processing delay",
		Int:     &ServerDelayMaxMS,
		Default: 1000,
	}
)

// RegisterCommandFlags registers the given flags on the command, applying
// environment variable overrides on top of the declared defaults.
func RegisterCommandFlags(cmd *cobra.Command, flags []*Flag) error {
	for _, flag := range flags {
		switch {
		case flag.String != nil:
			def, ok := flag.Default.(string)
			if !ok {
				return errors.Errorf("flag %s: default is not a string", flag.Name)
			}
			if v, found := os.LookupEnv(flag.Env); found {
				def = v
			}
			cmd.PersistentFlags().StringVar(flag.String, flag.Name, def, flag.Usage)
		case flag.Int != nil:
			def, ok := flag.Default.(int)
			if !ok {
				return errors.Errorf("flag %s: default is not an int", flag.Name)
			}
			if v, found := os.LookupEnv(flag.Env); found {
				parsed, err := strconv.Atoi(v)
				if err != nil {
					return errors.Wrapf(err, "parse %s failed", flag.Env)
				}
				def = parsed
			}
			cmd.PersistentFlags().IntVar(flag.Int, flag.Name, def, flag.Usage)
		case flag.Bool != nil:
			def, ok := flag.Default.(bool)
			if !ok {
				return errors.Errorf("flag %s: default is not a bool", flag.Name)
			}
			if v, found := os.LookupEnv(flag.Env); found {
				parsed, err := strconv.ParseBool(v)
				if err != nil {
					return errors.Wrapf(err, "parse %s failed", flag.Env)
				}
				def = parsed
			}
			cmd.PersistentFlags().BoolVar(flag.Bool, flag.Name, def, flag.Usage)
		default:
			return errors.Errorf("flag %s has no target", flag.Name)
		}
	}
	return nil
}
