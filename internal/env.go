// Package internal holds the process-wide configuration surface shared by
// the commands and the role applications.
package internal

import (
	"github.com/pkg/errors"
)

// ValidateEnv checks that the configuration parsed from flags and the
// environment is internally consistent before any app starts.
func ValidateEnv() error {
	switch Env {
	case "dev", "prod":
	default:
		return errors.Errorf("unknown env %q", Env)
	}
	if Port <= 0 || Port > 65535 {
		return errors.Errorf("port %d out of range", Port)
	}
	if RunSeconds <= 0 {
		return errors.Errorf("run duration %ds must be positive", RunSeconds)
	}
	if ClientJitterMinMS > ClientJitterMaxMS {
		return errors.New("jitter bounds inverted")
	}
	if ServerDelayMinMS > ServerDelayMaxMS {
		return errors.New("processing delay bounds inverted")
	}
	return nil
}
