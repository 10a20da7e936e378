package apps

import (
	"context"
	"fmt"
	"time"

	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/auditlog"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/server"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/validate"

	"github.com/pkg/errors"
)

// DefaultServerLogPath is used when no audit log path is configured.
const DefaultServerLogPath = "logs/server.log"

// ServerAppCfg configures a ServerApp.
type ServerAppCfg interface {
	ApplyServerApp(*ServerApp) error
}

// ServerApp is the ping-pong server application.
type ServerApp struct {
	Host    string `validate:"required"`
	Port    int    `validate:"required,min=1,max=65535"`
	LogPath string `validate:"required"`

	RunFor            time.Duration `validate:"required"`
	KeepaliveInterval time.Duration `validate:"required"`
	DelayMin          time.Duration
	DelayMax          time.Duration
}

// NewServerApp creates a new ServerApp.
func NewServerApp(cfgs ...ServerAppCfg) (*ServerApp, error) {
	app := &ServerApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplyServerApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ServerApp cfg failed")
		}
	}
	if app.LogPath == "" {
		app.LogPath = DefaultServerLogPath
	}
	if app.KeepaliveInterval == 0 {
		app.KeepaliveInterval = server.DefaultKeepaliveInterval
	}
	if app.DelayMin == 0 && app.DelayMax == 0 {
		app.DelayMin = server.DefaultDelayMin
		app.DelayMax = server.DefaultDelayMax
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ServerApp failed")
	}
	return app, nil
}

// Run serves clients for the configured duration, then stops cleanly.
func (app *ServerApp) Run(ctx context.Context, args []string) error {
	audit, err := auditlog.NewWriter(app.LogPath)
	if err != nil {
		return errors.Wrap(err, "open audit log failed")
	}
	defer audit.Close()

	s, err := server.NewServer(
		server.WithAddr(fmt.Sprintf("%s:%d", app.Host, app.Port)),
		server.WithAuditLog(audit),
		server.WithKeepaliveInterval(app.KeepaliveInterval),
		server.WithProcessingDelay(app.DelayMin, app.DelayMax),
	)
	if err != nil {
		return errors.Wrap(err, "create server failed")
	}

	runCtx, cancel := context.WithTimeout(ctx, app.RunFor)
	defer cancel()
	return errors.Wrap(s.Run(runCtx), "run server failed")
}
