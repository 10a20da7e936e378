package apps

import (
	"context"
	"fmt"
	"time"

	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/auditlog"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/client"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/validate"

	"github.com/pkg/errors"
)

// ClientAppCfg configures a ClientApp.
type ClientAppCfg interface {
	ApplyClientApp(*ClientApp) error
}

// ClientApp is the ping-pong client application.
type ClientApp struct {
	Host     string `validate:"required"`
	Port     int    `validate:"required,min=1,max=65535"`
	ClientID int    `validate:"required,min=1"`
	LogPath  string `validate:"required"`

	RunFor       time.Duration `validate:"required"`
	ReplyTimeout time.Duration `validate:"required"`
	JitterMin    time.Duration
	JitterMax    time.Duration
}

// NewClientApp creates a new ClientApp.
func NewClientApp(cfgs ...ClientAppCfg) (*ClientApp, error) {
	app := &ClientApp{}
	for _, cfg := range cfgs {
		if err := cfg.ApplyClientApp(app); err != nil {
			return nil, errors.Wrap(err, "apply ClientApp cfg failed")
		}
	}
	if app.ClientID == 0 {
		app.ClientID = 1
	}
	if app.LogPath == "" {
		app.LogPath = fmt.Sprintf("logs/client_%d.log", app.ClientID)
	}
	if app.ReplyTimeout == 0 {
		app.ReplyTimeout = client.DefaultReplyTimeout
	}
	if app.JitterMin == 0 && app.JitterMax == 0 {
		app.JitterMin = client.DefaultJitterMin
		app.JitterMax = client.DefaultJitterMax
	}
	if err := validate.Validate().Struct(app); err != nil {
		return nil, errors.Wrap(err, "validate ClientApp failed")
	}
	return app, nil
}

// Run pings the server for the configured duration, then stops cleanly.
func (app *ClientApp) Run(ctx context.Context, args []string) error {
	audit, err := auditlog.NewWriter(app.LogPath)
	if err != nil {
		return errors.Wrap(err, "open audit log failed")
	}
	defer audit.Close()

	c, err := client.NewClient(
		client.WithServerAddr(fmt.Sprintf("%s:%d", app.Host, app.Port)),
		client.WithClientID(app.ClientID),
		client.WithAuditLog(audit),
		client.WithReplyTimeout(app.ReplyTimeout),
		client.WithJitter(app.JitterMin, app.JitterMax),
	)
	if err != nil {
		return errors.Wrap(err, "create client failed")
	}

	runCtx, cancel := context.WithTimeout(ctx, app.RunFor)
	defer cancel()
	if err := c.Connect(runCtx); err != nil {
		return errors.Wrap(err, "connect client failed")
	}
	return errors.Wrap(c.Run(runCtx), "run client failed")
}
