// Package cfg implements functionaltiy to configure an app.
//
// The configuration objects defined here need only be implemented once,
// but can be applied to multiple types.
//
// In order to add support for a new type, the configuration
// need only implement an ApplyX method.
//
package cfg

import (
	"time"

	"github.com/AndrewSkow24/tcp-ping-pong/internal"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/app/apps"
)

// AddrCfg is configuration for the server address.
type AddrCfg struct {
	host string
	port int
}

// NewAddrCfg creates a new AddrCfg from the given config.
func NewAddrCfg(host string, port int) *AddrCfg {
	return &AddrCfg{
		host: host,
		port: port,
	}
}

// AddrFromEnv creates a new AddrCfg from the current environment.
func AddrFromEnv() *AddrCfg {
	return &AddrCfg{
		host: internal.Host,
		port: internal.Port,
	}
}

// ApplyClientApp applies the AddrCfg to a ClientApp.
func (cfg AddrCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.Host = cfg.host
	app.Port = cfg.port
	return nil
}

// ApplyServerApp applies the AddrCfg to a ServerApp.
func (cfg AddrCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.Host = cfg.host
	app.Port = cfg.port
	return nil
}

// AuditLogCfg is configuration for the audit log path.
type AuditLogCfg struct {
	path string
}

// NewAuditLogCfg creates a new AuditLogCfg from the given config.
func NewAuditLogCfg(path string) *AuditLogCfg {
	return &AuditLogCfg{
		path: path,
	}
}

// AuditLogFromEnv creates a new AuditLogCfg from the current environment.
func AuditLogFromEnv() *AuditLogCfg {
	return &AuditLogCfg{
		path: internal.LogPath,
	}
}

// ApplyClientApp applies the AuditLogCfg to a ClientApp.
func (cfg AuditLogCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.LogPath = cfg.path
	return nil
}

// ApplyServerApp applies the AuditLogCfg to a ServerApp.
func (cfg AuditLogCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.LogPath = cfg.path
	return nil
}

// RunForCfg is configuration for the run-duration bound.
type RunForCfg struct {
	d time.Duration
}

// NewRunForCfg creates a new RunForCfg from the given config.
func NewRunForCfg(d time.Duration) *RunForCfg {
	return &RunForCfg{
		d: d,
	}
}

// RunForFromEnv creates a new RunForCfg from the current environment.
func RunForFromEnv() *RunForCfg {
	return &RunForCfg{
		d: time.Duration(internal.RunSeconds) * time.Second,
	}
}

// ApplyClientApp applies the RunForCfg to a ClientApp.
func (cfg RunForCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.RunFor = cfg.d
	return nil
}

// ApplyServerApp applies the RunForCfg to a ServerApp.
func (cfg RunForCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.RunFor = cfg.d
	return nil
}

// ClientIDCfg is configuration for the client identity.
type ClientIDCfg struct {
	id int
}

// NewClientIDCfg creates a new ClientIDCfg from the given config.
func NewClientIDCfg(id int) *ClientIDCfg {
	return &ClientIDCfg{
		id: id,
	}
}

// ClientIDFromEnv creates a new ClientIDCfg from the current environment.
func ClientIDFromEnv() *ClientIDCfg {
	return &ClientIDCfg{
		id: internal.ClientID,
	}
}

// ApplyClientApp applies the ClientIDCfg to a ClientApp.
func (cfg ClientIDCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.ClientID = cfg.id
	return nil
}

// TimingCfg is configuration for the protocol timing knobs.
type TimingCfg struct {
	keepalive    time.Duration
	delayMin     time.Duration
	delayMax     time.Duration
	replyTimeout time.Duration
	jitterMin    time.Duration
	jitterMax    time.Duration
}

// TimingFromEnv creates a new TimingCfg from the current environment.
func TimingFromEnv() *TimingCfg {
	return &TimingCfg{
		keepalive:    time.Duration(internal.ServerKeepaliveMS) * time.Millisecond,
		delayMin:     time.Duration(internal.ServerDelayMinMS) * time.Millisecond,
		delayMax:     time.Duration(internal.ServerDelayMaxMS) * time.Millisecond,
		replyTimeout: time.Duration(internal.ClientTimeoutMS) * time.Millisecond,
		jitterMin:    time.Duration(internal.ClientJitterMinMS) * time.Millisecond,
		jitterMax:    time.Duration(internal.ClientJitterMaxMS) * time.Millisecond,
	}
}

// ApplyClientApp applies the TimingCfg to a ClientApp.
func (cfg TimingCfg) ApplyClientApp(app *apps.ClientApp) error {
	app.ReplyTimeout = cfg.replyTimeout
	app.JitterMin = cfg.jitterMin
	app.JitterMax = cfg.jitterMax
	return nil
}

// ApplyServerApp applies the TimingCfg to a ServerApp.
func (cfg TimingCfg) ApplyServerApp(app *apps.ServerApp) error {
	app.KeepaliveInterval = cfg.keepalive
	app.DelayMin = cfg.delayMin
	app.DelayMax = cfg.delayMax
	return nil
}
