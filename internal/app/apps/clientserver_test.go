package apps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type serverAppCfgFunc func(*ServerApp) error

func (f serverAppCfgFunc) ApplyServerApp(app *ServerApp) error { return f(app) }

type clientAppCfgFunc func(*ClientApp) error

func (f clientAppCfgFunc) ApplyClientApp(app *ClientApp) error { return f(app) }

func TestNewServerApp(t *testing.T) {
	s, err := NewServerApp(serverAppCfgFunc(func(app *ServerApp) error {
		app.Host = "127.0.0.1"
		app.Port = 8888
		app.RunFor = time.Minute
		return nil
	}))
	require.NoError(t, err)
	require.Equal(t, DefaultServerLogPath, s.LogPath)
	require.NotZero(t, s.KeepaliveInterval)
	require.LessOrEqual(t, s.DelayMin, s.DelayMax)
}

func TestNewServerAppRejectsMissingAddr(t *testing.T) {
	_, err := NewServerApp()
	require.Error(t, err)
}

func TestNewClientApp(t *testing.T) {
	c, err := NewClientApp(clientAppCfgFunc(func(app *ClientApp) error {
		app.Host = "127.0.0.1"
		app.Port = 8888
		app.ClientID = 3
		app.RunFor = time.Minute
		return nil
	}))
	require.NoError(t, err)
	require.Equal(t, "logs/client_3.log", c.LogPath)
	require.NotZero(t, c.ReplyTimeout)
	require.LessOrEqual(t, c.JitterMin, c.JitterMax)
}

func TestNewClientAppRejectsBadPort(t *testing.T) {
	_, err := NewClientApp(clientAppCfgFunc(func(app *ClientApp) error {
		app.Host = "127.0.0.1"
		app.Port = 70000
		app.RunFor = time.Minute
		return nil
	}))
	require.Error(t, err)
}
