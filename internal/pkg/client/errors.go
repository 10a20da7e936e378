package client

import "github.com/pkg/errors"

// ErrNotConnected indicates that Run was called before Connect.
var ErrNotConnected = errors.New("not connected")

// ErrReconnectExhausted indicates that all reconnect attempts failed and
// the session is running without a connection.
var ErrReconnectExhausted = errors.New("reconnect attempts exhausted")
