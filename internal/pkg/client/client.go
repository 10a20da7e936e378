package client

import (
	"bufio"
	"context"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/auditlog"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/log"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/wire"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// Defaults for the client timing behaviour.
const (
	DefaultReplyTimeout      = 2 * time.Second
	DefaultJitterMin         = 300 * time.Millisecond
	DefaultJitterMax         = 3000 * time.Millisecond
	DefaultReconnectAttempts = 5
	DefaultReconnectPause    = time.Second
)

// State is the position of the session in its reconnect state machine.
type State int

// Session states.
const (
	StateConnected State = iota
	StateDisconnected
	StateReconnecting
	StateFailed
)

// String returns a human-readable name for the state.
func (s State) String() string {
	switch s {
	case StateConnected:
		return "Connected"
	case StateDisconnected:
		return "Disconnected"
	case StateReconnecting:
		return "Reconnecting"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// link is one live connection together with the reply channel fed by its
// reader goroutine. The channel is closed when the reader exits, which is
// how the sender learns the connection is gone.
type link struct {
	conn    net.Conn
	replies chan string
}

// Client implements the client side of the ping-pong protocol.
type Client struct {
	serverAddr string
	clientID   int
	session    uuid.UUID
	audit      *auditlog.Writer
	dial       func(ctx context.Context) (net.Conn, error)

	replyTimeout      time.Duration
	jitterMin         time.Duration
	jitterMax         time.Duration
	reconnectAttempts int
	reconnectPause    time.Duration

	requestCounter uint64
	link           *link

	stateMu sync.Mutex
	state   State

	randMu sync.Mutex
	rng    *rand.Rand

	logger logrus.FieldLogger
}

// Cfg configures a Client.
type Cfg func(*Client) error

// WithServerAddr sets the server address to connect to.
func WithServerAddr(addr string) Cfg {
	return func(c *Client) error {
		c.serverAddr = addr
		return nil
	}
}

// WithClientID sets the client identity used in diagnostics.
func WithClientID(id int) Cfg {
	return func(c *Client) error {
		c.clientID = id
		return nil
	}
}

// WithAuditLog sets the audit log writer.
func WithAuditLog(audit *auditlog.Writer) Cfg {
	return func(c *Client) error {
		c.audit = audit
		return nil
	}
}

// WithReplyTimeout bounds the wait for a correlated reply.
func WithReplyTimeout(timeout time.Duration) Cfg {
	return func(c *Client) error {
		c.replyTimeout = timeout
		return nil
	}
}

// WithJitter bounds the random pause between send cycles.
func WithJitter(min, max time.Duration) Cfg {
	return func(c *Client) error {
		if min > max {
			return errors.New("jitter bounds inverted")
		}
		c.jitterMin = min
		c.jitterMax = max
		return nil
	}
}

// WithReconnectPolicy sets the attempt count and the pause between
// attempts used after a connection loss.
func WithReconnectPolicy(attempts int, pause time.Duration) Cfg {
	return func(c *Client) error {
		if attempts <= 0 {
			return errors.New("reconnect attempts must be positive")
		}
		c.reconnectAttempts = attempts
		c.reconnectPause = pause
		return nil
	}
}

// WithDialer replaces the TCP dialer, so tests can count or fail
// connection attempts deterministically.
func WithDialer(dial func(ctx context.Context) (net.Conn, error)) Cfg {
	return func(c *Client) error {
		c.dial = dial
		return nil
	}
}

// WithRand sets the random source behind the cycle jitter.
func WithRand(rng *rand.Rand) Cfg {
	return func(c *Client) error {
		c.rng = rng
		return nil
	}
}

// NewClient creates a new Client with the given configuration.
func NewClient(cfgs ...Cfg) (*Client, error) {
	c := &Client{
		replyTimeout:      DefaultReplyTimeout,
		jitterMin:         DefaultJitterMin,
		jitterMax:         DefaultJitterMax,
		reconnectAttempts: DefaultReconnectAttempts,
		reconnectPause:    DefaultReconnectPause,
		state:             StateDisconnected,
	}
	for _, cfg := range cfgs {
		if err := cfg(c); err != nil {
			return nil, errors.Wrap(err, "apply Client cfg failed")
		}
	}
	if c.audit == nil {
		return nil, errors.New("audit log is required")
	}
	if c.dial == nil {
		if c.serverAddr == "" {
			return nil, errors.New("server address is required")
		}
		dialer := &net.Dialer{}
		c.dial = func(ctx context.Context) (net.Conn, error) {
			return dialer.DialContext(ctx, "tcp", c.serverAddr)
		}
	}
	if c.rng == nil {
		c.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.session = uuid.New()
	c.logger = logger.WithFields(logrus.Fields{
		"client":  c.clientID,
		"session": c.session.String(),
	})
	return c, nil
}

// State returns the current reconnect state.
func (c *Client) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Client) setState(state State) {
	c.stateMu.Lock()
	prev := c.state
	c.state = state
	c.stateMu.Unlock()
	if prev != state {
		c.logger.WithFields(logrus.Fields{
			"from": prev.String(),
			"to":   state.String(),
		}).Debug("state changed")
	}
}

// Connect establishes the initial connection to the server.
func (c *Client) Connect(ctx context.Context) error {
	l, err := c.connect(ctx)
	if err != nil {
		return errors.Wrapf(err, "connect to %s failed", c.serverAddr)
	}
	c.link = l
	c.setState(StateConnected)
	c.logger.Info("connected")
	return nil
}

// connect dials the server and starts the demultiplexing reader for the
// new connection.
func (c *Client) connect(ctx context.Context) (*link, error) {
	conn, err := c.dial(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "dial failed")
	}
	l := &link{
		conn:    conn,
		replies: make(chan string, 1),
	}
	go c.readLoop(l)
	return l, nil
}

// readLoop is the single consumer of the connection's input stream. Each
// line is classified exactly once: keepalive pushes go straight to the
// audit log, everything else is delivered to the sender's reply channel.
// The channel is closed on disconnect.
func (c *Client) readLoop(l *link) {
	defer close(l.replies)
	scanner := bufio.NewScanner(l.conn)
	for scanner.Scan() {
		line := scanner.Text()
		receiveTime := c.audit.Now()
		if wire.IsKeepalive(line) {
			c.logger.WithField("text", line).Debug("keepalive received")
			if err := c.audit.Keepalive(receiveTime, line); err != nil {
				logger.Fatalln(errors.Wrap(err, "write audit entry failed"))
			}
			continue
		}
		select {
		case l.replies <- line:
		default:
			// Nobody is waiting anymore; a reply that arrives after its
			// timeout is discarded rather than left to satisfy the next
			// request's wait.
			c.logger.WithField("text", line).Warning("late reply discarded")
		}
	}
	if err := scanner.Err(); err != nil {
		c.logger.WithError(err).Warning("connection lost")
	}
}

// Run drives send cycles until the context is cancelled. Each cycle sends
// one numbered request, waits for its correlated reply within the reply
// timeout, and pauses a random jitter before the next cycle. Connection
// errors trigger the reconnect state machine; exhausted reconnects leave
// the session degraded but running.
func (c *Client) Run(ctx context.Context) error {
	if c.link == nil {
		return ErrNotConnected
	}
	c.logger.Info("client running")
	for {
		c.cycle(ctx)
		select {
		case <-ctx.Done():
			c.close()
			c.logger.Info("client stopped")
			return nil
		case <-time.After(c.jitter()):
		}
	}
}

// cycle performs one request/reply exchange. The request counter advances
// on every attempt, whatever its outcome.
func (c *Client) cycle(ctx context.Context) {
	requestNumber := c.requestCounter
	c.requestCounter++

	if c.link == nil {
		c.reconnect(ctx)
		if c.link == nil {
			c.logger.WithField("request", requestNumber).Warning("no connection, skipping cycle")
			return
		}
	}

	// Drop replies left over from a previous cycle before sending, so a
	// stale line can never be taken for this request's reply.
	for drained := false; !drained; {
		select {
		case stale, ok := <-c.link.replies:
			if !ok {
				c.reconnect(ctx)
				if c.link == nil {
					return
				}
				continue
			}
			c.logger.WithField("text", stale).Warning("stale reply discarded")
		default:
			drained = true
		}
	}

	request := wire.FormatRequest(requestNumber)
	sendTime := c.audit.Now()
	if _, err := c.link.conn.Write([]byte(request + "\n")); err != nil {
		c.logger.WithError(err).WithFields(log.RequestToFields(requestNumber, request)).Warning("send failed")
		c.reconnect(ctx)
		return
	}
	c.logger.WithFields(log.RequestToFields(requestNumber, request)).Debug("request sent")

	timer := time.NewTimer(c.replyTimeout)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return
	case line, ok := <-c.link.replies:
		if !ok {
			c.logger.WithField("request", requestNumber).Warning("connection lost while waiting for reply")
			c.reconnect(ctx)
			return
		}
		receiveTime := c.audit.Now()
		if reply, err := wire.ParseReply(line); err != nil {
			c.logger.WithField("text", line).Warning("unparseable reply")
		} else if reply.RequestNumber != requestNumber {
			c.logger.WithFields(log.ReplyToFields(reply.ResponseID, reply.RequestNumber, reply.ClientID)).
				Warning("reply correlates to a different request")
		} else {
			c.logger.WithFields(log.ReplyToFields(reply.ResponseID, reply.RequestNumber, reply.ClientID)).
				Debug("reply received")
		}
		if err := c.audit.Exchange(sendTime, request, receiveTime, line); err != nil {
			logger.Fatalln(errors.Wrap(err, "write audit entry failed"))
		}
	case <-timer.C:
		c.logger.WithFields(log.RequestToFields(requestNumber, request)).Warning("reply wait timed out")
		if err := c.audit.Timeout(sendTime, request, c.audit.Now()); err != nil {
			logger.Fatalln(errors.Wrap(err, "write audit entry failed"))
		}
	}
}

// reconnect runs the Disconnected -> Reconnecting -> Connected | Failed
// transition: close the stale handle, then redial with a fixed pause
// between attempts. Exhaustion leaves the session without a connection;
// the next cycle re-enters reconnect instead of crashing.
//
// The request counter is deliberately not reset here, so request numbers
// stay correlatable across connections in this client's audit log, even
// though the server sees the new connection as a brand-new client id.
func (c *Client) reconnect(ctx context.Context) {
	c.setState(StateDisconnected)
	c.close()
	c.setState(StateReconnecting)
	for attempt := 1; attempt <= c.reconnectAttempts; attempt++ {
		if ctx.Err() != nil {
			return
		}
		l, err := c.connect(ctx)
		if err == nil {
			c.link = l
			c.setState(StateConnected)
			c.logger.WithField("attempt", attempt).Info("reconnected")
			return
		}
		c.logger.WithError(err).WithField("attempt", attempt).Warning("reconnect attempt failed")
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.reconnectPause):
		}
	}
	c.setState(StateFailed)
	c.logger.WithError(ErrReconnectExhausted).WithField("attempts", c.reconnectAttempts).Error("running without a connection")
}

func (c *Client) close() {
	if c.link == nil {
		return
	}
	if err := c.link.conn.Close(); err != nil {
		c.logger.WithError(err).Debug("close connection failed")
	}
	c.link = nil
}

func (c *Client) jitter() time.Duration {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	spread := int64(c.jitterMax - c.jitterMin)
	return c.jitterMin + time.Duration(c.rng.Int63n(spread+1))
}
