package server

import (
	"context"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/auditlog"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/registry"
	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/wire"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var logger logrus.FieldLogger = logrus.StandardLogger()

// Defaults for the simulated-network behaviour.
const (
	DefaultKeepaliveInterval = 5 * time.Second
	DefaultDelayMin          = 100 * time.Millisecond
	DefaultDelayMax          = 1000 * time.Millisecond
	DefaultDropProbability   = 0.10
)

// Server accepts client connections and answers their pings, pushing
// keepalives to every live connection on a fixed interval.
type Server struct {
	addr     string
	listener net.Listener
	audit    *auditlog.Writer

	registry *registry.Registry
	ids      registry.Allocator

	keepaliveInterval time.Duration
	delayMin          time.Duration
	delayMax          time.Duration
	dropProbability   float64

	randMu sync.Mutex
	rng    *rand.Rand
}

// Cfg configures a Server.
type Cfg func(*Server) error

// WithAddr sets the address to listen on.
func WithAddr(addr string) Cfg {
	return func(s *Server) error {
		s.addr = addr
		return nil
	}
}

// WithListener sets a pre-bound listener, taking precedence over the
// address. Used by tests to bind an ephemeral port.
func WithListener(ln net.Listener) Cfg {
	return func(s *Server) error {
		s.listener = ln
		return nil
	}
}

// WithAuditLog sets the audit log writer.
func WithAuditLog(audit *auditlog.Writer) Cfg {
	return func(s *Server) error {
		s.audit = audit
		return nil
	}
}

// WithKeepaliveInterval sets the interval between keepalive broadcasts.
func WithKeepaliveInterval(interval time.Duration) Cfg {
	return func(s *Server) error {
		s.keepaliveInterval = interval
		return nil
	}
}

// WithProcessingDelay bounds the simulated per-request processing delay.
func WithProcessingDelay(min, max time.Duration) Cfg {
	return func(s *Server) error {
		if min > max {
			return errors.New("processing delay bounds inverted")
		}
		s.delayMin = min
		s.delayMax = max
		return nil
	}
}

// WithDropProbability sets the probability of ignoring a request.
func WithDropProbability(p float64) Cfg {
	return func(s *Server) error {
		if p < 0 || p > 1 {
			return errors.New("drop probability out of range")
		}
		s.dropProbability = p
		return nil
	}
}

// WithRand sets the random source behind the drop decision and the
// processing delay, so tests can force deterministic outcomes.
func WithRand(rng *rand.Rand) Cfg {
	return func(s *Server) error {
		s.rng = rng
		return nil
	}
}

// NewServer creates a new Server with the given configuration.
func NewServer(cfgs ...Cfg) (*Server, error) {
	s := &Server{
		registry:          registry.NewRegistry(),
		keepaliveInterval: DefaultKeepaliveInterval,
		delayMin:          DefaultDelayMin,
		delayMax:          DefaultDelayMax,
		dropProbability:   DefaultDropProbability,
	}
	for _, cfg := range cfgs {
		if err := cfg(s); err != nil {
			return nil, errors.Wrap(err, "apply Server cfg failed")
		}
	}
	if s.audit == nil {
		return nil, errors.New("audit log is required")
	}
	if s.listener == nil && s.addr == "" {
		return nil, errors.New("listen address is required")
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return s, nil
}

// Addr returns the listener address. Valid only while Run is active.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Run listens for clients and serves them until the context is
// cancelled. On cancellation the listener and every live connection are
// closed; no new work is accepted afterwards.
func (s *Server) Run(ctx context.Context) error {
	if s.listener == nil {
		ln, err := net.Listen("tcp", s.addr)
		if err != nil {
			return errors.Wrapf(err, "listen on %s failed", s.addr)
		}
		s.listener = ln
	}
	logger.WithField("addr", s.listener.Addr().String()).Info("server listening")

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		if err := s.listener.Close(); err != nil {
			logger.WithError(err).Warning("close listener failed")
		}
		for _, c := range s.registry.Snapshot() {
			s.registry.Unregister(c.ID())
			if err := c.Close(); err != nil {
				logger.WithError(err).Warning("close connection failed")
			}
		}
		return nil
	})
	g.Go(func() error {
		s.broadcastKeepalives(ctx)
		return nil
	})
	g.Go(func() error {
		s.acceptLoop(ctx)
		return nil
	})
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "server run failed")
	}
	logger.Info("server stopped")
	return nil
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.WithError(err).Warning("accept failed")
			continue
		}
		go s.handleClient(ctx, conn)
	}
}

// broadcastKeepalives pushes one keepalive to every registered connection
// on each tick. A write failure to one connection unregisters it without
// affecting delivery to the others. Ticks with an empty registry consume
// no response id.
func (s *Server) broadcastKeepalives(ctx context.Context) {
	ticker := time.NewTicker(s.keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.registry.Len() == 0 {
				continue
			}
			msg := wire.FormatKeepalive(s.ids.Next())
			for _, c := range s.registry.Snapshot() {
				if err := c.WriteLine(msg); err != nil {
					logger.WithError(err).WithField("client", c.ID()).Warning("keepalive delivery failed")
					s.registry.Unregister(c.ID())
					if err := c.Close(); err != nil {
						logger.WithError(err).WithField("client", c.ID()).Debug("close connection failed")
					}
					continue
				}
				logger.WithField("client", c.ID()).Debug("keepalive delivered")
			}
		}
	}
}

func (s *Server) dropRequest() bool {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	return s.rng.Float64() < s.dropProbability
}

func (s *Server) processingDelay() time.Duration {
	s.randMu.Lock()
	defer s.randMu.Unlock()
	spread := int64(s.delayMax - s.delayMin)
	return s.delayMin + time.Duration(s.rng.Int63n(spread+1))
}
