package server

import (
	"bufio"
	"context"
	"net"
	"strings"
	"time"

	"github.com/AndrewSkow24/tcp-ping-pong/internal/pkg/wire"

	"github.com/pkg/errors"
)

// handleClient drives one accepted connection end to end: register,
// read requests until disconnect, unregister. It runs on its own
// goroutine so the simulated processing delay never blocks other
// handlers or the broadcaster.
func (s *Server) handleClient(ctx context.Context, conn net.Conn) {
	c := s.registry.Register(conn)
	clientLogger := logger.WithField("client", c.ID())
	clientLogger.WithField("peer", c.RemoteAddr().String()).Info("client connected")
	defer func() {
		s.registry.Unregister(c.ID())
		if err := c.Close(); err != nil {
			clientLogger.WithError(err).Debug("close connection failed")
		}
		clientLogger.Info("client disconnected")
	}()

	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		requestTime := s.audit.Now()
		clientLogger.WithField("text", line).Debug("request received")

		if s.dropRequest() {
			clientLogger.WithField("text", line).Info("request ignored")
			if err := s.audit.Dropped(requestTime, line); err != nil {
				logger.Fatalln(errors.Wrap(err, "write audit entry failed"))
			}
			continue
		}

		requestNumber, err := wire.ParseRequest(line)
		if err != nil {
			// Lenient by contract: a protocol violation gets no reply
			// and no audit entry.
			clientLogger.WithField("text", line).Warning("malformed request skipped")
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.processingDelay()):
		}

		reply := wire.FormatReply(s.ids.Next(), requestNumber, c.ID())
		responseTime := s.audit.Now()
		if err := c.WriteLine(reply); err != nil {
			clientLogger.WithError(err).Warning("send reply failed")
			return
		}
		clientLogger.WithField("text", reply).Debug("reply sent")
		if err := s.audit.Exchange(requestTime, line, responseTime, reply); err != nil {
			logger.Fatalln(errors.Wrap(err, "write audit entry failed"))
		}
	}
	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		clientLogger.WithError(err).Warning("read failed")
	}
}
