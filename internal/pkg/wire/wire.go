// Package wire implements the line-oriented text protocol spoken between
// the ping-pong server and its clients.
//
// Three message kinds exist, one per line, newline-terminated ASCII:
//
//	[<request_number>] PING                      client request
//	[<response_id>/<request_number>] PONG (<client_id>)  server reply
//	[<response_id>] keepalive                    server push
package wire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// KeepaliveMarker identifies an unsolicited server push.
const KeepaliveMarker = "keepalive"

// ErrMalformed indicates a line that does not match any message format.
var ErrMalformed = errors.New("malformed message")

// Reply is a parsed server reply line.
type Reply struct {
	ResponseID    uint64
	RequestNumber uint64
	ClientID      uint64
}

// FormatRequest renders a client request for the given request number.
func FormatRequest(requestNumber uint64) string {
	return fmt.Sprintf("[%d] PING", requestNumber)
}

// ParseRequest extracts the request number from a client request line.
func ParseRequest(line string) (uint64, error) {
	rest, ok := strings.CutPrefix(line, "[")
	if !ok {
		return 0, ErrMalformed
	}
	num, rest, ok := strings.Cut(rest, "] ")
	if !ok || rest != "PING" {
		return 0, ErrMalformed
	}
	n, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return 0, errors.Wrap(ErrMalformed, err.Error())
	}
	return n, nil
}

// FormatReply renders a server reply correlating a response id to the
// request number it answers, stamped with the server-side client id.
func FormatReply(responseID, requestNumber, clientID uint64) string {
	return fmt.Sprintf("[%d/%d] PONG (%d)", responseID, requestNumber, clientID)
}

// ParseReply extracts the ids from a server reply line.
func ParseReply(line string) (Reply, error) {
	rest, ok := strings.CutPrefix(line, "[")
	if !ok {
		return Reply{}, ErrMalformed
	}
	ids, rest, ok := strings.Cut(rest, "] PONG (")
	if !ok {
		return Reply{}, ErrMalformed
	}
	client, ok := strings.CutSuffix(rest, ")")
	if !ok {
		return Reply{}, ErrMalformed
	}
	respID, reqNum, ok := strings.Cut(ids, "/")
	if !ok {
		return Reply{}, ErrMalformed
	}
	var reply Reply
	var err error
	if reply.ResponseID, err = strconv.ParseUint(respID, 10, 64); err != nil {
		return Reply{}, errors.Wrap(ErrMalformed, err.Error())
	}
	if reply.RequestNumber, err = strconv.ParseUint(reqNum, 10, 64); err != nil {
		return Reply{}, errors.Wrap(ErrMalformed, err.Error())
	}
	if reply.ClientID, err = strconv.ParseUint(client, 10, 64); err != nil {
		return Reply{}, errors.Wrap(ErrMalformed, err.Error())
	}
	return reply, nil
}

// FormatKeepalive renders a keepalive push for the given response id.
func FormatKeepalive(responseID uint64) string {
	return fmt.Sprintf("[%d] %s", responseID, KeepaliveMarker)
}

// IsKeepalive reports whether the line is a keepalive push rather than a
// reply. Matching is by marker token, as the client never inspects ids on
// the push path.
func IsKeepalive(line string) bool {
	return strings.Contains(line, KeepaliveMarker)
}
