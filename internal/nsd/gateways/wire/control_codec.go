// Package wire provides encoding and decoding for the NSD control protocol:
// a line-oriented text exchange over the daemon's TLS control channel. A
// request is one header-prefixed command line (optionally followed by a
// multi-line data payload); a reply is a status line optionally followed by
// key/value lines.
package wire

import (
	"bytes"
	"strings"

	"github.com/haukened/nsdctl/internal/nsd/common/log"
	"github.com/haukened/nsdctl/internal/nsd/domain"
)

const (
	// controlHeader prefixes every command line; the trailing digit is the
	// control protocol version the daemon expects.
	controlHeader = "NSDCT1"

	// endOfData terminates a multi-line payload. Payload lines consisting
	// of a single dot are stuffed with a second one, SMTP style.
	endOfData = "."

	tokenOK    = "ok"
	tokenError = "error"
)

// controlCodec implements ControlCodec for the NSD control channel.
type controlCodec struct {
	logger log.Logger
}

// NewControlCodec creates a codec for the control protocol. The logger is
// used for parse diagnostics only and defaults to a no-op when nil.
func NewControlCodec(logger log.Logger) *controlCodec {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &controlCodec{
		logger: logger,
	}
}

// EncodeCommand serializes a command as
//
//	NSDCT1 <name> [arg1] [arg2] ...\n
//
// followed, when the command carries a data payload, by the payload lines
// and a lone "." terminator line.
func (c *controlCodec) EncodeCommand(cmd domain.Command) ([]byte, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(controlHeader)
	buf.WriteByte(' ')
	buf.WriteString(cmd.Name)
	for _, arg := range cmd.Args {
		buf.WriteByte(' ')
		buf.WriteString(arg)
	}
	buf.WriteByte('\n')

	if cmd.Data != "" {
		for _, line := range strings.Split(strings.TrimSuffix(cmd.Data, "\n"), "\n") {
			line = strings.TrimSuffix(line, "\r")
			if strings.HasPrefix(line, ".") {
				buf.WriteByte('.')
			}
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
		buf.WriteString(endOfData)
		buf.WriteByte('\n')
	}

	return buf.Bytes(), nil
}

// DecodeReply parses raw reply lines into a Response.
//
// The first line is the status line: a leading "ok" token (any case,
// optional "," or ":" after it) marks success, a leading "error" token
// marks failure, and any other leading token marks failure with the whole
// line kept as the message. Remaining lines matching "key: value" (or the
// "key=value" form the stats commands emit) become ordered fields; lines
// with no separator are free-form diagnostics appended to the message.
// Duplicate keys keep their first position but the last value wins, since
// some replies re-emit evolving counters.
func (c *controlCodec) DecodeReply(lines []string) (domain.Response, error) {
	if len(lines) == 0 {
		return domain.Response{}, &domain.ProtocolError{Reason: "empty reply"}
	}

	resp := domain.Response{}
	var msgParts []string

	status := strings.TrimSpace(lines[0])
	token, rest := splitToken(status)
	switch {
	case isOKToken(token):
		resp.Success = true
		if rest != "" {
			msgParts = append(msgParts, rest)
		}
	case strings.EqualFold(strings.TrimRight(token, ":,"), tokenError):
		if rest != "" {
			msgParts = append(msgParts, rest)
		}
	default:
		if status != "" {
			msgParts = append(msgParts, status)
		}
	}

	index := make(map[string]int)
	for _, raw := range lines[1:] {
		key, value, ok := splitField(raw)
		if !ok {
			if trimmed := strings.TrimSpace(raw); trimmed != "" {
				msgParts = append(msgParts, trimmed)
			}
			continue
		}
		if i, seen := index[key]; seen {
			resp.Fields[i].Value = value
			continue
		}
		index[key] = len(resp.Fields)
		resp.Fields = append(resp.Fields, domain.Field{Key: key, Value: value})
	}

	resp.Message = strings.Join(msgParts, "\n")

	c.logger.Debug(map[string]any{
		"success": resp.Success,
		"fields":  len(resp.Fields),
	}, "decoded control reply")

	return resp, nil
}

// splitToken splits a status line into its first token and the trimmed rest.
func splitToken(line string) (token, rest string) {
	token, rest, _ = strings.Cut(line, " ")
	return token, strings.TrimSpace(rest)
}

// isOKToken reports whether the status token signals success. The daemon
// writes "ok" but also "ok," with a trailing summary.
func isOKToken(token string) bool {
	return strings.EqualFold(strings.TrimRight(token, ":,"), tokenOK)
}

// splitField splits a "key: value" (or "key=value") line. The colon form
// wins when both separators appear, matching how the daemon quotes values.
func splitField(line string) (key, value string, ok bool) {
	sep := strings.IndexByte(line, ':')
	if sep < 0 {
		sep = strings.IndexByte(line, '=')
	}
	if sep <= 0 {
		return "", "", false
	}
	key = strings.TrimSpace(line[:sep])
	value = strings.TrimSpace(line[sep+1:])
	if key == "" {
		return "", "", false
	}
	return key, value, true
}

var _ ControlCodec = (*controlCodec)(nil)
