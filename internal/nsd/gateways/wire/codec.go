package wire

import (
	"github.com/haukened/nsdctl/internal/nsd/domain"
)

// ControlCodec translates between domain values and the NSD control
// protocol's text framing: one command line out, a sequence of reply
// lines back in.
type ControlCodec interface {
	// EncodeCommand serializes a command into its wire form, header and
	// line terminator included, plus the data payload when present.
	EncodeCommand(cmd domain.Command) ([]byte, error)

	// DecodeReply parses the raw reply lines (terminator already stripped
	// by the transport) into a Response. Fails with *domain.ProtocolError
	// when the reply cannot be interpreted.
	DecodeReply(lines []string) (domain.Response, error)
}
