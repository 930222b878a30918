package domain

import (
	"fmt"
	"strings"
)

// Command represents one request on the NSD control channel: a command name,
// its ordered argument tokens, and an optional multi-line data payload
// (zone file contents for addzone/updatezone).
type Command struct {
	Name string
	Args []string
	Data string
}

// NewCommand constructs a Command and validates its fields.
func NewCommand(name string, args ...string) (Command, error) {
	c := Command{
		Name: name,
		Args: args,
	}
	if err := c.Validate(); err != nil {
		return Command{}, err
	}
	return c, nil
}

// WithData returns a copy of the command carrying the given multi-line payload.
func (c Command) WithData(data string) Command {
	c.Data = data
	return c
}

// Validate checks whether the command is structurally valid: a non-empty
// name with no whitespace or control bytes, and argument tokens free of
// line breaks (a newline in a token would split the wire line).
func (c Command) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("command name must not be empty")
	}
	if strings.ContainsAny(c.Name, " \t\r\n") {
		return fmt.Errorf("command name %q must not contain whitespace", c.Name)
	}
	for i, arg := range c.Args {
		if strings.ContainsAny(arg, "\r\n") {
			return fmt.Errorf("argument %d of %q must not contain line breaks", i, c.Name)
		}
	}
	return nil
}

// String returns the command name and arguments space-joined, for logging.
// The data payload is omitted since zone files can be large.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}
