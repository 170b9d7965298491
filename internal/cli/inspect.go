package cli

import (
	"fmt"
	"io"

	"github.com/studiowebux/mcdu/internal/filter"
	"github.com/studiowebux/mcdu/internal/screen"
)

// InspectOptions configures Inspect
type InspectOptions struct {
	Path    string // wire message or "update:" frame, JSON or JSONC
	Side    screen.Side
	Lenient bool
	Format  string // text, json or yaml
	Filter  string // JMESPath filter
	Query   string // JMESPath query or $(shell command)
	Out     io.Writer
}

// Inspect decodes a message file and prints the resulting screen
func Inspect(opts InspectOptions) error {
	data, err := screen.LoadFixture(opts.Path)
	if err != nil {
		return err
	}
	return inspectPayload(data, opts)
}

func inspectPayload(payload []byte, opts InspectOptions) error {
	update, err := screen.NewDecoder(opts.Side, opts.Lenient).Decode(payload)
	if err != nil {
		return fmt.Errorf("failed to decode update: %w", err)
	}

	var output string
	if opts.Filter != "" || opts.Query != "" {
		output, err = filter.Apply(update, opts.Filter, opts.Query)
		if err != nil {
			return err
		}
		output += "\n"
	} else {
		output, err = formatUpdate(update, opts.Format)
		if err != nil {
			return err
		}
	}

	_, err = io.WriteString(opts.Out, output)
	return err
}
