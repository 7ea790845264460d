// Package presenter renders command results, as colored text for
// people or as one JSON object per command for scripts.
package presenter

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/amilzbot/agent-proof-cli/internal/app/apperrors"
	"github.com/amilzbot/agent-proof-cli/pkg/reasoncodes"

	"github.com/fatih/color"
)

type ErrorBody struct {
	Code    reasoncodes.ReasonCode `json:"code"`
	Message string                 `json:"message"`
}

type Envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// Presenter writes text output to Out and errors to Err. In JSON mode
// text output is suppressed and Result and Error write the envelope to
// Out.
type Presenter struct {
	Out  io.Writer
	Err  io.Writer
	JSON bool

	heading *color.Color
	key     *color.Color
	ok      *color.Color
	skip    *color.Color
	fail    *color.Color
}

func New(out, errOut io.Writer, jsonMode, noColor bool) *Presenter {
	p := &Presenter{
		Out:     out,
		Err:     errOut,
		JSON:    jsonMode,
		heading: color.New(color.FgCyan, color.Bold),
		key:     color.New(color.FgHiBlack),
		ok:      color.New(color.FgGreen),
		skip:    color.New(color.FgYellow),
		fail:    color.New(color.FgRed),
	}
	if noColor {
		for _, c := range []*color.Color{p.heading, p.key, p.ok, p.skip, p.fail} {
			c.DisableColor()
		}
	}
	return p
}

func (p *Presenter) Heading(title string) {
	if p.JSON {
		return
	}
	p.heading.Fprintln(p.Out, title)
}

// Row prints an indented "key: value" line.
func (p *Presenter) Row(key string, value any) {
	if p.JSON {
		return
	}
	fmt.Fprintf(p.Out, "  %s %v\n", p.key.Sprintf("%s:", key), value)
}

func (p *Presenter) Success(format string, args ...any) {
	p.mark(p.ok, "✓", format, args...)
}

func (p *Presenter) Skipped(format string, args ...any) {
	p.mark(p.skip, "↷", format, args...)
}

func (p *Presenter) Failure(format string, args ...any) {
	p.mark(p.fail, "✗", format, args...)
}

func (p *Presenter) mark(c *color.Color, symbol, format string, args ...any) {
	if p.JSON {
		return
	}
	fmt.Fprintf(p.Out, "%s %s\n", c.Sprint(symbol), fmt.Sprintf(format, args...))
}

// Result writes data as a successful JSON envelope. Text mode ignores
// it; the command has already printed its rows.
func (p *Presenter) Result(data any) error {
	if !p.JSON {
		return nil
	}
	return p.writeJSON(Envelope{Success: true, Data: data})
}

// Error reports err to the operator: a red line on Err in text mode,
// a failed envelope on Out in JSON mode.
func (p *Presenter) Error(err error) {
	if p.JSON {
		_ = p.writeJSON(Envelope{Error: &ErrorBody{Code: apperrors.CodeOf(err), Message: err.Error()}})
		return
	}
	fmt.Fprintf(p.Err, "%s %v\n", p.fail.Sprint("✗"), err)
}

func (p *Presenter) writeJSON(v Envelope) error {
	encoder := json.NewEncoder(p.Out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
