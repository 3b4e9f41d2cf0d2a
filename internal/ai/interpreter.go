package ai

import (
	"context"

	"go.uber.org/zap"

	"github.com/nhle/harmonicsheet/internal/command"
)

// Interpreter resolves spreadsheet instructions with the LLM when it is
// configured and with the local regex parser otherwise. A failed LLM
// call also falls back to the local parser.
type Interpreter struct {
	client *Client
	logger *zap.Logger
}

// NewInterpreter creates an interpreter. client may be nil.
func NewInterpreter(client *Client, logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{client: client, logger: logger}
}

// UsesAI reports whether instructions go to the LLM first.
func (i *Interpreter) UsesAI() bool {
	return i.client.Configured()
}

// Interpret turns text into cell changes. sheet is the current sheet
// contents as text, forwarded to the LLM for context.
func (i *Interpreter) Interpret(ctx context.Context, text, sheet string) command.Result {
	if !i.client.Configured() {
		return command.Parse(text)
	}

	res, err := i.client.ProcessSpreadsheetCommand(ctx, text, sheet)
	if err != nil {
		i.logger.Info("falling back to local parser", zap.Error(err))
		local := command.Parse(text)
		if local.Success {
			return local
		}
		return command.Result{Message: res.Message}
	}

	return command.Result{
		Success: res.Success && len(res.Changes) > 0,
		Message: res.Message,
		Changes: res.Changes,
	}
}
