package ai

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
)

const (
	NotConfiguredMessage = "AIが設定されていません。設定画面でAPIキーを入力してください。"
	ParseFailureMessage  = "AIの応答を理解できませんでした。もう一度お試しください。"
)

// Mail actions the model may choose.
const (
	MailActionCompose = "compose"
	MailActionReply   = "reply"
	MailActionForward = "forward"
)

// SpreadsheetResult is the structured reply to a spreadsheet instruction.
type SpreadsheetResult struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Changes []model.CellChange `json:"changes"`
}

// DocumentResult is the structured reply to a document instruction.
type DocumentResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	NewText string `json:"newText"`
}

// MailResult is the structured reply to a mail instruction.
type MailResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Action  string `json:"action"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

const spreadsheetSystem = `You edit a spreadsheet for an elderly Japanese user.
Reply with one JSON object only:
{"success": true, "message": "<short Japanese confirmation>",
 "changes": [{"column": "A", "row": 1, "value": "<text or number>", "formula": "<=FORMULA or empty>"}]}
Use Excel formulas (SUM, AVERAGE, + - * /). Rows start at 1.
If the request is unclear, reply {"success": false, "message": "<Japanese question>", "changes": []}.`

const documentSystem = `You help an elderly Japanese user edit a letter or document.
Apply the instruction to the document and reply with one JSON object only:
{"success": true, "message": "<short Japanese confirmation>", "newText": "<the whole new document>"}
Keep polite Japanese. If the request is unclear, set success to false and ask in message.`

const mailSystem = `You help an elderly Japanese user write e-mail.
Reply with one JSON object only:
{"success": true, "message": "<short Japanese confirmation>", "action": "compose|reply|forward",
 "to": "<address or empty>", "subject": "<subject>", "body": "<polite Japanese body>"}
If the request is unclear, set success to false and ask in message.`

// ProcessSpreadsheetCommand asks the model to turn command into cell
// changes. sheet is a plain-text dump of the non-empty cells.
func (c *Client) ProcessSpreadsheetCommand(
	ctx context.Context, command, sheet string,
) (SpreadsheetResult, error) {
	user := fmt.Sprintf("現在のシート:\n%s\n\n指示: %s", orNone(sheet), command)

	var res SpreadsheetResult
	if err := c.completeJSON(ctx, spreadsheetSystem, user, &res); err != nil {
		return SpreadsheetResult{Message: apperr.UserMessage(err)}, err
	}
	return res, nil
}

// ProcessDocumentCommand asks the model to rewrite text per command.
func (c *Client) ProcessDocumentCommand(
	ctx context.Context, command, text string,
) (DocumentResult, error) {
	user := fmt.Sprintf("現在の文書:\n%s\n\n指示: %s", orNone(text), command)

	var res DocumentResult
	if err := c.completeJSON(ctx, documentSystem, user, &res); err != nil {
		return DocumentResult{Message: apperr.UserMessage(err)}, err
	}
	return res, nil
}

// ProcessMailCommand asks the model to draft or revise a message.
func (c *Client) ProcessMailCommand(
	ctx context.Context, command string, draft model.MailDraft,
) (MailResult, error) {
	user := fmt.Sprintf("宛先: %s\n件名: %s\n本文:\n%s\n\n指示: %s",
		draft.To, draft.Subject, orNone(draft.Body), command)

	var res MailResult
	if err := c.completeJSON(ctx, mailSystem, user, &res); err != nil {
		return MailResult{Message: apperr.UserMessage(err)}, err
	}
	switch res.Action {
	case MailActionCompose, MailActionReply, MailActionForward:
	default:
		res.Action = MailActionCompose
	}
	return res, nil
}

// completeJSON runs one completion and decodes the JSON object embedded
// in the reply into v.
func (c *Client) completeJSON(ctx context.Context, system, user string, v any) error {
	if !c.Configured() {
		return apperr.NotConfigured(NotConfiguredMessage)
	}

	text, err := c.Complete(ctx, system, user)
	if err != nil {
		c.logger.Warn("claude request failed", zap.Error(err))
		return err
	}

	raw, err := ExtractJSON(text)
	if err != nil {
		return apperr.External(ParseFailureMessage, err)
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		c.logger.Debug("unparseable claude reply", zap.String("reply", text))
		return apperr.External(ParseFailureMessage, fmt.Errorf("decoding reply: %w", err))
	}
	return nil
}

func orNone(s string) string {
	if s == "" {
		return "(なし)"
	}
	return s
}
