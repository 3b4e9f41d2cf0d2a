package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
)

// Sender submits messages over SMTP with PLAIN authentication.
type Sender struct {
	settings Settings
	now      func() time.Time
}

// NewSender creates a sender for the given account.
func NewSender(settings Settings) *Sender {
	return &Sender{settings: settings, now: time.Now}
}

// Send composes the draft as a MIME message and submits it.
func (s *Sender) Send(ctx context.Context, draft model.MailDraft) error {
	if !s.settings.IsConfigured() {
		return errNotConfigured
	}
	to, err := parseRecipients(draft.To)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := s.compose(&buf, draft, to); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.settings.timeout())
	defer cancel()

	client, err := s.dial()
	if err != nil {
		return err
	}
	defer client.Close()
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	if s.settings.Password != "" {
		auth := sasl.NewPlainClient("", s.settings.Address, s.settings.Password)
		if err := client.Auth(auth); err != nil {
			return classifySMTP(err, "SMTP auth")
		}
	}

	rcpts := make([]string, 0, len(to))
	for _, a := range to {
		rcpts = append(rcpts, a.Address)
	}
	if err := client.SendMail(s.settings.Address, rcpts, &buf); err != nil {
		if ctx.Err() != nil {
			return apperr.External("送信がタイムアウトしました。", ctx.Err())
		}
		return classifySMTP(err, "SMTP send")
	}
	return client.Quit()
}

func (s *Sender) dial() (*smtp.Client, error) {
	addr := s.settings.smtpAddr()
	tlsConfig := &tls.Config{ServerName: s.settings.SMTPServer}

	var client *smtp.Client
	var err error
	switch resolve(s.settings.SMTPSecurity, s.settings.SMTPPort, 465) {
	case SecurityTLS:
		client, err = smtp.DialTLS(addr, tlsConfig)
	case SecurityNone:
		client, err = smtp.Dial(addr)
	default:
		client, err = smtp.DialStartTLS(addr, tlsConfig)
	}
	if err != nil {
		return nil, apperr.External("メールサーバーに接続できませんでした。",
			fmt.Errorf("connecting to SMTP %s: %w", addr, err))
	}
	client.CommandTimeout = s.settings.timeout()
	client.SubmissionTimeout = s.settings.timeout()
	return client, nil
}

// classifySMTP maps 535 (authentication failed) to an auth error.
func classifySMTP(err error, op string) error {
	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) && (smtpErr.Code == 535 || smtpErr.Code == 534) {
		return apperr.Auth("メールのパスワードが正しくないようです。設定を確認してください。",
			fmt.Errorf("%s: %w", op, err))
	}
	return apperr.External("メールを送信できませんでした。", fmt.Errorf("%s: %w", op, err))
}

func parseRecipients(to string) ([]*mail.Address, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, apperr.Validation("宛先を入力してください")
	}
	list, err := mail.ParseAddressList(strings.ReplaceAll(to, "、", ","))
	if err != nil || len(list) == 0 {
		return nil, apperr.Validation("宛先のメールアドレスが正しくありません: " + to)
	}
	return list, nil
}

// RecipientAddresses returns the bare addresses in a To field such as
// "花子 <hanako@example.jp>、taro@example.jp". It returns nil when the
// field does not parse.
func RecipientAddresses(to string) []string {
	list, err := parseRecipients(to)
	if err != nil {
		return nil
	}
	out := make([]string, len(list))
	for i, a := range list {
		out[i] = a.Address
	}
	return out
}

// compose writes a UTF-8 plain-text message with the draft's
// attachments read from disk.
func (s *Sender) compose(w io.Writer, draft model.MailDraft, to []*mail.Address) error {
	var h mail.Header
	h.SetDate(s.now())
	h.SetAddressList("From", []*mail.Address{{Name: s.settings.DisplayName, Address: s.settings.Address}})
	h.SetAddressList("To", to)
	h.SetSubject(draft.Subject)
	if err := h.GenerateMessageID(); err != nil {
		return fmt.Errorf("generating message id: %w", err)
	}

	mw, err := mail.CreateWriter(w, h)
	if err != nil {
		return fmt.Errorf("creating message writer: %w", err)
	}

	var th mail.InlineHeader
	th.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	th.Set("Content-Transfer-Encoding", "quoted-printable")
	tw, err := mw.CreateSingleInline(th)
	if err != nil {
		return fmt.Errorf("creating text part: %w", err)
	}
	if _, err := io.WriteString(tw, draft.Body); err != nil {
		return fmt.Errorf("writing body: %w", err)
	}
	if err := tw.Close(); err != nil {
		return fmt.Errorf("closing text part: %w", err)
	}

	for _, att := range draft.Attachments {
		if err := writeAttachment(mw, att); err != nil {
			return err
		}
	}
	return mw.Close()
}

func writeAttachment(mw *mail.Writer, att model.MailAttachment) error {
	content := att.Content
	if content == nil && att.FilePath != "" {
		data, err := os.ReadFile(att.FilePath)
		if err != nil {
			return apperr.NotFound("添付ファイルが見つかりません: "+filepath.Base(att.FilePath), err)
		}
		content = data
	}

	name := att.FileName
	if name == "" {
		name = filepath.Base(att.FilePath)
	}
	mimeType := att.MIMEType
	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(name))
	}
	mimeType, params, err := mime.ParseMediaType(mimeType)
	if err != nil {
		mimeType, params = "application/octet-stream", nil
	}

	var ah mail.AttachmentHeader
	ah.SetFilename(name)
	ah.SetContentType(mimeType, params)
	ah.Set("Content-Transfer-Encoding", "base64")
	aw, err := mw.CreateAttachment(ah)
	if err != nil {
		return fmt.Errorf("creating attachment %s: %w", name, err)
	}
	if _, err := aw.Write(content); err != nil {
		return fmt.Errorf("writing attachment %s: %w", name, err)
	}
	return aw.Close()
}
