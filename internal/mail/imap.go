package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
)

// wordDecoder decodes RFC 2047 envelope fields in any charset go-message
// knows, ISO-2022-JP and Shift_JIS included. Importing charset also sets
// message.CharsetReader for MIME bodies and attachment names.
var wordDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// IMAPClient reads the INBOX of one account. Every call opens its own
// session and logs out when done.
type IMAPClient struct {
	settings Settings
}

// NewIMAPClient creates a new IMAP client for the given account.
func NewIMAPClient(settings Settings) *IMAPClient {
	return &IMAPClient{settings: settings}
}

// Connect dials the server and logs in. The caller must Logout.
func (c *IMAPClient) Connect(ctx context.Context) (*imapclient.Client, error) {
	if !c.settings.CanReceive() {
		return nil, errNotConfigured
	}
	addr := c.settings.imapAddr()
	opts := &imapclient.Options{
		TLSConfig:   &tls.Config{ServerName: c.settings.IMAPServer},
		WordDecoder: wordDecoder,
	}

	var client *imapclient.Client
	var err error
	switch resolve(c.settings.IMAPSecurity, c.settings.IMAPPort, 993) {
	case SecurityTLS:
		client, err = imapclient.DialTLS(addr, opts)
	case SecurityNone:
		client, err = imapclient.DialInsecure(addr, opts)
	default:
		client, err = imapclient.DialStartTLS(addr, opts)
	}
	if err != nil {
		return nil, apperr.External("メールサーバーに接続できませんでした。",
			fmt.Errorf("connecting to IMAP %s: %w", addr, err))
	}

	// Unblock a hung server when the context ends.
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()

	if err := client.Login(c.settings.Address, c.settings.Password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, apperr.Auth("メールのパスワードが正しくないようです。設定を確認してください。",
			fmt.Errorf("IMAP login for %s: %w", c.settings.Address, err))
	}
	return client, nil
}

func (c *IMAPClient) session(ctx context.Context, fn func(*imapclient.Client, *imap.SelectData) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.settings.timeout())
	defer cancel()

	client, err := c.Connect(ctx)
	if err != nil {
		return err
	}
	stop := context.AfterFunc(ctx, func() { _ = client.Close() })
	defer stop()
	defer func() { _ = client.Logout().Wait() }()

	data, err := client.Select("INBOX", nil).Wait()
	if err != nil {
		return fmt.Errorf("selecting INBOX: %w", err)
	}
	if err := fn(client, data); err != nil {
		return err
	}
	return ctx.Err()
}

// FetchInbox returns the newest limit messages of the INBOX, newest
// first, with text bodies and attachment metadata. Messages are not
// marked as read.
func (c *IMAPClient) FetchInbox(ctx context.Context, limit int) ([]model.MailMessage, error) {
	var out []model.MailMessage
	err := c.session(ctx, func(client *imapclient.Client, data *imap.SelectData) error {
		if data.NumMessages == 0 {
			return nil
		}
		start := uint32(1)
		if limit > 0 && data.NumMessages > uint32(limit) {
			start = data.NumMessages - uint32(limit) + 1
		}
		var seqSet imap.SeqSet
		seqSet.AddRange(start, data.NumMessages)

		bodySection := &imap.FetchItemBodySection{Peek: true}
		fetchCmd := client.Fetch(seqSet, &imap.FetchOptions{
			Envelope:    true,
			Flags:       true,
			UID:         true,
			BodySection: []*imap.FetchItemBodySection{bodySection},
		})
		defer fetchCmd.Close()

		for {
			msg := fetchCmd.Next()
			if msg == nil {
				break
			}
			buf, err := msg.Collect()
			if err != nil {
				continue
			}
			out = append(out, messageFromBuffer(buf, buf.FindBodySection(bodySection)))
		}
		if err := fetchCmd.Close(); err != nil {
			return fmt.Errorf("fetching messages: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortNewestFirst(out)
	return out, nil
}

// SetFlags adds (or removes) flags on a message.
func (c *IMAPClient) SetFlags(ctx context.Context, uid uint32, flags []imap.Flag, add bool) error {
	return c.session(ctx, func(client *imapclient.Client, _ *imap.SelectData) error {
		op := imap.StoreFlagsAdd
		if !add {
			op = imap.StoreFlagsDel
		}
		storeCmd := client.Store(imap.UIDSetNum(imap.UID(uid)), &imap.StoreFlags{
			Op:     op,
			Silent: true,
			Flags:  flags,
		}, nil)
		if err := storeCmd.Close(); err != nil {
			return fmt.Errorf("storing flags on UID %d: %w", uid, err)
		}
		return nil
	})
}

// messageFromBuffer converts fetched envelope, flags and raw body into
// an inbox message.
func messageFromBuffer(buf *imapclient.FetchMessageBuffer, raw []byte) model.MailMessage {
	msg := model.MailMessage{UID: uint32(buf.UID)}

	if env := buf.Envelope; env != nil {
		msg.ID = env.MessageID
		msg.Subject = env.Subject
		msg.Date = env.Date

		if len(env.From) > 0 {
			from := env.From[0]
			msg.FromAddress = from.Addr()
			msg.From = from.Name
			if msg.From == "" {
				msg.From = msg.FromAddress
			}
		}

		var to []string
		for _, addr := range env.To {
			to = append(to, addr.Addr())
		}
		msg.To = strings.Join(to, ", ")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if strings.TrimSpace(msg.Subject) == "" {
		msg.Subject = model.NoSubject
	}

	for _, flag := range buf.Flags {
		if flag == imap.FlagSeen {
			msg.IsRead = true
		}
	}

	if raw != nil {
		text, html, attachments := parseMIMEBody(raw)
		msg.Body = text
		if msg.Body == "" {
			msg.Body = stripHTML(html)
		}
		msg.Attachments = attachments
		msg.HasAttachment = len(attachments) > 0
	}
	return msg
}

// parseMIMEBody extracts the text/plain body, the text/html body and the
// attachments of a raw RFC 5322 message.
func parseMIMEBody(raw []byte) (textBody, htmlBody string, attachments []model.MailAttachment) {
	mr, err := mail.CreateReader(bytes.NewReader(raw))
	if err != nil {
		// Not MIME; treat the whole thing as plain text.
		if _, body, ok := strings.Cut(string(raw), "\r\n\r\n"); ok {
			return body, "", nil
		}
		return string(raw), "", nil
	}
	defer mr.Close()

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			break
		}

		switch h := part.Header.(type) {
		case *mail.InlineHeader:
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			switch {
			case strings.HasPrefix(contentType, "text/plain") || contentType == "":
				if textBody == "" {
					textBody = string(body)
				}
			case strings.HasPrefix(contentType, "text/html"):
				if htmlBody == "" {
					htmlBody = string(body)
				}
			}

		case *mail.AttachmentHeader:
			filename, _ := h.Filename()
			if strings.TrimSpace(filename) == "" {
				filename = "attachment"
			}
			contentType, _, _ := h.ContentType()
			body, err := io.ReadAll(part.Body)
			if err != nil {
				continue
			}
			attachments = append(attachments, model.MailAttachment{
				FileName: filename,
				Size:     int64(len(body)),
				MIMEType: contentType,
				Content:  body,
			})
		}
	}
	return textBody, htmlBody, attachments
}
