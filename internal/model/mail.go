package model

import "time"

// NoSubject is shown for messages without a subject line.
const NoSubject = "(件名なし)"

// MailMessage is a received message as shown in the inbox.
type MailMessage struct {
	ID            string
	UID           uint32
	From          string
	FromAddress   string
	To            string
	Subject       string
	Body          string
	Date          time.Time
	IsRead        bool
	HasAttachment bool
	Attachments   []MailAttachment
}

// MailAttachment is a file attached to an incoming or outgoing message.
type MailAttachment struct {
	FileName string
	// FilePath is set for outgoing attachments picked from disk.
	FilePath string
	Size     int64
	MIMEType string
	// Content holds the bytes of an incoming attachment.
	Content []byte
}

// MailDraft is a message being composed.
type MailDraft struct {
	To          string
	Subject     string
	Body        string
	Attachments []MailAttachment
}
