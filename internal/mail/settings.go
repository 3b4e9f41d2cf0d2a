// Package mail reads the inbox over IMAP, sends over SMTP and keeps a
// local cache of fetched messages.
package mail

import (
	"strconv"
	"time"

	"github.com/nhle/harmonicsheet/internal/apperr"
	"github.com/nhle/harmonicsheet/internal/model"
)

// Security selects how a connection is encrypted.
type Security int

const (
	// SecurityAuto uses implicit TLS on 465/993 and STARTTLS elsewhere.
	SecurityAuto Security = iota
	SecurityTLS
	SecurityStartTLS
	// SecurityNone is only meant for local test servers.
	SecurityNone
)

// Settings are the account and server details for one mailbox.
type Settings struct {
	Address     string
	Password    string
	DisplayName string

	SMTPServer   string
	SMTPPort     int
	SMTPSecurity Security

	IMAPServer   string
	IMAPPort     int
	IMAPSecurity Security

	// Timeout bounds one IMAP or SMTP session.
	Timeout time.Duration
}

const defaultTimeout = 30 * time.Second

// SettingsFrom builds mail settings from the user's app settings.
func SettingsFrom(s *model.AppSettings, timeout time.Duration) Settings {
	return Settings{
		Address:     s.EmailAddress,
		Password:    s.EmailPassword,
		DisplayName: s.DisplayName,
		SMTPServer:  s.SMTPServer,
		SMTPPort:    s.SMTPPort,
		IMAPServer:  s.IMAPServer,
		IMAPPort:    s.IMAPPort,
		Timeout:     timeout,
	}
}

// IsConfigured reports whether enough is set to send mail.
func (s Settings) IsConfigured() bool {
	return s.SMTPServer != "" && s.Address != ""
}

// CanReceive reports whether the inbox can be fetched.
func (s Settings) CanReceive() bool {
	return s.IMAPServer != "" && s.Address != ""
}

func (s Settings) timeout() time.Duration {
	if s.Timeout <= 0 {
		return defaultTimeout
	}
	return s.Timeout
}

func (s Settings) smtpAddr() string {
	port := s.SMTPPort
	if port == 0 {
		port = model.DefaultSMTPPort
	}
	return s.SMTPServer + ":" + strconv.Itoa(port)
}

func (s Settings) imapAddr() string {
	port := s.IMAPPort
	if port == 0 {
		port = model.DefaultIMAPPort
	}
	return s.IMAPServer + ":" + strconv.Itoa(port)
}

func resolve(sec Security, port, tlsPort int) Security {
	if sec != SecurityAuto {
		return sec
	}
	if port == tlsPort {
		return SecurityTLS
	}
	return SecurityStartTLS
}

var errNotConfigured = apperr.NotConfigured("メール設定がされていません。設定画面でメールアカウントを設定してください。")
