package ui

import (
	"github.com/nhle/harmonicsheet/internal/model"
	"github.com/nhle/harmonicsheet/internal/printing"
)

// View identifies a screen of the application.
type View int

const (
	ViewPortal View = iota
	ViewDocument
	ViewSheet
	ViewMail
	ViewContacts
	ViewSettings
	ViewTutorial
	ViewHelp
	ViewCommand
)

// String returns the Japanese screen name used in the header.
func (v View) String() string {
	switch v {
	case ViewDocument:
		return "文書"
	case ViewSheet:
		return "表計算"
	case ViewMail:
		return "メール"
	case ViewContacts:
		return "連絡帳"
	case ViewSettings:
		return "設定"
	case ViewTutorial:
		return "使い方ガイド"
	case ViewHelp:
		return "ヘルプ"
	case ViewCommand:
		return "コマンド"
	default:
		return "ホーム"
	}
}

// ViewFromTarget maps a tutorial step target to the view it points at.
func ViewFromTarget(target string) (View, bool) {
	switch target {
	case "portal":
		return ViewPortal, true
	case "document":
		return ViewDocument, true
	case "sheet":
		return ViewSheet, true
	case "mail":
		return ViewMail, true
	case "settings":
		return ViewSettings, true
	case "help":
		return ViewHelp, true
	}
	return 0, false
}

// NavigateMsg asks the root model to switch screens.
type NavigateMsg struct {
	View View
	// Path optionally names a file to open in the target view.
	Path string
}

// BackMsg asks the root model to return to the portal.
type BackMsg struct{}

// StatusMsg shows a message in the status bar. Err, when set, is shown
// through apperr.UserMessage instead of Text.
type StatusMsg struct {
	Text string
	Err  error
}

// SpeakMsg asks the root model to read Text aloud, stopping anything
// already being read.
type SpeakMsg struct {
	Text string
}

// StopSpeakingMsg stops the current utterance.
type StopSpeakingMsg struct{}

// PrintMsg asks the root model to submit a print job.
type PrintMsg struct {
	Job printing.Job
}

// ComposeMsg opens the mail composer with a prepared draft.
type ComposeMsg struct {
	Draft model.MailDraft
}

// SettingsSavedMsg is sent after the settings screen persisted changes.
type SettingsSavedMsg struct {
	Settings *model.AppSettings
}

// OpenedFileMsg records a file in the recent list of its kind.
type OpenedFileMsg struct {
	View View
	Path string
}

// NewBudgetMsg opens the spreadsheet with a fresh household budget.
type NewBudgetMsg struct{}
