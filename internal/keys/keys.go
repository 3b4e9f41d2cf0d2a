package keys

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the global keybindings for the application. Bindings
// use function and ctrl keys so that plain typing always reaches the
// document, cell or form being edited.
type KeyMap struct {
	// Navigation
	Up    key.Binding
	Down  key.Binding
	Left  key.Binding
	Right key.Binding

	// Selection
	Select key.Binding
	Extend key.Binding

	// Back / Quit
	Back key.Binding
	Quit key.Binding

	// Command palette
	Command key.Binding

	// Help toggle
	Help key.Binding

	// Natural-language instruction
	Instruct key.Binding

	// Files
	New  key.Binding
	Open key.Binding
	Save key.Binding

	// Output
	Print key.Binding
	Speak key.Binding

	// Accessibility
	Larger   key.Binding
	Smaller  key.Binding
	Contrast key.Binding

	// Mail
	Refresh key.Binding
	Compose key.Binding
	Reply   key.Binding
	Forward key.Binding

	// Spreadsheet
	Calculator key.Binding
	Operations key.Binding
	Delete     key.Binding
}

// DefaultKeyMap returns the default set of keybindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "上へ"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "下へ"),
		),
		Left: key.NewBinding(
			key.WithKeys("left"),
			key.WithHelp("←", "左へ"),
		),
		Right: key.NewBinding(
			key.WithKeys("right"),
			key.WithHelp("→", "右へ"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "決定"),
		),
		Extend: key.NewBinding(
			key.WithKeys("shift+up", "shift+down", "shift+left", "shift+right"),
			key.WithHelp("shift+矢印", "範囲を選ぶ"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "戻る"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("ctrl+q", "終了"),
		),
		Command: key.NewBinding(
			key.WithKeys("ctrl+k"),
			key.WithHelp("ctrl+k", "コマンド"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("F1", "ヘルプ"),
		),
		Instruct: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "言葉で指示"),
		),
		New: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "新規"),
		),
		Open: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "開く"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "保存"),
		),
		Print: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("ctrl+p", "印刷"),
		),
		Speak: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "読み上げ/停止"),
		),
		Larger: key.NewBinding(
			key.WithKeys("f3"),
			key.WithHelp("F3", "文字を大きく"),
		),
		Smaller: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("F2", "文字を小さく"),
		),
		Contrast: key.NewBinding(
			key.WithKeys("f4"),
			key.WithHelp("F4", "ハイコントラスト"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("f5"),
			key.WithHelp("F5", "受信"),
		),
		Compose: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "新しいメール"),
		),
		Reply: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("ctrl+y", "返信"),
		),
		Forward: key.NewBinding(
			key.WithKeys("ctrl+f"),
			key.WithHelp("ctrl+f", "転送"),
		),
		Calculator: key.NewBinding(
			key.WithKeys("f7"),
			key.WithHelp("F7", "電卓"),
		),
		Operations: key.NewBinding(
			key.WithKeys("f6"),
			key.WithHelp("F6", "計算メニュー"),
		),
		Delete: key.NewBinding(
			key.WithKeys("delete"),
			key.WithHelp("del", "消す"),
		),
	}
}

// ShortHelp returns the most essential keybindings for the compact help view.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Select, k.Back, k.Help, k.Command, k.Quit,
	}
}

// FullHelp returns all keybindings grouped by category for the expanded
// help view.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Extend, k.Select, k.Back},
		{k.New, k.Open, k.Save, k.Print, k.Speak, k.Instruct},
		{k.Operations, k.Calculator, k.Delete},
		{k.Refresh, k.Compose, k.Reply, k.Forward},
		{k.Larger, k.Smaller, k.Contrast, k.Help, k.Command, k.Quit},
	}
}
