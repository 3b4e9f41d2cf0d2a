package apperr

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		kind Kind
	}{
		{"validation", Validation("宛先を入力してください"), KindValidation},
		{"not found", NotFound("ファイルが見つかりません", io.EOF), KindNotFound},
		{"auth", Auth("ログインできませんでした", nil), KindAuth},
		{"not configured", NotConfigured("設定が必要です"), KindNotConfigured},
		{"external", External("サーバーに接続できません", io.ErrUnexpectedEOF), KindExternal},
		{"internal", Internal("保存できませんでした", nil), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, tt.err.Kind)
			assert.NotNil(t, tt.err.Context)
			assert.Contains(t, tt.err.Error(), string(tt.kind))
		})
	}
}

func TestUnwrapAndIs(t *testing.T) {
	cause := io.ErrUnexpectedEOF
	err := fmt.Errorf("sending mail: %w", External("送信できませんでした", cause))

	assert.True(t, errors.Is(err, cause))
	assert.True(t, Is(err, KindExternal))
	assert.False(t, Is(err, KindAuth))
	assert.False(t, Is(errors.New("plain"), KindExternal))
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "", UserMessage(nil))
	assert.Equal(t, "宛先を入力してください",
		UserMessage(fmt.Errorf("wrap: %w", Validation("宛先を入力してください"))))
	assert.Contains(t, UserMessage(errors.New("boom")), "エラーが発生しました")
}

func TestWithContext(t *testing.T) {
	err := (&Error{Kind: KindInternal}).WithContext("path", "/tmp/x")
	require.NotNil(t, err.Context)
	assert.Equal(t, "/tmp/x", err.Context["path"])
}
