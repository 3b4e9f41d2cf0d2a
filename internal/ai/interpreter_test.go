package ai

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/harmonicsheet/internal/command"
)

func TestInterpreterWithoutKeyUsesLocalParser(t *testing.T) {
	i := NewInterpreter(New(""), nil)
	assert.False(t, i.UsesAI())

	res := i.Interpret(context.Background(), "A2に1万円入れて", "")
	require.True(t, res.Success)
	assert.Equal(t, "10000", res.Changes[0].Value)

	res = i.Interpret(context.Background(), "てすと", "")
	assert.False(t, res.Success)
	assert.Equal(t, command.FailureMessage, res.Message)
}

func TestInterpreterUsesAI(t *testing.T) {
	srv := fakeClaude(t, http.StatusOK,
		`{"success": true, "message": "B1に平均を入れました", "changes": [{"column": "B", "row": 1, "formula": "=AVERAGE(A1:A3)"}]}`,
		nil, nil)
	i := NewInterpreter(New("sk", WithEndpoint(srv.URL)), nil)

	res := i.Interpret(context.Background(), "A1からA3の平均をB1に", "")
	require.True(t, res.Success)
	assert.Equal(t, "=AVERAGE(A1:A3)", res.Changes[0].Formula)
}

func TestInterpreterFallsBackOnFailure(t *testing.T) {
	srv := fakeClaude(t, http.StatusInternalServerError, `{"error":{"type":"api_error","message":"boom"}}`, nil, nil)
	i := NewInterpreter(New("sk", WithEndpoint(srv.URL)), nil)

	res := i.Interpret(context.Background(), "A1とA2を足してA3に", "")
	require.True(t, res.Success)
	assert.Equal(t, "=A1+A2", res.Changes[0].Formula)

	res = i.Interpret(context.Background(), "意味のない文", "")
	assert.False(t, res.Success)
	assert.NotEmpty(t, res.Message)
}
