package term

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTerminal_Code(t *testing.T) {
	var out bytes.Buffer
	term := NewTerminalIO("+70000000000", strings.NewReader(" 12345 \n"), &out)

	code, err := term.Code(context.Background(), &tg.AuthSentCode{})
	require.NoError(t, err)
	assert.Equal(t, "12345", code)
	assert.Contains(t, out.String(), "Enter code for +70000000000")
}

func TestTerminal_CodeWithoutNewline(t *testing.T) {
	term := NewTerminalIO("+70000000000", strings.NewReader("777"), &bytes.Buffer{})

	code, err := term.Code(context.Background(), &tg.AuthSentCode{})
	require.NoError(t, err)
	assert.Equal(t, "777", code)
}

func TestTerminal_EmptyInput(t *testing.T) {
	term := NewTerminalIO("+70000000000", strings.NewReader(""), &bytes.Buffer{})

	_, err := term.Code(context.Background(), &tg.AuthSentCode{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read code")
}

func TestTerminal_Password(t *testing.T) {
	term := NewTerminalIO("+70000000000", strings.NewReader("12345\nsecret\n"), &bytes.Buffer{})

	_, err := term.Code(context.Background(), &tg.AuthSentCode{})
	require.NoError(t, err)

	pwd, err := term.Password(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "secret", pwd)
}

func TestTerminal_Phone(t *testing.T) {
	phone, err := NewTerminalIO("+70000000000", strings.NewReader(""), &bytes.Buffer{}).Phone(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "+70000000000", phone)

	_, err = NewTerminalIO("", strings.NewReader(""), &bytes.Buffer{}).Phone(context.Background())
	assert.Error(t, err)
}

func TestTerminal_SignUpUnsupported(t *testing.T) {
	_, err := NewTerminalIO("+7", strings.NewReader(""), &bytes.Buffer{}).SignUp(context.Background())
	assert.EqualError(t, err, "signup not implemented")
}
