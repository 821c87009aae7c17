// Package term реализует интерактивный вход MTProto-аккаунта справочника.
package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/tg"
	"golang.org/x/term"
	"golang.org/x/xerrors"
)

// Terminal спрашивает код и пароль 2FA у оператора.
type Terminal struct {
	phone        string
	in           *bufio.Reader
	out          io.Writer
	readPassword func() ([]byte, error)
}

var _ auth.UserAuthenticator = (*Terminal)(nil)

// NewTerminal создает аутентификатор поверх stdin/stdout.
func NewTerminal(phone string) *Terminal {
	fd := int(os.Stdin.Fd())
	t := NewTerminalIO(phone, os.Stdin, os.Stdout)
	t.readPassword = func() ([]byte, error) { return term.ReadPassword(fd) }
	return t
}

// NewTerminalIO создает аутентификатор с произвольными потоками.
// Пароль читается из того же потока, что и код, без скрытия ввода.
func NewTerminalIO(phone string, in io.Reader, out io.Writer) *Terminal {
	t := &Terminal{
		phone: phone,
		in:    bufio.NewReader(in),
		out:   out,
	}
	t.readPassword = func() ([]byte, error) {
		line, err := t.readLine()
		return []byte(line), err
	}
	return t
}

func (t *Terminal) Phone(_ context.Context) (string, error) {
	if t.phone == "" {
		return "", xerrors.New("phone number is not configured")
	}
	return t.phone, nil
}

// Password запрашивает пароль 2FA.
func (t *Terminal) Password(_ context.Context) (string, error) {
	fmt.Fprintf(t.out, "Enter 2FA password for %s: ", t.phone)
	pwd, err := t.readPassword()
	if err != nil {
		return "", xerrors.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(t.out)
	return strings.TrimSpace(string(pwd)), nil
}

func (t *Terminal) AcceptTermsOfService(_ context.Context, tos tg.HelpTermsOfService) error {
	fmt.Fprintf(t.out, "Accepting Terms of Service: %s\n", tos.Text)
	return nil
}

// Code запрашивает код подтверждения, присланный в Telegram.
func (t *Terminal) Code(_ context.Context, _ *tg.AuthSentCode) (string, error) {
	fmt.Fprintf(t.out, "Enter code for %s: ", t.phone)
	code, err := t.readLine()
	if err != nil {
		return "", xerrors.Errorf("failed to read code: %w", err)
	}
	if code == "" {
		return "", xerrors.New("empty code")
	}
	return code, nil
}

// SignUp не поддерживается: справочнику нужен существующий аккаунт.
func (t *Terminal) SignUp(_ context.Context) (auth.UserInfo, error) {
	return auth.UserInfo{}, xerrors.New("signup not implemented")
}

func (t *Terminal) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
