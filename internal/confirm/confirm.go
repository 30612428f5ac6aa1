package confirm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrDenied означает, что оператор не подтвердил операцию.
var ErrDenied = errors.New("confirmation denied")

// PromptSource выдает ответ оператора на приглашение.
// Абстракция нужна, чтобы тестировать gate без терминала.
type PromptSource interface {
	Prompt(label string) (string, error)
}

// StdinSource читает ответы построчно из in, приглашение пишет в out.
type StdinSource struct {
	in  *bufio.Reader
	out io.Writer
}

// NewStdinSource создает источник поверх потоков процесса.
func NewStdinSource(in io.Reader, out io.Writer) *StdinSource {
	return &StdinSource{in: bufio.NewReader(in), out: out}
}

// Prompt печатает label и возвращает введенную строку без перевода строки.
func (s *StdinSource) Prompt(label string) (string, error) {
	if _, err := fmt.Fprint(s.out, label); err != nil {
		return "", err
	}
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read confirmation: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// RequireDouble требует дважды ввести token (точное совпадение,
// регистр учитывается; обрезаются только окружающие пробелы).
// Любое несовпадение возвращает ErrDenied без повторной попытки;
// обойти проверку конфигурацией нельзя.
func RequireDouble(src PromptSource, token string) error {
	first, err := src.Prompt(fmt.Sprintf("Type %s to confirm: ", token))
	if err != nil {
		return err
	}
	second, err := src.Prompt(fmt.Sprintf("Type %s again to confirm: ", token))
	if err != nil {
		return err
	}
	if strings.TrimSpace(first) != token || strings.TrimSpace(second) != token {
		return ErrDenied
	}
	return nil
}
