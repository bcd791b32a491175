package iocli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// textTerminator завершает многострочный ввод
const textTerminator = "."

type Stdio struct {
	in  *bufio.Reader
	out io.Writer
	// fd терминала для ввода пароля без эха, -1 если ввод не терминал
	fd int
}

// NewStdio работает с os.Stdin и os.Stdout.
func NewStdio() IO {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		fd = -1
	}
	return &Stdio{in: bufio.NewReader(os.Stdin), out: os.Stdout, fd: fd}
}

// New creates an IO over arbitrary streams. Passwords are read as plain lines.
func New(in io.Reader, out io.Writer) *Stdio {
	return &Stdio{in: bufio.NewReader(in), out: out, fd: -1}
}

func (s *Stdio) Println(a ...any) {
	_, _ = fmt.Fprintln(s.out, a...)
}

func (s *Stdio) Printf(format string, a ...any) {
	_, _ = fmt.Fprintf(s.out, format, a...)
}

func (s *Stdio) Write(p []byte) (int, error) {
	return s.out.Write(p)
}

func (s *Stdio) ReadInput(prompt string) (string, error) {
	s.Printf("%s", prompt)
	line, err := s.readLine()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func (s *Stdio) ReadPassword(prompt string) (string, error) {
	s.Printf("%s", prompt)
	if s.fd < 0 {
		line, err := s.readLine()
		if err != nil {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	pwBytes, err := term.ReadPassword(s.fd)
	s.Println("")
	if err != nil {
		return "", err
	}
	return string(pwBytes), nil
}

func (s *Stdio) ReadText(prompt string) (string, error) {
	s.Printf("%s (finish with a single %q line)\n", prompt, textTerminator)

	var lines []string
	for {
		line, err := s.in.ReadString('\n')
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == textTerminator {
			break
		}
		if trimmed != "" || err == nil {
			lines = append(lines, trimmed)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// readLine возвращает io.EOF только если ничего не прочитано
func (s *Stdio) readLine() (string, error) {
	line, err := s.in.ReadString('\n')
	if errors.Is(err, io.EOF) && line != "" {
		return line, nil
	}
	return line, err
}
