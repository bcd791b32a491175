package iocli

// IO абстрагирует терминал для команд CLI.
type IO interface {
	Println(a ...any)
	Printf(format string, a ...any)
	ReadInput(prompt string) (string, error)
	ReadPassword(prompt string) (string, error)
	// ReadText читает многострочный текст до строки "." или EOF
	ReadText(prompt string) (string, error)
	Write(p []byte) (n int, err error)
}
