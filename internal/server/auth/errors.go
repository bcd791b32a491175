package auth

import "errors"

// Ошибки уровня аутентификации и авторизации.
// Handlers отображают их в HTTP статусы через errors.Is.
var (
	// ErrMissingField не передано обязательное поле
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidField поле не прошло проверку формата
	ErrInvalidField = errors.New("invalid field")
	// ErrDuplicateCredential email или username уже заняты
	ErrDuplicateCredential = errors.New("user already exists")
	// ErrInvalidCredentials неверный email или пароль, причина не раскрывается
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated запрос без токена или с некорректным заголовком Authorization
	ErrUnauthenticated = errors.New("authentication required")
	// ErrInvalidOrExpiredToken токен не прошел проверку, истек или отозван
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	// ErrNotFound пользователь из токена больше не существует
	ErrNotFound = errors.New("user not found")
	// ErrForbidden ресурс принадлежит другому пользователю
	ErrForbidden = errors.New("forbidden")
)
