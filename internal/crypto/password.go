package crypto

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrPasswordMismatch пароль не соответствует сохраненному хешу
var ErrPasswordMismatch = errors.New("password does not match")

// dummyPassword используется для выравнивания времени ответа,
// когда пользователь с указанным email не найден
const dummyPassword = "gophblog-timing-equalizer"

// PasswordHasher хеширует и проверяет пароли через bcrypt.
//
// bcrypt занимает CPU на десятки миллисекунд, поэтому число одновременных
// операций ограничено семафором: всплеск регистраций не съедает все ядра
// и не мешает обработке остальных запросов. Ожидание слота прерывается ctx.
type PasswordHasher struct {
	sem       *semaphore.Weighted
	dummyHash []byte
	cost      int
}

// NewPasswordHasher создает hasher с заданной стоимостью bcrypt.
// maxConcurrent <= 0 означает runtime.NumCPU().
func NewPasswordHasher(cost, maxConcurrent int) (*PasswordHasher, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, cost)
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.NumCPU()
	}

	dummyHash, err := bcrypt.GenerateFromPassword([]byte(dummyPassword), cost)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}

	return &PasswordHasher{
		sem:       semaphore.NewWeighted(int64(maxConcurrent)),
		dummyHash: dummyHash,
		cost:      cost,
	}, nil
}

// Cost возвращает стоимость bcrypt
func (h *PasswordHasher) Cost() int {
	return h.cost
}

// Hash возвращает bcrypt хеш пароля (соль генерируется bcrypt)
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	if err := h.sem.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("failed to acquire hashing slot: %w", err)
	}
	defer h.sem.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(hash), nil
}

// Verify сравнивает пароль с хешем.
// Возвращает ErrPasswordMismatch при несовпадении.
func (h *PasswordHasher) Verify(ctx context.Context, hash, password string) error {
	if err := h.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("failed to acquire hashing slot: %w", err)
	}
	defer h.sem.Release(1)

	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	if err == nil {
		return nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) || errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return ErrPasswordMismatch
	}
	return fmt.Errorf("failed to compare password: %w", err)
}

// VerifyDummy выполняет сравнение с заранее посчитанным хешем и всегда
// возвращает ErrPasswordMismatch (или ошибку ожидания слота).
// Вызывается при входе с несуществующим email, чтобы время ответа не выдавало,
// зарегистрирован ли адрес.
func (h *PasswordHasher) VerifyDummy(ctx context.Context, password string) error {
	if err := h.Verify(ctx, string(h.dummyHash), password); err != nil {
		return err
	}
	return ErrPasswordMismatch
}
