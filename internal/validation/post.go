package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxTitleLen максимальная длина заголовка поста (в символах)
	MaxTitleLen = 200
	// MaxContentLen максимальная длина текста поста (в символах)
	MaxContentLen = 100_000
	// MaxTags максимальное количество тегов у поста
	MaxTags = 20
	// MaxTagLen максимальная длина одного тега
	MaxTagLen = 32
	// MaxCommentLen максимальная длина комментария
	MaxCommentLen = 2000
	// MaxCommentNameLen максимальная длина имени автора комментария
	MaxCommentNameLen = 64
)

// ValidateTitle проверяет заголовок поста
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return fmt.Errorf("title must not exceed %d characters", MaxTitleLen)
	}
	return nil
}

// ValidateContent проверяет текст поста
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("content is required")
	}
	if utf8.RuneCountInString(content) > MaxContentLen {
		return fmt.Errorf("content must not exceed %d characters", MaxContentLen)
	}
	return nil
}

// NormalizeTags обрезает пробелы, приводит теги к нижнему регистру,
// отбрасывает пустые и повторяющиеся значения с сохранением порядка
func NormalizeTags(tags []string) []string {
	result := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	return result
}

// ValidateTags проверяет уже нормализованный список тегов
func ValidateTags(tags []string) error {
	if len(tags) > MaxTags {
		return fmt.Errorf("post can have at most %d tags", MaxTags)
	}
	for _, tag := range tags {
		if utf8.RuneCountInString(tag) > MaxTagLen {
			return fmt.Errorf("tag %q must not exceed %d characters", tag, MaxTagLen)
		}
	}
	return nil
}

// ValidateComment проверяет текст и имя автора комментария
func ValidateComment(name, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment text is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLen {
		return fmt.Errorf("comment must not exceed %d characters", MaxCommentLen)
	}
	if utf8.RuneCountInString(name) > MaxCommentNameLen {
		return fmt.Errorf("comment name must not exceed %d characters", MaxCommentNameLen)
	}
	return nil
}
