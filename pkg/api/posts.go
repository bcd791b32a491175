package api

import "github.com/iudanet/gophblog/internal/models"

// CreatePostRequest представляет запрос на создание поста
type CreatePostRequest struct {
	Image   *models.Image     `json:"image,omitempty"`
	Title   string            `json:"title"`
	Content string            `json:"content"`
	Status  models.PostStatus `json:"status,omitempty"` // по умолчанию published
	Tags    []string          `json:"tags,omitempty"`
}

// UpdatePostRequest представляет частичное обновление поста.
// Отсутствующие поля не изменяются. Автор поста не может быть изменен.
type UpdatePostRequest struct {
	Title   *string            `json:"title,omitempty"`
	Content *string            `json:"content,omitempty"`
	Image   *models.Image      `json:"image,omitempty"`
	Status  *models.PostStatus `json:"status,omitempty"`
	Tags    *[]string          `json:"tags,omitempty"`

	// RemoveImage удаляет изображение поста
	RemoveImage bool `json:"remove_image,omitempty"`
}

// CommentRequest представляет запрос на добавление комментария
type CommentRequest struct {
	Text string `json:"text"` // подпись сервер берет из токена
}
