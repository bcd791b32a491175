package models

import "time"

// PostStatus статус публикации поста
type PostStatus string

const (
	// PostStatusDraft черновик, виден только автору
	PostStatusDraft PostStatus = "draft"
	// PostStatusPublished опубликованный пост
	PostStatusPublished PostStatus = "published"
)

// Valid сообщает, является ли статус известным значением
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Dimensions размеры изображения в пикселях
type Dimensions struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`
}

// Image изображение поста.
// URL может быть обычной http(s) ссылкой или data URL с base64 содержимым.
type Image struct {
	Dimensions *Dimensions `json:"dimensions,omitempty"`
	URL        string      `json:"url"`
	Alt        string      `json:"alt,omitempty"`
	Caption    string      `json:"caption,omitempty"`
}

// Comment комментарий к посту
type Comment struct {
	Date     time.Time `json:"date"`      // время создания
	ID       string    `json:"id"`        // UUID комментария
	PostID   string    `json:"post_id"`   // пост, к которому относится комментарий
	AuthorID string    `json:"author_id"` // владелец комментария
	Name     string    `json:"name"`      // отображаемое имя автора
	Text     string    `json:"text"`      // текст комментария
}

// Post запись блога.
// AuthorID заполняется при создании из аутентифицированного пользователя и больше не меняется.
type Post struct {
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	Image      *Image     `json:"image,omitempty"`
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	AuthorID   string     `json:"author_id"`
	AuthorName string     `json:"author_name"`
	Status     PostStatus `json:"status"`
	Tags       []string   `json:"tags"`
	Comments   []*Comment `json:"comments"`
	Likes      int        `json:"likes"`
}
