package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/pkg/api"
)

// Error ответ сервера с не-2xx статусом
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("server error (%d): %s", e.StatusCode, e.Message)
}

// IsStatus сообщает, является ли err ответом сервера с данным статусом
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// NewClient создает новый API клиент
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Токен передаем только на тот же хост
				if len(via) > 0 && req.URL.Host == via[0].URL.Host {
					if auth := via[0].Header.Get("Authorization"); auth != "" {
						req.Header.Set("Authorization", auth)
					}
				}
				return nil
			},
		},
	}
}

// SetToken задает access token для запросов, требующих аутентификации
func (c *Client) SetToken(token string) {
	c.token = token
}

// Register регистрирует нового пользователя и возвращает токен
func (c *Client) Register(ctx context.Context, req api.RegisterRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/register", req, &resp); err != nil {
		return nil, fmt.Errorf("register request failed: %w", err)
	}
	return &resp, nil
}

// Login выполняет аутентификацию пользователя
func (c *Client) Login(ctx context.Context, req api.LoginRequest) (*api.TokenResponse, error) {
	var resp api.TokenResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/login", req, &resp); err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	return &resp, nil
}

// Me возвращает текущего пользователя
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.doRequest(ctx, http.MethodGet, "/api/auth/me", nil, &user); err != nil {
		return nil, fmt.Errorf("me request failed: %w", err)
	}
	return &user, nil
}

// Logout отзывает текущий токен на сервере
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doRequest(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	return nil
}

// ListPosts возвращает опубликованные посты и черновики текущего пользователя
func (c *Client) ListPosts(ctx context.Context) ([]*models.Post, error) {
	var posts []*models.Post
	if err := c.doRequest(ctx, http.MethodGet, "/api/posts", nil, &posts); err != nil {
		return nil, fmt.Errorf("list posts request failed: %w", err)
	}
	return posts, nil
}

// GetPost возвращает пост по ID
func (c *Client) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	if err := c.doRequest(ctx, http.MethodGet, postPath(postID), nil, &post); err != nil {
		return nil, fmt.Errorf("get post request failed: %w", err)
	}
	return &post, nil
}

// CreatePost создает пост от имени текущего пользователя
func (c *Client) CreatePost(ctx context.Context, req api.CreatePostRequest) (*models.Post, error) {
	var post models.Post
	if err := c.doRequest(ctx, http.MethodPost, "/api/posts", req, &post); err != nil {
		return nil, fmt.Errorf("create post request failed: %w", err)
	}
	return &post, nil
}

// UpdatePost частично обновляет пост
func (c *Client) UpdatePost(ctx context.Context, postID string, req api.UpdatePostRequest) (*models.Post, error) {
	var post models.Post
	if err := c.doRequest(ctx, http.MethodPut, postPath(postID), req, &post); err != nil {
		return nil, fmt.Errorf("update post request failed: %w", err)
	}
	return &post, nil
}

// DeletePost удаляет пост
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	if err := c.doRequest(ctx, http.MethodDelete, postPath(postID), nil, nil); err != nil {
		return fmt.Errorf("delete post request failed: %w", err)
	}
	return nil
}

// LikePost увеличивает счетчик лайков
func (c *Client) LikePost(ctx context.Context, postID string) (*models.Post, error) {
	var post models.Post
	if err := c.doRequest(ctx, http.MethodPut, postPath(postID)+"/like", nil, &post); err != nil {
		return nil, fmt.Errorf("like request failed: %w", err)
	}
	return &post, nil
}

// AddComment добавляет комментарий и возвращает пост со всеми комментариями
func (c *Client) AddComment(ctx context.Context, postID string, req api.CommentRequest) (*models.Post, error) {
	var post models.Post
	if err := c.doRequest(ctx, http.MethodPost, postPath(postID)+"/comment", req, &post); err != nil {
		return nil, fmt.Errorf("comment request failed: %w", err)
	}
	return &post, nil
}

// DeleteComment удаляет свой комментарий
func (c *Client) DeleteComment(ctx context.Context, postID, commentID string) error {
	path := postPath(postID) + "/comments/" + url.PathEscape(commentID)
	if err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("delete comment request failed: %w", err)
	}
	return nil
}

func postPath(postID string) string {
	return "/api/posts/" + url.PathEscape(postID)
}

// doRequest выполняет HTTP запрос
func (c *Client) doRequest(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
		var errResp api.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	// Декодируем успешный ответ
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
