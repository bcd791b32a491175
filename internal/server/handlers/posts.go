package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/auth"
	"github.com/iudanet/gophblog/internal/server/storage"
	"github.com/iudanet/gophblog/internal/validation"
	"github.com/iudanet/gophblog/pkg/api"
)

// PostLimits ограничения размеров для запросов к постам
type PostLimits struct {
	MaxBodyBytes  int64
	MaxImageBytes int
}

// PostHandler обрабатывает запросы к постам, лайкам и комментариям
type PostHandler struct {
	responder
	posts  storage.PostStorage
	limits PostLimits
	now    func() time.Time
}

// NewPostHandler создает новый handler для постов.
// Нулевые лимиты заменяются значениями по умолчанию.
func NewPostHandler(logger *slog.Logger, posts storage.PostStorage, limits PostLimits, development bool) *PostHandler {
	if limits.MaxBodyBytes <= 0 {
		limits.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if limits.MaxImageBytes <= 0 {
		limits.MaxImageBytes = validation.DefaultMaxImageBytes
	}

	return &PostHandler{
		responder: responder{logger: logger, development: development},
		posts:     posts,
		limits:    limits,
		now:       time.Now,
	}
}

// List обрабатывает GET /api/posts
// Опубликованные посты и черновики самого читателя, новые первыми
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	var viewerID string
	if identity, ok := auth.IdentityFromContext(r.Context()); ok {
		viewerID = identity.UserID
	}

	posts, err := h.posts.ListPosts(r.Context(), viewerID)
	if err != nil {
		h.fail(w, r, err, "list posts")
		return
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	h.sendJSON(w, posts, http.StatusOK)
}

// Get обрабатывает GET /api/posts/{id}
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFromContext(r.Context())

	post, err := h.visiblePost(r, identity)
	if err != nil {
		h.fail(w, r, err, "get post")
		return
	}

	h.sendJSON(w, post, http.StatusOK)
}

// Create обрабатывает POST /api/posts
// Автором становится аутентифицированный пользователь
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		h.fail(w, r, auth.ErrUnauthenticated, "resolve identity")
		return
	}

	var req api.CreatePostRequest
	if err := h.decodeJSON(w, r, &req, h.limits.MaxBodyBytes); err != nil {
		h.fail(w, r, err, "decode post request")
		return
	}

	if req.Status == "" {
		req.Status = models.PostStatusPublished
	}
	tags := validation.NormalizeTags(req.Tags)

	if err := h.validatePost(req.Title, req.Content, req.Status, tags, req.Image); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := h.now().UTC()
	post := &models.Post{
		ID:         uuid.New().String(),
		Title:      req.Title,
		Content:    req.Content,
		Image:      req.Image,
		AuthorID:   identity.UserID,
		AuthorName: identity.DisplayName(),
		Status:     req.Status,
		Tags:       tags,
		Comments:   []*models.Comment{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := h.posts.CreatePost(ctx, post); err != nil {
		h.fail(w, r, err, "create post")
		return
	}

	h.logger.InfoContext(ctx, "Post created",
		slog.String("post_id", post.ID),
		slog.String("user_id", identity.UserID),
	)

	h.sendJSON(w, post, http.StatusCreated)
}

// Update обрабатывает PUT /api/posts/{id}
// Изменять пост может только его автор
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	post, err := h.ownedPost(r, identity)
	if err != nil {
		h.fail(w, r, err, "update post")
		return
	}

	var req api.UpdatePostRequest
	if err := h.decodeJSON(w, r, &req, h.limits.MaxBodyBytes); err != nil {
		h.fail(w, r, err, "decode post request")
		return
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Status != nil {
		post.Status = *req.Status
	}
	if req.Tags != nil {
		post.Tags = validation.NormalizeTags(*req.Tags)
	}
	switch {
	case req.RemoveImage:
		post.Image = nil
	case req.Image != nil:
		post.Image = req.Image
	}

	if err := h.validatePost(post.Title, post.Content, post.Status, post.Tags, post.Image); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	post.UpdatedAt = h.now().UTC()

	if err := h.posts.UpdatePost(ctx, post); err != nil {
		h.fail(w, r, err, "update post")
		return
	}

	h.logger.InfoContext(ctx, "Post updated", slog.String("post_id", post.ID))

	h.sendJSON(w, post, http.StatusOK)
}

// Delete обрабатывает DELETE /api/posts/{id}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	post, err := h.ownedPost(r, identity)
	if err != nil {
		h.fail(w, r, err, "delete post")
		return
	}

	if err := h.posts.DeletePost(ctx, post.ID); err != nil {
		h.fail(w, r, err, "delete post")
		return
	}

	h.logger.InfoContext(ctx, "Post deleted", slog.String("post_id", post.ID))

	w.WriteHeader(http.StatusNoContent)
}

// Like обрабатывает PUT /api/posts/{id}/like
func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		h.fail(w, r, auth.ErrUnauthenticated, "resolve identity")
		return
	}

	post, err := h.visiblePost(r, identity)
	if err != nil {
		h.fail(w, r, err, "like post")
		return
	}

	likes, err := h.posts.IncrementLikes(ctx, post.ID)
	if err != nil {
		h.fail(w, r, err, "like post")
		return
	}
	post.Likes = likes

	h.sendJSON(w, post, http.StatusOK)
}

// Comment обрабатывает POST /api/posts/{id}/comment
// В ответе пост со всеми комментариями
func (h *PostHandler) Comment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	identity, ok := auth.IdentityFromContext(ctx)
	if !ok {
		h.fail(w, r, auth.ErrUnauthenticated, "resolve identity")
		return
	}

	post, err := h.visiblePost(r, identity)
	if err != nil {
		h.fail(w, r, err, "comment post")
		return
	}

	var req api.CommentRequest
	if err := h.decodeJSON(w, r, &req, h.limits.MaxBodyBytes); err != nil {
		h.fail(w, r, err, "decode comment request")
		return
	}

	// Подпись всегда берется из токена
	name := identity.DisplayName()
	if err := validation.ValidateComment(name, req.Text); err != nil {
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	comment := &models.Comment{
		ID:       uuid.New().String(),
		PostID:   post.ID,
		AuthorID: identity.UserID,
		Name:     name,
		Text:     req.Text,
		Date:     h.now().UTC(),
	}

	if err := h.posts.AddComment(ctx, comment); err != nil {
		h.fail(w, r, err, "add comment")
		return
	}

	post, err = h.posts.GetPost(ctx, post.ID)
	if err != nil {
		h.fail(w, r, err, "get post")
		return
	}

	h.sendJSON(w, post, http.StatusCreated)
}

// DeleteComment обрабатывает DELETE /api/posts/{id}/comments/{commentID}
// Удалить комментарий может только его автор
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	identity, _ := auth.IdentityFromContext(ctx)

	vars := mux.Vars(r)
	postID, commentID := vars["id"], vars["commentID"]
	if !validID(postID) || !validID(commentID) {
		h.fail(w, r, storage.ErrCommentNotFound, "delete comment")
		return
	}

	comment, err := h.posts.GetComment(ctx, postID, commentID)
	if err != nil {
		h.fail(w, r, err, "delete comment")
		return
	}

	if err := auth.Authorize(identity, comment.AuthorID); err != nil {
		h.fail(w, r, err, "delete comment")
		return
	}

	if err := h.posts.DeleteComment(ctx, postID, commentID); err != nil {
		h.fail(w, r, err, "delete comment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// visiblePost загружает пост из пути запроса.
// Черновик виден только автору, остальным он не существует.
func (h *PostHandler) visiblePost(r *http.Request, identity *auth.Identity) (*models.Post, error) {
	postID := mux.Vars(r)["id"]
	if !validID(postID) {
		return nil, storage.ErrPostNotFound
	}

	post, err := h.posts.GetPost(r.Context(), postID)
	if err != nil {
		return nil, err
	}

	if post.Status == models.PostStatusDraft && (identity == nil || identity.UserID != post.AuthorID) {
		return nil, storage.ErrPostNotFound
	}

	return post, nil
}

// ownedPost загружает пост и проверяет, что identity его автор
func (h *PostHandler) ownedPost(r *http.Request, identity *auth.Identity) (*models.Post, error) {
	if identity == nil {
		return nil, auth.ErrUnauthenticated
	}

	postID := mux.Vars(r)["id"]
	if !validID(postID) {
		return nil, storage.ErrPostNotFound
	}

	post, err := h.posts.GetPost(r.Context(), postID)
	if err != nil {
		return nil, err
	}

	if err := auth.Authorize(identity, post.AuthorID); err != nil {
		return nil, err
	}

	return post, nil
}

func (h *PostHandler) validatePost(title, content string, status models.PostStatus, tags []string, image *models.Image) error {
	if err := validation.ValidateTitle(title); err != nil {
		return err
	}
	if err := validation.ValidateContent(content); err != nil {
		return err
	}
	if !status.Valid() {
		return errInvalidStatus
	}
	if err := validation.ValidateTags(tags); err != nil {
		return err
	}
	return validation.ValidateImage(image, h.limits.MaxImageBytes)
}
