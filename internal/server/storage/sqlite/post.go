package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/storage"
)

const postColumns = `id, author_id, author_name, title, content, image, tags, likes, status, created_at, updated_at`

// rowScanner общий интерфейс для *sql.Row и *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// CreatePost stores a new post
func (s *Storage) CreatePost(ctx context.Context, post *models.Post) error {
	image, err := storage.EncodeImage(post.Image)
	if err != nil {
		return err
	}
	tags, err := storage.EncodeTags(post.Tags)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		post.ID,
		post.AuthorID,
		post.AuthorName,
		post.Title,
		post.Content,
		image,
		tags,
		post.Likes,
		string(post.Status),
		post.CreatedAt.UTC(),
		post.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}

	return nil
}

// GetPost retrieves a post with its comments
func (s *Storage) GetPost(ctx context.Context, postID string) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = ?`

	post, err := scanPost(s.db.QueryRowContext(ctx, query, postID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	comments, err := s.queryComments(ctx, `
		SELECT id, post_id, author_id, name, text, created_at
		FROM comments
		WHERE post_id = ?
		ORDER BY created_at, id
	`, postID)
	if err != nil {
		return nil, err
	}
	post.Comments = comments

	return post, nil
}

// ListPosts retrieves published posts plus drafts of viewerID with comments, newest first.
// Пустой viewerID означает анонимного читателя.
func (s *Storage) ListPosts(ctx context.Context, viewerID string) ([]*models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE status = ? OR author_id = ?
		ORDER BY created_at DESC, id DESC
	`
	published := string(models.PostStatusPublished)
	// NULL не совпадает ни с одним author_id
	var viewer any
	if viewerID != "" {
		viewer = viewerID
	}

	// Соединение одно, поэтому посты вычитываются полностью до запроса комментариев
	posts, err := s.queryPosts(ctx, query, published, viewer)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return posts, nil
	}

	comments, err := s.queryComments(ctx, `
		SELECT c.id, c.post_id, c.author_id, c.name, c.text, c.created_at
		FROM comments c
		JOIN posts p ON p.id = c.post_id
		WHERE p.status = ? OR p.author_id = ?
		ORDER BY c.created_at, c.id
	`, published, viewer)
	if err != nil {
		return nil, err
	}

	byPost := make(map[string]*models.Post, len(posts))
	for _, post := range posts {
		byPost[post.ID] = post
	}
	for _, comment := range comments {
		if post, ok := byPost[comment.PostID]; ok {
			post.Comments = append(post.Comments, comment)
		}
	}

	return posts, nil
}

// UpdatePost updates editable fields of the post
func (s *Storage) UpdatePost(ctx context.Context, post *models.Post) error {
	image, err := storage.EncodeImage(post.Image)
	if err != nil {
		return err
	}
	tags, err := storage.EncodeTags(post.Tags)
	if err != nil {
		return err
	}

	query := `
		UPDATE posts
		SET title = ?, content = ?, image = ?, tags = ?, status = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		post.Title,
		post.Content,
		image,
		tags,
		string(post.Status),
		post.UpdatedAt.UTC(),
		post.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update post: %w", err)
	}

	return expectAffected(result, storage.ErrPostNotFound)
}

// DeletePost deletes post, comments are removed by ON DELETE CASCADE
func (s *Storage) DeletePost(ctx context.Context, postID string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return expectAffected(result, storage.ErrPostNotFound)
}

// IncrementLikes atomically increments likes counter
func (s *Storage) IncrementLikes(ctx context.Context, postID string) (int, error) {
	query := `UPDATE posts SET likes = likes + 1 WHERE id = ? RETURNING likes`

	var likes int
	if err := s.db.QueryRowContext(ctx, query, postID).Scan(&likes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, storage.ErrPostNotFound
		}
		return 0, fmt.Errorf("failed to increment likes: %w", err)
	}

	return likes, nil
}

// AddComment stores a comment if the post exists
func (s *Storage) AddComment(ctx context.Context, comment *models.Comment) error {
	query := `
		INSERT INTO comments (id, post_id, author_id, name, text, created_at)
		SELECT ?, ?, ?, ?, ?, ?
		WHERE EXISTS (SELECT 1 FROM posts WHERE id = ?)
	`

	result, err := s.db.ExecContext(ctx, query,
		comment.ID,
		comment.PostID,
		comment.AuthorID,
		comment.Name,
		comment.Text,
		comment.Date.UTC(),
		comment.PostID,
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	return expectAffected(result, storage.ErrPostNotFound)
}

// GetComment retrieves a single comment of a post
func (s *Storage) GetComment(ctx context.Context, postID, commentID string) (*models.Comment, error) {
	query := `
		SELECT id, post_id, author_id, name, text, created_at
		FROM comments
		WHERE post_id = ? AND id = ?
	`

	comment := &models.Comment{}
	err := s.db.QueryRowContext(ctx, query, postID, commentID).Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.Name,
		&comment.Text,
		&comment.Date,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to get comment: %w", err)
	}

	return comment, nil
}

// DeleteComment deletes a single comment of a post
func (s *Storage) DeleteComment(ctx context.Context, postID, commentID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM comments WHERE post_id = ? AND id = ?`, postID, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return expectAffected(result, storage.ErrCommentNotFound)
}

func (s *Storage) queryPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	posts := []*models.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return posts, nil
}

func (s *Storage) queryComments(ctx context.Context, query string, args ...any) ([]*models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	comments := []*models.Comment{}
	for rows.Next() {
		comment := &models.Comment{}
		if err := rows.Scan(
			&comment.ID,
			&comment.PostID,
			&comment.AuthorID,
			&comment.Name,
			&comment.Text,
			&comment.Date,
		); err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return comments, nil
}

func scanPost(row rowScanner) (*models.Post, error) {
	post := &models.Post{Comments: []*models.Comment{}}
	var (
		image  sql.NullString
		tags   string
		status string
	)

	if err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.AuthorName,
		&post.Title,
		&post.Content,
		&image,
		&tags,
		&post.Likes,
		&status,
		&post.CreatedAt,
		&post.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if post.Image, err = storage.DecodeImage(image); err != nil {
		return nil, err
	}
	if post.Tags, err = storage.DecodeTags(tags); err != nil {
		return nil, err
	}
	post.Status = models.PostStatus(status)

	return post, nil
}

func expectAffected(result sql.Result, notFound error) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rows == 0 {
		return notFound
	}

	return nil
}
