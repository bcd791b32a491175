package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/server/storage"
)

// jsonb колонки читаются как текст, чтобы не зависеть от типа значения драйвера
const selectPost = `
	SELECT id, author_id, author_name, title, content, image::text, tags::text, likes, status, created_at, updated_at
	FROM posts
`

const selectComment = `
	SELECT id, post_id, author_id, name, text, created_at
	FROM comments
`

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
		INSERT INTO posts (id, author_id, author_name, title, content, image, tags, likes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8, $9, $10, $11)
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
	post, err := scanPost(s.db.QueryRowContext(ctx, selectPost+` WHERE id = $1`, postID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	comments, err := s.queryComments(ctx, selectComment+` WHERE post_id = $1 ORDER BY created_at, id`, postID)
	if err != nil {
		return nil, err
	}
	post.Comments = comments

	return post, nil
}

// ListPosts retrieves published posts plus drafts of viewerID with comments, newest first.
// Пустой viewerID означает анонимного читателя.
func (s *Storage) ListPosts(ctx context.Context, viewerID string) ([]*models.Post, error) {
	published := string(models.PostStatusPublished)
	// NULL не совпадает ни с одним author_id
	var viewer any
	if viewerID != "" {
		viewer = viewerID
	}

	rows, err := s.db.QueryContext(ctx,
		selectPost+` WHERE status = $1 OR author_id = $2 ORDER BY created_at DESC, id DESC`,
		published, viewer)
	if err != nil {
		return nil, fmt.Errorf("failed to query posts: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	posts := []*models.Post{}
	byPost := make(map[string]*models.Post)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		posts = append(posts, post)
		byPost[post.ID] = post
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	if len(posts) == 0 {
		return posts, nil
	}

	comments, err := s.queryComments(ctx, `
		SELECT c.id, c.post_id, c.author_id, c.name, c.text, c.created_at
		FROM comments c
		JOIN posts p ON p.id = c.post_id
		WHERE p.status = $1 OR p.author_id = $2
		ORDER BY c.created_at, c.id
	`, published, viewer)
	if err != nil {
		return nil, err
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
		SET title = $1, content = $2, image = $3::jsonb, tags = $4::jsonb, status = $5, updated_at = $6
		WHERE id = $7
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
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, postID)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	return expectAffected(result, storage.ErrPostNotFound)
}

// IncrementLikes atomically increments likes counter
func (s *Storage) IncrementLikes(ctx context.Context, postID string) (int, error) {
	var likes int
	err := s.db.QueryRowContext(ctx,
		`UPDATE posts SET likes = likes + 1 WHERE id = $1 RETURNING likes`, postID).Scan(&likes)
	if err != nil {
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
		SELECT $1::uuid, $2::uuid, $3::uuid, $4::text, $5::text, $6::timestamptz
		WHERE EXISTS (SELECT 1 FROM posts WHERE id = $2::uuid)
	`

	result, err := s.db.ExecContext(ctx, query,
		comment.ID,
		comment.PostID,
		comment.AuthorID,
		comment.Name,
		comment.Text,
		comment.Date.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	return expectAffected(result, storage.ErrPostNotFound)
}

// GetComment retrieves a single comment of a post
func (s *Storage) GetComment(ctx context.Context, postID, commentID string) (*models.Comment, error) {
	comment, err := scanComment(s.db.QueryRowContext(ctx,
		selectComment+` WHERE post_id = $1 AND id = $2`, postID, commentID))
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
		`DELETE FROM comments WHERE post_id = $1 AND id = $2`, postID, commentID)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}

	return expectAffected(result, storage.ErrCommentNotFound)
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
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, comment)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return comments, nil
}

func scanComment(row rowScanner) (*models.Comment, error) {
	comment := &models.Comment{}
	if err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.Name,
		&comment.Text,
		&comment.Date,
	); err != nil {
		return nil, err
	}
	return comment, nil
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
