package storage

import (
	"context"

	"github.com/iudanet/gophblog/internal/models"
)

// PostStorage defines interface for posts, comments and likes persistence
type PostStorage interface {
	// CreatePost stores a new post. Comments of the passed post are ignored.
	CreatePost(ctx context.Context, post *models.Post) error

	// GetPost retrieves a post with its comments ordered by date
	// Returns ErrPostNotFound if post doesn't exist
	GetPost(ctx context.Context, postID string) (*models.Post, error)

	// ListPosts retrieves published posts plus the drafts authored by viewerID,
	// with comments, newest first. Empty viewerID returns published posts only.
	// Returns empty slice if no posts found
	ListPosts(ctx context.Context, viewerID string) ([]*models.Post, error)

	// UpdatePost updates title, content, image, tags, status and updated_at.
	// Author and likes are never changed by this method.
	// Returns ErrPostNotFound if post doesn't exist
	UpdatePost(ctx context.Context, post *models.Post) error

	// DeletePost deletes post with all its comments
	// Returns ErrPostNotFound if post doesn't exist
	DeletePost(ctx context.Context, postID string) error

	// IncrementLikes atomically increments likes counter and returns the new value
	// Returns ErrPostNotFound if post doesn't exist
	IncrementLikes(ctx context.Context, postID string) (int, error)

	// AddComment stores a comment for existing post
	// Returns ErrPostNotFound if post doesn't exist
	AddComment(ctx context.Context, comment *models.Comment) error

	// GetComment retrieves a single comment of a post
	// Returns ErrCommentNotFound if comment doesn't exist
	GetComment(ctx context.Context, postID, commentID string) (*models.Comment, error)

	// DeleteComment deletes a comment of a post
	// Returns ErrCommentNotFound if comment doesn't exist
	DeleteComment(ctx context.Context, postID, commentID string) error
}
