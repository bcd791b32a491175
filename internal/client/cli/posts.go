package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/iudanet/gophblog/internal/models"
	"github.com/iudanet/gophblog/internal/validation"
	pkgapi "github.com/iudanet/gophblog/pkg/api"
)

func (c *Cli) runListPosts(ctx context.Context) error {
	// Черновики автора видны только с токеном
	c.optionalSession(ctx)

	posts, err := c.api.ListPosts(ctx)
	if err != nil {
		return c.serverError(ctx, err)
	}

	c.io.Println("=== Posts ===")
	c.io.Println()

	if len(posts) == 0 {
		c.io.Println("No posts found.")
		return nil
	}

	tw := tabwriter.NewWriter(c.io, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ID\tTITLE\tAUTHOR\tSTATUS\tLIKES\tCOMMENTS")
	for _, p := range posts {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\n",
			p.ID, truncate(p.Title, 40), p.AuthorName, p.Status, p.Likes, len(p.Comments))
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to print posts: %w", err)
	}

	c.io.Println()
	c.io.Printf("Total: %d post(s)\n", len(posts))
	return nil
}

func (c *Cli) runShowPost(ctx context.Context, args []string) error {
	postID, err := requireID(args, "post <id>")
	if err != nil {
		return err
	}

	c.optionalSession(ctx)

	post, err := c.api.GetPost(ctx, postID)
	if err != nil {
		return c.serverError(ctx, err)
	}
	return renderPost(c.io, post)
}

func (c *Cli) runPublish(ctx context.Context, args []string) error {
	fs := c.flagSet("publish")
	title := fs.String("title", "", "Post title")
	content := fs.String("content", "", "Post content (read from input if empty)")
	tags := fs.String("tags", "", "Comma separated tags")
	draft := fs.Bool("draft", false, "Save as draft")
	imageURL := fs.String("image", "", "Image URL or data URL")
	imageAlt := fs.String("image-alt", "", "Image alt text")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if _, err := c.loadSession(ctx); err != nil {
		return err
	}

	if *title == "" {
		v, err := c.io.ReadInput("Title: ")
		if err != nil {
			return fmt.Errorf("failed to read title: %w", err)
		}
		*title = v
	}
	if err := validation.ValidateTitle(*title); err != nil {
		return err
	}

	if *content == "" {
		v, err := c.io.ReadText("Content")
		if err != nil {
			return fmt.Errorf("failed to read content: %w", err)
		}
		*content = v
	}
	if err := validation.ValidateContent(*content); err != nil {
		return err
	}

	req := pkgapi.CreatePostRequest{
		Title:   *title,
		Content: *content,
		Tags:    splitTags(*tags),
		Status:  models.PostStatusPublished,
	}
	if *draft {
		req.Status = models.PostStatusDraft
	}
	if *imageURL != "" {
		req.Image = &models.Image{URL: *imageURL, Alt: *imageAlt}
	}

	post, err := c.api.CreatePost(ctx, req)
	if err != nil {
		return c.serverError(ctx, err)
	}

	c.io.Println("✓ Post created")
	c.io.Printf("ID:     %s\n", post.ID)
	c.io.Printf("Status: %s\n", post.Status)
	return nil
}

// runEdit обновляет только явно переданные поля
func (c *Cli) runEdit(ctx context.Context, args []string) error {
	postID, err := requireID(args, "edit <id> [flags]")
	if err != nil {
		return err
	}

	fs := c.flagSet("edit")
	title := fs.String("title", "", "New title")
	content := fs.String("content", "", "New content")
	tags := fs.String("tags", "", "Comma separated tags, empty to clear")
	status := fs.String("status", "", "draft or published")
	imageURL := fs.String("image", "", "New image URL or data URL")
	removeImage := fs.Bool("remove-image", false, "Remove the post image")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	var req pkgapi.UpdatePostRequest
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			req.Title = title
		case "content":
			req.Content = content
		case "tags":
			t := splitTags(*tags)
			req.Tags = &t
		case "status":
			s := models.PostStatus(*status)
			req.Status = &s
		case "image":
			req.Image = &models.Image{URL: *imageURL}
		case "remove-image":
			req.RemoveImage = *removeImage
		}
	})
	if req == (pkgapi.UpdatePostRequest{}) {
		return fmt.Errorf("%w: nothing to update", ErrUsage)
	}
	if req.Status != nil && !req.Status.Valid() {
		return fmt.Errorf("%w: status must be draft or published", ErrUsage)
	}

	if _, err := c.loadSession(ctx); err != nil {
		return err
	}

	post, err := c.api.UpdatePost(ctx, postID, req)
	if err != nil {
		return c.serverError(ctx, err)
	}

	c.io.Println("✓ Post updated")
	return renderPost(c.io, post)
}

func (c *Cli) runLike(ctx context.Context, args []string) error {
	postID, err := requireID(args, "like <id>")
	if err != nil {
		return err
	}
	if _, err := c.loadSession(ctx); err != nil {
		return err
	}

	post, err := c.api.LikePost(ctx, postID)
	if err != nil {
		return c.serverError(ctx, err)
	}

	c.io.Printf("✓ Liked %q (%d likes)\n", post.Title, post.Likes)
	return nil
}

func (c *Cli) runComment(ctx context.Context, args []string) error {
	postID, err := requireID(args, "comment <id> [text]")
	if err != nil {
		return err
	}

	fs := c.flagSet("comment")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	if _, err := c.loadSession(ctx); err != nil {
		return err
	}

	text := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if text == "" {
		text, err = c.io.ReadInput("Comment: ")
		if err != nil {
			return fmt.Errorf("failed to read comment: %w", err)
		}
	}

	post, err := c.api.AddComment(ctx, postID, pkgapi.CommentRequest{Text: text})
	if err != nil {
		return c.serverError(ctx, err)
	}

	c.io.Printf("✓ Comment added (%d comment(s) on %q)\n", len(post.Comments), post.Title)
	return nil
}

func (c *Cli) runDelete(ctx context.Context, args []string) error {
	postID, err := requireID(args, "delete <id>")
	if err != nil {
		return err
	}
	if _, err := c.loadSession(ctx); err != nil {
		return err
	}

	if err := c.api.DeletePost(ctx, postID); err != nil {
		return c.serverError(ctx, err)
	}

	c.io.Printf("✓ Post %s deleted\n", postID)
	return nil
}

func (c *Cli) runDeleteComment(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: gophblog delete-comment <post-id> <comment-id>", ErrUsage)
	}
	if _, err := c.loadSession(ctx); err != nil {
		return err
	}

	if err := c.api.DeleteComment(ctx, args[0], args[1]); err != nil {
		return c.serverError(ctx, err)
	}

	c.io.Printf("✓ Comment %s deleted\n", args[1])
	return nil
}

func (c *Cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.io)
	return fs
}

func requireID(args []string, usage string) (string, error) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "", fmt.Errorf("%w: usage: gophblog %s", ErrUsage, usage)
	}
	return args[0], nil
}

func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return []string{}
	}
	return validation.NormalizeTags(strings.Split(s, ","))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func renderPost(w io.Writer, post *models.Post) error {
	if err := postTmpl.Execute(w, post); err != nil {
		return fmt.Errorf("failed to render post: %w", err)
	}
	return nil
}
