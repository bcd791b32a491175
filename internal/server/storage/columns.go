package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/iudanet/gophblog/internal/models"
)

// Helpers shared by SQL backends: post tags and image are stored as JSON columns.

// EncodeTags marshals tags to a JSON array, never "null"
func EncodeTags(tags []string) (string, error) {
	if tags == nil {
		tags = []string{}
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(data), nil
}

// DecodeTags unmarshals JSON array of tags
func DecodeTags(raw string) ([]string, error) {
	tags := []string{}
	if raw == "" {
		return tags, nil
	}
	if err := json.Unmarshal([]byte(raw), &tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return tags, nil
}

// EncodeImage marshals image to JSON, NULL when post has no image
func EncodeImage(img *models.Image) (sql.NullString, error) {
	if img == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(img)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to marshal image: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// DecodeImage unmarshals nullable JSON image column
func DecodeImage(raw sql.NullString) (*models.Image, error) {
	if !raw.Valid || raw.String == "" {
		return nil, nil
	}
	img := &models.Image{}
	if err := json.Unmarshal([]byte(raw.String), img); err != nil {
		return nil, fmt.Errorf("failed to unmarshal image: %w", err)
	}
	return img, nil
}

// NullableString maps empty string to SQL NULL
// Used for optional unique columns such as username
func NullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
