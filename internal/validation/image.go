package validation

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/iudanet/gophblog/internal/models"
)

// DefaultMaxImageBytes лимит размера изображения после декодирования base64 (8 MiB)
const DefaultMaxImageBytes = 8 << 20

// allowedImageFormats допустимые форматы data URL и соответствующие им MIME типы,
// которые определяет http.DetectContentType
var allowedImageFormats = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"gif":  "image/gif",
	"webp": "image/webp",
}

// ValidateImage проверяет изображение поста.
// nil допустим (изображение опционально). URL должен быть либо http(s) ссылкой,
// либо data URL вида data:image/<format>;base64,<payload>, где payload после
// декодирования не больше maxBytes и его содержимое соответствует заявленному формату.
func ValidateImage(img *models.Image, maxBytes int) error {
	if img == nil {
		return nil
	}

	if img.URL == "" {
		return fmt.Errorf("image url is required")
	}

	if img.Dimensions != nil && (img.Dimensions.Width < 0 || img.Dimensions.Height < 0) {
		return fmt.Errorf("image dimensions must not be negative")
	}

	if strings.HasPrefix(img.URL, "data:") {
		return validateDataURL(img.URL, maxBytes)
	}

	u, err := url.Parse(img.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("image url must be an http(s) URL or a base64 data URL")
	}

	return nil
}

func validateDataURL(dataURL string, maxBytes int) error {
	header, payload, ok := strings.Cut(strings.TrimPrefix(dataURL, "data:"), ",")
	if !ok {
		return fmt.Errorf("image data URL is malformed")
	}

	mediaType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return fmt.Errorf("image data URL must be base64 encoded")
	}

	format, ok := strings.CutPrefix(strings.ToLower(mediaType), "image/")
	if !ok {
		return fmt.Errorf("data URL must contain an image")
	}

	wantMIME, ok := allowedImageFormats[format]
	if !ok {
		return fmt.Errorf("image format %q is not supported", format)
	}

	// Отсекаем заведомо большие payload до декодирования
	if len(payload) > base64.StdEncoding.EncodedLen(maxBytes) {
		return fmt.Errorf("image must not exceed %d bytes", maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return fmt.Errorf("image payload is not valid base64")
	}

	if len(data) == 0 {
		return fmt.Errorf("image payload is empty")
	}

	if len(data) > maxBytes {
		return fmt.Errorf("image must not exceed %d bytes", maxBytes)
	}

	if detected := http.DetectContentType(data); detected != wantMIME {
		return fmt.Errorf("image content %q does not match declared format %q", detected, format)
	}

	return nil
}
