package documents

import (
	"fmt"

	"github.com/skillora/instructor-os/internal/models"
)

// ErrUnknownMimeType is returned when a mime type matches no document kind.
// Classification is a closed enum: new categories must be added here
// explicitly, they never fall into a default bucket.
var ErrUnknownMimeType = fmt.Errorf("unknown mime type")

// ClassifyMIME maps a declared content type onto the closed DocumentKind enum.
func ClassifyMIME(mime string) (models.DocumentKind, error) {
	switch mime {
	case "image/jpeg", "image/png", "image/webp", "image/gif":
		return models.KindImage, nil
	case "application/pdf":
		return models.KindPDF, nil
	case "application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document":
		return models.KindWord, nil
	case "video/mp4", "video/quicktime", "video/webm":
		return models.KindVideo, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMimeType, mime)
	}
}
