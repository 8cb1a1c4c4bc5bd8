package documents

import (
	"context"
	"errors"
	"time"

	"github.com/skillora/instructor-os/internal/models"
)

// ErrThumbnailUnsupported is returned for kinds that have no preview path.
var ErrThumbnailUnsupported = errors.New("thumbnail not supported for this document kind")

// Generator produces a thumbnail URL for an uploaded document. Generation is
// best-effort: callers treat any error as "no thumbnail" and fall back to a
// generic icon, never as an upload failure.
type Generator interface {
	Generate(rec models.DocumentRecord, content []byte) (string, error)
}

// PreviewGenerator derives thumbnails from the stored file itself. Images
// serve as their own thumbnail; video poster extraction is delegated to a
// renderer function and bounded by a fixed timeout so a hung renderer
// surfaces as a failure instead of blocking the upload.
type PreviewGenerator struct {
	Timeout     time.Duration
	RenderVideo func(ctx context.Context, content []byte) (string, error)
}

// NewPreviewGenerator returns a generator with the default timeout.
func NewPreviewGenerator() *PreviewGenerator {
	return &PreviewGenerator{Timeout: 10 * time.Second}
}

// Generate returns a thumbnail URL or an error when no preview can be made.
func (g *PreviewGenerator) Generate(rec models.DocumentRecord, content []byte) (string, error) {
	switch rec.Kind {
	case models.KindImage:
		return rec.URL, nil
	case models.KindVideo:
		if g.RenderVideo == nil {
			return "", ErrThumbnailUnsupported
		}
		ctx, cancel := context.WithTimeout(context.Background(), g.timeout())
		defer cancel()
		return g.RenderVideo(ctx, content)
	default:
		return "", ErrThumbnailUnsupported
	}
}

func (g *PreviewGenerator) timeout() time.Duration {
	if g.Timeout <= 0 {
		return 10 * time.Second
	}
	return g.Timeout
}
