package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/user/rental-crawler/internal/entity"
)

// ThumbnailDownloader saves each record's thumbnail as <dir>/<keyword>/img_<n>.jpg,
// n being the record's sequence number in the export.
type ThumbnailDownloader struct {
	client *resty.Client
	dir    string
	logger *zap.Logger
}

func NewThumbnailDownloader(dir string, logger *zap.Logger) *ThumbnailDownloader {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36")
	return &ThumbnailDownloader{client: client, dir: dir, logger: logger}
}

// Export downloads every thumbnail. A failed download is logged and skipped.
func (d *ThumbnailDownloader) Export(ctx context.Context, result entity.KeywordResult) error {
	if len(result.Records) == 0 {
		return nil
	}
	dir := filepath.Join(d.dir, SafeName(result.Keyword))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}

	saved := 0
	for i, rec := range result.Records {
		if rec.ThumbnailURL == "" {
			continue
		}
		path := filepath.Join(dir, fmt.Sprintf("img_%d.jpg", i+1))
		if err := d.download(ctx, rec.ThumbnailURL, path); err != nil {
			d.logger.Warn("thumbnail download failed",
				zap.String("keyword", result.Keyword),
				zap.String("link", rec.Link),
				zap.Error(err),
			)
			continue
		}
		saved++
	}
	d.logger.Info("thumbnails saved", zap.String("keyword", result.Keyword), zap.Int("saved", saved))
	return nil
}

func (d *ThumbnailDownloader) download(ctx context.Context, url, path string) error {
	res, err := d.client.R().
		SetContext(ctx).
		SetOutput(path).
		Get(url)
	if err != nil {
		return err
	}
	if res.IsError() {
		_ = os.Remove(path)
		return fmt.Errorf("status %d", res.StatusCode())
	}
	return nil
}
