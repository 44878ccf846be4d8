package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os/exec"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

const thumbnailSize = 300

var ErrNoThumbnail = errors.New("thumbnail not available")

// Thumbnail is an encoded preview image.
type Thumbnail struct {
	Data        []byte
	ContentType string
}

const defaultThumbnailCache = 256

// NewThumbnailCache builds the LRU that holds generated previews. Sizes
// below one fall back to the default.
func NewThumbnailCache(size int) *lru.Cache[string, Thumbnail] {
	if size <= 0 {
		size = defaultThumbnailCache
	}
	// lru.New only rejects non-positive sizes
	cache, _ := lru.New[string, Thumbnail](size)
	return cache
}

// Thumbnail returns a preview of the stored object. Images are resized in
// process; videos use ffmpeg when it is installed.
func (s *Service) Thumbnail(ctx context.Context, key string) (Thumbnail, error) {
	if cached, ok := s.thumbs.Get(key); ok {
		return cached, nil
	}

	rc, obj, err := s.Open(ctx, key)
	if err != nil {
		return Thumbnail{}, err
	}
	defer rc.Close()

	var thumb Thumbnail
	if strings.HasPrefix(obj.ContentType, "video/") {
		thumb, err = videoThumbnail(ctx, rc)
	} else {
		thumb, err = imageThumbnail(rc)
	}
	if err != nil {
		s.log.Debug("thumbnail failed", zap.String("key", key), zap.Error(err))
		return Thumbnail{}, fmt.Errorf("%w: %v", ErrNoThumbnail, err)
	}

	s.thumbs.Add(key, thumb)
	return thumb, nil
}

func imageThumbnail(r io.Reader) (Thumbnail, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return Thumbnail{}, fmt.Errorf("decode image: %w", err)
	}

	small := resize.Thumbnail(thumbnailSize, thumbnailSize, img, resize.Lanczos3)

	buf := &bytes.Buffer{}
	if err := jpeg.Encode(buf, small, &jpeg.Options{Quality: 85}); err != nil {
		return Thumbnail{}, fmt.Errorf("encode thumbnail: %w", err)
	}
	return Thumbnail{Data: buf.Bytes(), ContentType: "image/jpeg"}, nil
}

func videoThumbnail(ctx context.Context, r io.Reader) (Thumbnail, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return Thumbnail{}, err
	}
	// first frame, piped through stdin so remote blobs work too
	cmd := exec.CommandContext(ctx, "ffmpeg", "-i", "pipe:0", "-vframes", "1",
		"-vf", fmt.Sprintf("scale=%d:-1", thumbnailSize),
		"-f", "image2pipe", "-vcodec", "png", "-")
	cmd.Stdin = r
	out, err := cmd.Output()
	if err != nil {
		return Thumbnail{}, fmt.Errorf("ffmpeg: %w", err)
	}
	return Thumbnail{Data: out, ContentType: "image/png"}, nil
}
