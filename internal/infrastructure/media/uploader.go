package media

import (
	"bytes"
	"context"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/Zhima-Mochi/minishop-settlement/internal/pkg/logging"
	"go.uber.org/zap"
)

// Uploader pushes files to a Cloudinary-style unsigned upload endpoint and
// returns the hosted URL. Pure pass-through; nothing here touches
// settlement state.
type Uploader struct {
	http   *resty.Client
	url    string
	preset string
}

func NewUploader(uploadURL, preset string) *Uploader {
	return &Uploader{
		http:   resty.New().SetTimeout(30 * time.Second),
		url:    uploadURL,
		preset: preset,
	}
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
	Error     struct {
		Message string `json:"message"`
	} `json:"error"`
}

type UploadResult struct {
	URL      string
	PublicID string
}

func (u *Uploader) Upload(ctx context.Context, fileName string, data []byte) (*UploadResult, error) {
	var out uploadResponse
	resp, err := u.http.R().
		SetContext(ctx).
		SetFileReader("file", fileName, bytes.NewReader(data)).
		SetFormData(map[string]string{"upload_preset": u.preset}).
		SetResult(&out).
		SetError(&out).
		Post(u.url)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		logging.FromContext(ctx).Warn("media_upload_rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("message", out.Error.Message),
		)
		return nil, &UploadError{Status: resp.StatusCode(), Message: out.Error.Message}
	}
	return &UploadResult{URL: out.SecureURL, PublicID: out.PublicID}, nil
}

type UploadError struct {
	Status  int
	Message string
}

func (e *UploadError) Error() string {
	if e.Message == "" {
		return "media: upload failed"
	}
	return "media: " + e.Message
}
