package providers

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"autobazar/listing-editor/internal/constants"
	"autobazar/listing-editor/internal/models/dtos"

	"github.com/go-resty/resty/v2"
)

// Media is the listing media API.
type Media interface {
	Upload(ctx context.Context, listingID int64, files []dtos.MediaFile) (*dtos.MediaUploadResponse, error)
	Delete(ctx context.Context, listingID int64, path string) error
}

// MediaProvider implements Media over the marketplace REST API.
type MediaProvider struct {
	client *MarketplaceClient
}

var _ Media = (*MediaProvider)(nil)

func NewMediaProvider(client *MarketplaceClient) *MediaProvider {
	return &MediaProvider{client: client}
}

// Upload sends a batch of images, or exactly one video, as multipart form
// data. Images go under "images", a video under "video".
func (p *MediaProvider) Upload(ctx context.Context, listingID int64, files []dtos.MediaFile) (*dtos.MediaUploadResponse, error) {
	if listingID == 0 {
		return nil, invalidInput("listing id is required")
	}
	if len(files) == 0 {
		return &dtos.MediaUploadResponse{}, nil
	}

	field := "images"
	for _, f := range files {
		if f.IsVideo() {
			if len(files) != 1 {
				return nil, &ProviderError{
					Code:    constants.ErrCodeMediaInvalid,
					Message: "a video must be uploaded on its own",
				}
			}
			field = "video"
		}
		if len(f.Data) == 0 {
			return nil, &ProviderError{
				Code:    constants.ErrCodeMediaInvalid,
				Message: fmt.Sprintf("file %q is empty", f.Name),
			}
		}
	}

	path := fmt.Sprintf("/listings/%d/media", listingID)
	body, status, err := p.client.send(ctx, "media_upload", http.MethodPost, path, func(r *resty.Request) {
		for _, f := range files {
			r.SetMultipartField(field, f.Name, f.ContentType, bytes.NewReader(f.Data))
		}
	})
	if err != nil {
		return nil, err
	}

	var out dtos.MediaUploadResponse
	if err := decodeBody(body, status, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes one media item. path may be an absolute URL; it is
// normalized first.
func (p *MediaProvider) Delete(ctx context.Context, listingID int64, path string) error {
	if listingID == 0 {
		return invalidInput("listing id is required")
	}
	normalized := NormalizeMediaPath(path)
	if normalized == "" {
		return invalidInput("media path is required")
	}

	endpoint := fmt.Sprintf("/listings/%d/media", listingID)
	_, _, err := p.client.send(ctx, "media_delete", http.MethodDelete, endpoint, func(r *resty.Request) {
		r.SetQueryParam("path", normalized)
	})
	return err
}

// NormalizeMediaPath turns whatever the server returned for a media item
// into the path form the delete endpoint expects: the URL path without host,
// query or leading slash. Relative paths pass through trimmed.
func NormalizeMediaPath(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	if u, err := url.Parse(raw); err == nil && (u.Scheme != "" || strings.HasPrefix(raw, "//")) {
		raw = u.Path
	} else if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	return strings.TrimLeft(raw, "/")
}
