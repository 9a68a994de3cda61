package upload

import (
	"context"
	"io"

	"varna/internal/cloudinary"
)

// Cloudinary stores participant sheets as raw Cloudinary assets.
type Cloudinary struct {
	client *cloudinary.Client
}

// NewCloudinary wraps a configured client.
func NewCloudinary(client *cloudinary.Client) *Cloudinary {
	return &Cloudinary{client: client}
}

// Save uploads body and returns the asset's secure URL.
func (c *Cloudinary) Save(ctx context.Context, name string, body io.Reader, _ string) (Object, error) {
	res, err := c.client.UploadRaw(ctx, body, name)
	if err != nil {
		return Object{}, err
	}
	return Object{Name: name, Path: res.PublicID, URL: res.SecureURL}, nil
}
