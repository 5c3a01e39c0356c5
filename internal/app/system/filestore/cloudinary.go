package filestore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// Cloudinary stores uploads as Cloudinary assets. Images are "image"
// resources; everything else (resumes) is "raw".
type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

// NewCloudinary builds a client from explicit credentials.
func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary cloud name, api key and secret are required")
	}
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("cloudinary init: %w", err)
	}
	if folder == "" {
		folder = "placementhub"
	}
	return &Cloudinary{cld: cld, folder: strings.Trim(folder, "/")}, nil
}

// publicID maps a key to a Cloudinary public ID. Image IDs drop the
// extension since Cloudinary adds its own.
func (c *Cloudinary) publicID(key string) (id, resourceType string, err error) {
	k, err := cleanKey(key)
	if err != nil {
		return "", "", err
	}
	resourceType = resourceTypeFor(path.Ext(k))
	if resourceType == "image" {
		k = strings.TrimSuffix(k, path.Ext(k))
	}
	return path.Join(c.folder, k), resourceType, nil
}

func resourceTypeFor(ext string) string {
	switch strings.ToLower(ext) {
	case ".png", ".jpg", ".jpeg", ".webp", ".gif":
		return "image"
	default:
		return "raw"
	}
}

func (c *Cloudinary) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	id, rt, err := c.publicID(key)
	if err != nil {
		return "", err
	}
	res, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		PublicID:     id,
		ResourceType: rt,
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if res.Error.Message != "" {
		return "", fmt.Errorf("cloudinary upload: %s", res.Error.Message)
	}
	return res.SecureURL, nil
}

func (c *Cloudinary) Delete(ctx context.Context, key string) error {
	id, rt, err := c.publicID(key)
	if err != nil {
		return err
	}
	res, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: id, ResourceType: rt})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if res.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", res.Error.Message)
	}
	return nil
}
