package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

type Cloudinary struct {
	cld    *cloudinary.Cloudinary
	folder string
}

func NewCloudinary(cloudName, apiKey, apiSecret, folder string) (*Cloudinary, error) {
	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("init cloudinary: %w", err)
	}
	return &Cloudinary{cld: cld, folder: strings.Trim(folder, "/")}, nil
}

// Store uploads under a public id derived from name, replacing any asset
// already stored there.
func (c *Cloudinary) Store(ctx context.Context, data []byte, name string) (string, error) {
	name = SanitizeName(name)
	publicID := strings.TrimSuffix(name, path.Ext(name))
	result, err := c.cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:       c.folder,
		PublicID:     publicID,
		Overwrite:    api.Bool(true),
		Invalidate:   api.Bool(true),
		ResourceType: "auto",
	})
	if err != nil {
		return "", fmt.Errorf("upload to cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return "", fmt.Errorf("upload to cloudinary: %s", result.Error.Message)
	}
	return result.SecureURL, nil
}

func (c *Cloudinary) Delete(ctx context.Context, publicPath string) error {
	resourceType, publicID, ok := publicIDFromURL(publicPath)
	if !ok {
		return nil
	}
	result, err := c.cld.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: resourceType,
		Invalidate:   api.Bool(true),
	})
	if err != nil {
		return fmt.Errorf("delete from cloudinary: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("delete from cloudinary: %s", result.Error.Message)
	}
	return nil
}

// publicIDFromURL reads the resource type and public id out of a delivery
// URL of the form /<cloud>/<type>/upload/[v<version>/]<public id>.<ext>.
// Raw assets keep their extension in the public id.
func publicIDFromURL(raw string) (string, string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", "", false
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 4 || parts[2] != "upload" {
		return "", "", false
	}
	resourceType := parts[1]
	rest := parts[3:]
	if len(rest) > 1 && len(rest[0]) > 1 && rest[0][0] == 'v' && isDigits(rest[0][1:]) {
		rest = rest[1:]
	}
	publicID := strings.Join(rest, "/")
	if resourceType != "raw" {
		publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	}
	if publicID == "" {
		return "", "", false
	}
	return resourceType, publicID, true
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
