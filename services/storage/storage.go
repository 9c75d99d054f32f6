package storage

import (
	"context"
	"fmt"
	"mime/multipart"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
)

// StorageService handles media uploads, currently specialist profile photos.
type StorageService interface {
	UploadFile(ctx context.Context, file multipart.File, destFolder string) (string, error)
	DeleteFile(ctx context.Context, publicID string) error
	GetDownloadURL(publicID string) (string, error)
}

// CloudinaryStorageService implements StorageService on Cloudinary.
type CloudinaryStorageService struct {
	cld       *cloudinary.Cloudinary
	cloudName string
}

func NewStorageService(cld *cloudinary.Cloudinary, cloudName string) *CloudinaryStorageService {
	return &CloudinaryStorageService{cld: cld, cloudName: cloudName}
}

// UploadFile uploads the file into destFolder and returns the permanent
// public ID. Callers store the ID, not the URL.
func (s *CloudinaryStorageService) UploadFile(ctx context.Context, file multipart.File, destFolder string) (string, error) {
	result, err := s.cld.Upload.Upload(ctx, file, uploader.UploadParams{Folder: destFolder})
	if err != nil {
		return "", fmt.Errorf("storage: upload failed: %w", err)
	}
	if result.PublicID == "" {
		return "", fmt.Errorf("storage: upload returned no public ID")
	}
	return result.PublicID, nil
}

func (s *CloudinaryStorageService) DeleteFile(ctx context.Context, publicID string) error {
	if _, err := s.cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID}); err != nil {
		return fmt.Errorf("storage: delete of %s failed: %w", publicID, err)
	}
	return nil
}

func (s *CloudinaryStorageService) GetDownloadURL(publicID string) (string, error) {
	img, err := s.cld.Image(publicID)
	if err != nil {
		return "", fmt.Errorf("storage: failed to resolve asset %s: %w", publicID, err)
	}
	url, err := img.String()
	if err != nil {
		return "", fmt.Errorf("storage: failed to build URL for %s: %w", publicID, err)
	}
	return url, nil
}
