package media

import (
	"fmt"

	"xweeter/internal/config"
)

// NewStoreFromConfig selects the BlobStore named by MEDIA_BACKEND.
func NewStoreFromConfig(cfg *config.Config) (BlobStore, error) {
	switch cfg.MediaBackend {
	case config.MediaBackendCloudinary:
		return NewCloudinaryStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	case config.MediaBackendLocal, "":
		return NewLocalStore(cfg.MediaUploadDir, cfg.MediaPublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported MEDIA_BACKEND %q", cfg.MediaBackend)
	}
}
