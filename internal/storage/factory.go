package storage

import (
	"fmt"

	"docsmith-worker/internal/storage/filesystem"
	"docsmith-worker/internal/storage/garage"
	"docsmith-worker/pkg/storage"
)

// NewStorage choisit le backend d'artefacts selon STORAGE_TYPE: disque
// local par défaut, Garage S3-compatible pour un déploiement partagé
func NewStorage(config *storage.StorageConfig) (storage.Storage, error) {
	switch config.Type {
	case "filesystem":
		return filesystem.NewFilesystemStorage(config.BasePath)
	case "garage":
		return garage.NewGarageStorage(config)
	default:
		return nil, fmt.Errorf("unknown storage type: %s", config.Type)
	}
}
