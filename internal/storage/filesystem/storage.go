// Package filesystem stocke les artefacts de documents sur le disque local.
// C'est le backend par défaut: aucun service externe requis, les documents
// vivent sous STORAGE_PATH avec leur chemin logique comme arborescence.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"docsmith-worker/pkg/storage"
)

type filesystemStorage struct {
	basePath string
}

// NewFilesystemStorage crée le backend disque, en créant basePath au besoin
func NewFilesystemStorage(basePath string) (storage.Storage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory %s: %w", basePath, err)
	}

	return &filesystemStorage{
		basePath: basePath,
	}, nil
}

func (f *filesystemStorage) Upload(ctx context.Context, path string, data io.Reader) error {
	fullPath := filepath.Join(f.basePath, path)

	// Les artefacts sont rangés par job: documents/{id}/..., il faut donc
	// créer les répertoires intermédiaires à chaque écriture
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directories for %s: %w", fullPath, err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write data to %s: %w", fullPath, err)
	}

	return nil
}

func (f *filesystemStorage) Download(ctx context.Context, path string) (io.Reader, error) {
	fullPath := filepath.Join(f.basePath, path)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open file %s: %w", fullPath, err)
	}

	return file, nil
}

func (f *filesystemStorage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(filepath.Join(f.basePath, path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence %s: %w", path, err)
	}

	return true, nil
}

func (f *filesystemStorage) Delete(ctx context.Context, path string) error {
	if err := os.Remove(filepath.Join(f.basePath, path)); err != nil {
		if os.IsNotExist(err) {
			return nil // déjà supprimé
		}
		return fmt.Errorf("failed to delete file %s: %w", path, err)
	}

	return nil
}

// List retourne les chemins relatifs de tous les fichiers sous prefix.
// Utilisé par la suppression des artefacts d'un job (préfixe documents/{id}/).
func (f *filesystemStorage) List(ctx context.Context, prefix string) ([]string, error) {
	fullPrefix := filepath.Join(f.basePath, prefix)

	var files []string
	err := filepath.WalkDir(f.basePath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() || !strings.HasPrefix(path, fullPrefix) {
			return nil
		}

		relPath, err := filepath.Rel(f.basePath, path)
		if err != nil {
			return err
		}
		files = append(files, relPath)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files with prefix %s: %w", prefix, err)
	}

	return files, nil
}

// GetURL retourne le chemin logique tel quel: pas de couche HTTP devant le
// disque, c'est le handler de download qui sert le contenu
func (f *filesystemStorage) GetURL(ctx context.Context, path string) (string, error) {
	return path, nil
}
