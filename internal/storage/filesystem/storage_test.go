package filesystem

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStorage(t *testing.T) {
	// Créer un répertoire temporaire pour les tests
	tempDir, err := os.MkdirTemp("", "docsmith-storage-test-*")
	require.NoError(t, err)
	defer os.RemoveAll(tempDir)

	storage, err := NewFilesystemStorage(tempDir)
	require.NoError(t, err)

	ctx := context.Background()

	t.Run("Upload and Download", func(t *testing.T) {
		testData := "<h1>Quarterly Report</h1>"
		testPath := "documents/job1/index.html"

		// Upload
		err := storage.Upload(ctx, testPath, strings.NewReader(testData))
		assert.NoError(t, err)

		// Vérifier que le fichier existe
		exists, err := storage.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.True(t, exists)

		// Download
		reader, err := storage.Download(ctx, testPath)
		assert.NoError(t, err)

		// Lire le contenu
		buf := make([]byte, len(testData))
		n, err := reader.Read(buf)
		assert.NoError(t, err)
		assert.Equal(t, len(testData), n)
		assert.Equal(t, testData, string(buf))
	})

	t.Run("List files", func(t *testing.T) {
		// Upload plusieurs fichiers
		files := map[string]string{
			"documents/job2/index.html":  "<html></html>",
			"documents/job2/result.json": `{"html":"<html></html>"}`,
			"documents/job3/index.html":  "<p>other</p>",
		}

		for path, content := range files {
			err := storage.Upload(ctx, path, strings.NewReader(content))
			assert.NoError(t, err)
		}

		// Lister les artefacts d'un job
		job2Files, err := storage.List(ctx, "documents/job2/")
		assert.NoError(t, err)
		assert.Len(t, job2Files, 2)
	})

	t.Run("Delete file", func(t *testing.T) {
		testPath := "to-delete.html"

		// Upload puis delete
		err := storage.Upload(ctx, testPath, strings.NewReader("delete me"))
		assert.NoError(t, err)

		exists, err := storage.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.True(t, exists)

		err = storage.Delete(ctx, testPath)
		assert.NoError(t, err)

		exists, err = storage.Exists(ctx, testPath)
		assert.NoError(t, err)
		assert.False(t, exists)

		// Supprimer un fichier déjà absent n'est pas une erreur
		err = storage.Delete(ctx, testPath)
		assert.NoError(t, err)
	})

	t.Run("Non-existent file", func(t *testing.T) {
		_, err := storage.Download(ctx, "non-existent.html")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "file not found")

		exists, err := storage.Exists(ctx, "non-existent.html")
		assert.NoError(t, err)
		assert.False(t, exists)
	})
}
