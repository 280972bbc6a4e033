package storage

import (
	"context"
	"path/filepath"

	"github.com/google/uuid"
)

// Stored é a tupla que o motor persiste como anexo. O motor nunca toca
// os bytes do arquivo: só conhece esta tupla.
type Stored struct {
	FileName string
	FilePath string
	FileType string
}

// Storage grava o conteúdo bruto de um upload.
type Storage interface {
	Save(ctx context.Context, originalName, contentType string, body []byte) (*Stored, error)
}

// objectKey gera um nome único preservando a extensão original.
func objectKey(originalName string) string {
	return uuid.NewString() + filepath.Ext(originalName)
}
