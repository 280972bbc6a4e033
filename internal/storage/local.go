package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
)

// LocalStorage grava uploads em um diretório local, servido pela API em
// /files. É o backend padrão quando o S3 não está configurado.
type LocalStorage struct {
	dir string
}

// NewLocalStorage garante a existência do diretório de uploads.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	if dir == "" {
		return nil, errors.New("storage: diretório de uploads ausente")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalStorage{dir: dir}, nil
}

func (l *LocalStorage) Save(ctx context.Context, originalName, contentType string, body []byte) (*Stored, error) {
	if len(body) == 0 {
		return nil, errors.New("storage: corpo vazio")
	}

	key := objectKey(originalName)
	if err := os.WriteFile(filepath.Join(l.dir, key), body, 0o644); err != nil {
		return nil, err
	}

	return &Stored{
		FileName: originalName,
		FilePath: "/files/" + key,
		FileType: contentType,
	}, nil
}
