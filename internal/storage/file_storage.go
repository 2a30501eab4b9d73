package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
)

// headerSize - сколько байт читается для определения типа файла.
const headerSize = 512

var (
	// ErrUnsupportedType - содержимое файла не входит в разрешённые типы.
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrTooLarge - файл больше лимита загрузки.
	ErrTooLarge = errors.New("file exceeds upload limit")
	// ErrEmptyFile - пустой файл.
	ErrEmptyFile = errors.New("file is empty")
)

// ImageTypes - фотографии объявлений.
var ImageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

// AttachmentTypes - вложения в чате: изображения, pdf и офисные документы.
var AttachmentTypes = map[string]struct{}{
	"image/jpeg":         {},
	"image/png":          {},
	"image/gif":          {},
	"image/webp":         {},
	"application/pdf":    {},
	"application/msword": {},

	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         {},
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": {},
}

// StoredFile описывает сохранённый файл.
type StoredFile struct {
	Path string `json:"path"`
	MIME string `json:"mime"`
	Size int64  `json:"size"`
}

// FileStorage отвечает за файловое хранилище загрузок.
type FileStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// NewFileStorage создаёт файловое хранилище.
func NewFileStorage(rootPath string, maxUploadMB int64) (*FileStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create directory %s: %w", rootPath, err)
	}

	return &FileStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

// DetectType определяет MIME по сигнатуре и проверяет его по списку allowed.
func DetectType(header []byte, allowed map[string]struct{}) (string, string, error) {
	if len(header) == 0 {
		return "", "", ErrEmptyFile
	}
	kind, err := filetype.Match(header)
	if err != nil || kind == filetype.Unknown {
		return "", "", ErrUnsupportedType
	}
	if _, ok := allowed[kind.MIME.Value]; !ok {
		return "", "", fmt.Errorf("%w: %s", ErrUnsupportedType, kind.MIME.Value)
	}
	return kind.MIME.Value, kind.Extension, nil
}

// Store проверяет сигнатуру файла и сохраняет его в каталог пользователя.
// Возвращает путь относительно корня хранилища.
func (s *FileStorage) Store(ctx context.Context, userID uuid.UUID, r io.Reader, allowed map[string]struct{}) (*StoredFile, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	head := make([]byte, headerSize)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("storage: read header: %w", err)
	}
	head = head[:n]

	mime, ext, err := DetectType(head, allowed)
	if err != nil {
		return nil, err
	}

	userDir := filepath.Join(s.rootPath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create user directory: %w", err)
	}

	fileName := uuid.NewString() + "." + ext
	targetPath := filepath.Join(userDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create file: %w", err)
	}
	defer f.Close()

	limited := io.LimitedReader{R: io.MultiReader(bytes.NewReader(head), r), N: s.maxUploadBytes + 1}
	written, err := io.Copy(f, &limited)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: write file: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, ErrTooLarge
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: close file: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: rename file: %w", err)
	}

	return &StoredFile{
		Path: filepath.ToSlash(filepath.Join(userID.String(), fileName)),
		MIME: mime,
		Size: written,
	}, nil
}

// Delete удаляет файл из хранилища.
func (s *FileStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, filepath.Clean("/"+relativePath))
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: failed to delete file: %w", err)
	}
	return nil
}

// Resolve возвращает абсолютный путь файла; выход за корень хранилища невозможен.
func (s *FileStorage) Resolve(relativePath string) string {
	return filepath.Join(s.rootPath, filepath.Clean("/"+relativePath))
}
