package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactStore 檔案儲存介面：QR 碼與大頭貼都透過這層存取，
// 回傳的 reference 是可以直接存進資料庫的相對路徑
type ArtifactStore interface {
	Put(name string, data []byte) (string, error)
	Delete(ref string) error
	Path(ref string) string
}

// LocalStore 把檔案存在本機 uploads 目錄下
type LocalStore struct {
	Root string
}

func NewLocalStore(root string) (*LocalStore, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", root, err)
	}
	return &LocalStore{Root: root}, nil
}

// Put 寫入檔案並回傳 /uploads/ 開頭的 reference
func (s *LocalStore) Put(name string, data []byte) (string, error) {
	name = filepath.ToSlash(filepath.Clean(name))
	if name == "" || name == "." || strings.HasPrefix(name, "..") {
		return "", fmt.Errorf("invalid artifact name: %q", name)
	}

	full := filepath.Join(s.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory for %s: %w", name, err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write artifact %s: %w", name, err)
	}
	return "/uploads/" + name, nil
}

// Delete 依 reference 刪除檔案，檔案不存在不視為錯誤
func (s *LocalStore) Delete(ref string) error {
	if ref == "" {
		return nil
	}
	full := s.Path(ref)
	if full == "" {
		return fmt.Errorf("invalid artifact reference: %q", ref)
	}
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to delete artifact %s: %w", ref, err)
	}
	return nil
}

// Path 將 reference 轉回本機檔案路徑
func (s *LocalStore) Path(ref string) string {
	name := strings.TrimPrefix(ref, "/uploads/")
	name = filepath.ToSlash(filepath.Clean(name))
	if name == "" || name == "." || strings.HasPrefix(name, "..") {
		return ""
	}
	return filepath.Join(s.Root, filepath.FromSlash(name))
}
