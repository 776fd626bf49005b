package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PublicPrefix is the URL path the local store is served under.
const PublicPrefix = "/uploads"

// LocalUploader writes images below a directory that the server exposes
// under PublicPrefix.
type LocalUploader struct {
	dir     string
	folder  string
	baseURL string
}

// NewLocalUploader creates dir/folder if needed.
func NewLocalUploader(dir, folder, baseURL string) (*LocalUploader, error) {
	if err := os.MkdirAll(filepath.Join(dir, folder), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload dir: %w", err)
	}
	return &LocalUploader{
		dir:     dir,
		folder:  folder,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Dir returns the root directory holding uploaded files.
func (u *LocalUploader) Dir() string {
	return u.dir
}

func (u *LocalUploader) Upload(ctx context.Context, f File) (*Upload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	publicID := path.Join(u.folder, uuid.NewString()+f.Ext())
	if err := os.WriteFile(u.localPath(publicID), f.Content, 0o644); err != nil {
		return nil, fmt.Errorf("write upload: %w", err)
	}
	return &Upload{
		URL:      u.baseURL + PublicPrefix + "/" + publicID,
		PublicID: publicID,
	}, nil
}

func (u *LocalUploader) Delete(_ context.Context, publicID string) error {
	clean := path.Clean("/" + publicID)
	if !strings.HasPrefix(clean, "/"+u.folder+"/") {
		return fmt.Errorf("public id %q is outside the upload folder", publicID)
	}
	err := os.Remove(u.localPath(strings.TrimPrefix(clean, "/")))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func (u *LocalUploader) localPath(publicID string) string {
	return filepath.Join(u.dir, filepath.FromSlash(publicID))
}
