package filestorage

import (
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aisa-it/draftdoc/internal/draftdoc/config"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/tus/tusd/v2/pkg/filestore"

	tusd "github.com/tus/tusd/v2/pkg/handler"
)

// tusInfoExt - файл состояния загрузки tus рядом с самим файлом
const tusInfoExt = ".info"

// LocalStorage хранит файлы в каталоге. Загрузки tus пишутся туда же через filestore, поэтому
// завершенная загрузка сразу лежит под своим id.
type LocalStorage struct {
	rootDir string
}

func NewLocalStorage(rootDir string) (FileStorage, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, err
	}
	return &LocalStorage{rootDir}, nil
}

func (s *LocalStorage) GetTUSHandler(cfg *config.Config, baseUrl string, uploadValidator UploadValidator, postUploadHook func(event tusd.HookEvent)) echo.HandlerFunc {
	store := filestore.New(s.rootDir)
	composer := tusd.NewStoreComposer()
	store.UseIn(composer)

	basePath, _ := url.Parse(baseUrl)
	handler, err := tusd.NewHandler(tusd.Config{
		BasePath:                cfg.WebURL.ResolveReference(basePath).String(),
		StoreComposer:           composer,
		DisableDownload:         true,
		NotifyCompleteUploads:   true,
		PreUploadCreateCallback: uploadValidator,
		MaxSize:                 cfg.MaxUploadSize(),
		Logger:                  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		slog.Error("Create tus handler", "err", err)
		return func(c echo.Context) error {
			return c.NoContent(http.StatusServiceUnavailable)
		}
	}

	go func() {
		for event := range handler.CompleteUploads {
			postUploadHook(event)
		}
	}()

	return echo.WrapHandler(http.StripPrefix(basePath.String(), handler))
}

func (s *LocalStorage) path(name string) string {
	return filepath.Join(s.rootDir, filepath.FromSlash(name))
}

func (s *LocalStorage) SaveReader(reader io.Reader, fileSize int64, name uuid.UUID, contentType string, metadata *Metadata) error {
	f, err := os.Create(s.path(name.String()))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(f, reader)
	return err
}

func (s *LocalStorage) LoadReader(name uuid.UUID) (io.ReadCloser, error) {
	f, err := os.Open(s.path(name.String()))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (s *LocalStorage) Delete(name uuid.UUID) error {
	os.Remove(s.path(name.String()) + tusInfoExt)
	err := os.Remove(s.path(name.String()))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (s *LocalStorage) Exist(name uuid.UUID) (bool, error) {
	_, err := os.Stat(s.path(name.String()))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

func (s *LocalStorage) ListRoot(fn func(FileInfo) error) error {
	return filepath.WalkDir(s.rootDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || strings.HasSuffix(p, tusInfoExt) {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.rootDir, p)
		if err != nil {
			return err
		}
		return fn(FileInfo{
			Name:      filepath.ToSlash(rel),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	})
}

func (s *LocalStorage) Move(old string, new string) error {
	if err := os.MkdirAll(filepath.Dir(s.path(new)), 0755); err != nil {
		return err
	}
	return os.Rename(s.path(old), s.path(new))
}

func (s *LocalStorage) GetFileInfo(name uuid.UUID) (*FileInfo, error) {
	f, err := os.Open(s.path(name.String()))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	head := make([]byte, 512)
	n, _ := io.ReadFull(f, head)

	return &FileInfo{
		Name:        name.String(),
		Size:        stat.Size(),
		ContentType: strings.TrimSpace(http.DetectContentType(head[:n])),
		CreatedAt:   stat.ModTime(),
	}, nil
}
