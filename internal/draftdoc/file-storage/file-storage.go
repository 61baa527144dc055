// Хранилище изображений документов: Minio (S3) для работы сервиса и каталог на диске для разработки и тестов.
// Minio хранилище также отдает обработчик tus для возобновляемой загрузки.
package filestorage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/aisa-it/draftdoc/internal/draftdoc/config"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/tus/tusd/v2/pkg/s3store"

	tusd "github.com/tus/tusd/v2/pkg/handler"
)

const UploadTries = 5

var ErrNotFound = errors.New("file not found")

type Metadata struct {
	DocId string
	Token string
}

type FileInfo struct {
	Name        string
	Size        int64
	ContentType string
	CreatedAt   time.Time
}

func (m Metadata) GetMap() map[string]string {
	meta := make(map[string]string)
	if m.DocId != "" {
		meta["docId"] = m.DocId
	}
	if m.Token != "" {
		meta["token"] = m.Token
	}
	return meta
}

type UploadValidator func(hook tusd.HookEvent) (tusd.HTTPResponse, tusd.FileInfoChanges, error)

type FileStorage interface {
	GetTUSHandler(cfg *config.Config, baseUrl string, uploadValidator UploadValidator, postUploadHook func(event tusd.HookEvent)) echo.HandlerFunc
	SaveReader(reader io.Reader, fileSize int64, name uuid.UUID, contentType string, metadata *Metadata) error
	LoadReader(name uuid.UUID) (io.ReadCloser, error)
	Delete(name uuid.UUID) error
	Exist(name uuid.UUID) (bool, error)
	ListRoot(fn func(FileInfo) error) error
	Move(old string, new string) error
	GetFileInfo(name uuid.UUID) (*FileInfo, error)
}

// NewStorage выбирает Minio, если задан AWS_S3_ENDPOINT_URL, иначе каталог localDir.
func NewStorage(cfg *config.Config, localDir string) (FileStorage, error) {
	if cfg.AWSEndpoint == "" {
		slog.Info("AWS_S3_ENDPOINT_URL is empty, using local storage", "dir", localDir)
		return NewLocalStorage(localDir)
	}
	return NewMinioStorage(cfg)
}

type MinioStorage struct {
	client     *minio.Client
	s3client   *s3.Client
	bucketName string
}

func NewMinioStorage(cfg *config.Config) (FileStorage, error) {
	client, err := minio.New(cfg.AWSEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AWSAccessKey, cfg.AWSSecretKey, ""),
		Secure: false,
	})
	if err != nil {
		return nil, err
	}

	s3cfg, err := s3config.LoadDefaultConfig(context.Background(),
		s3config.WithRegion(cfg.AWSRegion),
		s3config.WithCredentialsProvider(aws.CredentialsProviderFunc(func(ctx context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: cfg.AWSAccessKey, SecretAccessKey: cfg.AWSSecretKey}, nil
		})),
	)
	if err != nil {
		return nil, err
	}

	s3client := s3.NewFromConfig(s3cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String("http://" + cfg.AWSEndpoint)
		o.UsePathStyle = true
	})

	exists, err := client.BucketExists(context.Background(), cfg.AWSBucketName)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := client.MakeBucket(context.Background(), cfg.AWSBucketName, minio.MakeBucketOptions{}); err != nil {
			return nil, err
		}
	}

	return &MinioStorage{client, s3client, cfg.AWSBucketName}, nil
}

func (s *MinioStorage) GetTUSHandler(cfg *config.Config, baseUrl string, uploadValidator UploadValidator, postUploadHook func(event tusd.HookEvent)) echo.HandlerFunc {
	store := s3store.New(s.bucketName, s.s3client)
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

func (s *MinioStorage) SaveReader(reader io.Reader, fileSize int64, name uuid.UUID, contentType string, metadata *Metadata) error {
	putOptions := minio.PutObjectOptions{ContentType: contentType}
	if metadata != nil {
		putOptions.UserTags = metadata.GetMap()
	}

	seeker, canRetry := reader.(io.Seeker)

	var err error
	for i := range UploadTries {
		_, err = s.client.PutObject(context.Background(),
			s.bucketName,
			name.String(),
			reader,
			fileSize,
			putOptions,
		)
		if err == nil {
			return nil
		}

		resp := minio.ToErrorResponse(err)
		slog.Error("Upload file to minio", "name", name, "try", i+1, "code", resp.StatusCode, "msg", resp.Message, "err", err)
		if !canRetry {
			return err
		}
		if _, serr := seeker.Seek(0, io.SeekStart); serr != nil {
			return err
		}
		time.Sleep(time.Second * time.Duration(i+1))
	}
	return err
}

func (s *MinioStorage) LoadReader(name uuid.UUID) (io.ReadCloser, error) {
	return s.client.GetObject(context.Background(),
		s.bucketName,
		name.String(),
		minio.GetObjectOptions{},
	)
}

func (s *MinioStorage) Delete(name uuid.UUID) error {
	return s.client.RemoveObject(context.Background(), s.bucketName, name.String(), minio.RemoveObjectOptions{})
}

func (s *MinioStorage) Exist(name uuid.UUID) (bool, error) {
	_, err := s.client.StatObject(context.Background(), s.bucketName, name.String(), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *MinioStorage) ListRoot(fn func(info FileInfo) error) error {
	for obj := range s.client.ListObjects(context.Background(), s.bucketName, minio.ListObjectsOptions{Recursive: true}) {
		if obj.Err != nil {
			return obj.Err
		}
		if err := fn(FileInfo{
			Name:        obj.Key,
			Size:        obj.Size,
			ContentType: obj.ContentType,
			CreatedAt:   obj.LastModified,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *MinioStorage) Move(old string, new string) error {
	if _, err := s.client.CopyObject(context.Background(),
		minio.CopyDestOptions{Bucket: s.bucketName, Object: new},
		minio.CopySrcOptions{Bucket: s.bucketName, Object: old},
	); err != nil {
		return err
	}
	return s.client.RemoveObject(context.Background(), s.bucketName, old, minio.RemoveObjectOptions{})
}

func (s *MinioStorage) GetFileInfo(name uuid.UUID) (*FileInfo, error) {
	stat, err := s.client.StatObject(context.Background(), s.bucketName, name.String(), minio.StatObjectOptions{})
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchKey" {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &FileInfo{
		Name:        name.String(),
		Size:        stat.Size,
		ContentType: stat.ContentType,
		CreatedAt:   stat.LastModified,
	}, nil
}
