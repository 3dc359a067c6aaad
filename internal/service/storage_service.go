package service

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"quiz_platform_backend/internal/config"
	"quiz_platform_backend/internal/util"
	"quiz_platform_backend/pkg/logger"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// StorageProvider 定义通用存储接口
type StorageProvider interface {
	Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error)
	GetURL(filename string) string
}

// LocalStorageProvider 本地存储实现
type LocalStorageProvider struct {
	Config *config.StorageConfig
}

func (p *LocalStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	dst := filepath.Join(p.Config.LocalPath, filename)
	dir := filepath.Dir(dst)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", err
		}
	}

	out, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		return "", err
	}

	return p.GetURL(filename), nil
}

func (p *LocalStorageProvider) GetURL(filename string) string {
	return filepath.ToSlash(filepath.Join(p.Config.LocalPath, filename))
}

// MinioStorageProvider MinIO存储实现
type MinioStorageProvider struct {
	Config *config.StorageConfig
	Client *minio.Client
}

func NewMinioStorageProvider(cfg *config.StorageConfig) (*MinioStorageProvider, error) {
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinioAccessID, cfg.MinioSecret, ""),
		Secure: cfg.MinioUseSSL,
	})
	if err != nil {
		return nil, err
	}
	return &MinioStorageProvider{Config: cfg, Client: client}, nil
}

// EnsureBucket 创建归档桶（已存在则跳过）
func (p *MinioStorageProvider) EnsureBucket(ctx context.Context) error {
	exists, err := p.Client.BucketExists(ctx, p.Config.MinioBucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return p.Client.MakeBucket(ctx, p.Config.MinioBucket, minio.MakeBucketOptions{})
}

func (p *MinioStorageProvider) Upload(ctx context.Context, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	_, err := p.Client.PutObject(ctx, p.Config.MinioBucket, filename, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", err
	}
	return p.GetURL(filename), nil
}

func (p *MinioStorageProvider) GetURL(filename string) string {
	return "/" + p.Config.MinioBucket + "/" + filename
}

// StorageService 保存题目生成的原始输出，便于排查模型格式问题
type StorageService struct {
	Provider StorageProvider
	Enabled  bool
}

func NewStorageService(cfg *config.Config) *StorageService {
	var provider StorageProvider
	if cfg.Storage.Type == util.StorageMinio {
		p, err := NewMinioStorageProvider(&cfg.Storage)
		if err == nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			err = p.EnsureBucket(ctx)
			cancel()
		}
		if err != nil {
			logger.Log.Error("Failed to init minio storage, falling back to local", zap.Error(err))
		} else {
			provider = p
		}
	}

	if provider == nil {
		provider = &LocalStorageProvider{Config: &cfg.Storage}
	}

	return &StorageService{Provider: provider, Enabled: cfg.Storage.ArchiveRaw}
}

type GenerationArchive struct {
	QuizID     string    `json:"quiz_id,omitempty"`
	Topic      string    `json:"topic"`
	Difficulty string    `json:"difficulty"`
	Requested  int       `json:"requested"`
	Accepted   int       `json:"accepted"`
	Dropped    int       `json:"dropped"`
	Error      string    `json:"error,omitempty"`
	Raw        string    `json:"raw"`
	CreatedAt  time.Time `json:"created_at"`
}

// ArchiveGeneration is best-effort; failures are logged, never returned.
func (s *StorageService) ArchiveGeneration(ctx context.Context, archive GenerationArchive) {
	if s == nil || !s.Enabled {
		return
	}

	name := archive.QuizID
	prefix := "generations/"
	if name == "" {
		name = uuid.NewString()
		prefix = "generations/failed/"
	}
	filename := prefix + archive.CreatedAt.Format("2006/01/02") + "/" + name + ".json"

	data, err := json.Marshal(archive)
	if err != nil {
		logger.Log.Error("Failed to encode generation archive", zap.Error(err))
		return
	}

	if _, err := s.Provider.Upload(ctx, filename, bytes.NewReader(data), int64(len(data)), util.MimeJSON); err != nil {
		logger.Log.Warn("Failed to archive generation output", zap.String("file", filename), zap.Error(err))
	}
}
