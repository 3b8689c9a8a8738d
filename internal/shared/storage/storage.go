package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Storage 对象存储封装（图纸等附件）。client 可为 nil，此时上传接口返回明确错误。
type Storage struct {
	client *minio.Client
	bucket string
}

// Config 对象存储配置
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// New 创建对象存储客户端并确保bucket存在
func New(ctx context.Context, cfg Config) (*Storage, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket: %w", err)
		}
	}

	return &Storage{client: client, bucket: cfg.Bucket}, nil
}

// Upload 上传文件，按日期分目录存储，返回对象名
func (s *Storage) Upload(ctx context.Context, reader io.Reader, fileName string, fileSize int64, contentType string) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("object storage not configured")
	}

	objectName := fmt.Sprintf("drawings/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(fileName))

	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, fileSize, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload file: %w", err)
	}
	return objectName, nil
}

// Download 按对象名读取文件
func (s *Storage) Download(ctx context.Context, objectName string) (io.ReadCloser, error) {
	if s == nil || s.client == nil {
		return nil, fmt.Errorf("object storage not configured")
	}
	object, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	return object, nil
}

// PresignedURL 生成临时下载链接
func (s *Storage) PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	if s == nil || s.client == nil {
		return "", fmt.Errorf("object storage not configured")
	}
	reqParams := make(url.Values)
	u, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, reqParams)
	if err != nil {
		return "", fmt.Errorf("presign object: %w", err)
	}
	return u.String(), nil
}
