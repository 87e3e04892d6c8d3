package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sysu-ecnc-dev/marketplace/backend/internal/config"
)

type Kind string

const (
	KindBanner  Kind = "banner"
	KindLogo    Kind = "logo"
	KindProduct Kind = "product"
)

var ErrNotImage = errors.New("上传的文件不是图片")

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case KindBanner, KindLogo, KindProduct:
		return k, true
	}
	return "", false
}

type Storage struct {
	client  *s3.S3
	bucket  string
	baseURL string
}

func New(cfg *config.Config) (*Storage, error) {
	awsCfg := &aws.Config{
		Region: aws.String(cfg.Storage.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			"",
		),
		S3ForcePathStyle: aws.Bool(cfg.Storage.PathStyle),
	}
	if cfg.Storage.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Storage.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("无法创建 S3 会话: %w", err)
	}

	baseURL := cfg.Storage.BaseURL
	if baseURL == "" {
		baseURL = fmt.Sprintf("https://%s", cfg.Storage.Bucket)
	}

	return &Storage{
		client:  s3.New(sess),
		bucket:  cfg.Storage.Bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// ObjectKey 对象的路径为 stores/{storeID}/{kind}/{uuid}{ext}
func ObjectKey(storeID int64, kind Kind, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return fmt.Sprintf("stores/%d/%s/%s%s", storeID, kind, uuid.New().String(), ext)
}

func (s *Storage) PublicURL(key string) string {
	return fmt.Sprintf("%s/%s", s.baseURL, key)
}

// KeyFromURL 不属于当前 bucket 的地址返回 false
func (s *Storage) KeyFromURL(url string) (string, bool) {
	prefix := s.baseURL + "/"
	if !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	if key == "" {
		return "", false
	}
	return key, true
}

// Upload 上传图片并返回可公开访问的地址
func (s *Storage) Upload(ctx context.Context, storeID int64, kind Kind, filename string, body io.ReadSeeker) (string, error) {
	// 根据文件头判断类型
	buffer := make([]byte, 512)
	n, err := body.Read(buffer)
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("无法读取文件: %w", err)
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("无法读取文件: %w", err)
	}

	contentType := http.DetectContentType(buffer[:n])
	if !strings.HasPrefix(contentType, "image/") {
		return "", ErrNotImage
	}

	key := ObjectKey(storeID, kind, filename)
	if _, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("无法上传文件到 S3: %w", err)
	}

	return s.PublicURL(key), nil
}

// Delete 忽略不属于当前 bucket 的地址，例如外部图床的图片
func (s *Storage) Delete(ctx context.Context, url string) error {
	key, ok := s.KeyFromURL(url)
	if !ok {
		return nil
	}

	if _, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}); err != nil {
		return fmt.Errorf("无法从 S3 删除文件 %s: %w", key, err)
	}

	return nil
}

// DeleteAll 尽量删除所有对象，返回遇到的所有错误
func (s *Storage) DeleteAll(ctx context.Context, urls []string) error {
	var errs []error
	for _, url := range urls {
		if err := s.Delete(ctx, url); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
