// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"

	"github.com/elingeyesdev/tickets-incidentes-sub002/internal/config"
)

const maxAttachmentSize = 10 * 1024 * 1024 // 10MB

var allowedAttachmentTypes = []string{
	".jpg", ".jpeg", ".png", ".gif", ".pdf", ".txt", ".log", ".zip",
}

// StorageService uploads ticket attachments to S3. Without AWS credentials it
// degrades to URLs served from the local uploads path, which keeps
// development environments working.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	URL         string `json:"url"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.Storage.AccessKeyID == "" {
		return &StorageService{config: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Storage.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.Storage.AccessKeyID,
			cfg.Storage.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

// UploadAttachment stores one ticket attachment under the ticket's folder.
func (s *StorageService) UploadAttachment(ctx context.Context, ticketCode string, header *multipart.FileHeader) (*UploadResult, error) {
	if header.Size > maxAttachmentSize {
		return nil, fmt.Errorf("file size %d bytes exceeds maximum of %d bytes", header.Size, maxAttachmentSize)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowed := false
	for _, t := range allowedAttachmentTypes {
		if ext == t {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("file type %s is not allowed", ext)
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	key := s.generateKey(ticketCode, header.Filename)
	contentType := header.Header.Get("Content-Type")

	if s.s3Client == nil {
		return &UploadResult{
			URL:         fmt.Sprintf("http://localhost:8080/uploads/%s", key),
			Key:         key,
			Size:        int64(len(fileBytes)),
			ContentType: contentType,
		}, nil
	}

	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.Storage.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload to S3: %w", err)
	}

	return &UploadResult{
		URL:         s.objectURL(key),
		Key:         key,
		Size:        int64(len(fileBytes)),
		ContentType: contentType,
	}, nil
}

func (s *StorageService) DeleteAttachment(key string) error {
	if s.s3Client == nil {
		return nil
	}

	_, err := s.s3Client.DeleteObject(&s3.DeleteObjectInput{
		Bucket: aws.String(s.config.Storage.S3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete file from S3: %w", err)
	}
	return nil
}

// GeneratePresignedURL builds a time-limited download link. Attachments are
// private objects, so this is the only way clients fetch them.
func (s *StorageService) GeneratePresignedURL(key string, expiration time.Duration) (string, error) {
	if s.s3Client == nil {
		return "", fmt.Errorf("S3 client not configured")
	}

	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.config.Storage.S3Bucket),
		Key:    aws.String(key),
	})

	url, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

func (s *StorageService) generateKey(ticketCode, originalName string) string {
	ext := filepath.Ext(originalName)
	stamp := time.Now().Format("20060102")
	return fmt.Sprintf("tickets/%s/%s_%s%s", ticketCode, stamp, uuid.New().String()[:8], ext)
}

func (s *StorageService) objectURL(key string) string {
	if s.config.Storage.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.Storage.CloudFrontURL, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.Storage.S3Bucket, s.config.Storage.Region, key)
}
