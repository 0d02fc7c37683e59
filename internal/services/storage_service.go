// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"

	"github.com/javajoker/listing-studio/internal/config"
)

// maxMirrorSize bounds a single downloaded asset.
const maxMirrorSize = 200 << 20

// StorageService copies generated assets into the configured S3 bucket.
// Without S3 credentials Mirror returns the source URL unchanged.
type StorageService struct {
	s3Client s3iface.S3API
	http     *http.Client
	config   *config.Config
	now      func() time.Time
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	s := &StorageService{
		http:   &http.Client{Timeout: 2 * time.Minute},
		config: config,
		now:    time.Now,
	}
	if config.AWS.AccessKeyID == "" || config.AWS.S3Bucket == "" {
		// Return service without S3 for local development
		return s, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	s.s3Client = s3.New(sess)
	return s, nil
}

func (s *StorageService) Enabled() bool {
	return s.s3Client != nil
}

// Mirror downloads sourceURL and stores it under folder in the bucket.
func (s *StorageService) Mirror(ctx context.Context, sourceURL, folder string) (string, error) {
	if s.s3Client == nil || s.isOwnURL(sourceURL) {
		return sourceURL, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("invalid asset URL: %w", err)
	}
	resp, err := s.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download asset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to download asset: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMirrorSize+1))
	if err != nil {
		return "", fmt.Errorf("failed to read asset: %w", err)
	}
	if len(body) > maxMirrorSize {
		return "", fmt.Errorf("asset exceeds %d bytes", maxMirrorSize)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	key := s.generateFileName(sourceURL, contentType, folder)

	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
		CacheControl:  aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	return s.getS3URL(key), nil
}

func (s *StorageService) isOwnURL(u string) bool {
	if s.config.AWS.CloudFrontURL != "" && strings.HasPrefix(u, s.config.AWS.CloudFrontURL) {
		return true
	}
	return strings.HasPrefix(u, s.getS3URL(""))
}

func (s *StorageService) generateFileName(sourceURL, contentType, folder string) string {
	ext := path.Ext(strings.SplitN(sourceURL, "?", 2)[0])
	if len(ext) > 5 || ext == "" {
		ext = ""
		if exts, _ := mime.ExtensionsByType(contentType); len(exts) > 0 {
			ext = exts[0]
		}
	}

	timestamp := s.now().Format("20060102")
	filename := fmt.Sprintf("%s_%s%s", timestamp, uuid.New().String()[:8], ext)

	if folder != "" {
		return fmt.Sprintf("%s/%s", folder, filename)
	}

	return filename
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", strings.TrimRight(s.config.AWS.CloudFrontURL, "/"), key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}
