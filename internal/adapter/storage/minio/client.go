package minio

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	appconfig "github.com/GoArmGo/PictureIt/internal/config"
	"github.com/GoArmGo/PictureIt/internal/domain"
)

const (
	metaLocation       = "location"
	metaDescription    = "description"
	defaultContentType = "application/octet-stream"
)

// Client хранит изображения в MinIO (S3-совместимом хранилище) и реализует ports.ContentGateway.
// Удалённый id изображения это ключ объекта в бакете.
type Client struct {
	s3Client   *s3.Client
	uploader   *manager.Uploader
	bucketName string
	publicURL  string
	logger     *slog.Logger
}

// NewMinioClient создает клиент и при необходимости создаёт бакет.
func NewMinioClient(ctx context.Context, cfg *appconfig.Config, logger *slog.Logger) (*Client, error) {
	mc := cfg.Minio
	if mc.Endpoint == "" || mc.AccessKeyID == "" || mc.SecretAccessKey == "" || mc.BucketName == "" {
		return nil, errors.New("MinIO settings (MINIO_ENDPOINT, MINIO_ACCESS_KEY_ID, MINIO_SECRET_ACCESS_KEY, MINIO_BUCKET_NAME) must be set")
	}

	endpoint := endpointURL(mc.Endpoint, mc.UseSSL)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(mc.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(mc.AccessKeyID, mc.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config for MinIO: %w", err)
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})

	publicURL := mc.PublicURL
	if publicURL == "" {
		publicURL = endpoint
	}

	c := &Client{
		s3Client:   s3Client,
		uploader:   manager.NewUploader(s3Client),
		bucketName: mc.BucketName,
		publicURL:  strings.TrimRight(publicURL, "/"),
		logger:     logger,
	}

	if err := c.ensureBucket(ctx, mc.Region); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) ensureBucket(ctx context.Context, region string) error {
	headCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := c.s3Client.HeadBucket(headCtx, &s3.HeadBucketInput{Bucket: aws.String(c.bucketName)}); err == nil {
		c.logger.Info("bucket already exists", "bucket", c.bucketName)
		return nil
	}

	c.logger.Info("bucket not found, creating", "bucket", c.bucketName)

	input := &s3.CreateBucketInput{Bucket: aws.String(c.bucketName)}
	if region != "" && region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}
	if _, err := c.s3Client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket '%s': %w", c.bucketName, err)
	}

	waiter := s3.NewBucketExistsWaiter(c.s3Client)
	if err := waiter.Wait(ctx, &s3.HeadBucketInput{Bucket: aws.String(c.bucketName)}, 30*time.Second); err != nil {
		return fmt.Errorf("failed waiting for bucket '%s' to be created: %w", c.bucketName, err)
	}

	c.logger.Info("bucket created successfully", "bucket", c.bucketName)
	return nil
}

// CreateImage загружает новый объект под сгенерированным ключом.
func (c *Client) CreateImage(ctx context.Context, content domain.ImageContent) (*domain.RemoteImage, error) {
	key := uuid.NewString()
	if err := c.put(ctx, "create image", key, content); err != nil {
		return nil, err
	}
	return c.remoteImage(key, content), nil
}

// ReplaceImage перезаписывает существующий объект целиком.
func (c *Client) ReplaceImage(ctx context.Context, remoteID string, content domain.ImageContent) (*domain.RemoteImage, error) {
	if _, err := c.head(ctx, "replace image", remoteID); err != nil {
		return nil, err
	}
	if err := c.put(ctx, "replace image", remoteID, content); err != nil {
		return nil, err
	}
	return c.remoteImage(remoteID, content), nil
}

// PatchImage меняет только переданные поля. Без новых данных объект не перезаливается,
// метаданные переписываются копированием объекта в самого себя.
func (c *Client) PatchImage(ctx context.Context, remoteID string, patch domain.ImagePatch) (*domain.RemoteImage, error) {
	const op = "patch image"

	current, err := c.head(ctx, op, remoteID)
	if err != nil {
		return nil, err
	}
	merged := applyPatch(current, patch)

	if patch.Data != nil {
		if err := c.put(ctx, op, remoteID, merged); err != nil {
			return nil, err
		}
		return c.remoteImage(remoteID, merged), nil
	}

	_, err = c.s3Client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(c.bucketName),
		Key:               aws.String(remoteID),
		CopySource:        aws.String(c.bucketName + "/" + url.PathEscape(remoteID)),
		MetadataDirective: types.MetadataDirectiveReplace,
		ContentType:       aws.String(merged.ContentType),
		Metadata:          encodeMetadata(merged.Location, merged.Description),
	})
	if err != nil {
		return nil, wrapError(op, err)
	}
	return c.remoteImage(remoteID, merged), nil
}

// DeleteImage удаляет объект, отсутствующий объект считается ошибкой хранилища.
func (c *Client) DeleteImage(ctx context.Context, remoteID string) error {
	const op = "delete image"
	if _, err := c.head(ctx, op, remoteID); err != nil {
		return err
	}
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(remoteID),
	})
	if err != nil {
		return wrapError(op, err)
	}
	c.logger.Info("object deleted", "bucket", c.bucketName, "key", remoteID)
	return nil
}

// FetchImage возвращает метаданные объекта.
func (c *Client) FetchImage(ctx context.Context, remoteID string) (*domain.RemoteImage, error) {
	content, err := c.head(ctx, "fetch image", remoteID)
	if err != nil {
		return nil, err
	}
	return c.remoteImage(remoteID, content), nil
}

func (c *Client) put(ctx context.Context, op, key string, content domain.ImageContent) error {
	data, err := base64.StdEncoding.DecodeString(content.Data)
	if err != nil {
		return domain.NewValidationError("data must be base64 encoded")
	}
	contentType := content.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}

	out, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
		Metadata:    encodeMetadata(content.Location, content.Description),
	})
	if err != nil {
		c.logger.Error("failed to upload object", "key", key, "error", err)
		return wrapError(op, err)
	}

	c.logger.Info("object uploaded", "key", key, "location", out.Location, "size", len(data))
	return nil
}

// head читает метаданные объекта. Data в результате не заполняется.
func (c *Client) head(ctx context.Context, op, key string) (domain.ImageContent, error) {
	out, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return domain.ImageContent{}, wrapError(op, err)
	}
	location, description := decodeMetadata(out.Metadata)
	return domain.ImageContent{
		ContentType: aws.ToString(out.ContentType),
		Location:    location,
		Description: description,
	}, nil
}

func (c *Client) remoteImage(key string, content domain.ImageContent) *domain.RemoteImage {
	return &domain.RemoteImage{
		ID:          key,
		URL:         objectURL(c.publicURL, c.bucketName, key),
		ContentType: content.ContentType,
		Location:    content.Location,
		Description: content.Description,
	}
}

func endpointURL(endpoint string, useSSL bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

func objectURL(base, bucket, key string) string {
	return fmt.Sprintf("%s/%s/%s", base, bucket, url.PathEscape(key))
}

// Пользовательские метаданные S3 передаются заголовками, поэтому значения кодируются.
func encodeMetadata(location, description string) map[string]string {
	return map[string]string{
		metaLocation:    url.QueryEscape(location),
		metaDescription: url.QueryEscape(description),
	}
}

func decodeMetadata(meta map[string]string) (location, description string) {
	get := func(key string) string {
		for k, v := range meta {
			if strings.EqualFold(k, key) {
				if decoded, err := url.QueryUnescape(v); err == nil {
					return decoded
				}
				return v
			}
		}
		return ""
	}
	return get(metaLocation), get(metaDescription)
}

func applyPatch(current domain.ImageContent, patch domain.ImagePatch) domain.ImageContent {
	merged := current
	if patch.Data != nil {
		merged.Data = *patch.Data
	}
	if patch.ContentType != nil {
		merged.ContentType = *patch.ContentType
	}
	if patch.Location != nil {
		merged.Location = *patch.Location
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	return merged
}

func wrapError(op string, err error) error {
	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		return &domain.UpstreamError{Op: op, StatusCode: respErr.HTTPStatusCode(), Body: respErr.Err.Error(), Err: err}
	}
	return &domain.UpstreamError{Op: op, Err: err}
}
