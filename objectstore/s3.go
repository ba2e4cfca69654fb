package objectstore

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/alwitt/goutils"
	"github.com/apex/log"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config connection settings for an S3 compatible object store
type S3Config struct {
	// Region bucket region
	Region string `json:"region" validate:"required"`
	// Bucket target bucket name
	Bucket string `json:"bucket" validate:"required"`
	// BaseEndpoint optional custom endpoint, e.g. a MinIO deployment
	BaseEndpoint string `json:"base_endpoint,omitempty"`
	// AccessKey static access key ID
	AccessKey string `json:"access_key" validate:"required"`
	// SecretKey static secret access key
	SecretKey string `json:"-" validate:"required"`
}

// s3StoreImpl implements ObjectStore against an S3 compatible backend
type s3StoreImpl struct {
	goutils.Component
	client *s3.Client
	bucket string
}

/*
NewS3Store define an object store client against an S3 compatible backend

	@param ctx context.Context - execution context
	@param storeConfig S3Config - connection settings
	@returns new object store client
*/
func NewS3Store(ctx context.Context, storeConfig S3Config) (ObjectStore, error) {
	logTags := log.Fields{"package": "doccontrol", "module": "objectstore", "component": "s3"}

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(storeConfig.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			storeConfig.AccessKey,
			storeConfig.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare S3 configuration [%w]", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if storeConfig.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(storeConfig.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &s3StoreImpl{
		Component: goutils.Component{
			LogTags: logTags,
			LogTagModifiers: []goutils.LogMetadataModifier{
				goutils.ModifyLogMetadataByRestRequestParam,
			},
		},
		client: client,
		bucket: storeConfig.Bucket,
	}, nil
}

/*
Upload store a payload and hand back its reference

	@param ctx context.Context - execution context
	@param prefix string - logical grouping prefix, e.g. "documents"
	@param contentType string - payload MIME content type
	@param payload io.Reader - the payload
	@returns the object reference
*/
func (s *s3StoreImpl) Upload(
	ctx context.Context, prefix string, contentType string, payload io.Reader,
) (string, error) {
	key := newStorageKey(prefix)

	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      &s.bucket,
		Key:         &key,
		Body:        payload,
		ContentType: &contentType,
	}); err != nil {
		return "", fmt.Errorf("failed to upload object '%s' [%w]", key, err)
	}

	log.WithFields(s.LogTags).WithField("key", key).Debug("Uploaded object")

	return key, nil
}

/*
Download fetch a stored payload

	@param ctx context.Context - execution context
	@param ref string - the object reference
	@returns the payload
*/
func (s *s3StoreImpl) Download(ctx context.Context, ref string) ([]byte, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &ref,
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, fmt.Errorf("object '%s': %w", ref, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to fetch object '%s' [%w]", ref, err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object '%s' [%w]", ref, err)
	}

	return payload, nil
}

/*
Delete remove a stored payload

	@param ctx context.Context - execution context
	@param ref string - the object reference
*/
func (s *s3StoreImpl) Delete(ctx context.Context, ref string) error {
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &ref,
	}); err != nil {
		return fmt.Errorf("failed to delete object '%s' [%w]", ref, err)
	}

	log.WithFields(s.LogTags).WithField("key", ref).Debug("Deleted object")

	return nil
}

/*
Exists check whether a reference points at a stored payload

	@param ctx context.Context - execution context
	@param ref string - the object reference
	@returns whether the object exists
*/
func (s *s3StoreImpl) Exists(ctx context.Context, ref string) (bool, error) {
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &s.bucket,
		Key:    &ref,
	}); err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object '%s' [%w]", ref, err)
	}

	return true, nil
}
