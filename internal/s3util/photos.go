// Package s3util stores wardrobe photos in S3.
//
// DynamoDB caps items at 400 KB, well below the 4 MiB photo limit, so the
// Dynamo-backed store keeps only an object key and the bytes live here.
package s3util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/styleai/internal/wardrobe"
)

// ObjectAPI is the subset of *s3.Client used by PhotoBucket.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// PhotoBucket reads and writes item photos under
// photos/<owner>/<item>/<version>.
type PhotoBucket struct {
	client ObjectAPI
	bucket string
}

// NewPhotoBucket creates a PhotoBucket. client is usually an *s3.Client.
func NewPhotoBucket(client ObjectAPI, bucket string) *PhotoBucket {
	return &PhotoBucket{client: client, bucket: bucket}
}

// Bucket returns the bucket name.
func (b *PhotoBucket) Bucket() string {
	return b.bucket
}

// PhotoKey returns the object key of one version of an item photo. Each
// write uses a new version so the record never points at a half-replaced
// object.
func PhotoKey(ownerID, itemID, version string) string {
	return fmt.Sprintf("photos/%s/%s/%s", ownerID, itemID, version)
}

// Put uploads the decoded photo bytes with their MIME type as Content-Type.
func (b *PhotoBucket) Put(ctx context.Context, key, photoDataURI string) error {
	photo, err := wardrobe.ParseDataURI(photoDataURI)
	if err != nil {
		return fmt.Errorf("parse photo for %s: %w", key, err)
	}

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &b.bucket,
		Key:           &key,
		Body:          bytes.NewReader(photo.Data),
		ContentType:   &photo.MIMEType,
		ContentLength: aws.Int64(int64(len(photo.Data))),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s: %w", key, err)
	}

	log.Debug().Str("bucket", b.bucket).Str("key", key).Int("bytes", len(photo.Data)).Msg("Photo uploaded to S3")
	return nil
}

// Get downloads a photo and rebuilds its data URI.
func (b *PhotoBucket) Get(ctx context.Context, key string) (string, error) {
	result, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &b.bucket, Key: &key,
	})
	if err != nil {
		return "", fmt.Errorf("S3 GetObject %s: %w", key, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(io.LimitReader(result.Body, wardrobe.MaxPhotoBytes+1))
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	if len(data) > wardrobe.MaxPhotoBytes {
		return "", fmt.Errorf("photo %s exceeds %d bytes", key, wardrobe.MaxPhotoBytes)
	}

	mimeType := ""
	if result.ContentType != nil {
		mimeType = *result.ContentType
	}
	if !wardrobe.IsSupportedImageType(mimeType) {
		return "", fmt.Errorf("photo %s has unsupported content type %q", key, mimeType)
	}
	return wardrobe.DataURI{MIMEType: mimeType, Data: data}.String(), nil
}

// Delete removes a photo. Deleting a missing key is not an error.
func (b *PhotoBucket) Delete(ctx context.Context, key string) error {
	if key == "" {
		return errors.New("empty photo key")
	}
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &b.bucket, Key: &key,
	})
	if err != nil {
		return fmt.Errorf("S3 DeleteObject %s: %w", key, err)
	}
	log.Debug().Str("bucket", b.bucket).Str("key", key).Msg("Photo deleted from S3")
	return nil
}
