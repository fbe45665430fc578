package storage

import (
	"context"
	"fmt"
	"io"
	"path"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dapursari/storefront/internal/aws"
	"github.com/google/uuid"
)

// Uploader puts product images into the public bucket and returns their URL.
type Uploader struct {
	client aws.S3API
	bucket string
	region string
}

// NewUploader returns an Uploader for the configured bucket.
func NewUploader(client aws.S3API, bucket, region string) *Uploader {
	return &Uploader{client: client, bucket: bucket, region: region}
}

// UploadImage stores the file under images/<uuid><ext> and returns the
// public object URL. ext must include the leading dot; filename is only used
// for its extension.
func (u *Uploader) UploadImage(ctx context.Context, body io.Reader, filename, contentType string) (string, error) {
	key := "images/" + uuid.NewString() + path.Ext(filename)

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      sdkaws.String(u.bucket),
		Key:         sdkaws.String(key),
		Body:        body,
		ContentType: sdkaws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", u.bucket, u.region, key), nil
}
