package taskwell

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// how long a minted upload URL stays usable
const uploadURLExpiry = 15 * time.Minute

// S3API mirrors the method signatures of *s3.Client that we use
type S3API interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3PresignAPI mirrors the method signatures of *s3.PresignClient that we use
type S3PresignAPI interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// AttachmentService manages the S3 objects backing item attachments. Object
// keys are deterministic from the image ID so the public URL of an attachment
// never changes after upload.
type AttachmentService struct {
	client    S3API
	presigner S3PresignAPI
	bucket    string
	prefix    string
}

// NewAttachmentService creates a new attachment service writing objects with
// the given prefix in the given bucket
func NewAttachmentService(client S3API, presigner S3PresignAPI, bucket, prefix string) *AttachmentService {
	return &AttachmentService{client: client, presigner: presigner, bucket: bucket, prefix: prefix}
}

func (s *AttachmentService) objectKey(imageID string) string {
	return s.prefix + imageID
}

// PublicURL returns the stable readable URL for the object backing the given
// image ID
func (s *AttachmentService) PublicURL(imageID string) string {
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.bucket, s.objectKey(imageID))
}

// ImageID extracts the image ID from a public URL previously returned by
// PublicURL
func (s *AttachmentService) ImageID(url string) string {
	return path.Base(url)
}

// UploadURL returns a pre-signed URL allowing a single PUT of the image body
// directly to S3, valid for 15 minutes
func (s *AttachmentService) UploadURL(ctx context.Context, imageID string) (string, error) {
	req, err := s.presigner.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(imageID)),
	}, s3.WithPresignExpires(uploadURLExpiry))
	if err != nil {
		return "", fmt.Errorf("error pre-signing upload URL: %w", err)
	}
	return req.URL, nil
}

// Delete removes the object backing the given image ID
func (s *AttachmentService) Delete(ctx context.Context, imageID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.objectKey(imageID)),
	})
	if err != nil {
		return fmt.Errorf("error deleting attachment object: %w", err)
	}
	return nil
}

// Test verifies the attachments bucket is reachable
func (s *AttachmentService) Test(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)})
	return err
}
