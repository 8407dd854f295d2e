package spaces

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/DMarby/pixelbench/internal/storage"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// Provider implements an image storage on an S3 compatible bucket, such as digitalocean spaces
type Provider struct {
	spaces *s3.S3
	space  string
}

// New returns a new Provider instance, checking that the bucket is reachable
func New(ctx context.Context, space, endpoint, accessKey, secretKey string, forcePathStyle bool) (*Provider, error) {
	spacesSession, err := session.NewSession(&aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String("us-east-1"), // Needs to be us-east-1 for Spaces, or it'll fail
		S3ForcePathStyle: aws.Bool(forcePathStyle),
	})
	if err != nil {
		return nil, err
	}

	spaces := s3.New(spacesSession)

	if _, err := spaces.HeadBucketWithContext(ctx, &s3.HeadBucketInput{Bucket: aws.String(space)}); err != nil {
		return nil, err
	}

	return &Provider{
		spaces: spaces,
		space:  space,
	}, nil
}

// Get returns the object stored under key
func (p *Provider) Get(ctx context.Context, key string) ([]byte, error) {
	output, err := p.spaces.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.space),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}

		return nil, err
	}
	defer output.Body.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, output.Body); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Put stores data under key with a content type derived from its contents
func (p *Provider) Put(ctx context.Context, key string, data []byte) error {
	_, err := p.spaces.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.space),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(http.DetectContentType(data)),
	})
	return err
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey
}
