package archive

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the part of the S3 client used for uploads.
type ObjectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Target struct {
	Bucket string
	Key    string
}

func (t Target) String() string {
	return "s3://" + t.Bucket + "/" + t.Key
}

// ParseS3URL parses s3://bucket/key. A key ending in "/" is a prefix and
// gets the archive's base name appended by Upload.
func ParseS3URL(raw string) (Target, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, fmt.Errorf("parse upload url: %w", err)
	}
	if u.Scheme != "s3" || u.Host == "" {
		return Target{}, fmt.Errorf("upload url %q: want s3://bucket/key", raw)
	}
	return Target{Bucket: u.Host, Key: strings.TrimPrefix(u.Path, "/")}, nil
}

func NewS3Client(ctx context.Context, region, endpoint string) (*s3.Client, error) {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load AWS config: %w", err)
	}

	var opts []func(*s3.Options)
	if endpoint != "" {
		// MinIO and other S3-compatible stores
		opts = append(opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	return s3.NewFromConfig(awsCfg, opts...), nil
}

// Upload puts the archive at path to target and returns where it went.
func Upload(ctx context.Context, client ObjectPutter, target Target, path string) (Target, error) {
	if target.Key == "" || strings.HasSuffix(target.Key, "/") {
		target.Key += filepath.Base(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return target, err
	}
	defer f.Close()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(target.Bucket),
		Key:         aws.String(target.Key),
		Body:        f,
		ContentType: aws.String("application/zip"),
		Metadata: map[string]string{
			"source":      "df2lex",
			"uploaded-at": time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return target, fmt.Errorf("upload %s: %w", target, err)
	}
	return target, nil
}
