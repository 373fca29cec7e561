package relay

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectGetter is the subset of the S3 client used by the relay.
type ObjectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// ClientFactory builds an ObjectGetter for a request. It returns an error
// wrapping ErrNoCredentials when no credentials can be resolved.
type ClientFactory func(ctx context.Context, req Request) (ObjectGetter, error)

// S3ClientFactory returns the default factory. Static keys from the request
// take precedence; when they are missing and allowDefaultChain is set the AWS
// default credential chain is consulted. endpoint, when set, overrides the S3
// endpoint and switches to path-style addressing (MinIO, LocalStack).
func S3ClientFactory(allowDefaultChain bool, endpoint string) ClientFactory {
	return func(ctx context.Context, req Request) (ObjectGetter, error) {
		opts := []func(*awsconfig.LoadOptions) error{
			awsconfig.WithRegion(req.Region),
		}
		static := req.AccessKeyID != "" && req.SecretAccessKey != ""
		switch {
		case static:
			opts = append(opts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(req.AccessKeyID, req.SecretAccessKey, "")))
		case !allowDefaultChain:
			return nil, ErrNoCredentials
		}

		cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}

		if !static {
			if cfg.Credentials == nil {
				return nil, ErrNoCredentials
			}
			creds, err := cfg.Credentials.Retrieve(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
			}
			if !creds.HasKeys() {
				return nil, ErrNoCredentials
			}
		}

		return s3.NewFromConfig(cfg, func(o *s3.Options) {
			if endpoint != "" {
				o.BaseEndpoint = aws.String(endpoint)
				o.UsePathStyle = true
			}
		}), nil
	}
}

// fetch downloads the whole object.
func fetch(ctx context.Context, client ObjectGetter, bucket, key string) ([]byte, error) {
	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read object body: %w", err)
	}
	return data, nil
}
