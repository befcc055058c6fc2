package runtime

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Runtime is the set of services a running instance needs - the process entry
// point constructs one and passes it down, nothing acquires clients on its own.
type Runtime struct {
	Config    *Config
	Dynamo    *dynamodb.Client
	S3        *s3.Client
	S3Presign *s3.PresignClient
}

// NewRuntime creates a runtime for the passed in config, establishing our AWS
// service clients
func NewRuntime(ctx context.Context, cfg *Config) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.AWSRegion),
		awsconfig.WithRetryMaxAttempts(3),
	}
	if !cfg.AWSUseCredChain {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading AWS config: %w", err)
	}

	rt.Dynamo = dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.DynamoEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoEndpoint)
		}
	})

	rt.S3 = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
		}
		o.UsePathStyle = cfg.S3Minio
	})
	rt.S3Presign = s3.NewPresignClient(rt.S3)

	return rt, nil
}

// TableName returns the full name of the table with the given base name
func (rt *Runtime) TableName(base string) string {
	return rt.Config.DynamoTablePrefix + base
}
