package runtime

import (
	"github.com/nyaruka/ezconf"
	"github.com/taskwell/taskwell/utils"
)

// Config is our top level configuration object
type Config struct {
	Address string `help:"the network interface address the server will bind to"`
	Port    int    `help:"the port the server will listen on"`

	AWSAccessKeyID     string `help:"access key ID to use for AWS services"`
	AWSSecretAccessKey string `help:"secret access key to use for AWS services"`
	AWSUseCredChain    bool   `help:"whether to use the AWS credentials chain instead of explicit keys"`
	AWSRegion          string `help:"region to use for AWS services, e.g. us-east-1"`

	DynamoEndpoint    string `help:"DynamoDB service endpoint, set to use a local instance"`
	DynamoTablePrefix string `help:"prefix to use for DynamoDB table names"`

	S3Endpoint          string `help:"S3 service endpoint, set to use a minio instance"`
	S3AttachmentsBucket string `validate:"required"  help:"the S3 bucket where attachment images are stored"`
	S3AttachmentsPrefix string `help:"the prefix added to attachment object keys"`
	S3Minio             bool   `help:"whether the S3 endpoint is a minio instance and we should use path style buckets"`

	JWTSecret string `validate:"required"  help:"the secret used to verify bearer tokens on API requests"`

	RequestTimeout int `help:"the timeout in seconds applied to each API request"`

	SentryDSN string `help:"the DSN used for logging errors to Sentry"`
	LogLevel  string `help:"the logging level to use"`
	Version   string `help:"the version used in request and response headers"`
}

// NewDefaultConfig returns a new default configuration object
func NewDefaultConfig() *Config {
	return &Config{
		Address: "",
		Port:    8080,

		AWSUseCredChain: true,
		AWSRegion:       "us-east-1",

		DynamoTablePrefix: "Taskwell",

		S3AttachmentsBucket: "taskwell-attachments",
		S3AttachmentsPrefix: "attachments/",

		JWTSecret: "sesame",

		RequestTimeout: 15,

		LogLevel: "info",
		Version:  "Dev",
	}
}

// LoadConfig loads our configuration from the passed in filename
func LoadConfig(filename string) *Config {
	config := NewDefaultConfig()
	loader := ezconf.NewLoader(
		config,
		"taskwell", "Taskwell - a multi-user todo list service",
		[]string{filename},
	)
	loader.MustLoad()

	return config
}

// Validate validates the config
func (c *Config) Validate() error {
	return utils.Validate(c)
}
