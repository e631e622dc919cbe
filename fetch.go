package entrypoint

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithylogging "github.com/aws/smithy-go/logging"
	"go.uber.org/zap"
)

// DefaultFetchTimeout bounds the remote env file download.
const DefaultFetchTimeout = 30 * time.Second

// ObjectLocation identifies the remote env file.
type ObjectLocation struct {
	EndpointURL string
	Region      string
	Bucket      string
	Key         string
}

func (l ObjectLocation) String() string {
	return fmt.Sprintf("s3://%s/%s", l.Bucket, l.Key)
}

// Fetcher retrieves the content of an object.
type Fetcher interface {
	Fetch(ctx context.Context, location ObjectLocation) ([]byte, error)
}

// ResolveObjectLocation reads the env file coordinates from env. It returns
// ok=false when no env file is configured. Once the object path is set, the
// endpoint and region become mandatory.
func ResolveObjectLocation(env Environment) (location ObjectLocation, ok bool, err error) {
	objectPath := lookup(env, EnvS3EnvFileObjectPath)
	if objectPath == "" {
		return ObjectLocation{}, false, nil
	}

	location.EndpointURL = lookup(env, EnvS3EndpointURL)
	if location.EndpointURL == "" {
		return ObjectLocation{}, true, fmt.Errorf("%s is required when %s is set", EnvS3EndpointURL, EnvS3EnvFileObjectPath)
	}

	location.Region = lookup(env, EnvS3BucketRegion)
	if location.Region == "" {
		return ObjectLocation{}, true, fmt.Errorf("%s is required when %s is set", EnvS3BucketRegion, EnvS3EnvFileObjectPath)
	}

	location.Bucket, location.Key, err = ParseObjectPath(objectPath)
	if err != nil {
		return ObjectLocation{}, true, err
	}

	return location, true, nil
}

// ParseObjectPath splits an s3://bucket/key path.
func ParseObjectPath(objectPath string) (bucket, key string, err error) {
	u, err := url.Parse(objectPath)
	if err != nil {
		return "", "", fmt.Errorf("invalid object path %q: %w", objectPath, err)
	}

	if u.Scheme != "s3" {
		return "", "", fmt.Errorf("invalid object path %q: scheme must be s3", objectPath)
	}

	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", fmt.Errorf("invalid object path %q: expected s3://<bucket>/<key>", objectPath)
	}

	return u.Host, key, nil
}

// FetchTimeout returns the configured fetch timeout, DefaultFetchTimeout when
// unset.
func FetchTimeout(env Environment) (time.Duration, error) {
	raw := lookup(env, EnvFetchTimeout)
	if raw == "" {
		return DefaultFetchTimeout, nil
	}

	timeout, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", EnvFetchTimeout, raw, err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be positive", EnvFetchTimeout, raw)
	}
	return timeout, nil
}

// S3Fetcher downloads objects from S3 or an S3 compatible service.
type S3Fetcher struct {
	AccessKeyID        string
	SecretAccessKey    string
	SessionToken       string
	MetadataServiceURL string
}

// NewS3Fetcher reads credentials from env. Without an access key pair, the
// default AWS credential chain is used.
func NewS3Fetcher(env Environment) *S3Fetcher {
	return &S3Fetcher{
		AccessKeyID:        lookup(env, EnvAWSAccessKeyID),
		SecretAccessKey:    lookup(env, EnvAWSSecretAccessKey),
		SessionToken:       lookup(env, EnvAWSSessionToken),
		MetadataServiceURL: lookup(env, EnvAWSMetadataServiceURL),
	}
}

func (f *S3Fetcher) loadOptions(region string) []func(*config.LoadOptions) error {
	options := []func(*config.LoadOptions) error{
		config.WithRegion(region),
		config.WithLogger(sdkLogger{logger: zlog}),
	}

	if f.AccessKeyID != "" && f.SecretAccessKey != "" {
		options = append(options, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(f.AccessKeyID, f.SecretAccessKey, f.SessionToken),
		))
	}

	if f.MetadataServiceURL != "" {
		options = append(options, config.WithEC2IMDSEndpoint(f.MetadataServiceURL))
	}

	return options
}

func (f *S3Fetcher) Fetch(ctx context.Context, location ObjectLocation) ([]byte, error) {
	cfg, err := config.LoadDefaultConfig(ctx, f.loadOptions(location.Region)...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if location.EndpointURL != "" {
			o.BaseEndpoint = aws.String(location.EndpointURL)
			o.UsePathStyle = true
		}
		// S3 compatible services rarely return checksums for plain objects.
		o.ResponseChecksumValidation = aws.ResponseChecksumValidationWhenRequired
	})

	zlog.Info("fetching env file",
		zap.Stringer("object", location),
		zap.String("endpoint", location.EndpointURL),
		zap.String("region", location.Region))

	result, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(location.Bucket),
		Key:    aws.String(location.Key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", location, err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", location, err)
	}

	return data, nil
}

// sdkLogger writes AWS SDK log lines through zap.
type sdkLogger struct {
	logger *zap.Logger
}

func (l sdkLogger) Logf(classification smithylogging.Classification, format string, v ...interface{}) {
	msg := fmt.Sprintf(format, v...)
	if classification == smithylogging.Warn {
		l.logger.Warn(msg, zap.String("source", "aws-sdk"))
		return
	}
	l.logger.Debug(msg, zap.String("source", "aws-sdk"))
}
