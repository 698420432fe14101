package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/kbase/collections-sub001"
)

// LocalSpecLoader loads ColumnarAttributesSpec JSON files from a local
// directory, one file per collection, named "<collection>.json".
type LocalSpecLoader struct {
	Dir string
}

// Load reads and parses the spec file for collection.
func (l *LocalSpecLoader) Load(ctx context.Context, collection string) (collections.ColumnarAttributesSpec, error) {
	path := filepath.Join(l.Dir, collection+".json")
	body, err := os.ReadFile(path)
	if err != nil {
		return collections.ColumnarAttributesSpec{}, fmt.Errorf("internal: reading spec file %s: %w", path, err)
	}
	var spec collections.ColumnarAttributesSpec
	if err := json.Unmarshal(body, &spec); err != nil {
		return collections.ColumnarAttributesSpec{}, fmt.Errorf("internal: parsing spec file %s: %w", path, err)
	}
	spec.SpecFiles = append(spec.SpecFiles, path)
	if err := spec.Validate(); err != nil {
		return collections.ColumnarAttributesSpec{}, fmt.Errorf("internal: validating spec file %s: %w", path, err)
	}
	return spec, nil
}

// S3SpecLoader loads ColumnarAttributesSpec JSON documents from an S3
// bucket/prefix, one object per collection at
// "<prefix>/<collection>.json".
type S3SpecLoader struct {
	Bucket string
	Prefix string
	client *s3.Client
}

// NewS3SpecLoader builds an S3SpecLoader using the default AWS
// credential chain, mirroring the config/credential loading the
// teacher's CDC flusher performs before constructing its S3 client.
// When accessKeyID and secretAccessKey are both non-empty they override
// the chain with a static provider instead, for deployments that pin
// credentials via configuration rather than the environment or an
// instance role.
func NewS3SpecLoader(ctx context.Context, bucket, prefix, accessKeyID, secretAccessKey string) (*S3SpecLoader, error) {
	var optFns []func(*awsconfig.LoadOptions) error
	if accessKeyID != "" && secretAccessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("internal: loading AWS config: %w", err)
	}
	return &S3SpecLoader{
		Bucket: bucket,
		Prefix: strings.TrimSuffix(prefix, "/"),
		client: s3.NewFromConfig(cfg),
	}, nil
}

// Load fetches and parses the spec object for collection.
func (l *S3SpecLoader) Load(ctx context.Context, collection string) (collections.ColumnarAttributesSpec, error) {
	key := fmt.Sprintf("%s/%s.json", l.Prefix, collection)
	out, err := l.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return collections.ColumnarAttributesSpec{}, fmt.Errorf("internal: fetching s3://%s/%s: %w", l.Bucket, key, err)
	}
	defer out.Body.Close()

	var spec collections.ColumnarAttributesSpec
	if err := json.NewDecoder(out.Body).Decode(&spec); err != nil {
		return collections.ColumnarAttributesSpec{}, fmt.Errorf("internal: parsing s3://%s/%s: %w", l.Bucket, key, err)
	}
	loc := fmt.Sprintf("s3://%s/%s", l.Bucket, key)
	spec.SpecFiles = append(spec.SpecFiles, loc)
	if err := spec.Validate(); err != nil {
		return collections.ColumnarAttributesSpec{}, fmt.Errorf("internal: validating %s: %w", loc, err)
	}
	zap.S().Debugw("loaded column spec", "location", loc, "columns", len(spec.Columns))
	return spec, nil
}
