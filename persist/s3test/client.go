// Package s3test provides S3 buckets for tests: on an in-process fake
// by default, or on the endpoint named by STATECORE_TEST_S3_ENDPOINT.
package s3test

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/johannesboyne/gofakes3"
	"github.com/johannesboyne/gofakes3/backend/s3mem"
)

// EndpointEnv names a real S3-compatible endpoint to test against.
const EndpointEnv = "STATECORE_TEST_S3_ENDPOINT"

// Client returns a client and the name of a bucket created for t. The
// fake server, if any, is shut down when t finishes.
func Client(t testing.TB) (*s3.S3, string) {
	t.Helper()
	config, err := clientConfig(t)
	if err != nil {
		t.Fatalf("s3test: %v", err)
	}
	sess, err := session.NewSession(config)
	if err != nil {
		t.Fatalf("s3test: session: %v", err)
	}
	client := s3.New(sess)

	bucket, err := bucketName()
	if err != nil {
		t.Fatalf("s3test: %v", err)
	}
	if _, err := client.CreateBucket(&s3.CreateBucketInput{Bucket: &bucket}); err != nil {
		t.Fatalf("s3test: create bucket %s: %v", bucket, err)
	}
	return client, bucket
}

func clientConfig(t testing.TB) (*aws.Config, error) {
	if endpoint := os.Getenv(EndpointEnv); endpoint != "" {
		id, secret := os.Getenv("AWS_ACCESS_KEY_ID"), os.Getenv("AWS_SECRET_ACCESS_KEY")
		if id == "" || secret == "" {
			return nil, fmt.Errorf("%s is set but AWS_ACCESS_KEY_ID or AWS_SECRET_ACCESS_KEY is not", EndpointEnv)
		}
		region := os.Getenv("AWS_REGION")
		if region == "" {
			region = "not-using-AWS"
		}
		return &aws.Config{
			Credentials:      credentials.NewStaticCredentials(id, secret, os.Getenv("AWS_SESSION_TOKEN")),
			Endpoint:         aws.String(endpoint),
			Region:           aws.String(region),
			S3ForcePathStyle: aws.Bool(true),
		}, nil
	}

	ts := httptest.NewServer(gofakes3.New(s3mem.New()).Server())
	t.Cleanup(ts.Close)
	return &aws.Config{
		Credentials:      credentials.NewStaticCredentials("TEST-ACCESSKEYID", "TEST-SECRETACCESSKEY", ""),
		Endpoint:         aws.String(ts.URL),
		Region:           aws.String("ca-west-1"),
		DisableSSL:       aws.Bool(true),
		S3ForcePathStyle: aws.Bool(true),
	}, nil
}

func bucketName() (string, error) {
	i, err := rand.Int(rand.Reader, big.NewInt(math.MaxUint32))
	if err != nil {
		return "", fmt.Errorf("bucket name: %w", err)
	}
	return fmt.Sprintf("bucket-%s", i), nil
}
