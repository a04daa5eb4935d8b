//go:build integration

package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/marmos91/clouddrive/pkg/store/object"
	objecttesting "github.com/marmos91/clouddrive/pkg/store/object/testing"
)

// TestS3Gateway_Integration runs the gateway suite against an S3-compatible
// service (Localstack).
//
// Prerequisites:
//   - Localstack running on localhost:4566
//   - Run with: go test -tags=integration ./pkg/store/object/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3Gateway_Integration(t *testing.T) {
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	base := Config{
		Region:          "us-east-1",
		Endpoint:        endpoint,
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}

	client, err := NewClient(ctx, base)
	if err != nil {
		t.Fatalf("Failed to create S3 client: %v", err)
	}

	counter := 0
	suite := &objecttesting.GatewayTestSuite{
		NewGateway: func() object.Gateway {
			// Fresh bucket per test for isolation
			counter++
			bucket := fmt.Sprintf("clouddrive-test-%d-%d", time.Now().UnixNano(), counter)
			if _, err := client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(bucket)}); err != nil {
				t.Fatalf("Failed to create bucket %s: %v", bucket, err)
			}
			t.Cleanup(func() { cleanupBucket(ctx, client, bucket) })

			cfg := base
			cfg.Bucket = bucket
			cfg.Client = client
			g, err := New(ctx, cfg)
			if err != nil {
				t.Fatalf("Failed to create gateway: %v", err)
			}
			return g
		},
	}

	suite.Run(t)
}

func cleanupBucket(ctx context.Context, client *s3.Client, bucket string) {
	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{Bucket: aws.String(bucket)})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			break
		}
		for _, obj := range page.Contents {
			_, _ = client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(bucket), Key: obj.Key})
		}
	}
	_, _ = client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucket)})
}
