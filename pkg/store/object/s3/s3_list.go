package s3

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/marmos91/clouddrive/pkg/store/object"
)

// maxDeleteBatch is the DeleteObjects limit per request.
const maxDeleteBatch = 1000

// ListAll pages through the bucket under the configured prefix.
func (g *S3Gateway) ListAll(ctx context.Context) iter.Seq2[object.ObjectInfo, error] {
	return func(yield func(object.ObjectInfo, error) bool) {
		input := &s3.ListObjectsV2Input{Bucket: aws.String(g.bucket)}
		if g.prefix != "" {
			input.Prefix = aws.String(g.prefix)
		}

		paginator := s3.NewListObjectsV2Paginator(g.client, input)
		for paginator.HasMorePages() {
			start := time.Now()
			page, err := paginator.NextPage(ctx)
			g.observe("ListObjectsV2", start, err)
			if err != nil {
				yield(object.ObjectInfo{}, wrapError("list", g.prefix, err))
				return
			}

			for _, obj := range page.Contents {
				info := object.ObjectInfo{Key: aws.ToString(obj.Key)}
				if obj.Size != nil {
					info.Size = *obj.Size
				}
				if obj.LastModified != nil {
					info.LastModified = *obj.LastModified
				}
				if !yield(info, nil) {
					return
				}
			}
		}
	}
}

// DeleteBatch removes keys using DeleteObjects, 1000 per request.
// Per-key failures are returned in the map; a request-level failure aborts
// the remaining batches.
func (g *S3Gateway) DeleteBatch(ctx context.Context, keys []string) (map[string]error, error) {
	failures := make(map[string]error)

	for i := 0; i < len(keys); i += maxDeleteBatch {
		if err := ctx.Err(); err != nil {
			return failures, err
		}

		end := min(i+maxDeleteBatch, len(keys))
		batch := keys[i:end]

		objects := make([]types.ObjectIdentifier, len(batch))
		for j, key := range batch {
			objects[j] = types.ObjectIdentifier{Key: aws.String(key)}
		}

		start := time.Now()
		result, err := g.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(g.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(false),
			},
		})
		g.observe("DeleteObjects", start, err)
		if err != nil {
			return failures, wrapError("delete batch", fmt.Sprintf("[%d keys]", len(batch)), err)
		}

		for _, e := range result.Errors {
			key := aws.ToString(e.Key)
			failures[key] = fmt.Errorf("%w: %s: %s", object.ErrUnavailable, aws.ToString(e.Code), aws.ToString(e.Message))
		}
	}

	return failures, nil
}

// SignView presigns a GetObject request valid for ttl.
func (g *S3Gateway) SignView(ctx context.Context, key string, ttl time.Duration) (link string, err error) {
	if err := object.ValidateKey(key); err != nil {
		return "", err
	}
	if ttl <= 0 {
		return "", errors.New("s3 sign: ttl must be positive")
	}

	start := time.Now()
	defer func() { g.observe("PresignGetObject", start, err) }()

	req, err := g.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", wrapError("sign", key, err)
	}
	return req.URL, nil
}
