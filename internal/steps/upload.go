// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/errgroup"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/model"
	"github.com/relkit/relkit/internal/release"
)

// defaultRegion is used for custom endpoints that do not need a region.
const defaultRegion = "us-east-1"

type (
	// ObjectPutter is the part of the S3 client the uploader uses.
	ObjectPutter interface {
		PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	}

	// S3ClientFactory creates a client for an uploader.
	S3ClientFactory func(ctx context.Context, u model.S3Uploader) (ObjectPutter, error)

	// Upload sends every artifact to every selected S3 uploader.
	Upload struct {
		rc        *release.Context
		newClient S3ClientFactory
	}

	upload struct {
		uploader string
		client   ObjectPutter
		bucket   string
		key      string
		path     string
	}
)

// NewUpload creates the upload step. A nil factory uses the AWS SDK.
func NewUpload(rc *release.Context, factory S3ClientFactory) *Upload {
	if factory == nil {
		factory = NewS3Client
	}
	return &Upload{rc: rc, newClient: factory}
}

// NewS3Client builds an S3 client from the uploader settings and the default
// AWS credential chain. Static keys from the model take precedence.
func NewS3Client(ctx context.Context, u model.S3Uploader) (ObjectPutter, error) {
	region := u.Region
	if region == "" {
		region = defaultRegion
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if u.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(u.AccessKeyID, u.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if u.Endpoint != "" {
			o.BaseEndpoint = aws.String(u.Endpoint)
		}
		o.UsePathStyle = u.PathStyle
	}), nil
}

func (s *Upload) Command() string { return UploadCommand }

func (s *Upload) Invoke(ctx context.Context) error {
	m := s.rc.Model()
	log := s.rc.Log()
	filter := s.rc.UploaderFilter()

	var uploaders []model.S3Uploader
	for _, u := range m.Upload.S3 {
		switch {
		case !u.IsEnabled():
			log.Debug("uploader disabled", "uploader", u.Name)
		case !filter.Matches(u.Name):
			log.Debug("uploader excluded", "uploader", u.Name)
		default:
			uploaders = append(uploaders, u)
		}
	}
	if len(uploaders) == 0 {
		log.Info("no uploaders selected")
		return nil
	}
	if len(m.Artifacts) == 0 {
		log.Info("no artifacts configured")
		return nil
	}

	var jobs []upload
	for _, u := range uploaders {
		var client ObjectPutter
		if !s.rc.DryRun() {
			c, err := s.newClient(ctx, u)
			if err != nil {
				return uploadError(u.Name, err)
			}
			client = c
		}
		for _, a := range m.Artifacts {
			path := a.Path
			if !filepath.IsAbs(path) {
				path = filepath.Join(s.rc.BaseDir(), path)
			}
			key := m.Expand(u.Path, map[string]string{"artifactFile": model.ArtifactFile(a.Path)})
			jobs = append(jobs, upload{uploader: u.Name, client: client, bucket: u.Bucket, key: key, path: path})
		}
	}

	if s.rc.DryRun() {
		for _, j := range jobs {
			log.Info("would upload", "uploader", j.uploader, "artifact", j.path, "target", j.target())
		}
		return nil
	}

	limit := m.Upload.Parallelism
	if limit <= 0 {
		limit = model.DefaultParallelism
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, j := range jobs {
		g.Go(func() error {
			if err := j.put(gctx); err != nil {
				return uploadError(j.uploader, err)
			}
			s.rc.AddOutput(UploadCommand, j.target())
			log.Info("uploaded", "uploader", j.uploader, "target", j.target())
			return nil
		})
	}
	return g.Wait()
}

func (j upload) target() string { return "s3://" + j.bucket + "/" + j.key }

func (j upload) put(ctx context.Context) error {
	f, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = j.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(j.bucket),
		Key:    aws.String(j.key),
		Body:   f,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to %s: %w", j.path, j.target(), err)
	}
	return nil
}

func uploadError(uploader string, err error) error {
	return issue.NewErrorContext().
		WithOperation("upload artifacts").
		WithResource(uploader).
		WithIssue(issue.UploadFailedId).
		WithSuggestion("Check the bucket, region and endpoint of the uploader").
		WithSuggestion("Verify the credentials (AWS_ACCESS_KEY_ID or access_key_id)").
		Wrap(err).
		BuildError()
}
