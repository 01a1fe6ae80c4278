// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relkit/relkit/internal/model"
	"github.com/relkit/relkit/internal/testutil"
)

const (
	minioUser     = "relkit"
	minioPassword = "relkit-secret"
)

// checkTestcontainersAvailable reports whether a container provider can be
// reached. Provider detection may panic when no engine is installed.
func checkTestcontainersAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	provider, err := testcontainers.ProviderDocker.GetProvider()
	if err != nil {
		return false
	}
	defer provider.Close()
	return true
}

func startMinIO(t *testing.T) string {
	t.Helper()
	testutil.AcquireContainerSlot(t)
	ctx := context.Background()

	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "minio/minio:latest",
			ExposedPorts: []string{"9000/tcp"},
			Cmd:          []string{"server", "/data"},
			Env: map[string]string{
				"MINIO_ROOT_USER":     minioUser,
				"MINIO_ROOT_PASSWORD": minioPassword,
			},
			WaitingFor: wait.ForHTTP("/minio/health/live").WithPort("9000/tcp").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Skipf("skipping MinIO test: failed to start container: %v", err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(ctx); err != nil {
			t.Logf("failed to terminate MinIO container: %v", err)
		}
	})

	endpoint, err := c.PortEndpoint(ctx, "9000/tcp", "http")
	if err != nil {
		t.Fatalf("MinIO endpoint: %v", err)
	}
	return endpoint
}

func TestUpload_MinIO_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if !checkTestcontainersAvailable() {
		t.Skip("skipping MinIO integration test: testcontainers provider not available")
	}

	endpoint := startMinIO(t)
	uploader := model.S3Uploader{
		Name:        "minio",
		Bucket:      "releases",
		Endpoint:    endpoint,
		PathStyle:   true,
		AccessKeyID: minioUser,
		SecretKey:   minioPassword,
	}

	ctx := context.Background()
	client, err := NewS3Client(ctx, uploader)
	if err != nil {
		t.Fatalf("NewS3Client() error = %v", err)
	}
	s3c := client.(*s3.Client)
	if _, err := s3c.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(uploader.Bucket)}); err != nil {
		t.Fatalf("CreateBucket() error = %v", err)
	}

	m := demoModel()
	m.Artifacts = []model.Artifact{{Path: "dist/demo.tar.gz"}}
	m.Upload.S3 = []model.S3Uploader{uploader}
	m.Defaults()
	rc := newRC(t, m, nil)
	writeArtifact(t, rc.BaseDir(), "dist/demo.tar.gz", "payload")

	if err := NewUpload(rc, nil).Invoke(ctx); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	out, err := s3c.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(uploader.Bucket),
		Key:    aws.String("demo/1.2.3/demo.tar.gz"),
	})
	if err != nil {
		t.Fatalf("GetObject() error = %v", err)
	}
	defer out.Body.Close()
	data, _ := io.ReadAll(out.Body)
	if string(data) != "payload" {
		t.Errorf("object = %q, want payload", data)
	}
}
