// SPDX-License-Identifier: MPL-2.0

package steps

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/go-cmp/cmp"

	"github.com/relkit/relkit/internal/issue"
	"github.com/relkit/relkit/internal/model"
	"github.com/relkit/relkit/internal/release"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string]string
	failKey string
}

func (b *fakeBucket) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	if key == b.failKey {
		return nil, errors.New("access denied")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = string(data)
	return &s3.PutObjectOutput{}, nil
}

func (b *fakeBucket) keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.objects))
	for k := range b.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func uploadModel() *model.Model {
	disabled := false
	m := demoModel()
	m.Artifacts = []model.Artifact{{Path: "dist/demo.tar.gz"}, {Path: "dist/demo.zip"}}
	m.Upload.S3 = []model.S3Uploader{
		{Name: "primary", Bucket: "releases", Region: "eu-west-1"},
		{Name: "mirror", Bucket: "mirror", Path: "mirror/{{projectVersion}}/{{artifactFile}}"},
		{Name: "legacy", Bucket: "legacy", Enabled: &disabled},
	}
	m.Defaults()
	return m
}

func newFakeFactory(b *fakeBucket, seen *[]string) S3ClientFactory {
	var mu sync.Mutex
	return func(_ context.Context, u model.S3Uploader) (ObjectPutter, error) {
		mu.Lock()
		defer mu.Unlock()
		*seen = append(*seen, u.Name)
		return b, nil
	}
}

func TestUpload(t *testing.T) {
	t.Parallel()

	bucket := &fakeBucket{objects: map[string]string{}}
	var seen []string
	rc := newRC(t, uploadModel(), nil)
	writeArtifact(t, rc.BaseDir(), "dist/demo.tar.gz", "tgz")
	writeArtifact(t, rc.BaseDir(), "dist/demo.zip", "zip")

	if err := NewUpload(rc, newFakeFactory(bucket, &seen)).Invoke(context.Background()); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}

	want := []string{
		"mirror/mirror/1.2.3/demo.tar.gz",
		"mirror/mirror/1.2.3/demo.zip",
		"releases/demo/1.2.3/demo.tar.gz",
		"releases/demo/1.2.3/demo.zip",
	}
	if diff := cmp.Diff(want, bucket.keys()); diff != "" {
		t.Errorf("uploaded keys mismatch (-want +got):\n%s", diff)
	}
	if bucket.objects["releases/demo/1.2.3/demo.zip"] != "zip" {
		t.Errorf("object body = %q", bucket.objects["releases/demo/1.2.3/demo.zip"])
	}
	if slices.Contains(seen, "legacy") {
		t.Error("client created for a disabled uploader")
	}
}

func TestUpload_Filters(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		filters release.Filters
		want    []string
	}{
		{"include", release.Filters{IncludedUploaders: []string{"mirror"}}, []string{"mirror"}},
		{"exclude", release.Filters{ExcludedUploaders: []string{"mirror"}}, []string{"primary"}},
		{"include disabled", release.Filters{IncludedUploaders: []string{"legacy"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			bucket := &fakeBucket{objects: map[string]string{}}
			var seen []string
			rc := newRC(t, uploadModel(), func(o *release.Options) { o.Filters = tt.filters })
			writeArtifact(t, rc.BaseDir(), "dist/demo.tar.gz", "tgz")
			writeArtifact(t, rc.BaseDir(), "dist/demo.zip", "zip")

			if err := NewUpload(rc, newFakeFactory(bucket, &seen)).Invoke(context.Background()); err != nil {
				t.Fatalf("Invoke() error = %v", err)
			}
			slices.Sort(seen)
			if diff := cmp.Diff(tt.want, seen); diff != "" {
				t.Errorf("uploaders mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestUpload_DryRun(t *testing.T) {
	t.Parallel()

	var seen []string
	bucket := &fakeBucket{objects: map[string]string{}}
	rc := newRC(t, uploadModel(), func(o *release.Options) { o.DryRun = true })

	if err := NewUpload(rc, newFakeFactory(bucket, &seen)).Invoke(context.Background()); err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if len(seen) != 0 || len(bucket.keys()) != 0 {
		t.Errorf("dry run created clients %v or objects %v", seen, bucket.keys())
	}
}

func TestUpload_Failure(t *testing.T) {
	t.Parallel()

	var seen []string
	bucket := &fakeBucket{objects: map[string]string{}, failKey: "releases/demo/1.2.3/demo.zip"}
	rc := newRC(t, uploadModel(), nil)
	writeArtifact(t, rc.BaseDir(), "dist/demo.tar.gz", "tgz")
	writeArtifact(t, rc.BaseDir(), "dist/demo.zip", "zip")

	err := NewUpload(rc, newFakeFactory(bucket, &seen)).Invoke(context.Background())
	var ae *issue.ActionableError
	if !errors.As(err, &ae) || ae.IssueID != issue.UploadFailedId || ae.Resource != "primary" {
		t.Errorf("Invoke() error = %#v, want upload failure for primary", err)
	}
}

func TestUpload_ClientError(t *testing.T) {
	t.Parallel()

	rc := newRC(t, uploadModel(), nil)
	factoryErr := errors.New("no credentials")
	factory := func(context.Context, model.S3Uploader) (ObjectPutter, error) { return nil, factoryErr }

	if err := NewUpload(rc, factory).Invoke(context.Background()); !errors.Is(err, factoryErr) {
		t.Errorf("Invoke() error = %v, want the factory error", err)
	}
}
