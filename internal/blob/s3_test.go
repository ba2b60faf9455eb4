package blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// fakeS3 stores objects in a map so Store logic can be exercised without a
// real bucket.
type fakeS3 struct {
	objects map[string][]byte
	bucket  string
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.bucket = *input.Bucket
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.objects[*input.Key] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := f.objects[*input.Key]
	if !ok {
		return nil, &noSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(f.objects, *input.Key)
	return &s3.DeleteObjectOutput{}, nil
}

type noSuchKey struct{}

func (noSuchKey) Error() string { return "NoSuchKey" }

func testStore(fake *fakeS3) *Store {
	return &Store{
		cfg:    Config{Bucket: "hearthside-test"},
		client: fake,
	}
}

func TestPutGetDelete(t *testing.T) {
	fake := newFakeS3()
	store := testStore(fake)
	ctx := context.Background()

	if err := store.Put(ctx, "1/abc", "application/pdf", []byte("care plan")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if fake.bucket != "hearthside-test" {
		t.Errorf("bucket = %q", fake.bucket)
	}

	data, err := store.Get(ctx, "1/abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(data) != "care plan" {
		t.Errorf("data = %q", data)
	}

	if err := store.Delete(ctx, "1/abc"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "1/abc"); err == nil {
		t.Error("expected error for deleted object")
	}
}

func TestNotConfigured(t *testing.T) {
	store := NewStore(Config{})
	ctx := context.Background()

	if store.Configured() {
		t.Error("expected Configured() = false without credentials")
	}
	if err := store.Put(ctx, "k", "text/plain", nil); err == nil {
		t.Error("put: expected error when unconfigured")
	}
	if _, err := store.Get(ctx, "k"); err == nil {
		t.Error("get: expected error when unconfigured")
	}
	if err := store.Delete(ctx, "k"); err == nil {
		t.Error("delete: expected error when unconfigured")
	}
}

func TestNewStoreConfigured(t *testing.T) {
	store := NewStore(Config{
		Endpoint:  "https://minio.local",
		Bucket:    "docs",
		Region:    "us-east-1",
		AccessKey: "key",
		SecretKey: "secret",
	})
	if !store.Configured() {
		t.Error("expected Configured() = true with full config")
	}
}

func TestNewKey(t *testing.T) {
	k1 := NewKey(42)
	k2 := NewKey(42)

	if !strings.HasPrefix(k1, "42/") {
		t.Errorf("key %q missing family prefix", k1)
	}
	if k1 == k2 {
		t.Error("keys should be unique per call")
	}
}
