package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

type mockS3 struct {
	objects   map[string][]byte
	types     map[string]string
	deleteErr error
}

func newMockS3() *mockS3 {
	return &mockS3{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *mockS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	key := aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	m.objects[key] = data
	m.types[key] = aws.ToString(in.ContentType)
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if m.deleteErr != nil {
		return nil, m.deleteErr
	}
	delete(m.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3StoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	api := newMockS3()
	store := NewS3Store(api, zap.NewNop())

	if err := store.Put(ctx, "bucket", "receipts/a.jpg", "image/jpeg", strings.NewReader("jpeg"), 4); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if api.types["bucket/receipts/a.jpg"] != "image/jpeg" {
		t.Errorf("content type = %q", api.types["bucket/receipts/a.jpg"])
	}

	data, err := store.Get(ctx, "bucket", "receipts/a.jpg")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(data) != "jpeg" {
		t.Errorf("Get() = %q", data)
	}

	if err := store.Delete(ctx, "bucket", "receipts/a.jpg"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get(ctx, "bucket", "receipts/a.jpg"); err == nil {
		t.Error("Get() after Delete() should fail")
	}
}

func TestS3StoreDeleteError(t *testing.T) {
	api := newMockS3()
	api.deleteErr = errors.New("access denied")
	store := NewS3Store(api, zap.NewNop())

	err := store.Delete(context.Background(), "bucket", "k")
	if !errors.Is(err, api.deleteErr) {
		t.Errorf("Delete() error = %v, want wrapped access denied", err)
	}
}
