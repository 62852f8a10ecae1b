package s3util

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type memObject struct {
	data        []byte
	contentType string
}

// memS3 is an in-memory ObjectAPI.
type memS3 struct {
	objects map[string]memObject
	putErr  error
}

func newMemS3() *memS3 {
	return &memS3{objects: make(map[string]memObject)}
}

func (m *memS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.putErr != nil {
		return nil, m.putErr
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	m.objects[*in.Bucket+"/"+*in.Key] = memObject{data: data, contentType: *in.ContentType}
	return &s3.PutObjectOutput{}, nil
}

func (m *memS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	obj, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	ct := obj.contentType
	return &s3.GetObjectOutput{
		Body:        io.NopCloser(bytes.NewReader(obj.data)),
		ContentType: &ct,
	}, nil
}

func (m *memS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	delete(m.objects, *in.Bucket+"/"+*in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func TestPhotoBucket_RoundTrip(t *testing.T) {
	api := newMemS3()
	b := NewPhotoBucket(api, "styleai-photos")
	ctx := context.Background()
	uri := "data:image/png;base64,iVBORw0KGgo="
	key := PhotoKey("alice", "item-1", "v1")

	if key != "photos/alice/item-1/v1" {
		t.Fatalf("unexpected key %q", key)
	}
	if err := b.Put(ctx, key, uri); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if obj := api.objects["styleai-photos/"+key]; obj.contentType != "image/png" {
		t.Errorf("expected content type image/png, got %q", obj.contentType)
	}

	got, err := b.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != uri {
		t.Errorf("expected %q, got %q", uri, got)
	}

	if err := b.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := b.Get(ctx, key); err == nil {
		t.Error("expected error reading deleted photo")
	}
}

func TestPhotoBucket_PutRejectsNonDataURI(t *testing.T) {
	b := NewPhotoBucket(newMemS3(), "bucket")
	if err := b.Put(context.Background(), "k", "https://example.com/a.png"); err == nil {
		t.Fatal("expected error for non data URI")
	}
}

func TestPhotoBucket_PutWrapsS3Error(t *testing.T) {
	api := newMemS3()
	api.putErr = errors.New("access denied")
	b := NewPhotoBucket(api, "bucket")

	err := b.Put(context.Background(), "k", "data:image/png;base64,AAAA")
	if err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Fatalf("expected wrapped S3 error, got %v", err)
	}
}

func TestPhotoBucket_GetRejectsUnsupportedType(t *testing.T) {
	api := newMemS3()
	api.objects["bucket/k"] = memObject{data: []byte("GIF89a"), contentType: "image/gif"}
	b := NewPhotoBucket(api, "bucket")

	if _, err := b.Get(context.Background(), "k"); err == nil {
		t.Fatal("expected error for image/gif")
	}
}
