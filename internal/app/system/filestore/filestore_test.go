package filestore

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

func TestNewKey(t *testing.T) {
	k := NewKey("/resumes/", ".PDF")
	re := regexp.MustCompile(`^resumes/\d{4}/\d{2}/[0-9a-f-]{36}\.pdf$`)
	if !re.MatchString(k) {
		t.Errorf("unexpected key %q", k)
	}
}

func TestCleanKey(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"a/b.png", "a/b.png", false},
		{"/a//b.png", "a/b.png", false},
		{"../etc/passwd", "", true},
		{"a/../../x", "", true},
		{"", "", true},
	}
	for _, tc := range tests {
		got, err := cleanKey(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("cleanKey(%q) err = %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("cleanKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLocal_PutDelete(t *testing.T) {
	root := t.TempDir()
	l, err := NewLocal(root, "/files/")
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	ctx := context.Background()

	url, err := l.Put(ctx, "images/x.png", "image/png", []byte("png"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "/files/images/x.png" {
		t.Errorf("url = %q", url)
	}
	b, err := os.ReadFile(filepath.Join(root, "images", "x.png"))
	if err != nil || string(b) != "png" {
		t.Fatalf("file not written: %v", err)
	}

	if err := l.Delete(ctx, "images/x.png"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := l.Delete(ctx, "images/x.png"); err != nil {
		t.Errorf("second delete should be a no-op, got %v", err)
	}
	if _, err := l.Put(ctx, "../escape", "", nil); err == nil {
		t.Error("expected error for escaping key")
	}
}

type fakeS3 struct {
	puts    []*s3.PutObjectInput
	deletes []*s3.DeleteObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.puts = append(f.puts, in)
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deletes = append(f.deletes, in)
	return &s3.DeleteObjectOutput{}, nil
}

func TestS3_PutUsesPrefix(t *testing.T) {
	fake := &fakeS3{}
	s := &S3{client: fake, bucket: "b", prefix: "uploads", publicURL: "https://cdn.example.com"}

	url, err := s.Put(context.Background(), "resumes/r.pdf", "application/pdf", []byte("%PDF-1.4"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if url != "https://cdn.example.com/uploads/resumes/r.pdf" {
		t.Errorf("url = %q", url)
	}
	if len(fake.puts) != 1 || *fake.puts[0].Key != "uploads/resumes/r.pdf" || *fake.puts[0].ContentType != "application/pdf" {
		t.Errorf("unexpected put input %+v", fake.puts)
	}

	if err := s.Delete(context.Background(), "resumes/r.pdf"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if *fake.deletes[0].Key != "uploads/resumes/r.pdf" {
		t.Errorf("delete key = %q", *fake.deletes[0].Key)
	}
}

func TestCloudinary_PublicID(t *testing.T) {
	c := &Cloudinary{folder: "ph"}
	id, rt, err := c.publicID("images/2025/01/a.png")
	if err != nil || id != "ph/images/2025/01/a" || rt != "image" {
		t.Errorf("image: id=%q rt=%q err=%v", id, rt, err)
	}
	id, rt, _ = c.publicID("resumes/r.pdf")
	if id != "ph/resumes/r.pdf" || rt != "raw" {
		t.Errorf("raw: id=%q rt=%q", id, rt)
	}
}

func TestDetectType(t *testing.T) {
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 16)...)
	if ct, ext, ok := DetectType(png, ImageTypes); !ok || ct != "image/png" || ext != "png" {
		t.Errorf("png: %q %q %v", ct, ext, ok)
	}
	if _, _, ok := DetectType([]byte("%PDF-1.7\n"), ImageTypes); ok {
		t.Error("pdf should not pass as image")
	}
	if _, ext, ok := DetectType([]byte("%PDF-1.7\n"), PDFTypes); !ok || ext != "pdf" {
		t.Error("pdf not detected")
	}
	if _, _, ok := DetectType([]byte(strings.Repeat("a", 10)), PDFTypes); ok {
		t.Error("text passed as pdf")
	}
}

func TestNew_UnknownType(t *testing.T) {
	if _, err := New(context.Background(), Config{Type: "ftp"}); err == nil {
		t.Error("expected error")
	}
}
