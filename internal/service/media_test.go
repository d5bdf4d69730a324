package service

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"

	"streamnet/internal/model"
)

type recordingPutter struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (p *recordingPutter) PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.input = in
	p.body, _ = io.ReadAll(in.Body)
	return &s3.PutObjectOutput{}, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 100, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestMediaService_UploadAvatar(t *testing.T) {
	putter := &recordingPutter{}
	svc := newMediaService(putter, "bucket", "https://cdn.test/")
	data := pngBytes(t, 640, 480)

	res, err := svc.UploadAvatar(context.Background(), 42, Upload{Body: bytes.NewReader(data), Size: int64(len(data))})
	if err != nil {
		t.Fatalf("UploadAvatar: %v", err)
	}

	if !strings.HasPrefix(res.Key, "avatars/42/") || !strings.HasSuffix(res.Key, ".jpg") {
		t.Errorf("key = %q", res.Key)
	}
	if res.URL != "https://cdn.test/"+res.Key {
		t.Errorf("url = %q", res.URL)
	}
	if *putter.input.ContentType != model.ContentTypeJPEG || *putter.input.Bucket != "bucket" {
		t.Errorf("put input = %+v", putter.input)
	}

	img, err := imaging.Decode(bytes.NewReader(putter.body))
	if err != nil {
		t.Fatalf("stored object is not an image: %v", err)
	}
	if b := img.Bounds(); b.Dx() != model.AvatarWidth || b.Dy() != model.AvatarHeight {
		t.Errorf("stored size = %dx%d, want %dx%d", b.Dx(), b.Dy(), model.AvatarWidth, model.AvatarHeight)
	}
}

func TestMediaService_UploadAvatarRejects(t *testing.T) {
	svc := newMediaService(&recordingPutter{}, "bucket", "https://cdn.test")
	valid := pngBytes(t, 4, 4)

	tests := []struct {
		name    string
		up      Upload
		wantErr error
	}{
		{
			name:    "declared too large",
			up:      Upload{Body: bytes.NewReader(valid), Size: model.MaxAvatarSizeBytes + 1},
			wantErr: model.ErrFileTooLarge,
		},
		{
			name:    "body larger than declared",
			up:      Upload{Body: bytes.NewReader(make([]byte, model.MaxAvatarSizeBytes+10)), Size: 10},
			wantErr: model.ErrFileTooLarge,
		},
		{
			name:    "text file",
			up:      Upload{Body: strings.NewReader("hello world"), Size: 11},
			wantErr: model.ErrInvalidImageType,
		},
		{
			name:    "declared type not allowed",
			up:      Upload{Body: bytes.NewReader(valid), Size: int64(len(valid)), ContentType: "image/bmp"},
			wantErr: model.ErrInvalidImageType,
		},
		{
			name:    "undecodable jpeg",
			up:      Upload{Body: strings.NewReader("garbage"), Size: 7, ContentType: "image/jpeg; charset=binary"},
			wantErr: model.ErrInvalidImageType,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.UploadAvatar(context.Background(), 1, tt.up); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMediaService_StorageErrorIsWrapped(t *testing.T) {
	storageErr := errors.New("r2 unavailable")
	svc := newMediaService(&recordingPutter{err: storageErr}, "bucket", "https://cdn.test")
	data := pngBytes(t, 8, 8)

	_, err := svc.UploadAvatar(context.Background(), 1, Upload{Body: bytes.NewReader(data), Size: int64(len(data))})
	if !errors.Is(err, storageErr) {
		t.Errorf("error = %v, want wrapped %v", err, storageErr)
	}
}
