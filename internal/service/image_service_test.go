package service

import (
	"bytes"
	"errors"
	"image/png"
	"strings"
	"testing"
	"testhub_backend/internal/util"
)

func TestNativeImageProcessorFill(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"landscape source", 640, 240},
		{"portrait source", 100, 400},
		{"smaller than target", 30, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NativeImageProcessor{}.Fill(bytes.NewReader(encodePNG(t, tt.w, tt.h)), 300, 200)
			if err != nil {
				t.Fatalf("Fill: %v", err)
			}
			cfg, err := png.DecodeConfig(bytes.NewReader(out))
			if err != nil {
				t.Fatalf("output is not a PNG: %v", err)
			}
			if cfg.Width != 300 || cfg.Height != 200 {
				t.Errorf("size = %dx%d, want 300x200", cfg.Width, cfg.Height)
			}
		})
	}
}

func TestStoreTestImageLimits(t *testing.T) {
	images, _ := newLocalImages(t)
	images.MaxBytes = 64

	_, err := images.StoreTestImage(bg, bytes.NewReader(encodePNG(t, 200, 200)))
	if !errors.Is(err, util.ErrInvalidImage) {
		t.Errorf("oversized: err = %v, want ErrInvalidImage", err)
	}

	images.MaxBytes = 5 << 20
	if _, err := images.StoreTestImage(bg, strings.NewReader("GIF? no, plain text")); !errors.Is(err, util.ErrInvalidImage) {
		t.Errorf("non-image: err = %v, want ErrInvalidImage", err)
	}
}

func TestNewImageProcessor(t *testing.T) {
	orig := ffmpegVersion
	t.Cleanup(func() { ffmpegVersion = orig })

	ffmpegVersion = func() (string, error) { return "ffmpeg version 6.1", nil }
	if _, ok := NewImageProcessor(util.ImageProcessorFFmpeg).(FFmpegImageProcessor); !ok {
		t.Error("ffmpeg processor not selected")
	}
	ffmpegVersion = func() (string, error) { return "", errors.New("executable file not found") }
	if _, ok := NewImageProcessor(util.ImageProcessorFFmpeg).(NativeImageProcessor); !ok {
		t.Error("missing ffmpeg should fall back to native")
	}
	if _, ok := NewImageProcessor(util.ImageProcessorNative).(NativeImageProcessor); !ok {
		t.Error("native processor not selected")
	}
	if _, ok := NewImageProcessor("").(NativeImageProcessor); !ok {
		t.Error("empty kind should fall back to native")
	}
}
