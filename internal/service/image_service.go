package service

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"io"
	"testhub_backend/internal/config"
	"testhub_backend/internal/util"
	"testhub_backend/pkg/logger"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ImageProcessor 把上传的图片缩放裁剪为固定尺寸的 PNG
type ImageProcessor interface {
	Fill(src io.Reader, width, height int) ([]byte, error)
}

// NativeImageProcessor 纯 Go 实现，居中裁剪
type NativeImageProcessor struct{}

func (NativeImageProcessor) Fill(src io.Reader, width, height int) ([]byte, error) {
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidImage, err)
	}

	dst := imaging.Fill(img, width, height, imaging.Center, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, imaging.PNG, imaging.PNGCompressionLevel(png.BestCompression)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FFmpegImageProcessor 依赖本机 ffmpeg，可处理 webp 等更多格式
type FFmpegImageProcessor struct{}

func (FFmpegImageProcessor) Fill(src io.Reader, width, height int) ([]byte, error) {
	out, err := util.FillImageFFmpeg(src, width, height)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidImage, err)
	}
	return out, nil
}

// ffmpegVersion 探测 ffmpeg 是否可用
var ffmpegVersion = util.GetFFmpegVersion

// NewImageProcessor 配置为 ffmpeg 但找不到可执行文件时退回 native
func NewImageProcessor(kind string) ImageProcessor {
	switch kind {
	case util.ImageProcessorFFmpeg:
		version, err := ffmpegVersion()
		if err != nil {
			logger.Log.Warn("ffmpeg unavailable, using native image processor", zap.Error(err))
			return NativeImageProcessor{}
		}
		logger.Log.Info("using ffmpeg image processor", zap.String("version", version))
		return FFmpegImageProcessor{}
	case util.ImageProcessorNative:
	default:
		logger.Log.Warn("unknown image processor, using native", zap.String("processor", kind))
	}
	return NativeImageProcessor{}
}

type ImageService struct {
	Processor ImageProcessor
	Storage   *StorageService
	Width     int
	Height    int
	MaxBytes  int64
}

func NewImageService(cfg *config.ImageConfig, storage *StorageService) *ImageService {
	return &ImageService{
		Processor: NewImageProcessor(cfg.Processor),
		Storage:   storage,
		Width:     cfg.Width,
		Height:    cfg.Height,
		MaxBytes:  cfg.MaxBytes,
	}
}

type StoredImage struct {
	Key string
	URL string
}

// StoreTestImage 校验并处理试卷封面，上传到 test_images/ 下
func (s *ImageService) StoreTestImage(ctx context.Context, src io.Reader) (*StoredImage, error) {
	limited := io.LimitReader(src, s.MaxBytes+1)
	_, body, err := util.ValidateMimeType(limited, []string{util.MimeImage})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidImage, err)
	}

	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if int64(len(raw)) > s.MaxBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", util.ErrInvalidImage, s.MaxBytes)
	}

	data, err := s.Processor.Fill(bytes.NewReader(raw), s.Width, s.Height)
	if err != nil {
		return nil, err
	}

	key := "test_images/" + uuid.New().String() + ".png"
	url, err := s.Storage.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), util.MimePNG)
	if err != nil {
		return nil, err
	}
	return &StoredImage{Key: key, URL: url}, nil
}

// Remove 尽力删除已存储的图片，失败只记录日志
func (s *ImageService) Remove(ctx context.Context, key string) {
	if s == nil || key == "" {
		return
	}
	if err := s.Storage.Delete(ctx, key); err != nil {
		logger.Log.Warn("failed to remove stored image", zap.String("key", key), zap.Error(err))
	}
}
