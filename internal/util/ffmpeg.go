package util

import (
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FillImageFFmpeg 用 ffmpeg 把图片缩放并居中裁剪到 width x height，输出 PNG
func FillImageFFmpeg(src io.Reader, width, height int) ([]byte, error) {
	filter := fmt.Sprintf(
		"scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d",
		width, height, width, height,
	)

	var out bytes.Buffer
	var errOut bytes.Buffer
	err := ffmpeg.Input("pipe:").
		Output("pipe:", ffmpeg.KwArgs{
			"vf":       filter,
			"frames:v": "1",
			"f":        "image2",
			"vcodec":   "png",
		}).
		WithInput(src).
		WithOutput(&out, &errOut).
		Run()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg 处理图片失败: %v, %s", err, errOut.String())
	}
	return out.Bytes(), nil
}

// GetFFmpegVersion 返回 ffmpeg -version 输出的首行，找不到可执行文件时报错
func GetFFmpegVersion() (string, error) {
	bin, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("未找到 ffmpeg 可执行文件: %w", err)
	}
	out, err := exec.Command(bin, "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg -version 执行失败: %w", err)
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}
