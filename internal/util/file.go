package util

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

// ValidateMimeType 深度校验文件 MIME 类型
// allowedTypes: 允许的 MIME 前缀或完整类型，如 "image/"
// 返回的 reader 会重新拼接已读取的头部，调用方应继续使用它
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, io.Reader, error) {
	buffer := make([]byte, 512)
	n, err := io.ReadFull(reader, buffer)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return "", nil, err
	}
	head := buffer[:n]
	rest := io.MultiReader(bytes.NewReader(head), reader)

	mimeType := http.DetectContentType(head)

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, rest, nil
		}
	}

	return mimeType, rest, errors.New("invalid file type: " + mimeType)
}

// HasExtension 不区分大小写地比较文件扩展名
func HasExtension(filename, ext string) bool {
	return strings.EqualFold(filepath.Ext(filename), ext)
}
