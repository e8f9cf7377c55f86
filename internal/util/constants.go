package util

const (
	StorageLocal = "local"
	StorageMinio = "minio"
	StorageOSS   = "oss"
)

const (
	ImageProcessorNative = "native"
	ImageProcessorFFmpeg = "ffmpeg"
)

// 文件上传相关常量
const (
	MimeImage = "image/"
	MimePNG   = "image/png"
)

// 上传表单字段
const (
	FormImageField      = "image"
	FormImportFileField = "json_file"
)
