package uploader

import (
	"bytes"
	"fmt"
	"tour_verify/internal/pkg/config"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// Uploader 外部对象存储，批量发码清单经此归档
type Uploader interface {
	Upload(name string, body []byte) (string, error)
}

type AliyunOSSUploader struct {
	client *oss.Client
	bucket *oss.Bucket
	config config.OSSConfig
}

func NewAliyunOSSUploader() (*AliyunOSSUploader, error) {
	cfg := config.GlobalConfig.OSS
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, err
	}

	bucket, err := client.Bucket(cfg.BucketName)
	if err != nil {
		return nil, err
	}

	return &AliyunOSSUploader{
		client: client,
		bucket: bucket,
		config: cfg,
	}, nil
}

func (u *AliyunOSSUploader) Upload(name string, body []byte) (string, error) {
	if err := u.bucket.PutObject(name, bytes.NewReader(body)); err != nil {
		return "", err
	}

	// 假定 bucket 为公共读或挂 CDN，私有 bucket 需改签名 URL
	url := fmt.Sprintf("https://%s.%s/%s", u.config.BucketName, u.config.Endpoint, name)
	return url, nil
}

// GlobalUploader 实例，InitUploader 失败时保持 nil
var GlobalUploader Uploader

func InitUploader() error {
	u, err := NewAliyunOSSUploader()
	if err != nil {
		return err
	}
	GlobalUploader = u
	return nil
}
