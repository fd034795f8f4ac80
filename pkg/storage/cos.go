package storage

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/tencentyun/cos-go-sdk-v5"
)

// COSStore keeps objects in a Tencent Cloud COS bucket.
type COSStore struct {
	client *cos.Client
}

// NewCOSStore takes the bucket URL, e.g.
// https://examplebucket-1250000000.cos.ap-mumbai.myqcloud.com
func NewCOSStore(bucketURL, secretID, secretKey string) (*COSStore, error) {
	u, err := url.Parse(bucketURL)
	if err != nil {
		return nil, err
	}
	client := cos.NewClient(&cos.BaseURL{BucketURL: u}, &http.Client{
		Transport: &cos.AuthorizationTransport{SecretID: secretID, SecretKey: secretKey},
	})
	return &COSStore{client: client}, nil
}

func (s *COSStore) Write(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	opt := &cos.ObjectPutOptions{
		ObjectPutHeaderOptions: &cos.ObjectPutHeaderOptions{ContentType: contentType},
	}
	if size > 0 {
		opt.ObjectPutHeaderOptions.ContentLength = size
	}
	_, err := s.client.Object.Put(ctx, key, r, opt)
	return err
}

func (s *COSStore) Read(ctx context.Context, key string) (io.ReadCloser, int64, error) {
	resp, err := s.client.Object.Get(ctx, key, nil)
	if err != nil {
		if cos.IsNotFoundError(err) {
			return nil, 0, ErrNotFound
		}
		return nil, 0, err
	}
	return resp.Body, resp.ContentLength, nil
}

func (s *COSStore) Delete(ctx context.Context, key string) error {
	_, err := s.client.Object.Delete(ctx, key)
	return err
}

func (s *COSStore) Exists(ctx context.Context, key string) (bool, error) {
	return s.client.Object.IsExist(ctx, key)
}

func (s *COSStore) PublicURL(key string) string {
	return s.client.Object.GetObjectURL(key).String()
}
