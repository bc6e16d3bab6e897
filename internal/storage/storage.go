/*
Copyright 2025 Ledgerline Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/cenkalti/backoff/v4"

	"github.com/ledgerline/ledgerline/config"
)

// ObjectStore is the blob-storage boundary for source statement PDFs and
// rendered workbooks. Calls are blocking and retried at this boundary.
type ObjectStore interface {
	Get(ctx context.Context, path string) ([]byte, error)
	Put(ctx context.Context, path string, data []byte, contentType string) error
	Remove(ctx context.Context, path string) error
}

// S3Store implements ObjectStore on an S3-compatible bucket.
type S3Store struct {
	client s3iface.S3API
	bucket string
}

// NewS3Store builds an S3-backed object store from configuration.
func NewS3Store(cfg *config.Configuration) (*S3Store, error) {
	awsConfig := &aws.Config{
		Region:      aws.String(cfg.Storage.Region),
		Credentials: credentials.NewStaticCredentials(cfg.Storage.AccessKeyID, cfg.Storage.SecretAccessKey, ""),
	}
	if cfg.Storage.Endpoint != "" {
		awsConfig.Endpoint = aws.String(cfg.Storage.Endpoint)
		awsConfig.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsConfig)
	if err != nil {
		return nil, err
	}
	return &S3Store{client: s3.New(sess), bucket: cfg.Storage.Bucket}, nil
}

// NewS3StoreWithClient is used by tests to inject a fake S3 client.
func NewS3StoreWithClient(client s3iface.S3API, bucket string) *S3Store {
	return &S3Store{client: client, bucket: bucket}
}

// retryPolicy bounds boundary retries; transient storage failures should not
// fail a whole parse job without a few attempts.
func retryPolicy(ctx context.Context) backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 200 * time.Millisecond
	policy.MaxElapsedTime = 15 * time.Second
	return backoff.WithContext(policy, ctx)
}

func (s *S3Store) Get(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	operation := func() error {
		out, err := s.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(path),
		})
		if err != nil {
			var aerr awserr.Error
			if errors.As(err, &aerr) && aerr.Code() == s3.ErrCodeNoSuchKey {
				// A missing object will not appear on retry.
				return backoff.Permanent(err)
			}
			return err
		}
		defer out.Body.Close()
		data, err = io.ReadAll(out.Body)
		return err
	}
	if err := backoff.Retry(operation, retryPolicy(ctx)); err != nil {
		return nil, err
	}
	return data, nil
}

func (s *S3Store) Put(ctx context.Context, path string, data []byte, contentType string) error {
	operation := func() error {
		_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.bucket),
			Key:         aws.String(path),
			Body:        bytes.NewReader(data),
			ContentType: aws.String(contentType),
		})
		return err
	}
	return backoff.Retry(operation, retryPolicy(ctx))
}

func (s *S3Store) Remove(ctx context.Context, path string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	return err
}
