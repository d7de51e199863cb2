// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package offchain

import (
	"bytes"
	"context"
	"errors"
	"io/ioutil"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bitmark-inc/hybridledger/fault"
)

// S3Client - the subset of the S3 API used by S3Backend
type S3Client interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Options - connection parameters
//
// an empty Endpoint uses AWS; set it for MinIO or another compatible store
type S3Options struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// S3Backend - bundles as objects in a bucket
type S3Backend struct {
	client S3Client
	bucket string
	prefix string
}

// NewS3Backend - connect using the default AWS credential chain,
// or static credentials when both keys are given
func NewS3Backend(ctx context.Context, options S3Options) (*S3Backend, error) {
	if "" == options.Bucket {
		return nil, fault.ErrMissingParameters
	}

	loaders := []func(*config.LoadOptions) error{}
	if "" != options.Region {
		loaders = append(loaders, config.WithRegion(options.Region))
	}
	if "" != options.AccessKey && "" != options.SecretKey {
		loaders = append(loaders, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			options.AccessKey,
			options.SecretKey,
			"",
		)))
	}

	cfg, err := config.LoadDefaultConfig(ctx, loaders...)
	if nil != err {
		return nil, err
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if "" != options.Endpoint {
			o.BaseEndpoint = aws.String(options.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewS3BackendWithClient(client, options.Bucket, options.Prefix), nil
}

// NewS3BackendWithClient - use an existing client
func NewS3BackendWithClient(client S3Client, bucket string, prefix string) *S3Backend {
	prefix = strings.Trim(prefix, "/")
	if "" != prefix {
		prefix += "/"
	}
	return &S3Backend{
		client: client,
		bucket: bucket,
		prefix: prefix,
	}
}

// String - for log lines
func (b *S3Backend) String() string {
	return "s3://" + path.Join(b.bucket, b.prefix)
}

func (b *S3Backend) key(name string) string {
	return b.prefix + name
}

// Write - put one object
func (b *S3Backend) Write(ctx context.Context, name string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(b.key(name)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	})
	return err
}

// Read - get one object
func (b *S3Backend) Read(ctx context.Context, name string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if nil != err {
		if isMissing(err) {
			return nil, fault.ErrOffChainNotFound
		}
		return nil, err
	}
	defer out.Body.Close()

	return ioutil.ReadAll(out.Body)
}

// Remove - delete one object; S3 treats a missing key as success
func (b *S3Backend) Remove(ctx context.Context, name string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if nil != err && isMissing(err) {
		return nil
	}
	return err
}

// Exists - head one object
func (b *S3Backend) Exists(ctx context.Context, name string) (bool, error) {
	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.key(name)),
	})
	if nil == err {
		return true, nil
	}
	if isMissing(err) {
		return false, nil
	}
	return false, err
}

// List - all bundle names under the prefix
func (b *S3Backend) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(b.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.prefix),
	})

	names := []string{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if nil != err {
			return nil, err
		}
		for _, object := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(object.Key), b.prefix)
			if strings.Contains(name, "/") || !strings.HasSuffix(name, bundleSuffix) {
				continue
			}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func isMissing(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
