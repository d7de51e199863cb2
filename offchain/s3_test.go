// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package offchain_test

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"

	"github.com/bitmark-inc/hybridledger/encrypt"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/offchain"
)

// in-memory bucket; lists two keys per page to exercise pagination
type fakeS3 struct {
	sync.Mutex
	objects map[string][]byte
}

func newFakeS3() *fakeS3 {
	return &fakeS3{objects: make(map[string][]byte)}
}

func (f *fakeS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(params.Body)
	if nil != err {
		return nil, err
	}
	f.Lock()
	defer f.Unlock()
	f.objects[aws.ToString(params.Key)] = data
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.Lock()
	defer f.Unlock()
	data, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (f *fakeS3) HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	f.Lock()
	defer f.Unlock()
	if _, ok := f.objects[aws.ToString(params.Key)]; !ok {
		return nil, &types.NotFound{}
	}
	return &s3.HeadObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.Lock()
	defer f.Unlock()
	delete(f.objects, aws.ToString(params.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.Lock()
	defer f.Unlock()

	keys := []string{}
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(params.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if nil != params.ContinuationToken {
		for i, k := range keys {
			if k > *params.ContinuationToken {
				start = i
				break
			}
		}
	}
	end := start + 2
	if end > len(keys) {
		end = len(keys)
	}

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(end < len(keys))}
	for _, k := range keys[start:end] {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	if end < len(keys) {
		out.NextContinuationToken = aws.String(keys[end-1])
	}
	return out, nil
}

func TestS3Backend(t *testing.T) {
	client := newFakeS3()
	backend := offchain.NewS3BackendWithClient(client, "ledger", "/chain-a/")
	assert.Equal(t, "s3://ledger/chain-a", backend.String(), "wrong description")

	secret, err := encrypt.NewSecret()
	assert.Nil(t, err, "secret error")
	store := offchain.New(backend, secret)
	ctx := context.Background()

	names := []string{}
	for n := uint64(1); n <= 5; n += 1 {
		payload := bytes.Repeat([]byte{byte('a' + n)}, 1000)
		ref, d, err := store.Put(ctx, n, payload)
		assert.Nil(t, err, "put error")
		names = append(names, ref.Name)

		recovered, err := store.Get(ctx, n, ref, d)
		assert.Nil(t, err, "get error")
		assert.Equal(t, payload, recovered, "payload changed")
	}

	// objects outside the prefix or not bundles are ignored
	client.objects["chain-b/0000000000000001-0011223344556677.off"] = []byte("other")
	client.objects["chain-a/readme.txt"] = []byte("other")

	listed, err := store.List(ctx)
	assert.Nil(t, err, "list error")
	assert.Equal(t, names, listed, "wrong list")

	_, ok := client.objects["chain-a/"+names[0]]
	assert.True(t, ok, "prefix not applied")

	exists, err := backend.Exists(ctx, names[0])
	assert.Nil(t, err, "exists error")
	assert.True(t, exists, "object missing")

	err = backend.Remove(ctx, names[0])
	assert.Nil(t, err, "remove error")

	exists, err = backend.Exists(ctx, names[0])
	assert.Nil(t, err, "exists error")
	assert.False(t, exists, "removed object exists")

	_, err = backend.Read(ctx, names[0])
	assert.Equal(t, fault.ErrOffChainNotFound, err, "missing object not mapped")
}

func TestS3Options(t *testing.T) {
	_, err := offchain.NewS3Backend(context.Background(), offchain.S3Options{})
	assert.Equal(t, fault.ErrMissingParameters, err, "missing bucket accepted")
}
