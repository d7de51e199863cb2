// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package offchain

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/util"
)

// FileBackend - bundles as files in one directory
type FileBackend struct {
	directory string
}

// NewFileBackend - create the directory if needed
func NewFileBackend(directory string) (*FileBackend, error) {
	err := util.EnsureDirectory(directory)
	if nil != err {
		return nil, err
	}
	return &FileBackend{directory: directory}, nil
}

// String - for log lines
func (f *FileBackend) String() string {
	return "file:" + f.directory
}

// Directory - where bundles live
func (f *FileBackend) Directory() string {
	return f.directory
}

// reject anything that could escape the directory
func (f *FileBackend) path(name string) (string, error) {
	if "" == name || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fault.ErrOffChainNotFound
	}
	return filepath.Join(f.directory, name), nil
}

// Write - atomic create: write a temporary file, sync, rename
func (f *FileBackend) Write(ctx context.Context, name string, data []byte) error {
	if err := ctx.Err(); nil != err {
		return err
	}
	filename, err := f.path(name)
	if nil != err {
		return err
	}

	tmp, err := ioutil.TempFile(f.directory, ".tmp-"+name+"-")
	if nil != err {
		return err
	}
	tmpName := tmp.Name()

	ok := false
	defer func() {
		if !ok {
			os.Remove(tmpName)
		}
	}()

	if err := tmp.Chmod(0600); nil != err {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); nil != err {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); nil != err {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); nil != err {
		return err
	}
	if err := os.Rename(tmpName, filename); nil != err {
		return err
	}
	ok = true
	return nil
}

// Read - whole file
func (f *FileBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}
	filename, err := f.path(name)
	if nil != err {
		return nil, err
	}
	data, err := ioutil.ReadFile(filename)
	if os.IsNotExist(err) {
		return nil, fault.ErrOffChainNotFound
	}
	return data, err
}

// Remove - delete a file, missing is fine
func (f *FileBackend) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); nil != err {
		return err
	}
	filename, err := f.path(name)
	if nil != err {
		return err
	}
	err = os.Remove(filename)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Exists - check for a file
func (f *FileBackend) Exists(ctx context.Context, name string) (bool, error) {
	if err := ctx.Err(); nil != err {
		return false, err
	}
	filename, err := f.path(name)
	if nil != err {
		return false, err
	}
	_, err = os.Stat(filename)
	if os.IsNotExist(err) {
		return false, nil
	}
	return nil == err, err
}

// List - sorted bundle names, temporary files are skipped
func (f *FileBackend) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); nil != err {
		return nil, err
	}
	entries, err := ioutil.ReadDir(f.directory)
	if nil != err {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, bundleSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
