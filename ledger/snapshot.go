// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ledger

import (
	"bufio"
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/hybridledger/blockrecord"
	"github.com/bitmark-inc/hybridledger/digest"
	"github.com/bitmark-inc/hybridledger/fault"
	"github.com/bitmark-inc/hybridledger/genesis"
	"github.com/bitmark-inc/hybridledger/storage"
	"github.com/bitmark-inc/hybridledger/util"
)

// snapshot layout
const (
	manifestFile    = "manifest.json"
	blocksFile      = "blocks.dat"
	offChainDir     = "offchain"
	snapshotFormat  = "hybridledger-snapshot"
	snapshotVersion = 1
)

// Manifest - description of a snapshot directory
type Manifest struct {
	Format      string        `json:"format"`
	Version     int           `json:"version"`
	Created     time.Time     `json:"created"`
	Height      uint64        `json:"height,string"`
	Tip         digest.Digest `json:"tip"`
	Fingerprint digest.Digest `json:"fingerprint"`
	OffChain    []string      `json:"offChain"`
}

// ImportOptions - how Import treats an existing chain
type ImportOptions struct {
	ForceOverwrite bool `json:"forceOverwrite"`
	ValidateAfter  bool `json:"validateAfter"`
}

// ImportResult - outcome of an import
type ImportResult struct {
	Height   uint64  `json:"height,string"`
	Replaced uint64  `json:"replaced,string"`
	OffChain int     `json:"offChain"`
	Report   *Report `json:"report,omitempty"`
}

// Export - write the whole chain and its bundles to an empty directory
func (l *Ledger) Export(ctx context.Context, directory string) (*Manifest, error) {
	l.RLock()
	defer l.RUnlock()

	err := util.EnsureDirectory(filepath.Join(directory, offChainDir))
	if nil != err {
		return nil, err
	}
	for _, name := range []string{manifestFile, blocksFile} {
		if util.EnsureFileExists(filepath.Join(directory, name)) {
			return nil, fault.ErrSnapshotExists
		}
	}
	empty, err := util.IsDirectoryEmpty(filepath.Join(directory, offChainDir))
	if nil != err {
		return nil, err
	}
	if !empty {
		return nil, fault.ErrSnapshotExists
	}

	manifest := &Manifest{
		Format:      snapshotFormat,
		Version:     snapshotVersion,
		Created:     l.clock().UTC().Truncate(time.Second),
		Height:      l.height,
		Tip:         l.previous,
		Fingerprint: l.offChain.Fingerprint(),
		OffChain:    []string{},
	}

	f, err := os.OpenFile(filepath.Join(directory, blocksFile), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if nil != err {
		return nil, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	cursor := l.store.Pool.Blocks.NewFetchCursor().Limit(storage.NumberKey(l.height + 1))
	err = cursor.Map(func(key []byte, value []byte) error {
		if err := ctx.Err(); nil != err {
			return err
		}
		_, err := w.WriteString(hex.EncodeToString(value) + "\n")
		if nil != err {
			return err
		}

		number, err := storage.NumberFromKey(key)
		if nil != err || genesis.BlockNumber == number {
			return err
		}
		block, err := blockrecord.PackedBlock(value).Unpack()
		if nil != err {
			return err
		}
		ref := block.Reference()
		if nil == ref {
			return nil
		}
		data, err := l.offChain.ReadRaw(ctx, ref.Name)
		if nil != err {
			l.log.Errorf("export: block: %d  bundle: %s  error: %s", number, ref.Name, err)
			return err
		}
		err = ioutil.WriteFile(filepath.Join(directory, offChainDir, ref.Name), data, 0600)
		if nil != err {
			return err
		}
		manifest.OffChain = append(manifest.OffChain, ref.Name)
		return nil
	})
	if nil != err {
		return nil, err
	}
	err = w.Flush()
	if nil != err {
		return nil, err
	}
	err = f.Sync()
	if nil != err {
		return nil, err
	}

	// the manifest is written last and marks the snapshot complete
	buffer, err := json.MarshalIndent(manifest, "", "  ")
	if nil != err {
		return nil, err
	}
	err = ioutil.WriteFile(filepath.Join(directory, manifestFile), append(buffer, '\n'), 0600)
	if nil != err {
		return nil, err
	}

	l.log.Infof("export: %s  height: %d  bundles: %d", directory, manifest.Height, len(manifest.OffChain))
	return manifest, nil
}

// ReadManifest - load and check a snapshot manifest
func ReadManifest(directory string) (*Manifest, error) {
	buffer, err := ioutil.ReadFile(filepath.Join(directory, manifestFile))
	if nil != err {
		return nil, err
	}
	var m Manifest
	err = json.Unmarshal(buffer, &m)
	if nil != err {
		return nil, fault.ErrInvalidSnapshot
	}
	if snapshotFormat != m.Format || snapshotVersion != m.Version {
		return nil, fault.ErrInvalidSnapshot
	}
	return &m, nil
}

// a snapshot that passed every check before the chain is touched
type loadedSnapshot struct {
	manifest *Manifest
	packed   []blockrecord.PackedBlock
	bundles  map[string][]byte
}

// read a snapshot and check its links, digests and bundle files
func (l *Ledger) loadSnapshot(ctx context.Context, directory string) (*loadedSnapshot, error) {
	m, err := ReadManifest(directory)
	if nil != err {
		return nil, err
	}
	fingerprint := l.offChain.Fingerprint()
	if !m.Fingerprint.Equal(fingerprint) {
		return nil, fault.ErrSecretMismatch
	}

	f, err := os.Open(filepath.Join(directory, blocksFile))
	if nil != err {
		return nil, err
	}
	defer f.Close()

	s := &loadedSnapshot{
		manifest: m,
		bundles:  make(map[string][]byte),
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 4*(blockrecord.MaximumInlineBytes+4096))

	previous := digest.Digest{}
	number := genesis.BlockNumber
	for scanner.Scan() {
		if err := ctx.Err(); nil != err {
			return nil, err
		}
		line := bytes.TrimSpace(scanner.Bytes())
		if 0 == len(line) {
			continue
		}
		record := make([]byte, hex.DecodedLen(len(line)))
		_, err := hex.Decode(record, line)
		if nil != err {
			return nil, fault.ErrInvalidSnapshot
		}
		packed := blockrecord.PackedBlock(record)

		if genesis.BlockNumber == number {
			if !bytes.Equal(packed, genesis.Packed()) {
				return nil, fault.ErrInvalidSnapshot
			}
			s.packed = append(s.packed, packed)
			previous = packed.Digest()
			number += 1
			continue
		}

		block, err := packed.Unpack()
		if nil != err {
			return nil, err
		}
		if number != block.Number {
			return nil, fault.ErrInvalidSnapshot
		}
		if !previous.Equal(block.PreviousBlock) {
			return nil, fault.ErrBrokenChainLink
		}
		if data := block.InlineData(); nil != data && !block.ContentHash.Verify(data) {
			return nil, fault.ErrContentDigestMismatch
		}
		if ref := block.Reference(); nil != ref {
			data, err := ioutil.ReadFile(filepath.Join(directory, offChainDir, filepath.Base(ref.Name)))
			if os.IsNotExist(err) {
				return nil, fault.ErrOffChainNotFound
			}
			if nil != err {
				return nil, err
			}
			s.bundles[ref.Name] = data
		}

		s.packed = append(s.packed, packed)
		previous = packed.Digest()
		number += 1
	}
	err = scanner.Err()
	if nil != err {
		return nil, err
	}

	if 0 == len(s.packed) || uint64(len(s.packed)-1) != m.Height || !previous.Equal(m.Tip) {
		return nil, fault.ErrInvalidSnapshot
	}
	return s, nil
}

// Import - replace the chain with a snapshot
//
// the snapshot is checked completely before anything changes; a chain
// that already holds blocks is only replaced when forced
func (l *Ledger) Import(ctx context.Context, directory string, options ImportOptions) (*ImportResult, error) {
	if l.readOnly {
		return nil, fault.ErrReadOnlyLedger
	}

	s, err := l.loadSnapshot(ctx, directory)
	if nil != err {
		l.log.Errorf("import: %s  error: %s", directory, err)
		return nil, err
	}

	l.Lock()
	defer l.Unlock()

	if 0 != l.height && !options.ForceOverwrite {
		return nil, fault.ErrChainNotEmpty
	}

	// bundles of the chain being replaced
	oldBundles := map[string]blockrecord.Reference{}
	for n := genesis.BlockNumber + 1; n <= l.height; n += 1 {
		block, err := l.block(n)
		if nil != err {
			l.log.Warnf("import: replaced block: %d  error: %s", n, err)
			continue
		}
		if ref := block.Reference(); nil != ref {
			oldBundles[ref.Name] = *ref
		}
	}

	for name, data := range s.bundles {
		err := l.offChain.WriteRaw(ctx, name, data)
		if nil != err {
			return nil, err
		}
	}

	result := &ImportResult{
		Height:   s.manifest.Height,
		Replaced: l.height,
		OffChain: len(s.bundles),
	}

	tx, err := l.store.Begin()
	if nil != err {
		return nil, err
	}
	for n := genesis.BlockNumber + 1; n <= l.height; n += 1 {
		tx.Delete(l.store.Pool.Blocks, storage.NumberKey(n))
	}
	for n := 1; n < len(s.packed); n += 1 {
		tx.Put(l.store.Pool.Blocks, storage.NumberKey(uint64(n)), s.packed[n])
	}
	err = tx.Commit()
	if nil != err {
		return nil, err
	}

	err = l.loadTail()
	if nil != err {
		l.log.Criticalf("reload after import: %s", err)
		return nil, err
	}
	err = l.rebuildIndex(ctx)
	if nil != err {
		return nil, err
	}

	for name, ref := range oldBundles {
		if _, ok := s.bundles[name]; ok {
			continue
		}
		err := l.offChain.Delete(context.Background(), ref)
		if nil != err {
			l.log.Warnf("import: stale bundle: %s  left for pruning", name)
		}
	}

	l.log.Infof("import: %s  height: %d  replaced: %d", directory, result.Height, result.Replaced)

	if options.ValidateAfter {
		report, err := l.validate(ctx, ValidateFull)
		if nil != err {
			return nil, err
		}
		result.Report = report
	}
	return result, nil
}
