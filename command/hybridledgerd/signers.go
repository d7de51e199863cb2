// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"github.com/bitmark-inc/logger"
)

type reloader interface {
	Filename() string
	Reload() error
	Count() int
}

// reload the signer set whenever its file changes
type signerWatcher struct {
	log      *logger.L
	keyring  reloader
	watcher  *fileWatcher
	channels watcherChannel
}

func newSignerWatcher(keyring reloader) (*signerWatcher, error) {
	log := logger.New("signers")
	channels := newWatcherChannel()

	w, err := newFileWatcher(keyring.Filename(), log, channels)
	if nil != err {
		return nil, err
	}
	err = w.Start()
	if nil != err {
		w.watcher.Close()
		return nil, err
	}

	return &signerWatcher{
		log:      log,
		keyring:  keyring,
		watcher:  w,
		channels: channels,
	}, nil
}

func (s *signerWatcher) Run(args interface{}, shutdown <-chan struct{}) {
	s.log.Infof("watching: %q", s.keyring.Filename())

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case <-s.channels.change:
			err := s.keyring.Reload()
			if nil != err {
				s.log.Errorf("reload error: %s  keeping current signers", err)
				continue loop
			}
			s.log.Infof("reloaded signers: %d", s.keyring.Count())

		case <-s.channels.remove:
			s.log.Warnf("signer file removed, keeping %d signers", s.keyring.Count())
		}
	}

	if err := s.watcher.Stop(); nil != err {
		s.log.Errorf("watcher stop error: %s", err)
	}
	s.log.Info("stopped")
}
