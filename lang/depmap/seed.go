// Copyright 2025 codemorph Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package depmap

import (
	"context"
	"encoding/json"
	"os"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/codemorph/codemorph/lang/log"
)

// LoadSeed reads a seed mapping file: a JSON array of
// {source_import, target_import, confidence}.
func LoadSeed(path string) ([]Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read seed mapping file %s", path)
	}
	var seed []Mapping
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, errors.Wrapf(err, "parse seed mapping file %s", path)
	}
	for i, m := range seed {
		if err := m.Valid(); err != nil {
			return nil, errors.Wrapf(err, "seed entry %d", i)
		}
	}
	return seed, nil
}

// WatchSeed reloads the seed file into the store whenever it changes on disk.
// New entries are merged via InsertIfAbsent, so a reload can only append;
// it never overwrites a mapping an in-flight run already agreed on.
// Blocks until ctx is done.
func WatchSeed(ctx context.Context, path string, store Store) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create seed watcher")
	}
	defer watcher.Close()
	if err := watcher.Add(path); err != nil {
		return errors.Wrapf(err, "watch seed file %s", path)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			seed, err := LoadSeed(path)
			if err != nil {
				log.Warn("seed reload skipped: %v", err)
				continue
			}
			added := 0
			for _, m := range seed {
				_, existed := store.Lookup(m.SourceImport)
				if _, err := store.InsertIfAbsent(m); err == nil && !existed {
					added++
				}
			}
			log.Info("seed mapping file reloaded: %d new entries", added)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn("seed watcher: %v", err)
		}
	}
}
