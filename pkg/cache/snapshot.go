/*
Copyright (C) 2022-2025 Contributors | TIM S.p.A. to CAMARA a Series of LF Projects, LLC

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
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type snapshotEntry struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	DataType    int       `json:"dataType"`
	Timestamp   time.Time `json:"timestamp"`
	TTL         int       `json:"ttl"`
	AccessCount int       `json:"access_count"`
}

type snapshotDoc struct {
	Entries []snapshotEntry `json:"entries"`
}

// Snapshot writes every unexpired entry to path as JSON, grounded on
// the original adapter's cache persistence format.
func (c *Cache) Snapshot(path string) error {
	c.mu.Lock()
	now := time.Now()
	doc := snapshotDoc{}
	for bi := range c.buckets {
		for _, e := range c.buckets[bi].entries {
			if e.expired(now) {
				continue
			}
			doc.Entries = append(doc.Entries, snapshotEntry{
				Key: e.Key, Value: e.Value, DataType: e.Type,
				Timestamp: e.InsertedAt, TTL: e.TTLSeconds, AccessCount: e.AccessCount,
			})
		}
	}
	c.mu.Unlock()

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache snapshot: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write cache snapshot %s: %w", path, err)
	}
	return nil
}

// Restore reads a snapshot written by Snapshot and re-inserts each
// entry via Set, silently dropping entries the file doesn't contain.
func (c *Cache) Restore(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read cache snapshot %s: %w", path, err)
	}
	var doc snapshotDoc
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("unmarshal cache snapshot: %w", err)
	}
	for _, e := range doc.Entries {
		c.Set(e.Key, e.Value, e.DataType, e.TTL)
	}
	return nil
}
