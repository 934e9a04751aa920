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

// Package cache implements the parameter cache: a fixed-bucket,
// chained hash table with TTL expiry and priority-based eviction.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const numBuckets = 1021 // prime near 1000, per the bucket-sizing note

// Entry is one cached parameter, mirroring the bridge's wire-level
// cache-entry record.
type Entry struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Type        int       `json:"dataType"`
	InsertedAt  time.Time `json:"timestamp"`
	TTLSeconds  int       `json:"ttl"`
	AccessCount int       `json:"access_count"`
}

func (e *Entry) expired(now time.Time) bool {
	return e.TTLSeconds > 0 && now.Sub(e.InsertedAt) > time.Duration(e.TTLSeconds)*time.Second
}

func (e *Entry) priority(now time.Time) float64 {
	ageMinutes := now.Sub(e.InsertedAt).Minutes()
	return float64(e.AccessCount) + ageMinutes
}

type bucket struct {
	entries []*Entry // insertion order; chained collisions
}

// Stats is the point-in-time counter/gauge snapshot returned by GetStats.
type Stats struct {
	Hits         int64 `json:"hits"`
	Misses       int64 `json:"misses"`
	Evictions    int64 `json:"evictions"`
	Timeouts     int64 `json:"timeouts"`
	TotalEntries int   `json:"totalEntries"`
	MemoryUsed   int64 `json:"memoryUsed"`
}

// Cache is the concurrency-safe parameter cache described by C2: one
// exclusive lock guards every public operation, held across bucket
// manipulation but never across adapter or disk I/O.
type Cache struct {
	mu sync.Mutex

	buckets     [numBuckets]bucket
	maxEntries  int
	defaultTTL  int // seconds
	cleanup     time.Duration
	lastCleanup time.Time
	total       int

	hits, misses, evictions, timeouts int64
}

// New builds an empty cache. defaultTTL is kept in whole seconds
// (any fraction is dropped); cleanupInterval is the minimum gap between
// the lazy ExpireAll sweeps run by GetStats; maxEntries bounds the
// total entry count before priority eviction kicks in.
func New(maxEntries int, defaultTTL time.Duration, cleanupInterval time.Duration) *Cache {
	return &Cache{
		maxEntries:  maxEntries,
		defaultTTL:  int(defaultTTL.Seconds()),
		cleanup:     cleanupInterval,
		lastCleanup: time.Now(),
	}
}

func hashKey(key string) uint32 {
	var h uint32 = 2166136261
	for i := 0; i < len(key); i++ {
		h ^= uint32(key[i])
		h *= 16777619
	}
	return h
}

func (c *Cache) bucketFor(key string) *bucket {
	return &c.buckets[hashKey(key)%numBuckets]
}

// Get returns the cached value for key. An expired entry is removed
// inline and reported as a miss.
func (c *Cache) Get(key string) (value string, dataType int, hit bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	b := c.bucketFor(key)
	now := time.Now()
	for i, e := range b.entries {
		if e.Key != key {
			continue
		}
		if e.expired(now) {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			c.total--
			c.misses++
			return "", 0, false
		}
		e.AccessCount++
		c.hits++
		return e.Value, e.Type, true
	}
	c.misses++
	return "", 0, false
}

// Set inserts or overwrites key. ttl==0 uses the configured default
// TTL; ttl<0 means the entry never expires.
func (c *Cache) Set(key, value string, dataType int, ttl int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, dataType, ttl, time.Now())
}

func (c *Cache) setLocked(key, value string, dataType int, ttl int, now time.Time) {
	if ttl == 0 {
		ttl = c.defaultTTL
	}
	b := c.bucketFor(key)
	for _, e := range b.entries {
		if e.Key == key {
			e.Value = value
			e.Type = dataType
			e.InsertedAt = now
			e.TTLSeconds = ttl
			return
		}
	}
	if c.maxEntries > 0 && c.total >= c.maxEntries {
		c.evictLocked(now)
	}
	b.entries = append(b.entries, &Entry{
		Key: key, Value: value, Type: dataType, InsertedAt: now, TTLSeconds: ttl,
	})
	c.total++
}

// Delete removes key unconditionally.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b := c.bucketFor(key)
	for i, e := range b.entries {
		if e.Key == key {
			b.entries = append(b.entries[:i], b.entries[i+1:]...)
			c.total--
			return
		}
	}
}

// Exists reports whether key is present and unexpired.
func (c *Cache) Exists(key string) bool {
	_, _, hit := c.Get(key)
	return hit
}

// Clear empties the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.buckets {
		c.buckets[i].entries = nil
	}
	c.total = 0
}

// ExpireAll walks every bucket removing expired entries and returns
// the count removed.
func (c *Cache) ExpireAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.expireAllLocked(time.Now())
}

func (c *Cache) expireAllLocked(now time.Time) int {
	removed := 0
	for i := range c.buckets {
		b := &c.buckets[i]
		kept := b.entries[:0]
		for _, e := range b.entries {
			if e.expired(now) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		b.entries = kept
	}
	c.total -= removed
	c.timeouts += int64(removed)
	c.lastCleanup = now
	return removed
}

// EvictLRU evicts exactly n lowest-priority entries, or fewer if the
// cache holds less than n.
func (c *Cache) EvictLRU(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictN(n, time.Now())
}

func (c *Cache) evictLocked(now time.Time) {
	n := c.total / 10
	if n < 1 {
		n = 1
	}
	c.evictN(n, now)
}

type scored struct {
	bucketIdx int
	entryIdx  int
	priority  float64
}

func (c *Cache) evictN(n int, now time.Time) int {
	if n <= 0 {
		return 0
	}
	var candidates []scored
	for bi := range c.buckets {
		for ei, e := range c.buckets[bi].entries {
			candidates = append(candidates, scored{bi, ei, e.priority(now)})
		}
	}
	if len(candidates) == 0 {
		return 0
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].priority < candidates[j].priority
	})
	if n > len(candidates) {
		n = len(candidates)
	}
	toRemove := make(map[int]map[int]bool)
	for _, c := range candidates[:n] {
		if toRemove[c.bucketIdx] == nil {
			toRemove[c.bucketIdx] = make(map[int]bool)
		}
		toRemove[c.bucketIdx][c.entryIdx] = true
	}
	removed := 0
	for bi, idxs := range toRemove {
		b := &c.buckets[bi]
		kept := b.entries[:0]
		for i, e := range b.entries {
			if idxs[i] {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		b.entries = kept
	}
	c.total -= removed
	c.evictions += int64(removed)
	return removed
}

// isWildcardPrefix recognises a trailing "*" or trailing "." as a
// prefix match; a mid-string "*" is treated literally, per spec.
func isWildcardPrefix(prefix string) (string, bool) {
	if strings.HasSuffix(prefix, "*") {
		return strings.TrimSuffix(prefix, "*"), true
	}
	if strings.HasSuffix(prefix, ".") {
		return prefix, true
	}
	return prefix, false
}

// GetWildcard returns every unexpired entry whose key matches prefix
// under the rules in isWildcardPrefix.
func (c *Cache) GetWildcard(prefix string) []Entry {
	root, _ := isWildcardPrefix(prefix)
	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	var out []Entry
	for bi := range c.buckets {
		for _, e := range c.buckets[bi].entries {
			if !strings.HasPrefix(e.Key, root) {
				continue
			}
			if e.expired(now) {
				continue
			}
			e.AccessCount++
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// InvalidateWildcard deletes every entry whose key matches prefix and
// returns the count removed.
func (c *Cache) InvalidateWildcard(prefix string) int {
	root, _ := isWildcardPrefix(prefix)
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for bi := range c.buckets {
		b := &c.buckets[bi]
		kept := b.entries[:0]
		for _, e := range b.entries {
			if strings.HasPrefix(e.Key, root) {
				removed++
				continue
			}
			kept = append(kept, e)
		}
		b.entries = kept
	}
	c.total -= removed
	return removed
}

// GetStats returns the current counters, running a lazy ExpireAll
// sweep first if the configured cleanup interval has elapsed.
func (c *Cache) GetStats() Stats {
	c.mu.Lock()
	now := time.Now()
	if c.cleanup > 0 && now.Sub(c.lastCleanup) > c.cleanup {
		c.expireAllLocked(now)
	}
	stats := Stats{
		Hits:         c.hits,
		Misses:       c.misses,
		Evictions:    c.evictions,
		Timeouts:     c.timeouts,
		TotalEntries: c.total,
		MemoryUsed:   c.memoryUsedLocked(),
	}
	c.mu.Unlock()
	return stats
}

func (c *Cache) memoryUsedLocked() int64 {
	const entryOverhead = 64
	var total int64
	for bi := range c.buckets {
		for _, e := range c.buckets[bi].entries {
			total += entryOverhead + int64(len(e.Key)) + int64(len(e.Value))
		}
	}
	return total
}
