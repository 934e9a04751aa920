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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Cache_SetGet(t *testing.T) {
	c := New(100, time.Minute, time.Hour)

	_, _, hit := c.Get("Device.X")
	assert.False(t, hit, "expected a miss before any Set")

	c.Set("Device.X", "42", 1, 0)
	v, dt, hit := c.Get("Device.X")
	require.True(t, hit)
	assert.Equal(t, "42", v)
	assert.Equal(t, 1, dt)

	stats := c.GetStats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
}

func Test_Cache_TTLExpiry(t *testing.T) {
	c := New(100, time.Minute, time.Hour)
	c.Set("Device.Y", "v", 0, -1)
	_, _, hit := c.Get("Device.Y")
	require.True(t, hit, "ttl -1 must never expire")

	c.Set("Device.Z", "v", 0, 1)
	time.Sleep(1100 * time.Millisecond)
	_, _, hit = c.Get("Device.Z")
	assert.False(t, hit, "entry should have expired")
}

func Test_Cache_Delete(t *testing.T) {
	c := New(100, time.Minute, time.Hour)
	c.Set("Device.A", "1", 0, 0)
	c.Delete("Device.A")
	assert.False(t, c.Exists("Device.A"))
}

func Test_Cache_EvictionOnOverflow(t *testing.T) {
	c := New(10, time.Minute, time.Hour)
	for i := 0; i < 12; i++ {
		c.Set(keyFor(i), "v", 0, -1)
	}
	stats := c.GetStats()
	assert.LessOrEqual(t, stats.TotalEntries, 10)
	assert.Greater(t, stats.Evictions, int64(0))
}

func Test_Cache_EvictLRU_PrefersLowPriority(t *testing.T) {
	c := New(100, time.Minute, time.Hour)
	c.Set("Device.Cold", "v", 0, -1)
	c.Set("Device.Hot", "v", 0, -1)
	for i := 0; i < 5; i++ {
		c.Get("Device.Hot")
	}
	removed := c.EvictLRU(1)
	require.Equal(t, 1, removed)
	assert.False(t, c.Exists("Device.Cold"), "the never-accessed entry should be evicted first")
	assert.True(t, c.Exists("Device.Hot"))
}

func Test_Cache_WildcardLookupAndInvalidation(t *testing.T) {
	c := New(100, time.Minute, time.Hour)
	c.Set("Device.WiFi.Radio.1.Enable", "true", 3, -1)
	c.Set("Device.WiFi.Radio.2.Enable", "false", 3, -1)
	c.Set("Device.Other.Param", "x", 0, -1)

	entries := c.GetWildcard("Device.WiFi.Radio.")
	assert.Len(t, entries, 2)

	removed := c.InvalidateWildcard("Device.WiFi.Radio.")
	assert.Equal(t, 2, removed)
	assert.False(t, c.Exists("Device.WiFi.Radio.1.Enable"))
	assert.True(t, c.Exists("Device.Other.Param"))
}

func Test_Cache_ExpireAll(t *testing.T) {
	c := New(100, time.Minute, time.Hour)
	c.Set("Device.Gone", "v", 0, 1)
	time.Sleep(1100 * time.Millisecond)
	removed := c.ExpireAll()
	assert.Equal(t, 1, removed)
}

func keyFor(i int) string {
	return "Device.Key." + string(rune('A'+i))
}
