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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func Test_Cache_SnapshotRestore(t *testing.T) {
	c := New(100, time.Minute, time.Hour)
	c.Set("Device.A", "1", 0, -1)
	c.Set("Device.B", "2", 1, -1)

	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, c.Snapshot(path))

	restored := New(100, time.Minute, time.Hour)
	require.NoError(t, restored.Restore(path))

	v, dt, hit := restored.Get("Device.A")
	require.True(t, hit)
	require.Equal(t, "1", v)
	require.Equal(t, 0, dt)

	v, dt, hit = restored.Get("Device.B")
	require.True(t, hit)
	require.Equal(t, "2", v)
	require.Equal(t, 1, dt)
}

func Test_Cache_SnapshotSkipsExpired(t *testing.T) {
	c := New(100, time.Minute, time.Hour)
	c.Set("Device.Gone", "v", 0, 1)
	time.Sleep(1100 * time.Millisecond)

	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, c.Snapshot(path))

	restored := New(100, time.Minute, time.Hour)
	require.NoError(t, restored.Restore(path))
	require.False(t, restored.Exists("Device.Gone"))
}
