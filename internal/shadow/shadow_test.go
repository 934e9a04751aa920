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
package shadow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_Store_PreviousDefaultsUnknown(t *testing.T) {
	s := New(10)
	assert.Equal(t, "unknown", s.Previous("Device.X"))
}

func Test_Store_ObserveThenPrevious(t *testing.T) {
	s := New(10)
	s.Observe("Device.X", "1")
	s.Observe("Device.X", "2")
	assert.Equal(t, "2", s.Previous("Device.X"))
}

func Test_Store_FIFOEvictionAtCapacity(t *testing.T) {
	s := New(2)
	s.Observe("Device.A", "1")
	s.Observe("Device.B", "2")
	s.Observe("Device.C", "3")
	assert.Equal(t, "unknown", s.Previous("Device.A"), "oldest entry should be evicted")
	assert.Equal(t, "2", s.Previous("Device.B"))
	assert.Equal(t, "3", s.Previous("Device.C"))
}
