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
package protocol

import (
	"sync"

	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/downlink"
)

// attributeTable is the engine-owned side-table resolving SetAttributes
// to a real effect: GET_ATTRIBUTES reads it, and SET enforces
// access=readOnly against it before any downlink write.
type attributeTable struct {
	mu    sync.RWMutex
	attrs map[string]downlink.Attributes
}

func newAttributeTable() *attributeTable {
	return &attributeTable{attrs: make(map[string]downlink.Attributes)}
}

func (t *attributeTable) get(name string) (downlink.Attributes, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	a, ok := t.attrs[name]
	return a, ok
}

func (t *attributeTable) set(name string, attrs downlink.Attributes) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attrs[name] = attrs
}

// readOnly reports whether name has been marked access=readOnly.
// Parameters never explicitly marked default to writable.
func (t *attributeTable) readOnly(name string) bool {
	a, ok := t.get(name)
	return ok && a.Access == downlink.AccessReadOnly
}
