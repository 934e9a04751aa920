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
package downlink

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/apierr"
)

type entry struct {
	value    string
	dataType TypeCode
}

// MockAdapter is an in-memory Adapter used by "mock" mode and by the
// protocol/WebConfig test suites as the seam called out in the
// re-architecture guidance: the adapter interface is the boundary
// everything above it is unit-tested against.
type MockAdapter struct {
	log *zap.Logger

	mu         sync.RWMutex
	opened     bool
	component  string
	params     map[string]entry
	attrs      map[string]Attributes
	subs       map[string][]EventSink
	rowSeq     map[string]int
	rowMembers map[string][]string // tableName -> full row names, insertion order
}

// NewMockAdapter returns an empty in-memory adapter. Seed is optional
// initial parameter state, keyed by full name.
func NewMockAdapter(log *zap.Logger, seed map[string]struct {
	Value string
	Type  TypeCode
}) *MockAdapter {
	a := &MockAdapter{
		log:        log,
		params:     make(map[string]entry),
		attrs:      make(map[string]Attributes),
		subs:       make(map[string][]EventSink),
		rowSeq:     make(map[string]int),
		rowMembers: make(map[string][]string),
	}
	for k, v := range seed {
		a.params[k] = entry{value: v.Value, dataType: v.Type}
	}
	return a
}

func (a *MockAdapter) Open(_ context.Context, componentName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opened = true
	a.component = componentName
	a.log.Info("mock downlink adapter opened", zap.String("component", componentName))
	return nil
}

func (a *MockAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.opened = false
	return nil
}

func (a *MockAdapter) Get(_ context.Context, name string) (string, TypeCode, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.params[name]
	if !ok {
		return "", TypeString, fmt.Errorf("%s: %w", name, apierr.ErrNotFound)
	}
	return e.value, e.dataType, nil
}

func (a *MockAdapter) Set(_ context.Context, name, value string) error {
	a.mu.Lock()
	dt := TypeString
	if existing, ok := a.params[name]; ok {
		dt = existing.dataType
	}
	a.params[name] = entry{value: value, dataType: dt}
	a.mu.Unlock()
	a.fanOut(name, "value-changed", map[string]string{"name": name, "value": value})
	return nil
}

func (a *MockAdapter) ExpandWildcard(_ context.Context, prefix string) ([]string, error) {
	if !strings.HasSuffix(prefix, ".") {
		return nil, fmt.Errorf("wildcard prefix %q must end in '.': %w", prefix, apierr.ErrInvalidInput)
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []string
	for k := range a.params {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (a *MockAdapter) AddTableRow(_ context.Context, tableName string, rowData []Row) (string, error) {
	a.mu.Lock()
	a.rowSeq[tableName]++
	idx := a.rowSeq[tableName]
	rowName := fmt.Sprintf("%s%d.", tableName, idx)
	a.rowMembers[tableName] = append(a.rowMembers[tableName], rowName)
	for _, f := range rowData {
		full := rowName + f.Name
		a.params[full] = entry{value: f.Value, dataType: f.DataType}
	}
	a.mu.Unlock()
	a.fanOut(tableName, "object-created", map[string]string{"row": rowName})
	return rowName, nil
}

func (a *MockAdapter) DeleteTableRow(_ context.Context, fullRowName string) error {
	a.mu.Lock()
	for k := range a.params {
		if strings.HasPrefix(k, fullRowName) {
			delete(a.params, k)
		}
	}
	for t, rows := range a.rowMembers {
		kept := rows[:0]
		for _, r := range rows {
			if r != fullRowName {
				kept = append(kept, r)
			}
		}
		a.rowMembers[t] = kept
	}
	a.mu.Unlock()
	a.fanOut(fullRowName, "object-deleted", map[string]string{"row": fullRowName})
	return nil
}

func (a *MockAdapter) ReplaceTable(ctx context.Context, tableName string, rows [][]Row) error {
	a.mu.RLock()
	existing := append([]string(nil), a.rowMembers[tableName]...)
	a.mu.RUnlock()

	for _, r := range existing {
		_ = a.DeleteTableRow(ctx, r) // best-effort, per spec
	}
	for _, row := range rows {
		if _, err := a.AddTableRow(ctx, tableName, row); err != nil {
			return fmt.Errorf("replace table %s: %w", tableName, err)
		}
	}
	return nil
}

func (a *MockAdapter) GetAttributes(_ context.Context, name string) (Attributes, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if _, ok := a.params[name]; !ok {
		return Attributes{}, fmt.Errorf("%s: %w", name, apierr.ErrNotFound)
	}
	attr, ok := a.attrs[name]
	if !ok {
		return Attributes{Notify: 0, Access: AccessReadWrite}, nil
	}
	return attr, nil
}

func (a *MockAdapter) SetAttributes(_ context.Context, name string, attrs Attributes) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.params[name]; !ok {
		return fmt.Errorf("%s: %w", name, apierr.ErrNotFound)
	}
	a.attrs[name] = attrs
	return nil
}

func (a *MockAdapter) Subscribe(_ context.Context, eventName string, sink EventSink) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.subs[eventName] = append(a.subs[eventName], sink)
	return nil
}

func (a *MockAdapter) Unsubscribe(_ context.Context, eventName string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.subs, eventName)
	return nil
}

// fanOut invokes every sink whose registered pattern matches name,
// recognising a trailing "*" as a prefix wildcard. Sinks are invoked
// without the adapter lock held.
func (a *MockAdapter) fanOut(name, kind string, payload map[string]string) {
	a.mu.RLock()
	var matched []EventSink
	for pattern, sinks := range a.subs {
		if matchesPattern(pattern, name) {
			matched = append(matched, sinks...)
		}
	}
	a.mu.RUnlock()

	ev := Event{Name: name, Kind: kind, Payload: payload}
	for _, s := range matched {
		s.HandleEvent(ev)
	}
}

func matchesPattern(pattern, name string) bool {
	if pattern == name {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(name, strings.TrimSuffix(pattern, "*"))
	}
	return false
}

// SeedTypeCode is a small helper for tests constructing seed maps.
func SeedTypeCode(code int) TypeCode { return TypeCode(code) }
