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
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func Test_MockAdapter_GetSet(t *testing.T) {
	a := NewMockAdapter(zap.NewNop(), nil)
	require.NoError(t, a.Open(context.Background(), "test"))

	_, _, err := a.Get(context.Background(), "Device.Missing")
	assert.Error(t, err)

	require.NoError(t, a.Set(context.Background(), "Device.X", "1"))
	v, dt, err := a.Get(context.Background(), "Device.X")
	require.NoError(t, err)
	assert.Equal(t, "1", v)
	assert.Equal(t, TypeString, dt)
}

func Test_MockAdapter_SeedAndExpandWildcard(t *testing.T) {
	seed := map[string]struct {
		Value string
		Type  TypeCode
	}{
		"Device.WiFi.Radio.1.Enable": {Value: "true", Type: TypeBool},
		"Device.WiFi.Radio.2.Enable": {Value: "false", Type: TypeBool},
		"Device.Other":               {Value: "x", Type: TypeString},
	}
	a := NewMockAdapter(zap.NewNop(), seed)

	names, err := a.ExpandWildcard(context.Background(), "Device.WiFi.Radio.")
	require.NoError(t, err)
	assert.Len(t, names, 2)

	_, err = a.ExpandWildcard(context.Background(), "Device.WiFi.Radio")
	assert.Error(t, err, "a prefix without a trailing dot must be rejected")
}

func Test_MockAdapter_TableRowLifecycle(t *testing.T) {
	a := NewMockAdapter(zap.NewNop(), nil)
	rowName, err := a.AddTableRow(context.Background(), "Device.Hosts.Host.", []Row{
		{Name: "MACAddress", Value: "aa:bb:cc:dd:ee:ff", DataType: TypeString},
	})
	require.NoError(t, err)
	assert.Equal(t, "Device.Hosts.Host.1.", rowName)

	v, _, err := a.Get(context.Background(), rowName+"MACAddress")
	require.NoError(t, err)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", v)

	require.NoError(t, a.DeleteTableRow(context.Background(), rowName))
	_, _, err = a.Get(context.Background(), rowName+"MACAddress")
	assert.Error(t, err)
}

func Test_MockAdapter_ReplaceTable(t *testing.T) {
	a := NewMockAdapter(zap.NewNop(), nil)
	_, err := a.AddTableRow(context.Background(), "Device.Hosts.Host.", []Row{{Name: "MACAddress", Value: "old"}})
	require.NoError(t, err)

	err = a.ReplaceTable(context.Background(), "Device.Hosts.Host.", [][]Row{
		{{Name: "MACAddress", Value: "new1"}},
		{{Name: "MACAddress", Value: "new2"}},
	})
	require.NoError(t, err)

	names, err := a.ExpandWildcard(context.Background(), "Device.Hosts.Host.")
	require.NoError(t, err)
	assert.Len(t, names, 2)
}

func Test_MockAdapter_Attributes(t *testing.T) {
	a := NewMockAdapter(zap.NewNop(), nil)
	require.NoError(t, a.Set(context.Background(), "Device.X", "1"))

	attr, err := a.GetAttributes(context.Background(), "Device.X")
	require.NoError(t, err)
	assert.Equal(t, AccessReadWrite, attr.Access)

	require.NoError(t, a.SetAttributes(context.Background(), "Device.X", Attributes{Access: AccessReadOnly}))
	attr, err = a.GetAttributes(context.Background(), "Device.X")
	require.NoError(t, err)
	assert.Equal(t, AccessReadOnly, attr.Access)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) HandleEvent(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func Test_MockAdapter_SubscribeFanOut(t *testing.T) {
	a := NewMockAdapter(zap.NewNop(), nil)
	sink := &recordingSink{}
	require.NoError(t, a.Subscribe(context.Background(), "Device.WiFi.*", sink))

	require.NoError(t, a.Set(context.Background(), "Device.WiFi.Radio.1.Enable", "true"))
	require.NoError(t, a.Set(context.Background(), "Device.Other.Param", "x"))

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.events, 1, "only the matching pattern should fan out")
	assert.Equal(t, "Device.WiFi.Radio.1.Enable", sink.events[0].Name)
}
