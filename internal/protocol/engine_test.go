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
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/apierr"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/shadow"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/cache"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/downlink"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/perf"
)

func newTestEngine(t *testing.T, seed map[string]struct {
	Value string
	Type  downlink.TypeCode
}) *Engine {
	t.Helper()
	adapter := downlink.NewMockAdapter(zap.NewNop(), seed)
	require.NoError(t, adapter.Open(context.Background(), "test"))
	c := cache.New(100, time.Minute, time.Hour)
	metrics := perf.New(otel.GetMeterProvider().Meter("protocol_test"))
	return New(adapter, c, shadow.New(100), metrics, zap.NewNop())
}

func Test_Dispatch_SimpleGet(t *testing.T) {
	e := newTestEngine(t, map[string]struct {
		Value string
		Type  downlink.TypeCode
	}{"Device.X": {Value: "1", Type: downlink.TypeInt32}})

	resp := e.Dispatch(context.Background(), Request{ID: "1", Op: OpGet, Params: []string{"Device.X"}})
	assert.Equal(t, apierr.StatusOK, resp.Status)
	require.Contains(t, resp.Results, "Device.X")
	assert.Equal(t, "1", resp.Results["Device.X"].V)
}

func Test_Dispatch_GetMixedMissReturnsPartial(t *testing.T) {
	e := newTestEngine(t, map[string]struct {
		Value string
		Type  downlink.TypeCode
	}{"Device.X": {Value: "1", Type: downlink.TypeInt32}})

	resp := e.Dispatch(context.Background(), Request{ID: "1", Op: OpGet, Params: []string{"Device.X", "Device.Missing"}})
	assert.Equal(t, apierr.StatusPartial, resp.Status)
	assert.NotNil(t, resp.Results["Device.X"])
	assert.Nil(t, resp.Results["Device.Missing"])
}

func Test_Dispatch_WildcardGet(t *testing.T) {
	e := newTestEngine(t, map[string]struct {
		Value string
		Type  downlink.TypeCode
	}{
		"Device.WiFi.Radio.1.Enable": {Value: "true", Type: downlink.TypeBool},
		"Device.WiFi.Radio.2.Enable": {Value: "false", Type: downlink.TypeBool},
	})

	resp := e.Dispatch(context.Background(), Request{ID: "1", Op: OpGet, Params: []string{"Device.WiFi.Radio."}})
	assert.Equal(t, apierr.StatusOK, resp.Status)
	assert.Len(t, resp.Results, 2)
}

func Test_Dispatch_SetThenGetConsistency(t *testing.T) {
	e := newTestEngine(t, nil)
	setResp := e.Dispatch(context.Background(), Request{ID: "1", Op: OpSet, Param: "Device.X", Value: "hello"})
	require.Equal(t, apierr.StatusOK, setResp.Status)

	getResp := e.Dispatch(context.Background(), Request{ID: "2", Op: OpGet, Params: []string{"Device.X"}})
	require.Equal(t, apierr.StatusOK, getResp.Status)
	assert.Equal(t, "hello", getResp.Results["Device.X"].V)
}

func Test_Dispatch_SetOnReadOnlyIsForbidden(t *testing.T) {
	e := newTestEngine(t, map[string]struct {
		Value string
		Type  downlink.TypeCode
	}{"Device.RO": {Value: "1", Type: downlink.TypeString}})
	e.SetAttribute("Device.RO", downlink.Attributes{Access: downlink.AccessReadOnly})

	resp := e.Dispatch(context.Background(), Request{ID: "1", Op: OpSet, Param: "Device.RO", Value: "2"})
	assert.Equal(t, apierr.StatusForbidden, resp.Status)
}

func Test_Dispatch_TestAndSet(t *testing.T) {
	e := newTestEngine(t, map[string]struct {
		Value string
		Type  downlink.TypeCode
	}{"Device.X": {Value: "old", Type: downlink.TypeString}})

	resp := e.Dispatch(context.Background(), Request{ID: "1", Op: OpTestAndSet, Param: "Device.X", ExpectedValue: "wrong", Value: "new"})
	assert.Equal(t, apierr.StatusPreconditionFailed, resp.Status)

	resp = e.Dispatch(context.Background(), Request{ID: "2", Op: OpTestAndSet, Param: "Device.X", ExpectedValue: "old", Value: "new"})
	assert.Equal(t, apierr.StatusOK, resp.Status)

	getResp := e.Dispatch(context.Background(), Request{ID: "3", Op: OpGet, Params: []string{"Device.X"}})
	assert.Equal(t, "new", getResp.Results["Device.X"].V)
}

func Test_Dispatch_TestAndSetOnReadOnlyIsForbidden(t *testing.T) {
	e := newTestEngine(t, map[string]struct {
		Value string
		Type  downlink.TypeCode
	}{"Device.RO": {Value: "old", Type: downlink.TypeString}})
	e.SetAttribute("Device.RO", downlink.Attributes{Access: downlink.AccessReadOnly})

	resp := e.Dispatch(context.Background(), Request{ID: "1", Op: OpTestAndSet, Param: "Device.RO", ExpectedValue: "old", Value: "new"})
	assert.Equal(t, apierr.StatusForbidden, resp.Status)
}

func Test_Dispatch_AddRowThenDelete(t *testing.T) {
	e := newTestEngine(t, nil)
	resp := e.Dispatch(context.Background(), Request{
		ID: "1", Op: OpAddRow, TableName: "Device.Hosts.Host.",
		RowData: []downlink.Row{{Name: "MACAddress", Value: "aa:bb"}},
	})
	require.Equal(t, apierr.StatusOK, resp.Status)
	require.NotEmpty(t, resp.NewRowName)

	del := e.Dispatch(context.Background(), Request{ID: "2", Op: OpDeleteRow, RowName: resp.NewRowName})
	assert.Equal(t, apierr.StatusOK, del.Status)
}

func Test_Dispatch_UnknownOp(t *testing.T) {
	e := newTestEngine(t, nil)
	resp := e.Dispatch(context.Background(), Request{ID: "1", Op: "BOGUS"})
	assert.Equal(t, apierr.StatusBadRequest, resp.Status)
}
