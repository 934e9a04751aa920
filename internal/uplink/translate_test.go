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
package uplink

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/apierr"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/protocol"
)

func Test_TranslateWebPAToInternal_Get(t *testing.T) {
	req := TranslateWebPAToInternal(webpaRoot{
		ID: "abc", Command: "GET", Names: []string{"Device.X", "Device.Y"},
	}, "txn-1")
	assert.Equal(t, protocol.OpGet, req.Op)
	assert.Equal(t, []string{"Device.X", "Device.Y"}, req.Params)
	assert.Equal(t, "abc", req.ID)
}

func Test_TranslateWebPAToInternal_Set(t *testing.T) {
	req := TranslateWebPAToInternal(webpaRoot{
		Command: "SET", Parameters: []webpaParameter{{Name: "Device.X", Value: "1"}},
	}, "txn-2")
	assert.Equal(t, protocol.OpSet, req.Op)
	assert.Equal(t, "Device.X", req.Param)
	assert.Equal(t, "1", req.Value)
	assert.Equal(t, "txn-2", req.ID, "envelope transaction id fills a blank request id")
}

func Test_TranslateWebPAToInternal_AddRow(t *testing.T) {
	req := TranslateWebPAToInternal(webpaRoot{
		Command: "ADD_ROW", Table: "Device.Hosts.Host.",
	}, "")
	assert.Equal(t, protocol.OpAddRow, req.Op)
	assert.Equal(t, "Device.Hosts.Host.", req.TableName)
}

func Test_ConvertInternalToWebPA_SimpleRoundTrip(t *testing.T) {
	original := protocol.Request{Op: protocol.OpGet, Params: []string{"Device.B", "Device.A"}}
	resp := protocol.Response{
		Status: apierr.StatusOK,
		Results: map[string]*protocol.ValueAndType{
			"Device.A": {V: "1", T: 0},
			"Device.B": {V: "2", T: 0},
		},
	}
	out := ConvertInternalToWebPA(resp, original)
	require.Len(t, out.Parameters, 2)
	// Order must follow the original request, not map iteration order.
	assert.Equal(t, "Device.B", out.Parameters[0].Name)
	assert.Equal(t, "Device.A", out.Parameters[1].Name)
}

func Test_ConvertInternalToWebPA_WildcardGroupMode(t *testing.T) {
	original := protocol.Request{Op: protocol.OpGet, Params: []string{"Device.WiFi.Radio."}}
	resp := protocol.Response{
		Status: apierr.StatusOK,
		Results: map[string]*protocol.ValueAndType{
			"Device.WiFi.Radio.1.Enable": {V: "true", T: 3},
		},
	}
	out := ConvertInternalToWebPA(resp, original)
	require.Len(t, out.Parameters, 1)
	assert.Equal(t, "Device.WiFi.Radio.", out.Parameters[0].Name)
	assert.Equal(t, 1, out.Parameters[0].ParameterCount)
}

func Test_ConvertInternalToWebPA_MessageDerivedFromStatusNotInternalMessage(t *testing.T) {
	original := protocol.Request{Op: protocol.OpSet, Params: []string{"Device.X"}}
	resp := protocol.Response{
		Status:  apierr.StatusOK,
		Message: "OK", // internal diagnostic message, must not leak as the WebPA top-level message
		Results: map[string]*protocol.ValueAndType{"Device.X": {V: "1", T: 0}},
	}
	out := ConvertInternalToWebPA(resp, original)
	assert.Equal(t, "Success", out.Message)
}

func Test_ConvertInternalToWebPA_FailureMessage(t *testing.T) {
	original := protocol.Request{Op: protocol.OpGet, Params: []string{"Device.Missing"}}
	resp := protocol.Response{
		Status:  apierr.StatusInternalServerError,
		Results: map[string]*protocol.ValueAndType{"Device.Missing": nil},
	}
	out := ConvertInternalToWebPA(resp, original)
	require.Len(t, out.Parameters, 1)
	assert.Equal(t, "Failure", out.Parameters[0].Message)
	assert.Equal(t, "Failure", out.Message)
}
