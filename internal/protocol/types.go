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

// Package protocol parses, validates and dispatches the ten bridge
// operations against the downlink adapter and cache, assembling a
// per-entry status response.
package protocol

import "github.com/xmidt-bridge/parodus-rbus-bridge/pkg/downlink"

// Op identifies one of the ten dispatchable operations.
type Op string

const (
	OpGet            Op = "GET"
	OpSet            Op = "SET"
	OpGetAttributes  Op = "GET_ATTRIBUTES"
	OpSetAttributes  Op = "SET_ATTRIBUTES"
	OpAddRow         Op = "ADD_ROW"
	OpDeleteRow      Op = "DELETE_ROW"
	OpReplaceRows    Op = "REPLACE_ROWS"
	OpSubscribe      Op = "SUBSCRIBE"
	OpUnsubscribe    Op = "UNSUBSCRIBE"
	OpTestAndSet     Op = "TEST_AND_SET"
)

// Request is the internal, op-specific request envelope. Only the
// fields relevant to Op are populated; unused fields are the zero
// value.
type Request struct {
	ID    string `json:"id,omitempty"`
	Op    Op     `json:"op"`

	Params []string `json:"params,omitempty"` // GET

	Param string `json:"param,omitempty"` // SET, GET_ATTRIBUTES, SET_ATTRIBUTES, TEST_AND_SET
	Value string `json:"value,omitempty"` // SET, TEST_AND_SET (new value)

	ExpectedValue string `json:"expectedValue,omitempty"` // TEST_AND_SET

	Attributes *downlink.Attributes `json:"attributes,omitempty"` // SET_ATTRIBUTES

	TableName string          `json:"tableName,omitempty"` // ADD_ROW, REPLACE_ROWS
	RowData   []downlink.Row  `json:"rowData,omitempty"`   // ADD_ROW
	TableData [][]downlink.Row `json:"tableData,omitempty"` // REPLACE_ROWS

	RowName string `json:"rowName,omitempty"` // DELETE_ROW

	Event string `json:"event,omitempty"` // SUBSCRIBE, UNSUBSCRIBE
}

// ValueAndType is the per-parameter result payload for GET results.
type ValueAndType struct {
	V string `json:"v"`
	T int    `json:"t"`
}

// Response is the internal response envelope returned by Dispatch.
type Response struct {
	ID         string                   `json:"id,omitempty"`
	Status     int                      `json:"status"`
	Results    map[string]*ValueAndType `json:"results,omitempty"`
	Message    string                   `json:"message,omitempty"`
	NewRowName string                   `json:"newRowName,omitempty"`
	Attributes *downlink.Attributes     `json:"attributes,omitempty"`
}
