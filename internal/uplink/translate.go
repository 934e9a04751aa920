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
	"strings"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/apierr"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/protocol"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/downlink"
)

// webpaRoot is the loosely-typed WebPA request envelope as received
// over the wire; only the fields relevant to translation are named.
type webpaRoot struct {
	// Request holds any internal-form fields (params, param, value, ...)
	// present in the payload; the id, op and event fields below shadow
	// its own.
	protocol.Request

	ID         string                   `json:"id,omitempty"`
	Op         string                   `json:"op,omitempty"`
	Command    string                   `json:"command,omitempty"`
	Names      []string                 `json:"names,omitempty"`
	Parameters []webpaParameter         `json:"parameters,omitempty"`
	Table      string                   `json:"table,omitempty"`
	Row        []downlink.Row           `json:"row,omitempty"`
	Rows       [][]downlink.Row         `json:"rows,omitempty"`
	Event      string                   `json:"event,omitempty"`
}

type webpaParameter struct {
	Name       string               `json:"name"`
	Value      string               `json:"value,omitempty"`
	DataType   int                  `json:"dataType,omitempty"`
	Attributes *downlink.Attributes `json:"attributes,omitempty"`
}

// TranslateWebPAToInternal applies the non-destructive translation
// rules of §4.6: copy the WebPA-shaped fields onto their internal
// equivalents without discarding anything already present.
func TranslateWebPAToInternal(root webpaRoot, envelopeTxnID string) protocol.Request {
	req := root.Request
	req.ID, req.Op, req.Event = root.ID, protocol.Op(root.Op), root.Event
	if req.Op == "" {
		switch root.Command {
		case "GET":
			req.Op = protocol.OpGet
			req.Params = root.Names
		case "GET_ATTRIBUTES":
			req.Op = protocol.OpGetAttributes
			if len(root.Names) > 0 {
				req.Param = root.Names[0]
			}
		case "SET":
			req.Op = protocol.OpSet
			if len(root.Parameters) > 0 {
				req.Param = root.Parameters[0].Name
				req.Value = root.Parameters[0].Value
			}
		case "SET_ATTRIBUTES":
			req.Op = protocol.OpSetAttributes
			if len(root.Parameters) > 0 {
				req.Param = root.Parameters[0].Name
				req.Attributes = root.Parameters[0].Attributes
			}
		case "ADD_ROW":
			req.Op = protocol.OpAddRow
			req.TableName = root.Table
			req.RowData = root.Row
		case "DELETE_ROW":
			req.Op = protocol.OpDeleteRow
			if len(root.Row) > 0 {
				req.RowName = root.Row[0].Name
			}
		case "REPLACE_ROWS":
			req.Op = protocol.OpReplaceRows
			req.TableName = root.Table
			req.TableData = root.Rows
		case "SUBSCRIBE":
			req.Op = protocol.OpSubscribe
			req.Event = root.Event
		case "UNSUBSCRIBE":
			req.Op = protocol.OpUnsubscribe
			req.Event = root.Event
		}
	}
	if req.ID == "" {
		req.ID = envelopeTxnID
	}
	return req
}

// isWildcardName reports whether name would trigger wildcard-group
// mode in the WebPA response.
func isWildcardName(name string) bool {
	return strings.HasSuffix(name, ".") || strings.Contains(name, "*")
}

// webpaChildValue is one entry of a grouped wildcard response's
// "value" array.
type webpaChildValue struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	DataType int    `json:"dataType"`
}

// webpaParamOut is one entry of the WebPA response's "parameters"
// array; in wildcard-group mode a single entry carries the grouped
// children in Value.
type webpaParamOut struct {
	Name           string            `json:"name"`
	Value          any               `json:"value,omitempty"`
	DataType       int               `json:"dataType"`
	Message        string            `json:"message,omitempty"`
	ParameterCount int               `json:"parameterCount,omitempty"`
}

// webpaResponse is the WebPA-shaped reply payload.
type webpaResponse struct {
	StatusCode int             `json:"statusCode"`
	Message    string          `json:"message,omitempty"`
	Parameters []webpaParamOut `json:"parameters"`
}

// ConvertInternalToWebPA builds the WebPA reply shape from an internal
// protocol.Response, grouping wildcard results per §4.6.
func ConvertInternalToWebPA(resp protocol.Response, originalReq protocol.Request) webpaResponse {
	out := webpaResponse{StatusCode: resp.Status}

	wildcard := false
	var joinedNames []string
	for _, p := range originalReq.Params {
		if isWildcardName(p) {
			wildcard = true
			joinedNames = append(joinedNames, p)
		}
	}

	if wildcard {
		var children []webpaChildValue
		for name, vt := range resp.Results {
			if vt == nil {
				continue
			}
			children = append(children, webpaChildValue{Name: name, Value: vt.V, DataType: vt.T})
		}
		msg := "Success"
		if resp.Status != apierr.StatusOK && resp.Status != apierr.StatusPartial {
			msg = "Failure"
		}
		out.Parameters = []webpaParamOut{{
			Name:           strings.Join(joinedNames, ","),
			DataType:       int(downlink.TypeTable),
			ParameterCount: len(children),
			Message:        msg,
			Value:          children,
		}}
		return out
	}

	// Iterate the original request's param order so the round-trip law
	// (parameter name order preserved) holds instead of Go's randomized
	// map order.
	order := originalReq.Params
	if len(order) == 0 {
		for name := range resp.Results {
			order = append(order, name)
		}
	}
	for _, name := range order {
		vt, ok := resp.Results[name]
		if !ok || vt == nil {
			out.Parameters = append(out.Parameters, webpaParamOut{Name: name, Message: "Failure"})
			continue
		}
		out.Parameters = append(out.Parameters, webpaParamOut{Name: name, Value: vt.V, DataType: vt.T})
	}

	if resp.Status == apierr.StatusOK || resp.Status == apierr.StatusPartial {
		out.Message = "Success"
	} else {
		out.Message = "Failure"
	}
	return out
}
