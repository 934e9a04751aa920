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
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/apierr"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/shadow"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/cache"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/downlink"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/perf"
)

// Engine is the request-dispatch engine (C3): it parses, validates
// and executes the ten operation types against the downlink adapter
// and cache, and builds the structured response.
type Engine struct {
	adapter downlink.Adapter
	cache   *cache.Cache
	attrs   *attributeTable
	shadow  *shadow.Store
	metrics *perf.Registry
	log     *zap.Logger
}

// New wires an Engine from its collaborators. shadowStore may be
// shared with the notification pipeline so param-change events and
// direct SETs observe the same last-known-value table.
func New(adapter downlink.Adapter, c *cache.Cache, shadowStore *shadow.Store, metrics *perf.Registry, log *zap.Logger) *Engine {
	return &Engine{
		adapter: adapter,
		cache:   c,
		attrs:   newAttributeTable(),
		shadow:  shadowStore,
		metrics: metrics,
		log:     log,
	}
}

// Dispatch parses and executes req, returning the structured response.
func (e *Engine) Dispatch(ctx context.Context, req Request) Response {
	defer e.metrics.Timer("protocol.dispatch")()
	e.metrics.Incr("protocol.requests", 1)

	if req.Op == "" {
		return Response{ID: req.ID, Status: apierr.StatusBadRequest, Message: "missing op"}
	}

	switch req.Op {
	case OpGet:
		return e.dispatchGet(ctx, req)
	case OpSet:
		return e.dispatchSet(ctx, req)
	case OpGetAttributes:
		return e.dispatchGetAttributes(ctx, req)
	case OpSetAttributes:
		return e.dispatchSetAttributes(ctx, req)
	case OpAddRow:
		return e.dispatchAddRow(ctx, req)
	case OpDeleteRow:
		return e.dispatchDeleteRow(ctx, req)
	case OpReplaceRows:
		return e.dispatchReplaceRows(ctx, req)
	case OpSubscribe:
		return e.dispatchSubscribe(ctx, req, true)
	case OpUnsubscribe:
		return e.dispatchSubscribe(ctx, req, false)
	case OpTestAndSet:
		return e.dispatchTestAndSet(ctx, req)
	default:
		return Response{ID: req.ID, Status: apierr.StatusBadRequest, Message: fmt.Sprintf("unknown op %q", req.Op)}
	}
}

// getTyped consults the cache before the adapter; an adapter hit
// repopulates the cache.
func (e *Engine) getTyped(ctx context.Context, name string) (string, int, error) {
	if v, t, hit := e.cache.Get(name); hit {
		e.log.Debug("cache hit", zap.String("param", name))
		return v, t, nil
	}
	v, t, err := e.adapter.Get(ctx, name)
	if err != nil {
		return "", 0, err
	}
	e.cache.Set(name, v, int(t), 0)
	e.shadow.Observe(name, v)
	return v, int(t), nil
}

func (e *Engine) dispatchGet(ctx context.Context, req Request) Response {
	results := make(map[string]*ValueAndType)
	if len(req.Params) == 0 {
		return Response{ID: req.ID, Status: apierr.StatusOK, Results: results}
	}

	successes, failures := 0, 0
	for idx, name := range req.Params {
		switch {
		case name == "":
			failures++
			results[fmt.Sprintf("_%d", idx)] = nil
		case strings.HasSuffix(name, "."):
			children, err := e.adapter.ExpandWildcard(ctx, name)
			if err != nil {
				failures++
				results[name] = nil
				e.log.Warn("wildcard expand failed", zap.String("prefix", name), zap.Error(err))
				continue
			}
			for _, child := range children {
				v, t, err := e.getTyped(ctx, child)
				if err != nil {
					failures++
					results[child] = nil
					e.log.Warn("wildcard member get failed", zap.String("param", child), zap.Error(err))
					continue
				}
				successes++
				results[child] = &ValueAndType{V: v, T: t}
			}
		default:
			v, t, err := e.getTyped(ctx, name)
			if err != nil {
				failures++
				results[name] = nil
				e.log.Warn("get failed", zap.String("param", name), zap.Error(err))
				continue
			}
			successes++
			results[name] = &ValueAndType{V: v, T: t}
		}
	}

	status := apierr.StatusOK
	switch {
	case failures > 0 && successes > 0:
		status = apierr.StatusPartial
	case failures > 0 && successes == 0:
		status = apierr.StatusInternalServerError
	}
	return Response{ID: req.ID, Status: status, Results: results}
}

func (e *Engine) dispatchSet(ctx context.Context, req Request) Response {
	if req.Param == "" {
		return Response{ID: req.ID, Status: apierr.StatusBadRequest, Message: "missing param"}
	}
	if e.attrs.readOnly(req.Param) {
		return Response{ID: req.ID, Status: apierr.StatusForbidden, Message: "parameter is read-only"}
	}
	if err := e.adapter.Set(ctx, req.Param, req.Value); err != nil {
		e.log.Warn("set failed", zap.String("param", req.Param), zap.Error(err))
		return Response{ID: req.ID, Status: apierr.CodeFor(err), Message: "error"}
	}
	e.cache.Delete(req.Param)
	e.shadow.Observe(req.Param, req.Value)
	return Response{ID: req.ID, Status: apierr.StatusOK, Message: "OK"}
}

func (e *Engine) dispatchTestAndSet(ctx context.Context, req Request) Response {
	if req.Param == "" {
		return Response{ID: req.ID, Status: apierr.StatusBadRequest, Message: "missing param"}
	}
	if e.attrs.readOnly(req.Param) {
		return Response{ID: req.ID, Status: apierr.StatusForbidden, Message: "parameter is read-only"}
	}
	current, _, err := e.adapter.Get(ctx, req.Param)
	if err != nil {
		return Response{ID: req.ID, Status: apierr.CodeFor(err), Message: "error"}
	}
	if current != req.ExpectedValue {
		return Response{ID: req.ID, Status: apierr.StatusPreconditionFailed, Message: "expected value mismatch"}
	}
	if err := e.adapter.Set(ctx, req.Param, req.Value); err != nil {
		return Response{ID: req.ID, Status: apierr.CodeFor(err), Message: "error"}
	}
	e.cache.Delete(req.Param)
	e.shadow.Observe(req.Param, req.Value)
	return Response{ID: req.ID, Status: apierr.StatusOK, Message: "OK"}
}

func (e *Engine) dispatchGetAttributes(ctx context.Context, req Request) Response {
	if req.Param == "" {
		return Response{ID: req.ID, Status: apierr.StatusBadRequest, Message: "missing param"}
	}
	if a, ok := e.attrs.get(req.Param); ok {
		return Response{ID: req.ID, Status: apierr.StatusOK, Attributes: &a}
	}
	a, err := e.adapter.GetAttributes(ctx, req.Param)
	if err != nil {
		return Response{ID: req.ID, Status: apierr.CodeFor(err), Message: err.Error()}
	}
	return Response{ID: req.ID, Status: apierr.StatusOK, Attributes: &a}
}

func (e *Engine) dispatchSetAttributes(ctx context.Context, req Request) Response {
	if req.Param == "" || req.Attributes == nil {
		return Response{ID: req.ID, Status: apierr.StatusBadRequest, Message: "missing param or attributes"}
	}
	if _, _, err := e.adapter.Get(ctx, req.Param); err != nil {
		return Response{ID: req.ID, Status: apierr.CodeFor(err), Message: err.Error()}
	}
	e.attrs.set(req.Param, *req.Attributes)
	return Response{ID: req.ID, Status: apierr.StatusOK, Message: "OK", Attributes: req.Attributes}
}

func (e *Engine) dispatchAddRow(ctx context.Context, req Request) Response {
	if req.TableName == "" {
		return Response{ID: req.ID, Status: apierr.StatusBadRequest, Message: "missing tableName"}
	}
	newName, err := e.adapter.AddTableRow(ctx, req.TableName, req.RowData)
	if err != nil {
		return Response{ID: req.ID, Status: apierr.CodeFor(err), Message: err.Error()}
	}
	e.cache.InvalidateWildcard(req.TableName)
	return Response{ID: req.ID, Status: apierr.StatusOK, NewRowName: newName}
}

func (e *Engine) dispatchDeleteRow(ctx context.Context, req Request) Response {
	if req.RowName == "" {
		return Response{ID: req.ID, Status: apierr.StatusBadRequest, Message: "missing rowName"}
	}
	if err := e.adapter.DeleteTableRow(ctx, req.RowName); err != nil {
		return Response{ID: req.ID, Status: apierr.CodeFor(err), Message: err.Error()}
	}
	e.cache.InvalidateWildcard(req.RowName)
	return Response{ID: req.ID, Status: apierr.StatusOK, Message: "OK"}
}

func (e *Engine) dispatchReplaceRows(ctx context.Context, req Request) Response {
	if req.TableName == "" {
		return Response{ID: req.ID, Status: apierr.StatusBadRequest, Message: "missing tableName"}
	}
	if err := e.adapter.ReplaceTable(ctx, req.TableName, req.TableData); err != nil {
		return Response{ID: req.ID, Status: apierr.CodeFor(err), Message: err.Error()}
	}
	e.cache.InvalidateWildcard(req.TableName)
	return Response{ID: req.ID, Status: apierr.StatusOK, Message: "OK"}
}

func (e *Engine) dispatchSubscribe(ctx context.Context, req Request, subscribe bool) Response {
	if req.Event == "" {
		return Response{ID: req.ID, Status: apierr.StatusBadRequest, Message: "missing event"}
	}
	var err error
	if subscribe {
		err = e.adapter.Subscribe(ctx, req.Event, noopSink{})
	} else {
		err = e.adapter.Unsubscribe(ctx, req.Event)
	}
	if err != nil {
		return Response{ID: req.ID, Status: apierr.StatusInternalServerError, Message: "error"}
	}
	return Response{ID: req.ID, Status: apierr.StatusOK, Message: "OK"}
}

// noopSink satisfies downlink.EventSink for bare protocol-level
// subscribe/unsubscribe calls that do not themselves want callbacks;
// the notification pipeline subscribes itself separately (in
// engine.New) for the automatic notification patterns.
type noopSink struct{}

func (noopSink) HandleEvent(downlink.Event) {}

// Adapter exposes the wrapped downlink adapter, for callers that need
// direct access alongside dispatch.
func (e *Engine) Adapter() downlink.Adapter { return e.adapter }

// Cache exposes the wrapped cache for components that need direct
// snapshot/restore or stats access.
func (e *Engine) Cache() *cache.Cache { return e.cache }

// Shadow exposes the shared old-value store.
func (e *Engine) Shadow() *shadow.Store { return e.shadow }

// SetAttribute stores the attribute side-table entry directly,
// bypassing request parsing; used by bootstrap/config-driven setup.
func (e *Engine) SetAttribute(name string, attrs downlink.Attributes) {
	e.attrs.set(name, attrs)
}
