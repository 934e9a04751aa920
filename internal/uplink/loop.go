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
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/xmidt-org/wrp-go/v3"
	"go.uber.org/zap"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/apierr"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/protocol"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/webconfig"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/perf"
)

// Loop is the uplink message loop (C6): connect/receive/translate/
// dispatch/reply, cooperating single-threaded per connection.
type Loop struct {
	transport Transport
	protocol  *protocol.Engine
	webconfig *webconfig.Engine
	auth      AuthChecker
	metrics   *perf.Registry
	log       *zap.Logger

	pollInterval time.Duration
	stopCh       chan struct{}
}

// New builds a Loop. auth may be AllowAll{} when no ACL enforcement is
// desired.
func New(transport Transport, engine *protocol.Engine, wc *webconfig.Engine, auth AuthChecker, metrics *perf.Registry, log *zap.Logger, pollInterval time.Duration) *Loop {
	if auth == nil {
		auth = AllowAll{}
	}
	return &Loop{
		transport:    transport,
		protocol:     engine,
		webconfig:    wc,
		auth:         auth,
		metrics:      metrics,
		log:          log,
		pollInterval: pollInterval,
		stopCh:       make(chan struct{}),
	}
}

// EmitNotification implements notify.UplinkEmitter by wrapping payload
// in an EVENT frame addressed to "event:device-status".
func (l *Loop) EmitNotification(ctx context.Context, payload []byte) error {
	msg := &wrp.Message{
		Type:        wrp.SimpleEventMessageType,
		Source:      "bridge",
		Destination: "event:device-status",
		ContentType: "application/json",
		Payload:     payload,
	}
	return l.transport.Send(ctx, msg)
}

// Stop requests the loop drain at the next poll boundary.
func (l *Loop) Stop() { close(l.stopCh) }

// Run opens the transport and loops receive→translate→dispatch→reply
// until ctx is cancelled or Stop is called, at which point it closes
// the transport and returns.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.transport.Open(ctx); err != nil {
		return fmt.Errorf("open uplink transport: %w", err)
	}
	defer l.transport.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.stopCh:
			return nil
		default:
		}

		pollCtx, cancel := context.WithTimeout(ctx, l.pollInterval)
		msg, err := l.transport.Receive(pollCtx)
		cancel()
		if err != nil {
			l.log.Warn("uplink receive failed", zap.Error(err))
			continue
		}
		if msg == nil {
			continue // poll timeout, nothing to do
		}

		l.handleFrame(ctx, msg)
	}
}

// bulkSet runs a non-atomic multi-parameter SET through the WebConfig
// engine and reshapes its Result into a protocol.Response so the rest
// of the reply path (ConvertInternalToWebPA) is unaware anything
// unusual happened.
func (l *Loop) bulkSet(ctx context.Context, id string, params []webpaParameter) protocol.Response {
	txParams := make([]webconfig.Parameter, len(params))
	for i, p := range params {
		txParams[i] = webconfig.Parameter{Name: p.Name, Value: p.Value, DataType: p.DataType, Operation: webconfig.ParamSet}
	}
	result := l.webconfig.BulkSet(ctx, txParams, false)

	status := apierr.StatusOK
	switch result.Overall {
	case webconfig.Partial:
		status = apierr.StatusPartial
	case webconfig.Failure:
		status = apierr.StatusInternalServerError
	}

	results := make(map[string]*protocol.ValueAndType, len(result.PerParam))
	for i, pr := range result.PerParam {
		if pr.Status == webconfig.ParamSuccess {
			results[pr.Name] = &protocol.ValueAndType{V: params[i].Value, T: params[i].DataType}
		} else {
			results[pr.Name] = nil
		}
	}
	return protocol.Response{ID: id, Status: status, Results: results}
}

func (l *Loop) handleFrame(ctx context.Context, msg *wrp.Message) {
	defer l.metrics.Timer("uplink.frame")()
	l.metrics.Incr("uplink.frames", 1)

	if err := l.auth.Authorize(msg.Source, msg.Destination); err != nil {
		l.log.Warn("frame rejected by auth check", zap.String("source", msg.Source), zap.Error(err))
		return
	}

	var root webpaRoot
	if err := json.Unmarshal(msg.Payload, &root); err != nil {
		l.log.Warn("malformed uplink payload", zap.Error(err))
		return
	}

	req := TranslateWebPAToInternal(root, msg.TransactionUUID)

	var resp protocol.Response
	if root.Command == "SET" && len(root.Parameters) > 1 {
		// A multi-parameter SET has no single-op translation in §4.6;
		// route it through the transactional engine instead of
		// silently dropping every parameter past the first.
		resp = l.bulkSet(ctx, req.ID, root.Parameters)
	} else {
		resp = l.protocol.Dispatch(ctx, req)
	}
	out := ConvertInternalToWebPA(resp, req)

	body, err := json.Marshal(out)
	if err != nil {
		l.log.Warn("failed to marshal uplink reply", zap.Error(err))
		return
	}

	reply := &wrp.Message{
		Type:            frameType(msg.Type).wireType(),
		Source:          msg.Destination,
		Destination:     msg.Source,
		TransactionUUID: msg.TransactionUUID,
		ContentType:     "application/json",
		Payload:         body,
	}
	if err := l.transport.Send(ctx, reply); err != nil {
		l.log.Warn("uplink send failed", zap.Error(err))
	}
}
