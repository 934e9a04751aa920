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

// Package notify is the notification pipeline (C5): it converts
// downlink events and WebConfig outcomes into typed uplink
// notifications, fans them out to per-type sinks, and hands them to
// the uplink emission hook with best-effort, at-most-once delivery.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/shadow"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/webconfig"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/downlink"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/event"
)

// Notification is the wire-level tagged-union record shared by every
// notification kind.
type Notification struct {
	Type        event.Type  `json:"type"`
	Source      event.Source `json:"source"`
	Destination string      `json:"destination,omitempty"`
	TimestampMs int64       `json:"timestamp"`
	Data        any         `json:"data"`
}

// Sink receives every notification built for its registered type.
type Sink interface {
	Deliver(ctx context.Context, n Notification) error
}

// UplinkEmitter hands a serialized notification to the uplink
// transport. The uplink loop (C6) implements this.
type UplinkEmitter interface {
	EmitNotification(ctx context.Context, payload []byte) error
}

// Config carries the pipeline's automatic-notification enable flags.
type Config struct {
	EnableParamNotifications  bool
	EnableClientNotifications bool
	EnableDeviceNotifications bool
}

// autoPatterns are the fixed downlink event patterns the pipeline
// subscribes to when automatic notifications are enabled.
var autoPatterns = []string{
	"Device.WiFi.Radio.*.Enable",
	"Device.Ethernet.Interface.*.Enable",
	"Device.Hosts.Host.*",
	"Device.DeviceInfo.X_COMCAST-COM_*",
	"Device.Time.*",
}

// Pipeline is the notification pipeline engine.
type Pipeline struct {
	log    *zap.Logger
	shadow *shadow.Store
	cfg    Config

	mu    sync.RWMutex
	sinks map[event.Type]Sink

	emitter UplinkEmitter
}

// New builds a Pipeline. shadowStore is shared with the protocol and
// WebConfig engines so param-change oldValue reporting is consistent
// no matter which subsystem last observed a parameter.
func New(log *zap.Logger, shadowStore *shadow.Store, cfg Config) *Pipeline {
	return &Pipeline{
		log:    log,
		shadow: shadowStore,
		cfg:    cfg,
		sinks:  make(map[event.Type]Sink),
	}
}

// RegisterEmitter wires the uplink emission hook.
func (p *Pipeline) RegisterEmitter(e UplinkEmitter) { p.emitter = e }

// Register installs sink as the handler for notifications of type t,
// replacing any previously registered sink.
func (p *Pipeline) Register(t event.Type, sink Sink) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinks[t] = sink
}

// Unregister removes the sink for type t, if any.
func (p *Pipeline) Unregister(t event.Type) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.sinks, t)
}

func (p *Pipeline) sinkFor(t event.Type) Sink {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.sinks[t]
}

// build is the pure construction step: a tagged-union record with a
// monotonic millisecond timestamp.
func (p *Pipeline) build(t event.Type, destination string, data any) Notification {
	return Notification{
		Type:        t,
		Source:      event.SourceBridge,
		Destination: destination,
		TimestampMs: time.Now().UnixMilli(),
		Data:        data,
	}
}

// Emit delivers n to its registered sink (if any) and hands its JSON
// serialization to the uplink emitter (if wired). Both steps are
// best-effort; Emit never retries and never blocks on a slow sink
// beyond its own call.
func (p *Pipeline) Emit(ctx context.Context, n Notification) {
	if sink := p.sinkFor(n.Type); sink != nil {
		if err := sink.Deliver(ctx, n); err != nil {
			p.log.Warn("notification sink delivery failed", zap.String("type", n.Type.String()), zap.Error(err))
		}
	}
	if p.emitter == nil {
		return
	}
	payload, err := json.Marshal(n)
	if err != nil {
		p.log.Warn("notification serialization failed", zap.Error(err))
		return
	}
	if err := p.emitter.EmitNotification(ctx, payload); err != nil {
		p.log.Warn("notification emission failed", zap.Error(err))
	}
}

// NotifyParamChange implements webconfig.ParamChangeSink.
func (p *Pipeline) NotifyParamChange(ctx context.Context, name, oldValue, newValue string, dataType int) {
	if !p.cfg.EnableParamNotifications {
		return
	}
	n := p.build(event.TypeParamChange, name, event.ParamChangeData{
		ParamName: name, OldValue: oldValue, NewValue: newValue, DataType: dataType,
	})
	p.Emit(ctx, n)
}

// NotifyDeviceStatus builds and emits a device-level lifecycle
// notification, gated by EnableDeviceNotifications.
func (p *Pipeline) NotifyDeviceStatus(ctx context.Context, status int, reason, deviceID string) {
	if !p.cfg.EnableDeviceNotifications {
		return
	}
	if reason == "" {
		reason = "Unknown"
	}
	n := p.build(event.TypeDeviceStatus, "event:device-status", event.DeviceStatusData{
		StatusCode: status, Reason: reason, DeviceID: deviceID,
	})
	p.Emit(ctx, n)
}

// NotifyFactoryReset builds and emits a factory-reset notification.
func (p *Pipeline) NotifyFactoryReset(ctx context.Context, reason, deviceID string) {
	if reason == "" {
		reason = "User initiated factory reset"
	}
	n := p.build(event.TypeFactoryReset, "event:device-status", event.DeviceStatusData{
		StatusCode: 1, Reason: reason, DeviceID: deviceID,
	})
	p.Emit(ctx, n)
}

// NotifyFirmwareUpgrade builds and emits a firmware-upgrade notification.
func (p *Pipeline) NotifyFirmwareUpgrade(ctx context.Context, oldVersion, newVersion, deviceID string) {
	if newVersion == "" {
		return
	}
	if oldVersion == "" {
		oldVersion = "unknown"
	}
	n := p.build(event.TypeFirmwareUpgrade, "event:device-status", event.DeviceStatusData{
		StatusCode: 1,
		Reason:     fmt.Sprintf("Firmware upgrade: %s -> %s", oldVersion, newVersion),
		DeviceID:   deviceID,
	})
	p.Emit(ctx, n)
}

// NotifyTransaction implements webconfig.TransactionSink.
func (p *Pipeline) NotifyTransaction(ctx context.Context, _ webconfig.Transaction, result webconfig.Result) {
	n := p.build(event.TypeTransactionStatus, result.TransactionID, event.TransactionStatusData{
		TransactionID: result.TransactionID,
		Status:        string(result.Overall),
	})
	p.Emit(ctx, n)
}

// SubscribeAutomatic registers the pipeline as an EventSink for the
// fixed automatic-notification patterns, when their respective enable
// flags are set.
func (p *Pipeline) SubscribeAutomatic(ctx context.Context, adapter downlink.Adapter) error {
	for _, pattern := range autoPatterns {
		if !p.patternEnabled(pattern) {
			continue
		}
		if err := adapter.Subscribe(ctx, pattern, p); err != nil {
			return fmt.Errorf("subscribe %s: %w", pattern, err)
		}
	}
	return nil
}

func (p *Pipeline) patternEnabled(pattern string) bool {
	if strings.HasPrefix(pattern, "Device.Hosts.Host.") {
		return p.cfg.EnableClientNotifications
	}
	if strings.HasPrefix(pattern, "Device.DeviceInfo.") {
		return p.cfg.EnableDeviceNotifications
	}
	return p.cfg.EnableParamNotifications
}

// HandleEvent implements downlink.EventSink, translating a raw
// downlink event into the appropriate typed notification.
func (p *Pipeline) HandleEvent(ev downlink.Event) {
	ctx := context.Background()
	switch {
	case strings.HasPrefix(ev.Name, "Device.Hosts.Host.") && ev.Kind != "value-changed":
		status := "Online"
		if ev.Kind == "object-deleted" {
			status = "Offline"
		}
		n := p.build(event.TypeConnectedClient, ev.Name, event.ConnectedClientData{
			MacID:  ev.Payload["mac"],
			Status: status,
		})
		p.Emit(ctx, n)
	case strings.HasPrefix(ev.Name, "Device.DeviceInfo.X_COMCAST-COM_FactoryReset"):
		p.NotifyFactoryReset(ctx, ev.Payload["reason"], ev.Payload["deviceId"])
	case strings.HasPrefix(ev.Name, "Device.DeviceInfo.X_COMCAST-COM_FirmwareUpgrade"):
		p.NotifyFirmwareUpgrade(ctx, ev.Payload["oldVersion"], ev.Payload["newVersion"], ev.Payload["deviceId"])
	case strings.HasPrefix(ev.Name, "Device.DeviceInfo.X_COMCAST-COM_"):
		status := 0
		if ev.Kind == "object-deleted" {
			status = 1
		}
		p.NotifyDeviceStatus(ctx, status, ev.Payload["reason"], ev.Payload["deviceId"])
	case ev.Kind == "value-changed":
		old := p.shadow.Previous(ev.Name)
		newValue := ev.Payload["value"]
		n := p.build(event.TypeParamChange, ev.Name, event.ParamChangeData{
			ParamName: ev.Name, OldValue: old, NewValue: newValue,
		})
		p.shadow.Observe(ev.Name, newValue)
		p.Emit(ctx, n)
	}
}
