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
package notify

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/shadow"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/webconfig"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/downlink"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/event"
)

type fakeEmitter struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (f *fakeEmitter) EmitNotification(_ context.Context, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payloads = append(f.payloads, payload)
	return nil
}

func Test_Pipeline_NotifyParamChangeEmits(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{EnableParamNotifications: true})
	emitter := &fakeEmitter{}
	p.RegisterEmitter(emitter)

	p.NotifyParamChange(context.Background(), "Device.X", "old", "new", 0)

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	require.Len(t, emitter.payloads, 1)
}

func Test_Pipeline_ParamNotificationsDisabled(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{EnableParamNotifications: false})
	emitter := &fakeEmitter{}
	p.RegisterEmitter(emitter)

	p.NotifyParamChange(context.Background(), "Device.X", "old", "new", 0)

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	assert.Empty(t, emitter.payloads)
}

func Test_Pipeline_NotifyTransaction(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{})
	emitter := &fakeEmitter{}
	p.RegisterEmitter(emitter)

	p.NotifyTransaction(context.Background(), webconfig.Transaction{TransactionID: "tx1"}, webconfig.Result{TransactionID: "tx1", Overall: webconfig.Success})

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	require.Len(t, emitter.payloads, 1)
}

func Test_Pipeline_HandleEvent_ConnectedClient(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{EnableClientNotifications: true})
	emitter := &fakeEmitter{}
	p.RegisterEmitter(emitter)

	p.HandleEvent(downlink.Event{
		Name: "Device.Hosts.Host.1.", Kind: "object-created",
		Payload: map[string]string{"mac": "aa:bb:cc"},
	})

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	require.Len(t, emitter.payloads, 1)
}

func Test_Pipeline_HandleEvent_ParamChangeUsesShadowOldValue(t *testing.T) {
	sh := shadow.New(10)
	sh.Observe("Device.X", "1")
	p := New(zap.NewNop(), sh, Config{EnableParamNotifications: true})

	var captured Notification
	p.Register(event.TypeParamChange, sinkFunc(func(_ context.Context, n Notification) error {
		captured = n
		return nil
	}))

	p.HandleEvent(downlink.Event{Name: "Device.X", Kind: "value-changed", Payload: map[string]string{"value": "2"}})

	data, ok := captured.Data.(event.ParamChangeData)
	require.True(t, ok)
	assert.Equal(t, "1", data.OldValue)
	assert.Equal(t, "2", data.NewValue)
}

func Test_Pipeline_NotifyDeviceStatus(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{EnableDeviceNotifications: true})
	emitter := &fakeEmitter{}
	p.RegisterEmitter(emitter)

	p.NotifyDeviceStatus(context.Background(), 0, "", "device-1")

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	require.Len(t, emitter.payloads, 1)
}

func Test_Pipeline_NotifyDeviceStatus_Disabled(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{EnableDeviceNotifications: false})
	emitter := &fakeEmitter{}
	p.RegisterEmitter(emitter)

	p.NotifyDeviceStatus(context.Background(), 0, "booted", "device-1")

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	assert.Empty(t, emitter.payloads)
}

func Test_Pipeline_NotifyFactoryReset(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{})

	var captured Notification
	p.Register(event.TypeFactoryReset, sinkFunc(func(_ context.Context, n Notification) error {
		captured = n
		return nil
	}))

	p.NotifyFactoryReset(context.Background(), "", "device-1")

	data, ok := captured.Data.(event.DeviceStatusData)
	require.True(t, ok)
	assert.Equal(t, "User initiated factory reset", data.Reason)
	assert.Equal(t, "device-1", data.DeviceID)
}

func Test_Pipeline_NotifyFirmwareUpgrade(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{})

	var captured Notification
	p.Register(event.TypeFirmwareUpgrade, sinkFunc(func(_ context.Context, n Notification) error {
		captured = n
		return nil
	}))

	p.NotifyFirmwareUpgrade(context.Background(), "1.0", "2.0", "device-1")

	data, ok := captured.Data.(event.DeviceStatusData)
	require.True(t, ok)
	assert.Equal(t, "Firmware upgrade: 1.0 -> 2.0", data.Reason)
}

func Test_Pipeline_NotifyFirmwareUpgrade_NoNewVersionIsNoOp(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{})
	emitter := &fakeEmitter{}
	p.RegisterEmitter(emitter)

	p.NotifyFirmwareUpgrade(context.Background(), "1.0", "", "device-1")

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	assert.Empty(t, emitter.payloads)
}

func Test_Pipeline_HandleEvent_FactoryReset(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{})
	emitter := &fakeEmitter{}
	p.RegisterEmitter(emitter)

	p.HandleEvent(downlink.Event{
		Name: "Device.DeviceInfo.X_COMCAST-COM_FactoryReset", Kind: "value-changed",
		Payload: map[string]string{"reason": "user request"},
	})

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	require.Len(t, emitter.payloads, 1)
}

func Test_Pipeline_HandleEvent_DeviceStatusFallback(t *testing.T) {
	p := New(zap.NewNop(), shadow.New(10), Config{EnableDeviceNotifications: true})
	emitter := &fakeEmitter{}
	p.RegisterEmitter(emitter)

	p.HandleEvent(downlink.Event{Name: "Device.DeviceInfo.X_COMCAST-COM_BootTime", Kind: "value-changed"})

	emitter.mu.Lock()
	defer emitter.mu.Unlock()
	require.Len(t, emitter.payloads, 1)
}

type sinkFunc func(ctx context.Context, n Notification) error

func (f sinkFunc) Deliver(ctx context.Context, n Notification) error { return f(ctx, n) }
