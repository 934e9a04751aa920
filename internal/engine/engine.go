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

// Package engine assembles the bridge's subsystems (C1–C7) into a
// single value threaded through the uplink loop, replacing the
// source's global mutable state per the re-architecture guidance.
package engine

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/notify"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/protocol"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/shadow"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/uplink"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/webconfig"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/cache"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/config"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/downlink"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/perf"
)

// Engine owns every subsystem's lifetime and is the one value the
// uplink loop and introspection server depend on.
type Engine struct {
	Cache     *cache.Cache
	Adapter   downlink.Adapter
	Protocol  *protocol.Engine
	WebConfig *webconfig.Engine
	Notify    *notify.Pipeline
	Metrics   *perf.Registry
	Loop      *uplink.Loop
	Audit     *webconfig.AuditStore

	log *zap.Logger

	closers []func() error // reverse-initialization-order shutdown
}

// Deps bundles the already-constructed collaborators an Engine is
// built from, so tests can substitute fakes for the adapter/transport/
// meter without New reaching into global state.
type Deps struct {
	Adapter   downlink.Adapter
	Transport uplink.Transport
	Meter     metric.Meter
	Auth      uplink.AuthChecker
	Audit     *webconfig.AuditStore
}

// New wires every subsystem per cfg and deps, registers the
// notification sinks on the WebConfig engine and the automatic
// downlink subscriptions, and returns a ready-to-run Engine.
func New(ctx context.Context, cfg config.Config, deps Deps, log *zap.Logger) (*Engine, error) {
	c := cache.New(cfg.Cache.MaxEntries, cfg.Cache.DefaultTTL, cfg.Cache.CleanupInterval)
	shadowStore := shadow.New(cfg.Cache.MaxEntries)
	metrics := perf.New(deps.Meter)

	if err := deps.Adapter.Open(ctx, cfg.Uplink.Component); err != nil {
		return nil, fmt.Errorf("open downlink adapter: %w", err)
	}

	protoEngine := protocol.New(deps.Adapter, c, shadowStore, metrics, log)

	wcEngine := webconfig.New(deps.Adapter, c, shadowStore, webconfig.Config{
		MaxTransactionSize: cfg.WebConfig.MaxTransactionSize,
		BackupDir:          cfg.WebConfig.BackupDir,
		RollbackEnabled:    cfg.WebConfig.RollbackEnabled,
		TransactionTimeout: cfg.WebConfig.TransactionTimeout,
	}, log)

	pipeline := notify.New(log, shadowStore, notify.Config{
		EnableParamNotifications:  cfg.Notify.Enabled && cfg.Notify.EnableParamNotifications,
		EnableClientNotifications: cfg.Notify.Enabled && cfg.Notify.EnableClientNotifications,
		EnableDeviceNotifications: cfg.Notify.Enabled && cfg.Notify.EnableDeviceNotifications,
	})
	wcEngine.RegisterParamSink(pipeline)
	wcEngine.RegisterTransactionSink(pipeline)
	if deps.Audit != nil {
		wcEngine.RegisterTransactionSink(deps.Audit.AsTransactionSink())
	}

	if err := pipeline.SubscribeAutomatic(ctx, deps.Adapter); err != nil {
		log.Warn("automatic notification subscription incomplete", zap.Error(err))
	}

	loop := uplink.New(deps.Transport, protoEngine, wcEngine, deps.Auth, metrics, log, cfg.Uplink.PollInterval)
	pipeline.RegisterEmitter(loop)

	e := &Engine{
		Cache:     c,
		Adapter:   deps.Adapter,
		Protocol:  protoEngine,
		WebConfig: wcEngine,
		Notify:    pipeline,
		Metrics:   metrics,
		Loop:      loop,
		Audit:     deps.Audit,
		log:       log,
	}

	e.closers = append(e.closers, func() error {
		if deps.Audit != nil {
			deps.Audit.Stop()
		}
		return nil
	})
	e.closers = append(e.closers, func() error { return deps.Adapter.Close() })

	return e, nil
}

// Run starts the uplink loop; it returns when ctx is cancelled or the
// loop is stopped.
func (e *Engine) Run(ctx context.Context) error {
	return e.Loop.Run(ctx)
}

// Shutdown stops the uplink loop and closes every subsystem in
// reverse initialization order, per the concurrency model's shutdown
// discipline.
func (e *Engine) Shutdown() {
	e.Loop.Stop()
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil {
			e.log.Warn("error during shutdown", zap.Error(err))
		}
	}
}
