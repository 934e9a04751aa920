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
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/engine"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/uplink"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/webconfig"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/config"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/downlink"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/logger"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/middleware"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/perf"
)

func main() {
	fs := pflag.NewFlagSet("bridge", pflag.ExitOnError)
	flags := config.BindFlags(fs)
	help := fs.BoolP("help", "h", false, "print usage and exit")
	fs.Parse(os.Args[1:])
	if *help {
		fs.PrintDefaults()
		os.Exit(0)
	}

	cfg := config.GetConf(flags)
	log := logger.Get()
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var otlpEndpoint string
	if flags.OtlpEndpoint != nil {
		otlpEndpoint = *flags.OtlpEndpoint
	}
	meter, shutdownMeter, err := perf.InitMeterProvider(ctx, *flags.ServiceName, otlpEndpoint)
	if err != nil {
		log.Error("failed to initialize metrics", zap.Error(err))
		os.Exit(1)
	}
	defer shutdownMeter(context.Background())

	adapter := downlink.NewMockAdapter(log, nil)

	var transport uplink.Transport
	switch cfg.Mode {
	case "mock":
		transport = uplink.NewMockTransport()
	default:
		transport = uplink.NewParodusTransport(cfg.Uplink.ParodusURL, log)
	}

	var audit *webconfig.AuditStore
	if cfg.Mode != "mock" {
		store, err := webconfig.NewAuditStore(ctx, cfg.Database.Uri, cfg.Database.Name, log)
		if err != nil {
			log.Warn("webconfig audit persistence unavailable, continuing without it", zap.Error(err))
		} else {
			store.StartRetention(parseDurationOr(cfg.Retention.Period, 168*time.Hour), parseDurationOr(cfg.Retention.CleanupInterval, time.Hour))
			audit = store
		}
	}

	eng, err := engine.New(ctx, cfg, engine.Deps{
		Adapter:   adapter,
		Transport: transport,
		Meter:     meter,
		Auth:      uplink.AllowAll{},
		Audit:     audit,
	}, log)
	if err != nil {
		log.Error("failed to open downlink adapter", zap.Error(err))
		os.Exit(1)
	}

	introspection := newIntrospectionServer(cfg.Introspection.Address, eng)

	errCh := make(chan error, 1)
	go func() {
		errCh <- eng.Run(ctx)
	}()
	go func() {
		if err := introspection.Start(cfg.Introspection.Address); err != nil && err != http.ErrServerClosed {
			log.Warn("introspection server stopped", zap.Error(err))
		}
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Error("uplink loop exited with error", zap.Error(err))
		}
	}

	eng.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	introspection.Shutdown(shutdownCtx)
}

func newIntrospectionServer(addr string, eng *engine.Engine) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.ZapLogger())
	e.Use(middleware.DebugBodyLogger())
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/metrics", func(c echo.Context) error {
		return c.JSON(http.StatusOK, eng.Metrics.Export())
	})
	e.GET("/stats/cache", func(c echo.Context) error {
		return c.JSON(http.StatusOK, eng.Cache.GetStats())
	})
	e.GET("/stats/webconfig", func(c echo.Context) error {
		return c.JSON(http.StatusOK, eng.WebConfig.Stats())
	})
	return e
}

func parseDurationOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
