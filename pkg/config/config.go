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
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/pflag"
)

type Log struct {
	Level  int    `split_words:"true" default:"1" description:"0=ERROR 1=WARN 2=INFO 3=DEBUG"`
	Format string `split_words:"true" default:"production"`
}

// Uplink configures the transport used to reach the parodus/rbus peer.
type Uplink struct {
	ParodusURL       string `envconfig:"PARODUS_URL" default:"tcp://127.0.0.1:6666"`
	ParodusClientURL string `envconfig:"PARODUS_CLIENT_URL" default:"tcp://127.0.0.1:6668"`
	PollInterval     time.Duration `split_words:"true" default:"2s"`
	Component        string `split_words:"true" default:"parodus2rbus.client"`
}

type Cache struct {
	MaxEntries      int           `split_words:"true" default:"8192"`
	DefaultTTL      time.Duration `split_words:"true" default:"5m"`
	CleanupInterval time.Duration `split_words:"true" default:"1m"`
}

type WebConfig struct {
	MaxTransactionSize int           `split_words:"true" default:"256"`
	TransactionTimeout time.Duration `split_words:"true" default:"30s"`
	BackupDir          string        `split_words:"true" default:"./backups"`
	RollbackEnabled    bool          `split_words:"true" default:"true"`
}

type Notify struct {
	Enabled                   bool `split_words:"true" default:"true"`
	EnableParamNotifications  bool `split_words:"true" default:"true"`
	EnableClientNotifications bool `split_words:"true" default:"true"`
	EnableDeviceNotifications bool `split_words:"true" default:"true"`
}

type Database struct {
	Uri  string `split_words:"true" default:"mongodb://localhost:27017"`
	Name string `split_words:"true" default:"bridge"`
}

type Retention struct {
	Period          string `split_words:"true" default:"168h"`
	CleanupInterval string `split_words:"true" default:"1h"`
}

type Introspection struct {
	Address string `split_words:"true" default:"0.0.0.0:8080"`
}

type Config struct {
	Uplink
	Cache
	WebConfig
	Notify
	Database
	Retention
	Introspection
	Log

	// Mode selects the uplink transport implementation: "mock" (stdin/stdout
	// framed exchange, for local testing) or "parodus" (TCP to ParodusURL).
	Mode string
}

func process(prefix string, spec interface{}) {
	if err := envconfig.Process(prefix, spec); err != nil {
		fmt.Printf("failed to load %s config: %v\n", prefix, err)
	}
}

// Flags binds the CLI flag surface onto fs. Call before fs.Parse.
type Flags struct {
	Component    *string
	ServiceName  *string
	Mode         *string
	LogLevel     *int
	OtlpEndpoint *string
}

func BindFlags(fs *pflag.FlagSet) *Flags {
	return &Flags{
		Component:    fs.String("component", "parodus2rbus.client", "bus component name to register as"),
		ServiceName:  fs.String("service-name", "config", "service name for exported metrics; not used in logs or notifications"),
		Mode:         fs.String("mode", "parodus", "uplink transport: mock|parodus"),
		LogLevel:     fs.Int("log", 1, "log verbosity 0=ERROR 1=WARN 2=INFO 3=DEBUG"),
		OtlpEndpoint: fs.String("otlp-endpoint", "", "OTLP/gRPC metrics collector host:port; empty disables export"),
	}
}

// GetConf loads configuration from the environment and overlays CLI flags.
func GetConf(flags *Flags) Config {
	var uplink Uplink
	process("uplink", &uplink)

	var cache Cache
	process("cache", &cache)

	var webconfig WebConfig
	process("webconfig", &webconfig)

	var notify Notify
	process("notify", &notify)

	var db Database
	process("db", &db)

	var retention Retention
	process("retention", &retention)

	var introspection Introspection
	process("introspection", &introspection)

	var log Log
	process("log", &log)

	cfg := Config{uplink, cache, webconfig, notify, db, retention, introspection, log, "parodus"}

	if flags != nil {
		if flags.Component != nil && *flags.Component != "" {
			cfg.Uplink.Component = *flags.Component
		}
		if flags.Mode != nil && *flags.Mode != "" {
			cfg.Mode = *flags.Mode
		}
		if flags.LogLevel != nil {
			cfg.Log.Level = *flags.LogLevel
			// The process-wide logger reads GetLogConfig, so the flag
			// value has to reach it too.
			GetLogConfig()
			logConfig.Level = *flags.LogLevel
		}
	}
	return cfg
}

var (
	logConfig     Log
	loadLogConfig sync.Once
)

func GetLogConfig() Log {
	loadLogConfig.Do(func() {
		logConfig = Log{}
		process("log", &logConfig)
	})
	return logConfig
}
