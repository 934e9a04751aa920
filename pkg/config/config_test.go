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
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Config(t *testing.T) {
	t.Run("correctly parse uplink environment variables", func(t *testing.T) {
		t.Setenv("UPLINK_PARODUS_URL", "tcp://10.0.0.1:6666")
		t.Setenv("UPLINK_COMPONENT", "test-component")
		res := GetConf(nil).Uplink
		assert.Equal(t, "tcp://10.0.0.1:6666", res.ParodusURL)
		assert.Equal(t, "test-component", res.Component)
	})
	t.Run("correctly parse database environment variables", func(t *testing.T) {
		t.Setenv("DB_URI", "mongodb://127.0.0.1:27017")
		t.Setenv("DB_NAME", "thisDB")
		res := GetConf(nil).Database
		assert.Equal(t, "mongodb://127.0.0.1:27017", res.Uri)
		assert.Equal(t, "thisDB", res.Name)
	})
	t.Run("correctly parse log environment variables", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "3")
		t.Setenv("LOG_FORMAT", "development")
		res := GetConf(nil).Log
		assert.Equal(t, 3, res.Level)
		assert.Equal(t, "development", res.Format)
	})
	t.Run("CLI flags override environment for component and mode", func(t *testing.T) {
		t.Setenv("UPLINK_COMPONENT", "env-component")
		component := "flag-component"
		mode := "mock"
		level := 2
		res := GetConf(&Flags{Component: &component, Mode: &mode, LogLevel: &level})
		assert.Equal(t, "flag-component", res.Uplink.Component)
		assert.Equal(t, "mock", res.Mode)
		assert.Equal(t, 2, res.Log.Level)
	})
	t.Run("defaults to parodus mode when no flags given", func(t *testing.T) {
		res := GetConf(nil)
		assert.Equal(t, "parodus", res.Mode)
	})
	t.Run("defaults uplink component to the bus client identity", func(t *testing.T) {
		res := GetConf(nil)
		assert.Equal(t, "parodus2rbus.client", res.Uplink.Component)
	})
	t.Run("component and service-name flags default as documented", func(t *testing.T) {
		fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags := BindFlags(fs)
		require.NoError(t, fs.Parse(nil))
		assert.Equal(t, "parodus2rbus.client", *flags.Component)
		assert.Equal(t, "config", *flags.ServiceName)
		assert.Equal(t, "", *flags.OtlpEndpoint, "metrics export is opt-in")
	})
}

func TestGetLogConfig(t *testing.T) {
	t.Run("reads the singleton log config", func(t *testing.T) {
		res := GetLogConfig()
		assert.NotNil(t, res)
	})
}
