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
package event

// Type identifies the kind of notification emitted toward the uplink.
type Type string

const (
	// TypeParamChange fires when a watched parameter's value changes.
	TypeParamChange Type = "param-change"

	// TypeConnectedClient fires when a Device.Hosts.Host.* row is created or removed.
	TypeConnectedClient Type = "connected-client"

	// TypeTransactionStatus fires when a WebConfig transaction completes.
	TypeTransactionStatus Type = "transaction-status"

	// TypeDeviceStatus fires on device-level lifecycle changes.
	TypeDeviceStatus Type = "device-status"

	// TypeFactoryReset fires when the device signals a factory reset.
	TypeFactoryReset Type = "factory-reset"

	// TypeFirmwareUpgrade fires when the device signals a firmware upgrade.
	TypeFirmwareUpgrade Type = "firmware-upgrade"
)

func (t Type) String() string {
	return string(t)
}

// Source identifies the bridge subsystem that originated a notification.
type Source string

const (
	SourceBridge Source = "urn:bridge:engine"
)

func (s Source) String() string {
	return string(s)
}
