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

// ParamChangeData is the payload for a TypeParamChange notification.
type ParamChangeData struct {
	ParamName string `json:"paramName"`
	OldValue  string `json:"oldValue"`
	NewValue  string `json:"newValue"`
	DataType  int    `json:"dataType"`
	WriteID   string `json:"writeID,omitempty"`
}

// ConnectedClientData is the payload for a TypeConnectedClient notification.
type ConnectedClientData struct {
	MacID     string `json:"macId"`
	Status    string `json:"status"` // "Online" or "Offline"
	Interface string `json:"interface,omitempty"`
	Hostname  string `json:"hostname,omitempty"`
	IPAddress string `json:"ipAddress,omitempty"`
}

// TransactionStatusData is the payload for a TypeTransactionStatus notification.
type TransactionStatusData struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
}

// DeviceStatusData backs TypeDeviceStatus, TypeFactoryReset and TypeFirmwareUpgrade.
type DeviceStatusData struct {
	StatusCode int    `json:"statusCode"`
	Reason     string `json:"reason,omitempty"`
	DeviceID   string `json:"deviceId,omitempty"`
}
