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

// Package uplink is the cloud-facing message loop (C6): it connects to
// the uplink transport, receives framed requests, translates the
// WebPA envelope into an internal request, dispatches through the
// protocol and WebConfig engines, and replies frame-type-preserving.
package uplink

import "github.com/xmidt-org/wrp-go/v3"

// FrameType mirrors the three uplink frame kinds the loop handles.
type FrameType int

const (
	FrameRequest  FrameType = iota // REQ
	FrameRetrieve                  // RETRIEVE
	FrameEvent                     // EVENT
)

func frameType(mt wrp.MessageType) FrameType {
	switch mt {
	case wrp.RetrieveMessageType:
		return FrameRetrieve
	case wrp.SimpleEventMessageType:
		return FrameEvent
	default:
		return FrameRequest
	}
}

func (f FrameType) wireType() wrp.MessageType {
	switch f {
	case FrameRetrieve:
		return wrp.RetrieveMessageType
	case FrameEvent:
		return wrp.SimpleEventMessageType
	default:
		return wrp.SimpleRequestResponseMessageType
	}
}

// AuthChecker is invoked once per received frame, at the uplink
// envelope boundary, per the bridge's resolution of the source's
// dormant ACL surface. It is not consulted again per dispatched
// operation.
type AuthChecker interface {
	Authorize(source, destination string) error
}

// AllowAll is the default AuthChecker: every frame passes. Wiring a
// stricter checker is a matter of constructing the Loop with a
// different implementation.
type AllowAll struct{}

func (AllowAll) Authorize(string, string) error { return nil }
