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

// Package apierr defines the error taxonomy shared by the downlink
// adapter, protocol engine and WebConfig engine, and maps it onto the
// HTTP-like status codes returned to the uplink.
package apierr

import "errors"

// Sentinel errors. Wrap these with fmt.Errorf("...: %w", ErrX) at the
// point of failure so callers can recover the taxonomy with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrPrecondition = errors.New("precondition failed")
	ErrTransport    = errors.New("transport error")
	ErrUnavailable  = errors.New("unavailable")
	ErrTimeout      = errors.New("timeout")
	ErrLocked       = errors.New("locked")
	ErrTooMany      = errors.New("too many requests")
	ErrNotImplemented = errors.New("not implemented")
	ErrInternal     = errors.New("internal error")
)

// Status codes, HTTP-aligned per the protocol engine's status table.
const (
	StatusOK                  = 200
	StatusPartial             = 207
	StatusBadRequest          = 400
	StatusForbidden           = 403
	StatusNotFound            = 404
	StatusConflict            = 409
	StatusPreconditionFailed  = 412
	StatusUnprocessable       = 422
	StatusRequestTimeout      = 408
	StatusLocked              = 423
	StatusTooManyRequests     = 429
	StatusInternalServerError = 500
	StatusNotImplemented      = 501
	StatusServiceUnavailable  = 503
)

// CodeFor maps a taxonomy error to its HTTP-like status code. A nil
// error or one that matches no sentinel maps to 200 or 500
// respectively, per ok.
func CodeFor(err error) int {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrInvalidInput):
		return StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrForbidden):
		return StatusForbidden
	case errors.Is(err, ErrConflict):
		return StatusConflict
	case errors.Is(err, ErrPrecondition):
		return StatusPreconditionFailed
	case errors.Is(err, ErrTimeout):
		return StatusRequestTimeout
	case errors.Is(err, ErrLocked):
		return StatusLocked
	case errors.Is(err, ErrTooMany):
		return StatusTooManyRequests
	case errors.Is(err, ErrNotImplemented):
		return StatusNotImplemented
	case errors.Is(err, ErrUnavailable):
		return StatusServiceUnavailable
	case errors.Is(err, ErrTransport):
		return StatusInternalServerError
	default:
		return StatusInternalServerError
	}
}
