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
package downlink

import "context"

// Adapter is the contract the protocol and WebConfig engines use to
// reach the device-parameter bus. All methods must be safe for
// concurrent use; implementations own their internal locking.
type Adapter interface {
	// Open registers the adapter under componentName. Must be called
	// once before any other method.
	Open(ctx context.Context, componentName string) error

	// Close releases the bus handle. Idempotent.
	Close() error

	// Get reads a single named parameter.
	Get(ctx context.Context, name string) (value string, dataType TypeCode, err error)

	// Set writes a single named parameter in string form.
	Set(ctx context.Context, name, value string) error

	// ExpandWildcard enumerates the children of a trailing-dot prefix.
	// Returns apierr.ErrInvalidInput if prefix does not end in ".".
	ExpandWildcard(ctx context.Context, prefix string) ([]string, error)

	// AddTableRow creates a new numbered row instance under tableName
	// and submits each field in rowData, returning the new row's full
	// name. Per-field set failures are logged, not fatal.
	AddTableRow(ctx context.Context, tableName string, rowData []Row) (newRowName string, err error)

	// DeleteTableRow removes a single row by its full name.
	DeleteTableRow(ctx context.Context, fullRowName string) error

	// ReplaceTable deletes the existing rows of tableName (best effort)
	// then adds each of rows in order, failing fast on the first add
	// error.
	ReplaceTable(ctx context.Context, tableName string, rows [][]Row) error

	// GetAttributes returns the side-table attributes for name.
	GetAttributes(ctx context.Context, name string) (Attributes, error)

	// SetAttributes stores the side-table attributes for name.
	SetAttributes(ctx context.Context, name string, attrs Attributes) error

	// Subscribe registers sink to receive events matching eventName.
	Subscribe(ctx context.Context, eventName string, sink EventSink) error

	// Unsubscribe removes a previously registered subscription.
	Unsubscribe(ctx context.Context, eventName string) error
}
