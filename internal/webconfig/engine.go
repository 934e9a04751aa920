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
package webconfig

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/apierr"
	"github.com/xmidt-bridge/parodus-rbus-bridge/internal/shadow"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/cache"
	"github.com/xmidt-bridge/parodus-rbus-bridge/pkg/downlink"
)

// ParamChangeSink receives a notification every time a transaction
// parameter is successfully SET/REPLACE/ADD/DELETE-d.
type ParamChangeSink interface {
	NotifyParamChange(ctx context.Context, name, oldValue, newValue string, dataType int)
}

// TransactionSink receives the final result of a completed transaction,
// alongside the originating transaction it was computed from.
type TransactionSink interface {
	NotifyTransaction(ctx context.Context, tx Transaction, result Result)
}

// Engine is the WebConfig transactional engine (C4).
type Engine struct {
	adapter downlink.Adapter
	cache   *cache.Cache
	shadow  *shadow.Store
	log     *zap.Logger

	maxTransactionSize int
	backupDir          string
	rollbackEnabled    bool
	transactionTimeout time.Duration

	paramSink ParamChangeSink
	txSinks   []TransactionSink

	mu      sync.Mutex
	backups map[string]backupDoc

	statsMu  sync.Mutex
	stats    Stats
	totalDur time.Duration
}

// Config bundles Engine's tunables, mirroring config.WebConfig.
type Config struct {
	MaxTransactionSize int
	BackupDir          string
	RollbackEnabled    bool
	TransactionTimeout time.Duration
}

// New wires a WebConfig Engine.
func New(adapter downlink.Adapter, c *cache.Cache, shadowStore *shadow.Store, cfg Config, log *zap.Logger) *Engine {
	return &Engine{
		adapter:             adapter,
		cache:               c,
		shadow:              shadowStore,
		log:                 log,
		maxTransactionSize:  cfg.MaxTransactionSize,
		backupDir:           cfg.BackupDir,
		rollbackEnabled:     cfg.RollbackEnabled,
		transactionTimeout:  cfg.TransactionTimeout,
		backups:             make(map[string]backupDoc),
	}
}

// RegisterParamSink wires the param-change notification hook.
func (e *Engine) RegisterParamSink(s ParamChangeSink) { e.paramSink = s }

// RegisterTransactionSink adds a transaction-status notification hook.
// Multiple sinks (e.g. the notification pipeline and the audit store)
// may be registered; all are invoked on completion.
func (e *Engine) RegisterTransactionSink(s TransactionSink) { e.txSinks = append(e.txSinks, s) }

// ValidateTransaction rejects oversized transactions, empty names, and
// mutating operations with no value.
func (e *Engine) ValidateTransaction(tx Transaction) error {
	if e.maxTransactionSize > 0 && len(tx.Parameters) > e.maxTransactionSize {
		return fmt.Errorf("transaction has %d parameters, max is %d: %w", len(tx.Parameters), e.maxTransactionSize, apierr.ErrInvalidInput)
	}
	for _, p := range tx.Parameters {
		if p.Name == "" {
			return fmt.Errorf("parameter with empty name: %w", apierr.ErrInvalidInput)
		}
		switch p.Operation {
		case ParamSet, ParamReplace, ParamAdd:
			if p.Value == "" {
				return fmt.Errorf("parameter %s requires a value for op %s: %w", p.Name, p.Operation, apierr.ErrInvalidInput)
			}
		}
	}
	return nil
}

// Execute runs tx per the §4.4 protocol: validate, optionally backup,
// execute parameters in order, roll back on first failure when atomic.
func (e *Engine) Execute(ctx context.Context, tx Transaction) Result {
	start := time.Now()
	e.statsMu.Lock()
	e.stats.Total++
	e.stats.TotalParameters += int64(len(tx.Parameters))
	e.statsMu.Unlock()

	if err := e.ValidateTransaction(tx); err != nil {
		result := Result{TransactionID: tx.TransactionID, Overall: Failure, CompletionTime: time.Now()}
		e.recordFailure()
		e.notifyTransaction(ctx, tx, result)
		return result
	}

	if e.transactionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.transactionTimeout)
		defer cancel()
	}

	var backupName string
	if e.rollbackEnabled {
		backupName = "tx_" + tx.TransactionID
		if _, err := e.createBackup(ctx, backupName, tx); err != nil {
			e.log.Warn("backup creation failed", zap.String("transactionId", tx.TransactionID), zap.Error(err))
		}
	}

	var perParam []PerParamResult
	successCount, failureCount := 0, 0

	for _, p := range tx.Parameters {
		if ctx.Err() != nil {
			perParam = append(perParam, PerParamResult{Name: p.Name, Status: ParamFailure, ErrorCode: apierr.StatusInternalServerError, ErrorMessage: "transaction timed out"})
			failureCount++
			if tx.Atomic {
				break
			}
			continue
		}
		res := e.executeParam(ctx, p)
		perParam = append(perParam, res)
		if res.Status == ParamSuccess {
			successCount++
		} else {
			failureCount++
			if tx.Atomic {
				break
			}
		}
	}

	var overall Overall
	var rollbackRef string
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		overall = Timeout
		if e.rollbackEnabled {
			if err := e.restoreBackup(context.Background(), backupName); err != nil {
				e.log.Warn("rollback failed", zap.String("transactionId", tx.TransactionID), zap.Error(err))
			} else {
				rollbackRef = backupName
				e.recordRollback()
			}
		}
	case tx.Atomic && failureCount > 0:
		overall = Failure
		if e.rollbackEnabled {
			if err := e.restoreBackup(ctx, backupName); err != nil {
				e.log.Warn("rollback failed", zap.String("transactionId", tx.TransactionID), zap.Error(err))
			} else {
				rollbackRef = backupName
				e.recordRollback()
			}
		}
	case successCount == 0:
		overall = Failure
	case failureCount == 0:
		overall = Success
	default:
		overall = Partial
	}

	result := Result{
		TransactionID:  tx.TransactionID,
		Overall:        overall,
		PerParam:       perParam,
		CompletionTime: time.Now(),
		RollbackRef:    rollbackRef,
	}

	e.recordOutcome(overall, time.Since(start))
	e.notifyTransaction(ctx, tx, result)
	return result
}

func (e *Engine) executeParam(ctx context.Context, p Parameter) PerParamResult {
	switch p.Operation {
	case ParamAdd:
		if old, _, err := e.adapter.Get(ctx, p.Name); err == nil && old != "" {
			return PerParamResult{Name: p.Name, Status: ParamFailure, ErrorCode: apierr.StatusConflict, ErrorMessage: "Parameter already exists"}
		}
		return e.setAndNotify(ctx, p.Name, p.Value, p.DataType)
	case ParamSet, ParamReplace:
		return e.setAndNotify(ctx, p.Name, p.Value, p.DataType)
	case ParamDelete:
		old := e.shadow.Previous(p.Name)
		if err := e.adapter.Set(ctx, p.Name, ""); err != nil {
			return PerParamResult{Name: p.Name, Status: ParamFailure, ErrorCode: apierr.CodeFor(err), ErrorMessage: err.Error()}
		}
		e.cache.Delete(p.Name)
		e.shadow.Observe(p.Name, "")
		if e.paramSink != nil {
			e.paramSink.NotifyParamChange(ctx, p.Name, old, "", p.DataType)
		}
		return PerParamResult{Name: p.Name, Status: ParamSuccess}
	case ParamGet:
		if _, _, err := e.adapter.Get(ctx, p.Name); err != nil {
			return PerParamResult{Name: p.Name, Status: ParamFailure, ErrorCode: apierr.CodeFor(err), ErrorMessage: err.Error()}
		}
		return PerParamResult{Name: p.Name, Status: ParamSuccess}
	default:
		return PerParamResult{Name: p.Name, Status: ParamFailure, ErrorCode: apierr.StatusBadRequest, ErrorMessage: "unknown operation"}
	}
}

func (e *Engine) setAndNotify(ctx context.Context, name, value string, dataType int) PerParamResult {
	old := e.shadow.Previous(name)
	if err := e.adapter.Set(ctx, name, value); err != nil {
		return PerParamResult{Name: name, Status: ParamFailure, ErrorCode: apierr.CodeFor(err), ErrorMessage: err.Error()}
	}
	e.cache.Delete(name)
	e.shadow.Observe(name, value)
	if e.paramSink != nil {
		e.paramSink.NotifyParamChange(ctx, name, old, value, dataType)
	}
	return PerParamResult{Name: name, Status: ParamSuccess}
}

func (e *Engine) notifyTransaction(ctx context.Context, tx Transaction, result Result) {
	for _, sink := range e.txSinks {
		sink.NotifyTransaction(ctx, tx, result)
	}
}

func (e *Engine) recordFailure() {
	e.statsMu.Lock()
	e.stats.Failed++
	e.statsMu.Unlock()
}

func (e *Engine) recordRollback() {
	e.statsMu.Lock()
	e.stats.RolledBack++
	e.statsMu.Unlock()
}

func (e *Engine) recordOutcome(overall Overall, d time.Duration) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	switch overall {
	case Success:
		e.stats.Successful++
	case Partial:
		e.stats.Partial++
	case Failure, Timeout:
		e.stats.Failed++
	}
	e.totalDur += d
	n := e.stats.Successful + e.stats.Failed + e.stats.Partial
	if n > 0 {
		e.stats.AvgTransactionTime = e.totalDur / time.Duration(n)
	}
}

// Stats returns a point-in-time copy of the running counters.
func (e *Engine) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// BulkGet runs a read-only GET transaction over names through Execute,
// so validation and (when rollback is enabled) the backup step apply as
// for any transaction. The Result reports per-name success or failure
// only; it does not carry the values read.
func (e *Engine) BulkGet(ctx context.Context, names []string) Result {
	params := make([]Parameter, len(names))
	for i, n := range names {
		params[i] = Parameter{Name: n, Operation: ParamGet}
	}
	return e.Execute(ctx, Transaction{TransactionID: "bulkget-" + uuid.NewString(), Parameters: params})
}

// BulkSet executes a same-value-type SET across names/values pairs.
func (e *Engine) BulkSet(ctx context.Context, params []Parameter, atomic bool) Result {
	for i := range params {
		params[i].Operation = ParamSet
	}
	return e.Execute(ctx, Transaction{TransactionID: "bulkset-" + uuid.NewString(), Parameters: params, Atomic: atomic})
}

// BulkDelete executes a DELETE across names.
func (e *Engine) BulkDelete(ctx context.Context, names []string, atomic bool) Result {
	params := make([]Parameter, len(names))
	for i, n := range names {
		params[i] = Parameter{Name: n, Operation: ParamDelete}
	}
	return e.Execute(ctx, Transaction{TransactionID: "bulkdelete-" + uuid.NewString(), Parameters: params, Atomic: atomic})
}

// CreateBackup exposes a named, on-demand backup outside of a
// transaction's implicit backup.
func (e *Engine) CreateBackup(ctx context.Context, name string, tx Transaction) error {
	_, err := e.createBackup(ctx, name, tx)
	return err
}

// RestoreBackup restores a previously created named backup.
func (e *Engine) RestoreBackup(ctx context.Context, name string) error {
	return e.restoreBackup(ctx, name)
}
