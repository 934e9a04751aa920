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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// backupEntry is one parameter's pre-transaction value, snapshotted
// so atomic rollback can restore real state rather than a placeholder.
type backupEntry struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	DataType int    `json:"dataType"`
	Existed  bool   `json:"existed"`
}

type backupDoc struct {
	BackupName string        `json:"backup_name"`
	Timestamp  time.Time     `json:"timestamp"`
	Parameters []backupEntry `json:"parameters"`
}

// createBackup snapshots the current value of every named parameter
// in tx, writing the result to <backupDir>/<name>.backup.
func (e *Engine) createBackup(ctx context.Context, name string, tx Transaction) (backupDoc, error) {
	doc := backupDoc{BackupName: name, Timestamp: time.Now()}
	for _, p := range tx.Parameters {
		v, t, err := e.adapter.Get(ctx, p.Name)
		if err != nil {
			doc.Parameters = append(doc.Parameters, backupEntry{Name: p.Name, Existed: false})
			continue
		}
		doc.Parameters = append(doc.Parameters, backupEntry{Name: p.Name, Value: v, DataType: int(t), Existed: true})
	}

	if e.backupDir != "" {
		if err := os.MkdirAll(e.backupDir, 0o755); err != nil {
			return doc, fmt.Errorf("create backup dir: %w", err)
		}
		b, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return doc, fmt.Errorf("marshal backup %s: %w", name, err)
		}
		path := filepath.Join(e.backupDir, name+".backup")
		if err := os.WriteFile(path, b, 0o644); err != nil {
			return doc, fmt.Errorf("write backup %s: %w", path, err)
		}
	}

	e.mu.Lock()
	e.backups[name] = doc
	e.mu.Unlock()
	return doc, nil
}

// restoreBackup writes every snapshotted parameter's prior value back
// through the adapter. Parameters that did not exist before the
// transaction are left alone: the source bus protocol offers no
// generic delete-by-name for arbitrary scalars.
func (e *Engine) restoreBackup(ctx context.Context, name string) error {
	e.mu.Lock()
	doc, ok := e.backups[name]
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("no backup named %s", name)
	}
	for _, entry := range doc.Parameters {
		if !entry.Existed {
			continue
		}
		if err := e.adapter.Set(ctx, entry.Name, entry.Value); err != nil {
			e.log.Warn("rollback set failed", zap.String("param", entry.Name), zap.Error(err))
			continue
		}
		e.cache.Delete(entry.Name)
		e.shadow.Observe(entry.Name, entry.Value)
	}
	return nil
}
