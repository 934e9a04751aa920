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

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// AuditRecord is the persisted history document for one completed
// transaction, stored so operators can inspect WebConfig activity
// after the fact independent of the in-memory Stats counters.
type AuditRecord struct {
	TransactionID  string           `bson:"transactionId"`
	Atomic         bool             `bson:"atomic"`
	UserID         string           `bson:"userId,omitempty"`
	Source         string           `bson:"source,omitempty"`
	Overall        Overall          `bson:"overall"`
	PerParam       []PerParamResult `bson:"perParam"`
	RollbackRef    string           `bson:"rollbackRef,omitempty"`
	CreatedAt      time.Time        `bson:"createdAt"`
	CompletionTime time.Time        `bson:"completionTime"`
}

// AuditStore persists transaction history to Mongo and retires old
// records on a ticker, mirroring the retention-cleanup idiom used
// elsewhere for transactional state.
type AuditStore struct {
	col    *mongo.Collection
	log    *zap.Logger
	period time.Duration

	mu       sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewAuditStore opens the audit collection. uri/dbName follow the
// config.Database settings; collection name is fixed at
// "webconfig_transactions".
func NewAuditStore(ctx context.Context, uri, dbName string, log *zap.Logger) (*AuditStore, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	col := client.Database(dbName).Collection("webconfig_transactions")
	return &AuditStore{col: col, log: log, stopCh: make(chan struct{})}, nil
}

// Record persists tx's outcome, tagged with the originating
// transaction's atomicity/user/source metadata.
func (s *AuditStore) Record(ctx context.Context, tx Transaction, result Result) error {
	rec := AuditRecord{
		TransactionID:  result.TransactionID,
		Atomic:         tx.Atomic,
		UserID:         tx.UserID,
		Source:         tx.Source,
		Overall:        result.Overall,
		PerParam:       result.PerParam,
		RollbackRef:    result.RollbackRef,
		CreatedAt:      time.Now(),
		CompletionTime: result.CompletionTime,
	}
	if _, err := s.col.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert audit record %s: %w", result.TransactionID, err)
	}
	return nil
}

// StartRetention runs a cleanup loop that deletes audit records older
// than retentionPeriod every cleanupInterval, until Stop is called.
func (s *AuditStore) StartRetention(retentionPeriod, cleanupInterval time.Duration) {
	s.period = retentionPeriod
	ticker := time.NewTicker(cleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n, err := s.runCleanup(context.Background()); err != nil {
					s.log.Warn("audit retention cleanup failed", zap.Error(err))
				} else if n > 0 {
					s.log.Info("audit retention cleanup", zap.Int64("deleted", n))
				}
			case <-s.stopCh:
				return
			}
		}
	}()
}

func (s *AuditStore) runCleanup(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.period)
	res, err := s.col.DeleteMany(ctx, bson.M{"createdAt": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete old audit records: %w", err)
	}
	return res.DeletedCount, nil
}

// Stop ends the retention loop. Safe to call multiple times.
func (s *AuditStore) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

// NotifyTransaction implements TransactionSink, persisting every
// completed transaction as it happens.
type transactionRecorder struct {
	store *AuditStore
}

func (r *transactionRecorder) NotifyTransaction(ctx context.Context, tx Transaction, result Result) {
	if err := r.store.Record(ctx, tx, result); err != nil {
		r.store.log.Warn("failed to record transaction audit", zap.Error(err))
	}
}

// AsTransactionSink adapts an AuditStore to the TransactionSink
// interface the Engine's RegisterTransactionSink expects.
func (s *AuditStore) AsTransactionSink() TransactionSink {
	return &transactionRecorder{store: s}
}
