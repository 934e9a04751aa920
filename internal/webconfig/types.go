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

// Package webconfig implements the transactional bulk-update engine
// (C4): atomic/non-atomic multi-parameter execution with validation,
// backup/rollback and statistics.
package webconfig

import "time"

// ParamOp identifies the per-parameter operation inside a transaction.
type ParamOp string

const (
	ParamSet     ParamOp = "SET"
	ParamGet     ParamOp = "GET"
	ParamDelete  ParamOp = "DELETE"
	ParamReplace ParamOp = "REPLACE"
	ParamAdd     ParamOp = "ADD"
)

// Parameter is one line item of a Transaction.
type Parameter struct {
	Name      string  `json:"name" bson:"name"`
	Value     string  `json:"value,omitempty" bson:"value,omitempty"`
	DataType  int     `json:"dataType" bson:"dataType"`
	Operation ParamOp `json:"operation" bson:"operation"`
}

// Transaction is an ordered, named set of parameter operations
// executed with atomic or non-atomic semantics.
type Transaction struct {
	TransactionID string      `json:"transactionId" bson:"transactionId"`
	Parameters    []Parameter `json:"parameters" bson:"parameters"`
	Atomic        bool        `json:"atomic" bson:"atomic"`
	UserID        string      `json:"userId,omitempty" bson:"userId,omitempty"`
	Source        string      `json:"source,omitempty" bson:"source,omitempty"`
	Timestamp     time.Time   `json:"timestamp" bson:"timestamp"`
}

// Overall is the transaction-wide result status.
type Overall string

const (
	Pending Overall = "PENDING"
	Success Overall = "SUCCESS"
	Failure Overall = "FAILURE"
	Partial Overall = "PARTIAL"
	Timeout Overall = "TIMEOUT"
)

// PerParamStatus is an individual parameter's execution outcome.
type PerParamStatus string

const (
	ParamSuccess PerParamStatus = "SUCCESS"
	ParamFailure PerParamStatus = "FAILURE"
)

// PerParamResult records one parameter's execution outcome.
type PerParamResult struct {
	Name         string         `json:"name" bson:"name"`
	Status       PerParamStatus `json:"status" bson:"status"`
	ErrorCode    int            `json:"errorCode,omitempty" bson:"errorCode,omitempty"`
	ErrorMessage string         `json:"errorMessage,omitempty" bson:"errorMessage,omitempty"`
}

// Result is the outcome of executing a Transaction.
type Result struct {
	TransactionID  string           `json:"transactionId" bson:"transactionId"`
	Overall        Overall          `json:"overall" bson:"overall"`
	PerParam       []PerParamResult `json:"perParam" bson:"perParam"`
	CompletionTime time.Time        `json:"completionTime" bson:"completionTime"`
	RollbackRef    string           `json:"rollbackRef,omitempty" bson:"rollbackRef,omitempty"`
}

// Stats is the running counter set returned by Engine.Stats.
type Stats struct {
	Total              int64         `json:"total"`
	Successful         int64         `json:"successful"`
	Failed             int64         `json:"failed"`
	Partial            int64         `json:"partial"`
	RolledBack         int64         `json:"rolledBack"`
	TotalParameters    int64         `json:"totalParameters"`
	AvgTransactionTime time.Duration `json:"avgTransactionTime"`
}
