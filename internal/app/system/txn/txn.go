// internal/app/system/txn/txn.go

// Package txn runs multi-document writes inside a MongoDB transaction,
// committing on success and aborting on any failure. Deployments without
// replica sets (local standalone mongod) don't support transactions, so
// Run falls back to executing the function directly when the server
// reports that sessions/transactions are unavailable.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn within a MongoDB transaction. fn receives a session-bound
// context and must use it for every read and write that should be atomic.
//
// If the deployment does not support transactions, Run logs a warning once
// per call and executes fn without one. The writes are then only atomic
// per-document, which is acceptable for development setups.
func Run(ctx context.Context, db *mongo.Database, log *zap.Logger, fn func(ctx context.Context) error) error {
	client := db.Client()

	session, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			if log != nil {
				log.Warn("mongo sessions unavailable, running without transaction", zap.Error(err))
			}
			return fn(ctx)
		}
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		if log != nil {
			log.Warn("mongo transactions unavailable, running without transaction", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}

// notSupportedCodes are the server error codes returned when transactions
// are attempted against a deployment that cannot run them.
// 20 = IllegalOperation on standalone, 51 = illegal operation,
// 263 = OperationNotSupportedInTransaction.
var notSupportedCodes = map[int32]bool{20: true, 51: true, 263: true}

// IsNotSupported reports whether err indicates the deployment does not
// support sessions or transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) && notSupportedCodes[cmdErr.Code] {
		return true
	}

	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "transaction") {
		if strings.Contains(msg, "replica set") ||
			strings.Contains(msg, "not supported") ||
			strings.Contains(msg, "session") ||
			strings.Contains(msg, "illegal operation") {
			return true
		}
	}
	if strings.Contains(msg, "session") && strings.Contains(msg, "not supported") {
		return true
	}
	return false
}
