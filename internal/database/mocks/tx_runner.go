package mocks

import (
	"context"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
)

// TxRunner 直接執行 fn，tx 為 nil；搭配 repository mocks 使用
type TxRunner struct {
	calls atomic.Int64
}

func NewTxRunner() *TxRunner {
	return &TxRunner{}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	r.calls.Add(1)
	return fn(nil)
}

func (r *TxRunner) Calls() int {
	return int(r.calls.Load())
}
