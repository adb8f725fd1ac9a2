package ledger

import (
	"errors"
	"fmt"

	"github.com/provenanceworks/tracelot/pkg/types"
)

// Engine coordinates all ledger operations against a Store. Construct
// with New; the zero value is not usable.
type Engine struct {
	store types.Store
	cfg   types.Config
	locks *lotLocks
}

// New creates an Engine over an opened store.
func New(store types.Store, cfg types.Config) *Engine {
	return &Engine{
		store: store,
		cfg:   cfg,
		locks: newLotLocks(),
	}
}

// withRetry runs fn, retrying when it reports a concurrent modification.
// The retry bound comes from the config; the last error is surfaced once
// the bound is exhausted. Any other error aborts immediately.
func (e *Engine) withRetry(fn func() error) error {
	var err error
	attempts := e.cfg.GetWriteMaxRetries() + 1
	for i := 0; i < attempts; i++ {
		err = fn()
		if err == nil || !errors.Is(err, types.ErrConcurrentModification) {
			return err
		}
	}
	return fmt.Errorf("write lost to concurrent modifications %d times: %w", attempts, err)
}
