package enforcers

import (
	"context"

	"github.com/pkg/errors"

	"github.com/cyphera/delegation-core/execution"
)

var (
	ErrInvalidExecution = errors.New("ExactExecutionBatchEnforcer:invalid-execution")
	ErrInvalidBatchSize = errors.New("ExactExecutionBatchEnforcer:invalid-batch-size")
)

// ExactExecutionBatchEnforcer pins a batch redemption to an exact list of
// executions: same count, same order, and equal target, value and
// calldata for every entry. Terms are the ABI-encoded expected batch.
type ExactExecutionBatchEnforcer struct {
	noHooks
}

func NewExactExecutionBatchEnforcer() *ExactExecutionBatchEnforcer {
	return &ExactExecutionBatchEnforcer{}
}

func (e *ExactExecutionBatchEnforcer) BeforeHook(_ context.Context, req HookRequest) error {
	if err := execution.RequireBatchDefault(req.Mode); err != nil {
		return err
	}

	expected, err := execution.DecodeBatch(req.Terms)
	if err != nil {
		return errors.Wrap(ErrInvalidExecution, "malformed terms batch")
	}
	if len(expected) == 0 {
		return ErrInvalidBatchSize
	}

	actual, err := execution.DecodeBatch(req.ExecutionCallData)
	if err != nil {
		return err
	}
	if len(actual) != len(expected) {
		return ErrInvalidBatchSize
	}

	for i := range actual {
		if !actual[i].Equal(expected[i]) {
			return ErrInvalidExecution
		}
	}
	return nil
}
