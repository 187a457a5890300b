package ledger

import (
	"context"
	"fmt"

	"github.com/cradoe/coinledger/internal/models"
	"github.com/cradoe/coinledger/internal/repository"
)

// FailureFunc is called once for every order ApplyOrders skips.
type FailureFunc func(index int, order models.Order, err error)

// ApplyOrders applies a batch of queued orders in one unit of work. Each
// order runs behind its own savepoint: an order that fails is rolled back to
// that savepoint, reported to onFailure and skipped, and the rest of the batch
// still commits. The returned error is non-nil only when the unit of work
// itself could not be used, in which case nothing was applied.
func (s *Service) ApplyOrders(ctx context.Context, orders []models.Order, onFailure FailureFunc) (int, error) {
	var applied int

	err := s.db.WithinUnitOfWork(ctx, func(ctx context.Context, uow repository.UnitOfWork) error {
		applied = 0

		for i, order := range orders {
			savepoint := fmt.Sprintf("order_%d", i)
			if err := uow.Savepoint(ctx, savepoint); err != nil {
				return err
			}

			if err := s.applyOrder(ctx, uow, order); err != nil {
				if rbErr := uow.RollbackToSavepoint(ctx, savepoint); rbErr != nil {
					return fmt.Errorf("rollback order %d: %w", i, rbErr)
				}
				if onFailure != nil {
					onFailure(i, order, err)
				}
				continue
			}

			applied++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return applied, nil
}

func (s *Service) applyOrder(ctx context.Context, uow repository.UnitOfWork, order models.Order) error {
	if err := order.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrValidationRejected, err)
	}

	_, err := s.trade(ctx, uow, order)
	return err
}
