package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"mise/internal/core/apperror"
	"mise/internal/core/clock"
	appctx "mise/internal/core/context"
	"mise/internal/core/entity"
	"mise/internal/core/id"
	"mise/internal/core/tx"
	"mise/internal/core/types"
	"mise/internal/domain/audit"
	"mise/pkg/logger"
)

// LotSource issues sequential lot codes for batches received without a
// supplier reference.
type LotSource interface {
	NextLotCode(ctx context.Context) (string, error)
}

// Service implements batch ledger operations. All writes run inside a
// transaction; FIFO consumption locks the batch rows it plans against
// so concurrent consumers of the same ingredient serialize.
type Service struct {
	repo  Repository
	txm   tx.Manager
	audit audit.Recorder
	lots  LotSource
	clk   clock.Clock
}

// NewService creates a ledger service.
func NewService(repo Repository, txm tx.Manager, rec audit.Recorder, lots LotSource, clk clock.Clock) *Service {
	return &Service{
		repo:  repo,
		txm:   txm,
		audit: rec,
		lots:  lots,
		clk:   clk,
	}
}

// Receive registers a new batch and its In movement.
func (s *Service) Receive(ctx context.Context, req ReceiveRequest) (*entity.InventoryBatch, error) {
	if !req.Quantity.IsPositive() {
		return nil, apperror.NewInvalidQuantity("quantity", req.Quantity.String())
	}
	if !req.UnitCost.IsPositive() {
		return nil, apperror.NewInvalidPrice("unitCost", int64(req.UnitCost))
	}

	receivedAt := req.ReceivedAt
	if receivedAt.IsZero() {
		receivedAt = s.clk.Now()
	}

	batch := entity.NewInventoryBatch(
		req.TenantID, req.IngredientID,
		req.Quantity, req.UnitCost,
		receivedAt, req.ExpiresAt,
	)
	batch.SupplierRef = req.SupplierRef

	if req.SupplierRef != nil && *req.SupplierRef != "" {
		batch.LotCode = *req.SupplierRef
	} else {
		code, err := s.lots.NextLotCode(ctx)
		if err != nil {
			return nil, fmt.Errorf("generate lot code: %w", err)
		}
		batch.LotCode = code
	}

	if err := batch.Validate(ctx); err != nil {
		return nil, err
	}

	movement := entity.NewInventoryMovement(
		req.TenantID, batch.ID, req.IngredientID,
		entity.MovementIn, req.Quantity, req.UnitCost,
		nil, nil,
	)

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.CreateBatch(ctx, batch); err != nil {
			return fmt.Errorf("create batch: %w", err)
		}
		if err := s.repo.CreateMovements(ctx, []entity.InventoryMovement{movement}); err != nil {
			return fmt.Errorf("create receipt movement: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "batch received",
		"batch_id", batch.ID,
		"ingredient_id", req.IngredientID,
		"lot_code", batch.LotCode,
		"quantity", req.Quantity.String(),
	)
	return batch, nil
}

// Consume draws the requested quantity FIFO across active batches.
// Either the full quantity is consumed or nothing changes: the plan is
// checked against locked rows before any batch is touched, and an
// unsatisfiable request rolls the transaction back.
func (s *Service) Consume(ctx context.Context, req ConsumeRequest) (*ConsumptionResult, error) {
	if !req.Quantity.IsPositive() {
		return nil, apperror.NewInvalidQuantity("quantity", req.Quantity.String())
	}
	movType := req.Type
	if movType == "" {
		movType = entity.MovementOutSale
	}
	if !movType.IsOutbound() {
		return nil, apperror.NewValidation("consumption requires an outbound movement type").
			WithDetail("field", "type").
			WithDetail("value", string(movType))
	}

	var result *ConsumptionResult
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		batches, err := s.repo.ActiveBatchesFIFOForUpdate(ctx, req.TenantID, req.IngredientID)
		if err != nil {
			return fmt.Errorf("lock batches: %w", err)
		}

		plan := planFIFO(batches, req.Quantity)
		if !plan.Satisfied {
			return apperror.NewInsufficientStock(
				req.IngredientID.String(),
				req.Quantity.String(),
				plan.Available.String(),
			)
		}

		byID := make(map[id.ID]*entity.InventoryBatch, len(batches))
		for _, b := range batches {
			byID[b.ID] = b
		}

		movements := make([]entity.InventoryMovement, 0, len(plan.Draws))
		for _, draw := range plan.Draws {
			batch := byID[draw.BatchID]
			if err := batch.Draw(draw.Quantity); err != nil {
				return err
			}
			if err := s.repo.UpdateBatchState(ctx, batch); err != nil {
				return fmt.Errorf("update batch %s: %w", batch.ID, err)
			}
			movements = append(movements, entity.NewInventoryMovement(
				req.TenantID, draw.BatchID, req.IngredientID,
				movType, draw.Quantity.Neg(), draw.UnitCost,
				req.Reference, nil,
			))
		}
		if err := s.repo.CreateMovements(ctx, movements); err != nil {
			return fmt.Errorf("create movements: %w", err)
		}

		result = &ConsumptionResult{
			IngredientID:     req.IngredientID,
			Requested:        req.Quantity,
			Draws:            plan.Draws,
			TotalCost:        types.NewMinorUnitsFromDecimal(plan.TotalCost),
			WeightedUnitCost: weightedUnitCost(plan.TotalCost, req.Quantity),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "stock consumed",
		"ingredient_id", req.IngredientID,
		"quantity", req.Quantity.String(),
		"batches", len(result.Draws),
		"total_cost", int64(result.TotalCost),
	)
	return result, nil
}

// Adjust applies a signed correction to a single batch and records the
// adjustment movement with its reason.
func (s *Service) Adjust(ctx context.Context, req AdjustRequest) (*entity.InventoryBatch, error) {
	if req.Delta.IsZero() {
		return nil, apperror.NewInvalidQuantity("delta", req.Delta.String())
	}
	if req.Reason == "" {
		return nil, apperror.NewValidation("adjustment requires a reason").
			WithDetail("field", "reason")
	}

	var batch *entity.InventoryBatch
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.repo.GetBatchForUpdate(ctx, req.TenantID, req.BatchID)
		if err != nil {
			return err
		}

		if req.Delta.IsNegative() {
			err = batch.Draw(req.Delta.Abs())
		} else {
			err = batch.Restore(req.Delta)
		}
		if err != nil {
			return err
		}

		if err := s.repo.UpdateBatchState(ctx, batch); err != nil {
			return fmt.Errorf("update batch: %w", err)
		}

		reason := req.Reason
		movement := entity.NewInventoryMovement(
			req.TenantID, batch.ID, batch.IngredientID,
			entity.MovementAdjustment, req.Delta, batch.UnitCost,
			nil, &reason,
		)
		if err := movement.Validate(); err != nil {
			return err
		}
		return s.repo.CreateMovements(ctx, []entity.InventoryMovement{movement})
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, req.TenantID, "batch.adjust", batch.ID, map[string]any{
		"delta":     req.Delta.String(),
		"reason":    req.Reason,
		"remaining": batch.RemainingQty.String(),
	})
	return batch, nil
}

// Archive retires a batch from circulation. Remaining stock on an
// archived batch is no longer consumable.
func (s *Service) Archive(ctx context.Context, tenantID, batchID id.ID) (*entity.InventoryBatch, error) {
	var batch *entity.InventoryBatch
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		batch, err = s.repo.GetBatchForUpdate(ctx, tenantID, batchID)
		if err != nil {
			return err
		}
		if err := batch.Archive(); err != nil {
			return err
		}
		return s.repo.UpdateBatchState(ctx, batch)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, tenantID, "batch.archive", batch.ID, map[string]any{
		"remaining": batch.RemainingQty.String(),
		"lot_code":  batch.LotCode,
	})
	return batch, nil
}

// WriteOffExpired drains every active batch whose expiry date is in the
// past, recording an OutExpire movement per batch. The expired rows are
// locked before reading so a concurrent drain cannot be overwritten.
func (s *Service) WriteOffExpired(ctx context.Context, tenantID id.ID) (*WriteOffResult, error) {
	today := s.clk.Now()
	result := &WriteOffResult{}

	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		batches, err := s.repo.ExpiredBatchesForUpdate(ctx, tenantID, startOfDay(today))
		if err != nil {
			return fmt.Errorf("lock expired batches: %w", err)
		}

		totalCost := decimal.Zero
		var movements []entity.InventoryMovement
		for _, b := range batches {
			qty := b.RemainingQty
			if !qty.IsPositive() {
				continue
			}
			if err := b.Draw(qty); err != nil {
				return err
			}
			if err := s.repo.UpdateBatchState(ctx, b); err != nil {
				return fmt.Errorf("update batch %s: %w", b.ID, err)
			}
			movements = append(movements, entity.NewInventoryMovement(
				tenantID, b.ID, b.IngredientID,
				entity.MovementOutExpire, qty.Neg(), b.UnitCost,
				nil, nil,
			))
			result.BatchesWrittenOff++
			result.TotalQuantity += qty
			totalCost = totalCost.Add(qty.Decimal().Mul(b.UnitCost.Decimal()))
		}

		if len(movements) == 0 {
			return nil
		}
		result.TotalCost = types.NewMinorUnitsFromDecimal(totalCost)
		return s.repo.CreateMovements(ctx, movements)
	})
	if err != nil {
		return nil, err
	}

	if result.BatchesWrittenOff > 0 {
		logger.Warn(ctx, "expired stock written off",
			"batches", result.BatchesWrittenOff,
			"quantity", result.TotalQuantity.String(),
			"cost", int64(result.TotalCost),
		)
	}
	return result, nil
}

// ExpiryOverview classifies active batches by expiry urgency. Fresh
// batches are omitted; the overview is an action list, not a census.
func (s *Service) ExpiryOverview(ctx context.Context, tenantID id.ID) ([]BatchExpiry, error) {
	status := entity.BatchActive
	batches, err := s.repo.ListBatches(ctx, tenantID, BatchFilter{Status: &status})
	if err != nil {
		return nil, err
	}

	today := s.clk.Now()
	overview := make([]BatchExpiry, 0)
	for _, b := range batches {
		st := b.ExpiryStatusAt(today)
		if st == entity.ExpiryFresh {
			continue
		}
		overview = append(overview, BatchExpiry{Batch: b, Status: st})
	}
	return overview, nil
}

// GetBatch returns a single batch.
func (s *Service) GetBatch(ctx context.Context, tenantID, batchID id.ID) (*entity.InventoryBatch, error) {
	return s.repo.GetBatch(ctx, tenantID, batchID)
}

// ListBatches returns batches matching the filter.
func (s *Service) ListBatches(ctx context.Context, tenantID id.ID, filter BatchFilter) ([]*entity.InventoryBatch, error) {
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	return s.repo.ListBatches(ctx, tenantID, filter)
}

// MovementHistory returns the movement log for an ingredient.
func (s *Service) MovementHistory(ctx context.Context, tenantID, ingredientID id.ID, filter MovementFilter) ([]entity.InventoryMovement, error) {
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	return s.repo.MovementsByIngredient(ctx, tenantID, ingredientID, filter)
}

// BatchMovements returns the movement log for one batch.
func (s *Service) BatchMovements(ctx context.Context, tenantID, batchID id.ID) ([]entity.InventoryMovement, error) {
	return s.repo.MovementsByBatch(ctx, tenantID, batchID)
}

// startOfDay truncates an instant to its UTC calendar date. A batch is
// expired when its expiry timestamp falls before this cutoff.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// record writes an audit entry. Audit failures are logged, never
// propagated: the business change already committed.
func (s *Service) record(ctx context.Context, tenantID id.ID, action string, entityID id.ID, changes map[string]any) {
	actor := appctx.GetUserID(ctx)
	entry := audit.NewEntry(tenantID, action, "inventory_batch", entityID, actor, changes)
	if err := s.audit.Record(ctx, entry); err != nil {
		logger.Error(ctx, "audit record failed", "action", action, "error", err)
	}
}
