// Package fulfillment moves stock between two ledgers on behalf of an order.
//
// A fulfillment either transfers the full order quantity and ships the order,
// or leaves both ledgers exactly as they were and cancels it. The only other
// outcome is a RollbackError, raised when the compensating re-store fails.
package fulfillment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/supplychain/pkg/domain/entities"
	"github.com/vsinha/supplychain/pkg/domain/ledger"
	"github.com/vsinha/supplychain/pkg/infrastructure/events"
	"github.com/vsinha/supplychain/pkg/infrastructure/metrics"
)

// Result is the terminal view of a fulfilled or cancelled order
type Result struct {
	Order entities.OrderRecord
	// Reason holds the ledger error that caused a cancellation
	Reason error
}

// Shipped reports whether the stock move completed
func (r Result) Shipped() bool {
	return r.Order.Status == entities.Shipped
}

// stockSession is the part of ledger.Session the coordinator mutates through
type stockSession interface {
	Store(productID entities.ProductID, quantity entities.Quantity) error
	Retrieve(productID entities.ProductID, quantity entities.Quantity) error
}

type pairLocker func(src, dst *ledger.Ledger, fn func(src, dst stockSession) error) error

func lockLedgers(src, dst *ledger.Ledger, fn func(src, dst stockSession) error) error {
	return ledger.LockPair(src, dst, func(s, d *ledger.Session) error {
		return fn(s, d)
	})
}

// Coordinator performs cross-ledger transfers as single units of work
type Coordinator struct {
	publisher events.Publisher
	recorder  metrics.Recorder
	logger    *zap.Logger
	lockPair  pairLocker
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithPublisher publishes order and inventory events after each commit
func WithPublisher(p events.Publisher) Option {
	return func(c *Coordinator) { c.publisher = p }
}

// WithRecorder reports fulfillment outcomes
func WithRecorder(r metrics.Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithLogger sets the structured logger
func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// NewCoordinator creates a coordinator; without options it neither publishes,
// records nor logs
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		recorder: metrics.Nop{},
		logger:   zap.NewNop(),
		lockPair: lockLedgers,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Fulfill transfers order.Quantity() of order.ProductID() from source to dest.
//
// A Pending order is moved to Processing first. Under both ledger locks the
// quantity is retrieved from source and stored into dest; if the store fails
// the quantity is put back into source before the locks are released. Once the
// locks are released the order becomes Shipped or Cancelled.
//
// Stock shortages and capacity problems are not returned as errors: they
// cancel the order and are reported in Result.Reason. Fulfill returns an error
// when the order cannot start processing (its status is not Pending or
// Processing), when the re-store fails (a *entities.RollbackError, after
// cancelling the order), or when publishing events fails.
func (c *Coordinator) Fulfill(ctx context.Context, order *entities.Order, source, dest *ledger.Ledger) (Result, error) {
	if order == nil || source == nil || dest == nil {
		return Result{}, fmt.Errorf("fulfill: order and both ledgers are required")
	}

	log := c.logger.With(
		zap.String("order_id", string(order.ID())),
		zap.String("product_id", string(order.ProductID())),
		zap.Int64("quantity", int64(order.Quantity())),
		zap.String("source", source.Name()),
		zap.String("destination", dest.Name()),
	)

	if order.Status() == entities.Pending {
		if err := order.Transition(entities.Processing); err != nil {
			return Result{Order: order.Describe()}, err
		}
	}
	if status := order.Status(); status != entities.Processing {
		return Result{Order: order.Describe()}, fmt.Errorf("%w: order %s is %s, cannot fulfill",
			entities.ErrInvalidTransition, order.ID(), status)
	}

	if err := ctx.Err(); err != nil {
		return c.cancel(log, order, source, err, false)
	}

	var (
		reason     error
		rolledBack bool
	)
	err := c.lockPair(source, dest, func(src, dst stockSession) error {
		productID, qty := order.ProductID(), order.Quantity()
		if err := src.Retrieve(productID, qty); err != nil {
			reason = err
			return nil
		}
		if err := dst.Store(productID, qty); err != nil {
			reason = err
			if restoreErr := src.Store(productID, qty); restoreErr != nil {
				return &entities.RollbackError{
					OrderID:    order.ID(),
					ProductID:  productID,
					Quantity:   qty,
					StoreErr:   err,
					RestoreErr: restoreErr,
				}
			}
			rolledBack = true
		}
		return nil
	})

	var rollbackErr *entities.RollbackError
	if errors.As(err, &rollbackErr) {
		if tErr := order.Transition(entities.Cancelled); tErr != nil {
			err = errors.Join(err, tErr)
		}
		log.Error("fulfillment rollback failed, inventory accounting lost", zap.Error(err))
		c.recorder.RecordFulfillment(metrics.OutcomeRollbackFailed, order.Quantity())
		return Result{Order: order.Describe(), Reason: rollbackErr.StoreErr}, err
	}
	if err != nil {
		return c.cancel(log, order, source, err, false)
	}
	if reason != nil {
		return c.cancel(log, order, source, reason, rolledBack)
	}

	if err := order.Transition(entities.Shipped); err != nil {
		return Result{Order: order.Describe()}, err
	}
	record := order.Describe()
	log.Info("order shipped")
	c.recorder.RecordFulfillment(metrics.OutcomeShipped, order.Quantity())

	pubErr := c.publish(string(record.ProductID),
		events.NewInventoryTransferredEvent(record, source.Name(), dest.Name()))
	pubErr = errors.Join(pubErr, c.publish(string(record.ID), events.NewOrderShippedEvent(record)))
	return Result{Order: record}, pubErr
}

func (c *Coordinator) cancel(
	log *zap.Logger,
	order *entities.Order,
	source *ledger.Ledger,
	reason error,
	rolledBack bool,
) (Result, error) {
	if err := order.Transition(entities.Cancelled); err != nil {
		return Result{Order: order.Describe(), Reason: reason}, err
	}
	record := order.Describe()
	log.Warn("order cancelled", zap.Error(reason), zap.Bool("rolled_back", rolledBack))
	c.recorder.RecordFulfillment(metrics.OutcomeCancelled, order.Quantity())

	var pubErr error
	if rolledBack {
		pubErr = c.publish(string(record.ProductID), events.NewInventoryRolledBackEvent(record, source.Name(), reason))
	}
	pubErr = errors.Join(pubErr, c.publish(string(record.ID), events.NewOrderCancelledEvent(record, reason)))
	return Result{Order: record, Reason: reason}, pubErr
}

func (c *Coordinator) publish(streamID string, event events.Event) error {
	if c.publisher == nil {
		return nil
	}
	if err := c.publisher.AppendEvent(streamID, event); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type(), err)
	}
	return nil
}
