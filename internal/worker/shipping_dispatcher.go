package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lunchpad/orderengine/internal/domain/model"
)

// ShippingFacade exposes the subset of application functionality required by the dispatcher.
type ShippingFacade interface {
	PendingShipments(ctx context.Context, limit int) ([]model.ShippingOrder, error)
	MarkShipmentDispatched(ctx context.Context, shippingOrderID int64) error
}

// DispatchPublisher hands shipment events to the fulfillment collaborator.
type DispatchPublisher interface {
	PublishShipmentDispatch(ctx context.Context, ev model.ShipmentDispatch) error
}

// ShippingDispatcher polls pending shipping orders and hands them off to the
// external fulfillment service concurrently.
type ShippingDispatcher struct {
	facade       ShippingFacade
	publisher    DispatchPublisher
	pollInterval time.Duration
	batchSize    int
	workers      int
	logger       *slog.Logger

	jobs   chan model.ShippingOrder
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewShippingDispatcher constructs the dispatcher worker pool.
func NewShippingDispatcher(facade ShippingFacade, publisher DispatchPublisher, pollInterval time.Duration, batchSize, workers int, logger *slog.Logger) *ShippingDispatcher {
	if workers <= 0 {
		workers = 1
	}
	if batchSize <= 0 {
		batchSize = 1
	}
	return &ShippingDispatcher{
		facade:       facade,
		publisher:    publisher,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		workers:      workers,
		logger:       logger,
		jobs:         make(chan model.ShippingOrder, batchSize*workers),
	}
}

// Start launches background processing.
func (d *ShippingDispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	defer d.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(runCtx)
	}

	d.wg.Add(1)
	go d.dispatch(runCtx)
}

// Stop waits for all workers to finish.
func (d *ShippingDispatcher) Stop() {
	d.mu.Lock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.mu.Unlock()

	d.wg.Wait()
}

func (d *ShippingDispatcher) dispatch(ctx context.Context) {
	defer d.wg.Done()
	defer close(d.jobs)
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.fetchAndDispatch(ctx)
		}
	}
}

func (d *ShippingDispatcher) fetchAndDispatch(ctx context.Context) {
	shipments, err := d.facade.PendingShipments(ctx, d.batchSize)
	if err != nil {
		d.logger.Error("fetch pending shipments failed", slog.String("error", err.Error()))
		return
	}
	for _, shipment := range shipments {
		select {
		case <-ctx.Done():
			return
		case d.jobs <- shipment:
		}
	}
}

func (d *ShippingDispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case shipment, ok := <-d.jobs:
			if !ok {
				return
			}
			d.handleShipment(ctx, shipment)
		}
	}
}

func (d *ShippingDispatcher) handleShipment(ctx context.Context, shipment model.ShippingOrder) {
	ev := model.ShipmentDispatch{
		EventID:         uuid.NewString(),
		ShippingOrderID: shipment.ID,
		OrderID:         shipment.OrderID,
		UserID:          shipment.UserID,
		Fee:             shipment.Fee,
	}

	if err := d.publisher.PublishShipmentDispatch(ctx, ev); err != nil {
		// Stays dispatching and gets re-picked on a later poll.
		d.logger.Error("publish shipment dispatch failed",
			slog.Int64("shipping_order", shipment.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	if err := d.facade.MarkShipmentDispatched(ctx, shipment.ID); err != nil {
		d.logger.Error("mark shipment dispatched failed",
			slog.Int64("shipping_order", shipment.ID),
			slog.String("error", err.Error()),
		)
	}
}
