package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-agua/internal/common"
	"github.com/noah-isme/backend-agua/internal/events"
	"github.com/noah-isme/backend-agua/internal/obs"
)

// Task types processed by the worker.
const (
	TypeLowStockAlert = "stock:low_alert"
)

// LowStockPayload is the payload of a low-stock alert task.
type LowStockPayload struct {
	ProductID int64  `json:"product_id"`
	Product   string `json:"product"`
	StockFull int64  `json:"stock_full"`
}

// NewLowStockTask builds the asynq task for a low-stock alert.
func NewLowStockTask(payload LowStockPayload) (*asynq.Task, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal low stock payload: %w", err)
	}
	return asynq.NewTask(TypeLowStockAlert, raw, asynq.MaxRetry(5)), nil
}

// Enqueuer bridges the event bus to the task queue. It subscribes to the
// stock.low topic and enqueues one alert task per event.
type Enqueuer struct {
	Client *asynq.Client
	Log    zerolog.Logger
}

var _ events.Subscriber = (*Enqueuer)(nil)

// Notify implements events.Subscriber.
func (e *Enqueuer) Notify(ctx context.Context, topic string, payload []byte) {
	if topic != events.TopicStockLow {
		return
	}
	var p LowStockPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		e.Log.Error().Err(err).Msg("low stock payload decode failed")
		return
	}
	task, err := NewLowStockTask(p)
	if err != nil {
		e.Log.Error().Err(err).Msg("low stock task build failed")
		return
	}
	if _, err := e.Client.EnqueueContext(ctx, task); err != nil {
		e.Log.Error().Err(err).Int64("product_id", p.ProductID).Msg("low stock task enqueue failed")
		return
	}
	obs.LowStockAlertsTotal.Inc()
}

// LowStockHandler processes low-stock alert tasks on the worker.
type LowStockHandler struct {
	Email      common.EmailSender
	AlertEmail string
	Log        zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h *LowStockHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	var p LowStockPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	h.Log.Warn().
		Int64("product_id", p.ProductID).
		Str("product", p.Product).
		Int64("stock_full", p.StockFull).
		Msg("low stock alert")

	if h.Email == nil || h.AlertEmail == "" {
		return nil
	}
	subject := fmt.Sprintf("Low stock: %s", p.Product)
	body := fmt.Sprintf("Product %q (id %d) is down to %d full units.", p.Product, p.ProductID, p.StockFull)
	if err := h.Email.Send(ctx, h.AlertEmail, subject, body); err != nil {
		return fmt.Errorf("send alert email: %w", err)
	}
	return nil
}

// NewServeMux registers all worker handlers.
func NewServeMux(lowStock *LowStockHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TypeLowStockAlert, lowStock)
	return mux
}
