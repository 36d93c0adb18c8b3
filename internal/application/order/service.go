package order

import (
	"context"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-settlement/internal/domain/cart"
	"github.com/Zhima-Mochi/minishop-settlement/internal/domain/inventory"
	domain "github.com/Zhima-Mochi/minishop-settlement/internal/domain/order"
	domoutbox "github.com/Zhima-Mochi/minishop-settlement/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-settlement/internal/domain/payment"
	"github.com/Zhima-Mochi/minishop-settlement/internal/pkg/keymutex"
	"github.com/Zhima-Mochi/minishop-settlement/internal/pkg/logging"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

const (
	componentWorkflow = "order_workflow"
	useCaseInitiate   = "order.initiate"
	useCaseSettle     = "order.settle"
	spanPrefix        = "UC."
)

// Metrics are supplied via DI; registration happens in main. Nil vecs are
// tolerated so tests can construct the service bare.
type Metrics struct {
	Requests        *prometheus.CounterVec   // usecase_requests_total{use_case,outcome}
	Durations       *prometheus.HistogramVec // usecase_duration_seconds{use_case}
	GatewayRequests *prometheus.CounterVec   // gateway_requests_total{endpoint,outcome}
}

// Service is the order settlement workflow. It composes the order,
// inventory and cart stores with the payment gateway and exposes the two
// operations of the order state machine: InitiateOrder and SettlePayment.
type Service struct {
	orders    domain.Repository
	products  inventory.Repository
	carts     cart.Repository
	gateway   payment.Gateway
	idGen     IDGenerator
	publisher domoutbox.Publisher
	currency  string
	metrics   Metrics

	orderLocks   *keymutex.KeyMutex
	productLocks *keymutex.KeyMutex
}

func NewService(
	orders domain.Repository,
	products inventory.Repository,
	carts cart.Repository,
	gateway payment.Gateway,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	currency string,
	metrics Metrics,
) *Service {
	if currency == "" {
		currency = "USD"
	}
	return &Service{
		orders:       orders,
		products:     products,
		carts:        carts,
		gateway:      gateway,
		idGen:        idGen,
		publisher:    publisher,
		currency:     currency,
		metrics:      metrics,
		orderLocks:   keymutex.New(),
		productLocks: keymutex.New(),
	}
}

type InitiateOrderInput struct {
	UserID  string
	CartID  string
	Items   []domain.LineItem
	Address domain.Address
}

type InitiateOrderResult struct {
	OrderID     string
	ApprovalURL string
}

// InitiateOrder validates the batch, creates a gateway payment intent for
// the normalized total and persists a pending/pending order carrying the
// intent id. Validation and gateway failures abort before any persistence.
func (s *Service) InitiateOrder(ctx context.Context, in InitiateOrderInput) (_ *InitiateOrderResult, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", componentWorkflow),
		zap.String("use_case", useCaseInitiate),
	)
	ctx, finish := s.track(ctx, useCaseInitiate, "InitiateOrder",
		attribute.String("order.user_id", in.UserID),
	)
	defer func() { finish(err) }()

	if in.UserID == "" {
		return nil, newValidation("user id is required")
	}
	if in.Address.Address == "" || in.Address.City == "" {
		return nil, newValidation("address info is required")
	}

	batch, err := normalizeItems(in.Items, s.currency)
	if err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, payment.CreateIntentRequest{
		Total:    batch.Total,
		Currency: s.currency,
		Items:    batch.Items,
	})
	s.countGateway("create_intent", err)
	if err != nil {
		logger.Error("intent_create_failed", zap.Error(err))
		return nil, err
	}

	entity, err := domain.New(s.idGen.NewID(), in.UserID, in.CartID, in.Items, in.Address, batch.TotalCents, intent.ID)
	if err != nil {
		return nil, fmt.Errorf("order: construct: %w", err)
	}

	if err := s.orders.Create(ctx, entity); err != nil {
		// The intent already exists gateway-side; it is not cancelled here
		// and expires on its own. The log line is the reconciliation trail.
		logger.Error("order_create_failed_after_intent",
			zap.String("payment_id", intent.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("order: create: %w", err)
	}

	s.publish(ctx, logger, domain.NewOrderCreatedEvent(entity))

	logger.Info("order_initiated",
		zap.String("order_id", entity.ID),
		zap.String("payment_id", intent.ID),
		zap.String("total", batch.Total),
	)
	return &InitiateOrderResult{OrderID: entity.ID, ApprovalURL: intent.ApprovalURL}, nil
}

type SettlePaymentInput struct {
	OrderID   string
	PaymentID string
	PayerID   string
}

type SettlePaymentResult struct {
	OrderStatus    domain.Status
	PaymentStatus  domain.PaymentStatus
	PaymentDetails *domain.PaymentDetails
}

// SettlePayment executes the gateway intent and, on approval, reconciles
// inventory item by item before finalizing the order. Invocations for the
// same order serialize on a per-order lock; an order already in the paid
// state replays its existing result without touching the gateway or stock.
func (s *Service) SettlePayment(ctx context.Context, in SettlePaymentInput) (_ *SettlePaymentResult, err error) {
	logger := logging.FromContext(ctx).With(
		zap.String("component", componentWorkflow),
		zap.String("use_case", useCaseSettle),
		zap.String("order_id", in.OrderID),
	)
	ctx, finish := s.track(ctx, useCaseSettle, "SettlePayment",
		attribute.String("order.id", in.OrderID),
	)
	defer func() { finish(err) }()

	if in.OrderID == "" {
		return nil, newValidation("order id is required")
	}
	if in.PayerID == "" {
		return nil, newValidation("payer id is required")
	}

	s.orderLocks.Lock(in.OrderID)
	defer s.orderLocks.Unlock(in.OrderID)

	o, err := s.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	if o.Settled() {
		logger.Info("settle_replayed", zap.String("payment_id", o.PaymentID))
		return settleResult(o), nil
	}

	if in.PaymentID != "" && in.PaymentID != o.PaymentID {
		return nil, newValidation("payment id %q does not belong to order %s", in.PaymentID, o.ID)
	}

	capture, err := s.gateway.Execute(ctx, o.PaymentID, in.PayerID)
	s.countGateway("execute", err)
	if err != nil {
		// Transport or gateway-reported failure before any mutation; the
		// order stays pending and the shopper may retry.
		logger.Error("execute_failed", zap.String("payment_id", o.PaymentID), zap.Error(err))
		return nil, err
	}
	if capture.State != payment.StateApproved {
		logger.Warn("payment_not_approved",
			zap.String("payment_id", o.PaymentID),
			zap.String("state", capture.State),
		)
		return nil, &NotApprovedError{State: capture.State}
	}

	// Funds are captured from here on. Every failure below leaves the
	// system in the captured-but-unsettled state and is reported as such;
	// earlier bucket decrements are not rolled back.
	for _, item := range o.Items {
		if derr := s.deductItem(ctx, item); derr != nil {
			logger.Error("settlement_halted_after_capture",
				zap.String("payment_id", capture.PaymentID),
				zap.String("product_id", item.ProductID),
				zap.String("size", item.Size),
				zap.Error(derr),
			)
			return nil, &CapturedUnsettledError{
				OrderID:   o.ID,
				PaymentID: capture.PaymentID,
				Stage:     "inventory",
				ProductID: item.ProductID,
				Size:      item.Size,
				Err:       derr,
			}
		}
	}

	details := domain.PaymentDetails{
		PaymentID: capture.PaymentID,
		State:     capture.State,
		Method:    o.PaymentMethod,
		PaidAt:    time.Now().UTC(),
	}
	if merr := o.MarkPaid(in.PayerID, details); merr != nil {
		return nil, &CapturedUnsettledError{OrderID: o.ID, PaymentID: capture.PaymentID, Stage: "order_state", Err: merr}
	}
	if serr := s.orders.Save(ctx, o); serr != nil {
		logger.Error("order_save_failed_after_capture",
			zap.String("payment_id", capture.PaymentID),
			zap.Error(serr),
		)
		return nil, &CapturedUnsettledError{OrderID: o.ID, PaymentID: capture.PaymentID, Stage: "order_save", Err: serr}
	}

	// Cart removal is best-effort; the order is already settled.
	if o.CartID != "" {
		if cerr := s.carts.DeleteByID(ctx, o.CartID); cerr != nil {
			logger.Warn("cart_delete_failed", zap.String("cart_id", o.CartID), zap.Error(cerr))
		}
	}

	s.publish(ctx, logger, domain.NewOrderSettledEvent(o))

	logger.Info("order_settled",
		zap.String("payment_id", capture.PaymentID),
		zap.String("order_status", string(o.Status)),
	)
	return settleResult(o), nil
}

// deductItem removes one line item's quantity from its size bucket. The
// store's DeductStock is atomic; the per-product lock additionally keeps
// in-process retries of distinct orders from interleaving on hot products.
func (s *Service) deductItem(ctx context.Context, item domain.LineItem) error {
	s.productLocks.Lock(item.ProductID)
	defer s.productLocks.Unlock(item.ProductID)

	if err := s.products.DeductStock(ctx, item.ProductID, item.Size, item.Quantity); err != nil {
		return fmt.Errorf("product %q size %q: %w", item.Title, item.Size, err)
	}
	return nil
}

func settleResult(o *domain.Order) *SettlePaymentResult {
	res := &SettlePaymentResult{
		OrderStatus:   o.Status,
		PaymentStatus: o.PaymentStatus,
	}
	if o.PaymentDetails != nil {
		d := *o.PaymentDetails
		res.PaymentDetails = &d
	}
	return res
}

func (s *Service) publish(ctx context.Context, logger *zap.Logger, e domoutbox.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		logger.Warn("event_publish_failed", zap.String("event", e.EventName()), zap.Error(err))
	}
}

// track opens a span and returns a finish func that records the span
// status, request counter and duration histogram for the use case.
func (s *Service) track(ctx context.Context, useCase, spanName string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	tracer := otel.Tracer(componentWorkflow)
	ctx, span := tracer.Start(ctx, spanPrefix+spanName)
	span.SetAttributes(append(attrs, attribute.String("use_case", useCase))...)
	start := time.Now()

	return ctx, func(err error) {
		outcome := "success"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		} else {
			span.SetStatus(codes.Ok, "OK")
		}
		span.End()

		if s.metrics.Requests != nil {
			s.metrics.Requests.WithLabelValues(useCase, outcome).Inc()
		}
		if s.metrics.Durations != nil {
			s.metrics.Durations.WithLabelValues(useCase).Observe(time.Since(start).Seconds())
		}
	}
}

func (s *Service) countGateway(endpoint string, err error) {
	if s.metrics.GatewayRequests == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.metrics.GatewayRequests.WithLabelValues(endpoint, outcome).Inc()
}
