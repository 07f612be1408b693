package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentProcessor charges a user. Implementations are external providers;
// the storefront only sees a transaction id or a declined error.
type PaymentProcessor interface {
	Process(ctx context.Context, userID string, amount float64) (txID string, err error)
}

// SimulatedPaymentService stands in for the real payment provider. It
// succeeds at a configurable rate after a short artificial delay.
type SimulatedPaymentService struct {
	logger      *zap.Logger
	successRate float64
	minDelay    time.Duration
}

// NewSimulatedPaymentService creates a simulated payment processor
func NewSimulatedPaymentService(successRate float64) *SimulatedPaymentService {
	return &SimulatedPaymentService{
		logger:      util.GetLogger(),
		successRate: successRate,
		minDelay:    100 * time.Millisecond,
	}
}

// Process simulates charging the user for the given amount.
func (ps *SimulatedPaymentService) Process(ctx context.Context, userID string, amount float64) (string, error) {
	_, span := util.StartSpan(ctx, "SimulatedPaymentService.Process")
	defer span.End()

	util.PaymentAttemptsTotal.Inc()
	start := time.Now()
	defer func() {
		util.PaymentProcessingLatency.Observe(time.Since(start).Seconds())
	}()

	if ps.minDelay > 0 {
		time.Sleep(ps.minDelay + time.Duration(rand.Intn(300))*time.Millisecond)
	}

	if rand.Float64() >= ps.successRate {
		util.PaymentFailedTotal.Inc()
		ps.logger.Warn("Payment declined",
			zap.String("user_id", userID),
			zap.Float64("amount", amount))
		return "", ErrPaymentDeclined
	}

	txID := fmt.Sprintf("TXN-%s", uuid.New().String()[:8])
	util.PaymentSuccessTotal.Inc()
	ps.logger.Info("Payment succeeded",
		zap.String("user_id", userID),
		zap.Float64("amount", amount),
		zap.String("tx_id", txID))
	return txID, nil
}
