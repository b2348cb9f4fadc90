package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/playvault/services/payment/internal/models"
	"github.com/Skotchmaster/playvault/services/payment/internal/repo"
	"github.com/Skotchmaster/playvault/services/payment/internal/transport"
)

// ReviewGateway is the admin entry point. It refuses non-admin callers before touching the
// store, so a refusal says nothing about whether the target exists.
type ReviewGateway struct {
	Svc *PaymentService
}

func requireAdmin(caller Caller) error {
	if !caller.IsAdmin() {
		return fmt.Errorf("%w: admin access required", ErrAuth)
	}
	return nil
}

func (g *ReviewGateway) Approve(ctx context.Context, caller Caller, paymentID string) (*models.Payment, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return g.Svc.Approve(ctx, paymentID)
}

func (g *ReviewGateway) Reject(ctx context.Context, caller Caller, paymentID string) (*models.Payment, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return g.Svc.Reject(ctx, paymentID)
}

func (g *ReviewGateway) ListUnderReview(ctx context.Context, caller Caller, page, size int) (*transport.Page[models.Payment], error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return g.Svc.ListUnderReview(ctx, page, size)
}

func (g *ReviewGateway) Resume(ctx context.Context, caller Caller) (int, error) {
	if err := requireAdmin(caller); err != nil {
		return 0, err
	}
	return g.Svc.ResumeApproved(ctx)
}

func (g *ReviewGateway) DeleteOrder(ctx context.Context, caller Caller, ref string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	return g.Svc.DeleteOrder(ctx, ref)
}

func (g *ReviewGateway) GetConfig(ctx context.Context, caller Caller) (*models.PaymentConfig, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return g.Svc.GetConfig(ctx)
}

func (g *ReviewGateway) UpdateConfig(ctx context.Context, caller Caller, req transport.ConfigRequest) (*models.PaymentConfig, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return g.Svc.UpdateConfig(ctx, req)
}

func (g *ReviewGateway) Orders(ctx context.Context, caller Caller, page, size int) (*transport.Page[transport.AdminOrderView], error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return g.Svc.AdminOrders(ctx, page, size)
}

func (g *ReviewGateway) Stats(ctx context.Context, caller Caller) (*repo.Stats, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	return g.Svc.Stats(ctx)
}
