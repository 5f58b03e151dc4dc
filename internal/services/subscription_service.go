package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"lojinha/internal/models/db_models"
	"lojinha/internal/models/request_models"
	"lojinha/internal/repositories"
	"lojinha/pkg/utils"
)

type SubscriptionConfig struct {
	// ExpiringWindowDays is how close to the end date a subscription starts
	// reporting "expiring".
	ExpiringWindowDays int
	// PendingTTL is the grace period for signups that never paid. Pending
	// subscriptions older than this are cancelled by the sweep.
	PendingTTL time.Duration
	// MaxPaymentAttempts payment attempts per AttemptWindow per store.
	MaxPaymentAttempts int
	AttemptWindow      time.Duration
}

func (c *SubscriptionConfig) withDefaults() SubscriptionConfig {
	out := *c
	if out.ExpiringWindowDays <= 0 {
		out.ExpiringWindowDays = 5
	}
	if out.PendingTTL <= 0 {
		out.PendingTTL = 48 * time.Hour
	}
	if out.MaxPaymentAttempts <= 0 {
		out.MaxPaymentAttempts = 3
	}
	if out.AttemptWindow <= 0 {
		out.AttemptWindow = 24 * time.Hour
	}
	return out
}

type CreateSubscriptionOptions struct {
	// Status overrides the default active status (pending renewal flows).
	Status    db_models.SubscriptionStatus
	StartsAt  int64 // unix seconds; zero means now
	AutoRenew bool
}

type SubscriptionServiceInterface interface {
	GetCurrentByStore(ctx context.Context, storeID uuid.UUID) (*db_models.Subscription, error)
	Create(ctx context.Context, storeID, planID uuid.UUID, opts CreateSubscriptionOptions) (*db_models.Subscription, error)
	Renew(ctx context.Context, subscriptionID uuid.UUID, req request_models.RenewSubscriptionRequest) (*db_models.Subscription, error)
	CreateRenewalPayment(ctx context.Context, userID, storeID uuid.UUID, req request_models.CreateRenewalPaymentRequest) (*db_models.Payment, error)
	UpdateStatusesForAll(ctx context.Context)
	Suspend(ctx context.Context, subscriptionID uuid.UUID) (*db_models.Subscription, error)
	Activate(ctx context.Context, subscriptionID uuid.UUID) (*db_models.Subscription, error)

	// Store gate
	IsActiveSubscription(sub *db_models.Subscription) bool
	AssertStoreIsActive(ctx context.Context, storeID uuid.UUID) (bool, error)
}

type subscriptionService struct {
	subscriptionRepo repositories.ISubscriptionRepository
	planRepo         repositories.IPlanRepository
	storeRepo        repositories.IStoreRepository
	paymentRepo      repositories.IPaymentRepository
	ledger           PaymentService
	mail             IMailService
	transactor       repositories.Transactor
	cfg              SubscriptionConfig
}

func NewSubscriptionService(
	subscriptionRepo repositories.ISubscriptionRepository,
	planRepo repositories.IPlanRepository,
	storeRepo repositories.IStoreRepository,
	paymentRepo repositories.IPaymentRepository,
	ledger PaymentService,
	mail IMailService,
	transactor repositories.Transactor,
	cfg SubscriptionConfig,
) SubscriptionServiceInterface {
	return &subscriptionService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		storeRepo:        storeRepo,
		paymentRepo:      paymentRepo,
		ledger:           ledger,
		mail:             mail,
		transactor:       transactor,
		cfg:              cfg.withDefaults(),
	}
}

// ResolveStatus derives the time-based status of a subscription at a given
// instant. Pure: no reads, no writes, same inputs always yield the same
// output.
//
// Pending, suspended and cancelled are sticky: they are only exited by
// explicit action, never by the passage of time.
func ResolveStatus(sub *db_models.Subscription, now time.Time, expiringWindowDays int) db_models.SubscriptionStatus {
	switch sub.Status {
	case db_models.SubStatusPending, db_models.SubStatusSuspended, db_models.SubStatusCancelled:
		return sub.Status
	}

	nowUnix := now.Unix()
	if nowUnix > sub.EndsAt {
		return db_models.SubStatusExpired
	}
	if sub.Status == db_models.SubStatusTrial {
		return db_models.SubStatusTrial
	}
	if sub.EndsAt-nowUnix <= int64(expiringWindowDays)*utils.SecondsPerDay {
		return db_models.SubStatusExpiring
	}
	return db_models.SubStatusActive
}

func (s *subscriptionService) resolve(sub *db_models.Subscription, now time.Time) db_models.SubscriptionStatus {
	return ResolveStatus(sub, now, s.cfg.ExpiringWindowDays)
}

func (s *subscriptionService) GetCurrentByStore(ctx context.Context, storeID uuid.UUID) (*db_models.Subscription, error) {
	sub, err := s.subscriptionRepo.GetCurrentByStore(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, nil
	}

	now := time.Now()
	resolved := s.resolve(sub, now)
	if resolved != sub.Status {
		// Write-on-change only, to avoid needless contention with the sweep.
		if err := s.subscriptionRepo.UpdateStatus(ctx, sub.ID, resolved); err != nil {
			return nil, err
		}
		sub.Status = resolved
	}

	desiredOpen := resolved != db_models.SubStatusPending &&
		resolved != db_models.SubStatusExpired &&
		resolved != db_models.SubStatusCancelled &&
		now.Unix() <= sub.EndsAt

	store, err := s.storeRepo.GetByID(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if store != nil && store.Open != desiredOpen {
		if err := s.storeRepo.SetOpen(ctx, storeID, desiredOpen); err != nil {
			return nil, err
		}
	}

	return sub, nil
}

func (s *subscriptionService) Create(ctx context.Context, storeID, planID uuid.UUID, opts CreateSubscriptionOptions) (*db_models.Subscription, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.Enabled {
		return nil, utils.ErrPlanInvalid
	}

	startsAt := opts.StartsAt
	if startsAt == 0 {
		startsAt = time.Now().Unix()
	}
	status := opts.Status
	if status == "" {
		status = db_models.SubStatusActive
	}

	sub := &db_models.Subscription{
		StoreID:   storeID,
		PlanID:    plan.ID,
		Status:    status,
		StartsAt:  startsAt,
		EndsAt:    utils.AddDays(startsAt, plan.DurationDays),
		AutoRenew: opts.AutoRenew,
	}
	if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
		return nil, err
	}
	sub.Plan = *plan
	return sub, nil
}

func (s *subscriptionService) Renew(ctx context.Context, subscriptionID uuid.UUID, req request_models.RenewSubscriptionRequest) (*db_models.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}
	if sub.Status == db_models.SubStatusSuspended {
		// Suspended stores go through support, not self-service renewal.
		return nil, utils.ErrSubscriptionSuspended
	}

	plan := &sub.Plan
	if req.PlanID != nil {
		plan, err = s.planRepo.GetByID(ctx, *req.PlanID)
		if err != nil {
			return nil, err
		}
		if plan == nil || !plan.Enabled {
			return nil, utils.ErrPlanInvalid
		}
	}

	// Renewing early extends from the original expiry, renewing late extends
	// from now. No double-counting, no loss of remaining paid time.
	now := time.Now().Unix()
	base := sub.EndsAt
	if now > base {
		base = now
	}

	sub.PlanID = plan.ID
	sub.EndsAt = utils.AddDays(base, plan.DurationDays)
	sub.Status = db_models.SubStatusActive
	sub.ReminderStage = 0
	if req.AutoRenew != nil {
		sub.AutoRenew = *req.AutoRenew
	}

	if err := s.subscriptionRepo.Update(ctx, sub); err != nil {
		return nil, err
	}
	sub.Plan = *plan
	return sub, nil
}

func (s *subscriptionService) CreateRenewalPayment(ctx context.Context, userID, storeID uuid.UUID, req request_models.CreateRenewalPaymentRequest) (*db_models.Payment, error) {
	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil || !plan.Enabled {
		return nil, utils.ErrPlanInvalid
	}

	var payment *db_models.Payment
	err = s.transactor.Do(ctx, func(ctx context.Context) error {
		// The store row lock serializes concurrent intent creation for the
		// same store; the reuse and rate-limit checks must run under it.
		store, err := s.storeRepo.GetByIDForUpdate(ctx, storeID)
		if err != nil {
			return err
		}
		if store == nil {
			return utils.ErrStoreNotFound
		}

		now := time.Now()

		// A live pending intent is simply handed back: the operation is
		// idempotent by construction.
		pending, err := s.paymentRepo.GetPendingByStore(ctx, storeID)
		if err != nil {
			return err
		}
		if pending != nil {
			if !pending.Expired(now.Unix()) {
				payment = pending
				return nil
			}
			if err := s.paymentRepo.MarkFailed(ctx, pending.ID); err != nil {
				return err
			}
		}

		since := now.Add(-s.cfg.AttemptWindow).Unix()
		attempts, err := s.paymentRepo.CountByStoreSince(ctx, storeID, since)
		if err != nil {
			return err
		}
		if attempts >= int64(s.cfg.MaxPaymentAttempts) {
			return utils.ErrTooManyPaymentAttempts
		}

		// Placeholder subscription: end date == start date until the payment
		// is confirmed, at which point the ledger sets the real window.
		sub := &db_models.Subscription{
			StoreID:  storeID,
			PlanID:   plan.ID,
			Status:   db_models.SubStatusPending,
			StartsAt: now.Unix(),
			EndsAt:   now.Unix(),
		}
		if err := s.subscriptionRepo.Create(ctx, sub); err != nil {
			return err
		}

		payment, err = s.ledger.CreatePayment(ctx, CreatePaymentInput{
			UserID:         userID,
			StoreID:        storeID,
			SubscriptionID: sub.ID,
			Method:         db_models.PaymentMethod(req.PaymentMethod),
			AmountMinor:    plan.PriceMinor,
			Currency:       plan.Currency,
			Description:    fmt.Sprintf("Subscription %s (%s)", plan.DisplayName, plan.Name),
			PayerEmail:     store.ContactEmail,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// reminderStageFor maps days-until-expiry to the reminder threshold that
// should have fired by then.
func reminderStageFor(daysRemaining int) int {
	switch {
	case daysRemaining <= 0:
		return 3
	case daysRemaining <= 1:
		return 2
	case daysRemaining <= 3:
		return 1
	default:
		return 0
	}
}

// UpdateStatusesForAll is the periodic sweep: re-derives every subscription's
// time-based status, reclaims abandoned pending signups and drives the
// reminder cadence. One record's failure never stops the rest.
func (s *subscriptionService) UpdateStatusesForAll(ctx context.Context) {
	subs, err := s.subscriptionRepo.ListAll(ctx)
	if err != nil {
		log.Printf("subscription sweep: list: %v", err)
		return
	}

	now := time.Now()
	for i := range subs {
		if err := s.sweepOne(ctx, &subs[i], now); err != nil {
			log.Printf("subscription sweep: %s: %v", subs[i].ID, err)
		}
	}
}

func (s *subscriptionService) sweepOne(ctx context.Context, sub *db_models.Subscription, now time.Time) error {
	// Abandoned signups: pending past the grace period are reclaimed.
	if sub.Status == db_models.SubStatusPending {
		age := now.Sub(time.Unix(sub.CreatedAt, 0))
		if age > s.cfg.PendingTTL {
			if err := s.subscriptionRepo.UpdateStatus(ctx, sub.ID, db_models.SubStatusCancelled); err != nil {
				return err
			}
			if sub.Store.Open {
				if err := s.storeRepo.SetOpen(ctx, sub.StoreID, false); err != nil {
					return err
				}
			}
		}
		return nil
	}

	previous := sub.Status
	resolved := s.resolve(sub, now)
	if resolved != previous {
		if err := s.subscriptionRepo.UpdateStatus(ctx, sub.ID, resolved); err != nil {
			return err
		}
		if resolved.OrderingDisabled() && sub.Store.Open {
			if err := s.storeRepo.SetOpen(ctx, sub.StoreID, false); err != nil {
				return err
			}
		}
	}

	// Reminder cadence runs off the status the record entered the sweep with,
	// so a subscription that just expired still gets its final notice once.
	if previous != db_models.SubStatusActive && previous != db_models.SubStatusExpiring &&
		previous != db_models.SubStatusTrial {
		return nil
	}

	days := utils.DaysUntil(sub.EndsAt, now.Unix())
	target := reminderStageFor(days)
	if target <= sub.ReminderStage {
		return nil
	}

	// Stage advances only after a successful send: a failed send is retried
	// by the next sweep, a sent threshold never fires twice.
	if sub.Store.ContactEmail != "" {
		if err := s.mail.SendSubscriptionReminder(sub.Store.ContactEmail, sub.Store.Name, sub.Store.Slug, days); err != nil {
			return err
		}
	}
	return s.subscriptionRepo.UpdateReminderStage(ctx, sub.ID, target)
}

func (s *subscriptionService) Suspend(ctx context.Context, subscriptionID uuid.UUID) (*db_models.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}

	if err := s.subscriptionRepo.UpdateStatus(ctx, sub.ID, db_models.SubStatusSuspended); err != nil {
		return nil, err
	}
	sub.Status = db_models.SubStatusSuspended
	return sub, nil
}

// Activate lifts an administrative suspension. The new status is recomputed
// from time, so reactivating an already-expired subscription lands on
// expired: a real reactivation of those goes through Renew.
func (s *subscriptionService) Activate(ctx context.Context, subscriptionID uuid.UUID) (*db_models.Subscription, error) {
	sub, err := s.subscriptionRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, utils.ErrSubscriptionNotFound
	}

	unstuck := *sub
	unstuck.Status = db_models.SubStatusActive
	resolved := s.resolve(&unstuck, time.Now())

	if err := s.subscriptionRepo.UpdateStatus(ctx, sub.ID, resolved); err != nil {
		return nil, err
	}
	sub.Status = resolved
	return sub, nil
}

// IsActiveSubscription is the store gate predicate: orders are accepted only
// while the resolved status is active, expiring or trial. Always recomputed,
// never cached, because time alone can flip it between checks.
func (s *subscriptionService) IsActiveSubscription(sub *db_models.Subscription) bool {
	if sub == nil {
		return false
	}
	switch s.resolve(sub, time.Now()) {
	case db_models.SubStatusActive, db_models.SubStatusExpiring, db_models.SubStatusTrial:
		return true
	}
	return false
}

func (s *subscriptionService) AssertStoreIsActive(ctx context.Context, storeID uuid.UUID) (bool, error) {
	sub, err := s.GetCurrentByStore(ctx, storeID)
	if err != nil {
		return false, err
	}
	return s.IsActiveSubscription(sub), nil
}
