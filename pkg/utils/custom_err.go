package utils

import "errors"

var (
	ErrPlanInvalid            = errors.New("plan not found or disabled")
	ErrSubscriptionNotFound   = errors.New("subscription not found")
	ErrStoreNotFound          = errors.New("store not found")
	ErrPaymentNotFound        = errors.New("payment not found")
	ErrSubscriptionSuspended  = errors.New("subscription is suspended")
	ErrTooManyPaymentAttempts = errors.New("too many payment attempts, try again later")
	ErrPaymentAlreadyFailed   = errors.New("payment already failed")
	ErrGatewayUnavailable     = errors.New("payment gateway unavailable")
	ErrDatabaseError          = errors.New("database error")
)
