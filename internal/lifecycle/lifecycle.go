// Package lifecycle implements the subscription state machine of an account:
// pending -> trial -> active -> canceled, with trial -> canceled allowed.
//
// Every function takes "now" explicitly and mutates only the account it is
// given, so callers decide about clocks and persistence.
package lifecycle

import (
	"fmt"
	"math"
	"time"

	"invoicelink/internal/models"

	"github.com/shopspring/decimal"
)

// TrialPeriod is the length of the free trial granted on approval.
const TrialPeriod = 5 * 24 * time.Hour

var transitions = map[models.SubscriptionStatus][]models.SubscriptionStatus{
	models.StatusPending:  {models.StatusTrial},
	models.StatusTrial:    {models.StatusActive, models.StatusCanceled},
	models.StatusActive:   {models.StatusCanceled},
	models.StatusCanceled: {},
}

func CanTransition(from, to models.SubscriptionStatus) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Approve grants a trial to a pending account.
func Approve(acc *models.Account, now time.Time) error {
	if acc.IsApproved || acc.SubscriptionStatus != models.StatusPending {
		return &models.TransitionError{Action: "approve", From: acc.SubscriptionStatus}
	}
	ends := now.Add(TrialPeriod)
	acc.IsApproved = true
	acc.TrialEndsAt = &ends
	acc.SubscriptionStatus = models.StatusTrial
	acc.UpdatedAt = now
	return nil
}

// CheckRejectable reports whether the account may still be rejected. Only
// pending, unapproved accounts can be.
func CheckRejectable(acc *models.Account) error {
	if acc.IsApproved || acc.SubscriptionStatus != models.StatusPending {
		return &models.TransitionError{Action: "reject", From: acc.SubscriptionStatus}
	}
	return nil
}

// Activate converts a trial into a paying subscription.
func Activate(acc *models.Account, now time.Time) error {
	if !CanTransition(acc.SubscriptionStatus, models.StatusActive) {
		return &models.TransitionError{Action: "activate", From: acc.SubscriptionStatus}
	}
	acc.SubscriptionStatus = models.StatusActive
	acc.UpdatedAt = now
	return nil
}

// Cancel ends a trial or active subscription. TrialEndsAt is kept as history.
func Cancel(acc *models.Account, now time.Time) error {
	if !CanTransition(acc.SubscriptionStatus, models.StatusCanceled) {
		return &models.TransitionError{Action: "cancel", From: acc.SubscriptionStatus}
	}
	acc.SubscriptionStatus = models.StatusCanceled
	acc.UpdatedAt = now
	return nil
}

// ValidateAmount accepts strictly positive amounts with at most two decimals.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: amount must be greater than 0, got %s", models.ErrInvalidAmount, amount)
	}
	if !amount.Equal(amount.Round(2)) {
		return fmt.Errorf("%w: amount %s has more than two decimal places", models.ErrInvalidAmount, amount)
	}
	return nil
}

// SetSubscriptionAmount changes the monthly amount of an approved account.
// The account is left untouched on error.
func SetSubscriptionAmount(acc *models.Account, amount decimal.Decimal, now time.Time) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	if acc.SubscriptionStatus == models.StatusPending {
		return &models.TransitionError{Action: "set the amount of", From: acc.SubscriptionStatus}
	}
	acc.SubscriptionAmount = amount
	acc.UpdatedAt = now
	return nil
}

// IsTrialActive is true for trial accounts whose trial has not yet ended.
func IsTrialActive(acc *models.Account, now time.Time) bool {
	return acc.IsApproved &&
		acc.SubscriptionStatus == models.StatusTrial &&
		acc.TrialEndsAt != nil &&
		acc.TrialEndsAt.After(now)
}

// IsTrialExpired is true for accounts still marked trial whose trial ended.
func IsTrialExpired(acc *models.Account, now time.Time) bool {
	return acc.SubscriptionStatus == models.StatusTrial &&
		acc.TrialEndsAt != nil &&
		!acc.TrialEndsAt.After(now)
}

// ExpireTrial cancels an account whose trial has run out. It returns false
// when there was nothing to expire.
func ExpireTrial(acc *models.Account, now time.Time) bool {
	if !IsTrialExpired(acc, now) {
		return false
	}
	acc.SubscriptionStatus = models.StatusCanceled
	acc.UpdatedAt = now
	return true
}

// TrialDaysLeft rounds the remaining trial time up to whole days.
func TrialDaysLeft(acc *models.Account, now time.Time) int {
	if acc.TrialEndsAt == nil {
		return 0
	}
	left := acc.TrialEndsAt.Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// CheckInvariants validates the status/approval/trial combination.
func CheckInvariants(acc *models.Account) error {
	switch {
	case !acc.SubscriptionStatus.Valid():
		return fmt.Errorf("account %s: unknown status %q", acc.ID, acc.SubscriptionStatus)
	case acc.SubscriptionStatus == models.StatusPending && acc.IsApproved:
		return fmt.Errorf("account %s: pending but approved", acc.ID)
	case acc.SubscriptionStatus != models.StatusPending && !acc.IsApproved:
		return fmt.Errorf("account %s: %s but not approved", acc.ID, acc.SubscriptionStatus)
	case acc.SubscriptionStatus == models.StatusPending && acc.TrialEndsAt != nil:
		return fmt.Errorf("account %s: pending with a trial end date", acc.ID)
	case acc.SubscriptionStatus == models.StatusTrial && acc.TrialEndsAt == nil:
		return fmt.Errorf("account %s: trial without an end date", acc.ID)
	case !acc.SubscriptionAmount.IsPositive():
		return fmt.Errorf("account %s: non-positive amount %s", acc.ID, acc.SubscriptionAmount)
	}
	return nil
}

// DisplayStatus is the label shown to administrators.
func DisplayStatus(acc *models.Account) string {
	if !acc.IsApproved {
		return "Pending Approval"
	}
	switch acc.SubscriptionStatus {
	case models.StatusTrial:
		return "Trial"
	case models.StatusActive:
		return "Active"
	case models.StatusCanceled:
		return "Canceled"
	}
	return string(acc.SubscriptionStatus)
}
