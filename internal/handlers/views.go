package handlers

import (
	"time"

	"invoicelink/internal/lifecycle"
	"invoicelink/internal/models"
)

// AccountView is an account as shown to clients, with the derived trial state.
type AccountView struct {
	*models.Account
	DisplayStatus string `json:"display_status"`
	TrialActive   bool   `json:"trial_active"`
	TrialDaysLeft int    `json:"trial_days_left"`
}

func newAccountView(acc *models.Account, now time.Time) *AccountView {
	return &AccountView{
		Account:       acc,
		DisplayStatus: lifecycle.DisplayStatus(acc),
		TrialActive:   lifecycle.IsTrialActive(acc, now),
		TrialDaysLeft: lifecycle.TrialDaysLeft(acc, now),
	}
}

func newAccountViews(accounts []*models.Account, now time.Time) []*AccountView {
	views := make([]*AccountView, 0, len(accounts))
	for _, acc := range accounts {
		views = append(views, newAccountView(acc, now))
	}
	return views
}
