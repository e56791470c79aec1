package entitlements

import (
	"strings"
	"time"

	"github.com/ManuelReschke/DubFox/app/models"
	"github.com/ManuelReschke/DubFox/internal/pkg/env"
)

// IsEntitled evaluates the subscription predicate over the full row set:
// a user is entitled iff at least one subscription is active, trialing or
// incomplete, or is past_due with the paid period still running.
func IsEntitled(subs []models.Subscription, now time.Time) bool {
	for _, sub := range subs {
		switch sub.Status {
		case models.SubscriptionStatusActive,
			models.SubscriptionStatusTrialing,
			models.SubscriptionStatusIncomplete:
			return true
		case models.SubscriptionStatusPastDue:
			if sub.CurrentPeriodEnd != nil && sub.CurrentPeriodEnd.After(now) {
				return true
			}
		}
	}
	return false
}

// IsBypassed checks the email against the configured allow-list. The list is
// for internal testing accounts that must reach the dubbing UI without a
// subscription; it is empty unless ENTITLEMENT_BYPASS_EMAILS is set.
func IsBypassed(email string, allowlist []string) bool {
	e := strings.ToLower(strings.TrimSpace(email))
	if e == "" {
		return false
	}
	for _, allowed := range allowlist {
		if e == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

// BypassAllowlistFromEnv reads the comma-separated bypass allow-list.
func BypassAllowlistFromEnv() []string {
	raw := strings.TrimSpace(env.GetEnv("ENTITLEMENT_BYPASS_EMAILS", ""))
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Check combines the bypass allow-list with the subscription predicate.
func Check(email string, subs []models.Subscription, now time.Time, allowlist []string) bool {
	if IsBypassed(email, allowlist) {
		return true
	}
	return IsEntitled(subs, now)
}
