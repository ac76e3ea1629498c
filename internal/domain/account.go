// Package domain defines the account ledger shared across the bot.
package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Point values and limits applied by the handlers.
const (
	EarnReward      = 10
	EarnCooldown    = 60 // seconds
	ReferralBonus   = 50
	WithdrawMinimum = 100
	LeaderboardSize = 5

	referralCodeLength = 8
)

// Account holds one user's points, referral state, and earn cooldown
// timestamp. Field tags match the users.json document layout.
type Account struct {
	Balance       int64  `bson:"balance" json:"balance"`
	LastEarnAt    int64  `bson:"last_earn" json:"last_earn"`
	ReferralCount int64  `bson:"referrals" json:"referrals"`
	ReferralCode  string `bson:"ref_code" json:"ref_code"`
	ReferredBy    *int64 `bson:"referred_by" json:"referred_by"`
}

// NewAccount returns a zeroed account with a freshly generated referral code.
func NewAccount() *Account {
	return &Account{ReferralCode: GenerateReferralCode()}
}

// GenerateReferralCode produces a short lowercase hex code. Uniqueness is
// probabilistic, not enforced; collisions are negligible at this length.
func GenerateReferralCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:referralCodeLength]
}
