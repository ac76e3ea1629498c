// Package handler routes inbound Telegram updates to the bot's command and
// action logic.
package handler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/sirupsen/logrus"

	"tg_earning_bot/internal/domain"
	"tg_earning_bot/internal/logging"
	"tg_earning_bot/internal/store"
	"tg_earning_bot/internal/telegram"
)

const startCommand = "/start"

// Gateway is the outbound surface the router needs; *telegram.Gateway
// satisfies it.
type Gateway interface {
	SendMessage(ctx context.Context, chatID int64, text string, keyboard *models.InlineKeyboardMarkup) bool
	EditMessage(ctx context.Context, chatID int64, messageID int, text string, keyboard *models.InlineKeyboardMarkup) bool
	AnswerCallback(ctx context.Context, callbackQueryID string)
}

// Router dispatches one decoded update at a time and owns the ledger's
// load-mutate-save cycle. A single mutex serializes the cycle so
// near-simultaneous deliveries cannot drop each other's writes; cross-process
// races remain out of scope.
type Router struct {
	store   store.Store
	gateway Gateway
	logger  *logrus.Entry
	botID   string

	// now is overridable for tests.
	now func() time.Time

	mu sync.Mutex
}

// NewRouter constructs a Router. botID is the numeric bot identifier used in
// invite links.
func NewRouter(ledgerStore store.Store, gateway Gateway, botID string, logger *logrus.Entry) *Router {
	if logger == nil {
		logger = logging.Logger()
	}

	return &Router{
		store:   ledgerStore,
		gateway: gateway,
		logger:  logger,
		botID:   botID,
		now:     time.Now,
	}
}

// HandleUpdate processes one update end to end. The ledger is reloaded per
// update, mutated in memory, and persisted unconditionally afterwards;
// load and save failures are logged and never abort handling. Updates of an
// unrecognized shape are ignored.
func (r *Router) HandleUpdate(ctx context.Context, update *models.Update) {
	if update == nil {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ledger, err := r.store.Load(ctx)
	if err != nil {
		r.logger.WithField("event", "ledger_load_failed").WithError(err).Error("load users failed")
	}

	switch {
	case update.Message != nil:
		r.handleMessage(ctx, ledger, update.Message)
	case update.CallbackQuery != nil:
		r.handleCallback(ctx, ledger, update.CallbackQuery)
	}

	if err := r.store.Save(ctx, ledger); err != nil {
		r.logger.WithField("event", "ledger_save_failed").WithError(err).Error("save users failed")
	}
}

func (r *Router) handleMessage(ctx context.Context, ledger domain.Ledger, msg *models.Message) {
	chatID := msg.Chat.ID
	if chatID == 0 {
		return
	}

	text := strings.TrimSpace(msg.Text)

	acc, created := ledger.Ensure(chatID)
	if created {
		r.logger.WithFields(logging.Fields{
			"event":   "account_created",
			"chat_id": chatID,
		}).Info("created new account")
	}

	// The only textual command is /start; everything else is button-driven.
	if !strings.HasPrefix(text, startCommand) {
		return
	}

	r.handleStart(ctx, ledger, chatID, acc, text)
}

func (r *Router) handleStart(ctx context.Context, ledger domain.Ledger, chatID int64, acc *domain.Account, text string) {
	if code := startReferralCode(text); code != "" && acc.ReferredBy == nil {
		if refID, refAcc, ok := ledger.FindByReferralCode(code, chatID); ok {
			acc.ReferredBy = &refID
			refAcc.ReferralCount++
			refAcc.Balance += domain.ReferralBonus

			r.gateway.SendMessage(ctx, refID,
				fmt.Sprintf("🎉 New referral! +%d points bonus!", domain.ReferralBonus), nil)

			r.logger.WithFields(logging.Fields{
				"event":       "referral_attributed",
				"chat_id":     chatID,
				"referrer_id": refID,
			}).Info("credited referral bonus")
		}
	}

	welcome := fmt.Sprintf(
		"Welcome to Earning Bot!\nEarn points, invite friends, and withdraw your earnings!\nYour referral code: <b>%s</b>",
		acc.ReferralCode)

	r.gateway.SendMessage(ctx, chatID, welcome, telegram.MainKeyboard())
}

func (r *Router) handleCallback(ctx context.Context, ledger domain.Ledger, cb *models.CallbackQuery) {
	// Acknowledge before any work so the client's spinner clears even when
	// the reply path fails.
	r.gateway.AnswerCallback(ctx, cb.ID)

	chatID := telegram.CallbackChatID(cb)
	if chatID == 0 {
		return
	}

	acc, created := ledger.Ensure(chatID)
	if created {
		r.logger.WithFields(logging.Fields{
			"event":   "account_created",
			"chat_id": chatID,
		}).Info("created new account")
	}

	reply := r.runAction(ledger, chatID, acc, cb.Data)

	messageID := telegram.CallbackMessageID(cb)
	if !r.gateway.EditMessage(ctx, chatID, messageID, reply, telegram.MainKeyboard()) {
		r.gateway.SendMessage(ctx, chatID, reply, telegram.MainKeyboard())
	}
}

func (r *Router) runAction(ledger domain.Ledger, chatID int64, acc *domain.Account, action string) string {
	switch action {
	case telegram.ActionEarn:
		now := r.now().Unix()
		elapsed := now - acc.LastEarnAt
		if elapsed < domain.EarnCooldown {
			return fmt.Sprintf("⏳ Please wait %d seconds before earning again!", domain.EarnCooldown-elapsed)
		}

		acc.Balance += domain.EarnReward
		acc.LastEarnAt = now
		return fmt.Sprintf("✅ You earned %d points!\nNew balance: %d", domain.EarnReward, acc.Balance)

	case telegram.ActionBalance:
		return fmt.Sprintf("💳 Your Balance\nPoints: %d\nReferrals: %d", acc.Balance, acc.ReferralCount)

	case telegram.ActionLeaderboard:
		var b strings.Builder
		b.WriteString("🏆 Top Earners\n")
		for i, entry := range ledger.Top(domain.LeaderboardSize) {
			fmt.Fprintf(&b, "%d. User %d: %d points\n", i+1, entry.UserID, entry.Account.Balance)
		}
		return b.String()

	case telegram.ActionReferrals:
		return fmt.Sprintf(
			"👥 Referral System\nYour code: <b>%s</b>\nReferrals: %d\nInvite link: https://t.me/%s?start=%s\n%d points per referral!",
			acc.ReferralCode, acc.ReferralCount, r.botID, acc.ReferralCode, domain.ReferralBonus)

	case telegram.ActionWithdraw:
		if acc.Balance < domain.WithdrawMinimum {
			return fmt.Sprintf("🏧 Withdrawal\nMinimum: %d points\nYour balance: %d\nNeed %d more points!",
				domain.WithdrawMinimum, acc.Balance, domain.WithdrawMinimum-acc.Balance)
		}

		// Settlement is out of scope; the debit plus confirmation is the
		// whole operation.
		amount := acc.Balance
		acc.Balance = 0

		r.logger.WithFields(logging.Fields{
			"event":   "withdrawal_requested",
			"chat_id": chatID,
			"amount":  amount,
		}).Info("queued withdrawal")

		return fmt.Sprintf("🏧 Withdrawal of %d points requested!\nOur team will process it soon.", amount)

	case telegram.ActionHelp:
		return fmt.Sprintf(
			"❓ Help\n💰 Earn: Get %d points/min\n👥 Refer: %d points/ref\n🏧 Withdraw: Min %d points\nUse buttons below to navigate!",
			domain.EarnReward, domain.ReferralBonus, domain.WithdrawMinimum)

	default:
		r.logger.WithFields(logging.Fields{
			"event":   "unknown_action",
			"chat_id": chatID,
			"action":  action,
		}).Warn("received unknown action code")

		return "❓ Unknown action\nUse the buttons below to navigate!"
	}
}

func startReferralCode(text string) string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return ""
	}

	return fields[1]
}
