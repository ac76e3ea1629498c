package telegram

import "github.com/go-telegram/bot/models"

// Action codes carried as callback data on the inline buttons.
const (
	ActionEarn        = "earn"
	ActionBalance     = "balance"
	ActionLeaderboard = "leaderboard"
	ActionReferrals   = "referrals"
	ActionWithdraw    = "withdraw"
	ActionHelp        = "help"
)

// MainKeyboard returns the standard button layout attached to every reply.
func MainKeyboard() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: [][]models.InlineKeyboardButton{
			{
				{Text: "💰 Earn", CallbackData: ActionEarn},
				{Text: "💳 Balance", CallbackData: ActionBalance},
			},
			{
				{Text: "🏆 Leaderboard", CallbackData: ActionLeaderboard},
				{Text: "👥 Referrals", CallbackData: ActionReferrals},
			},
			{
				{Text: "🏧 Withdraw", CallbackData: ActionWithdraw},
				{Text: "❓ Help", CallbackData: ActionHelp},
			},
		},
	}
}
