package domain

import "sort"

// Ledger maps a Telegram chat id to its account record.
type Ledger map[int64]*Account

// Ensure returns the account for id, creating it lazily on first sight.
// The second result reports whether a new account was created.
func (l Ledger) Ensure(id int64) (*Account, bool) {
	if acc, ok := l[id]; ok {
		return acc, false
	}

	acc := NewAccount()
	l[id] = acc
	return acc, true
}

// FindByReferralCode scans for an account whose referral code matches,
// excluding the given id so users cannot refer themselves. Codes are unique
// by construction, so the first match is the only match.
func (l Ledger) FindByReferralCode(code string, exclude int64) (int64, *Account, bool) {
	for id, acc := range l {
		if id != exclude && acc.ReferralCode == code {
			return id, acc, true
		}
	}

	return 0, nil, false
}

// Entry pairs an account with its id for ranking.
type Entry struct {
	UserID  int64
	Account *Account
}

// Top returns at most n accounts ordered by balance descending. Ties keep
// the collection order of the underlying scan; no total order is promised.
func (l Ledger) Top(n int) []Entry {
	entries := make([]Entry, 0, len(l))
	for id, acc := range l {
		entries = append(entries, Entry{UserID: id, Account: acc})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Account.Balance > entries[j].Account.Balance
	})

	if len(entries) > n {
		entries = entries[:n]
	}

	return entries
}
