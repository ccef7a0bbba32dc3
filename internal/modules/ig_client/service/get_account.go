package service

import (
	"context"

	"fibo_bot/internal/broker"
	"fibo_bot/internal/models"
)

// Account баланс текущего счёта сессии; без совпадения берём preferred, затем первый.
func (t *Trader) Account(ctx context.Context) (models.AccountState, error) {
	const op = "get_account"

	var out accountsResponse
	resp, err := t.req(ctx, "1").Get("/accounts")
	if err := t.call(op, resp, err, &out); err != nil {
		return models.AccountState{}, err
	}
	if len(out.Accounts) == 0 {
		return models.AccountState{}, broker.Rejected(op, "no accounts")
	}

	current := t.c.cfg.AccountID
	if t.s != nil && t.s.AccountID != "" {
		current = t.s.AccountID
	}
	pick := 0
	for i, a := range out.Accounts {
		if a.AccountID == current {
			pick = i
			break
		}
		if a.Preferred {
			pick = i
		}
	}
	a := out.Accounts[pick]
	return models.AccountState{
		AccountID: a.AccountID,
		Balance:   a.Balance.Balance,
		Available: a.Balance.Available,
	}, nil
}
