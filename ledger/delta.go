/*
delta.go - Signed balance effects of a transaction

PURPOSE:
  A transaction's effect on account balances is expressed as a set of
  immutable Effects (account id + signed delta). Every balance mutation in
  the system goes through this one translation, so the balance invariant
  lives in a single place instead of three copies inside create/update/
  delete.

SIGN CONVENTION:
  income:   +amount on the account
  expense:  -amount on the account
  transfer: -amount on the source, +amount on the destination

TRANSFER POLICY:
  A transfer always moves both legs by the same amount in opposite
  directions. A transfer without a destination account is rejected at
  validation time. The one exception is a stored transfer whose
  destination account was cascade-deleted (the store clears the
  destination reference); such a row keeps only its source leg, so
  reversing it restores the source balance without touching a dead
  account.

REVERSAL:
  Reversing a transaction is applying the negation of its effects. Replace
  is reverse-old + apply-new; delete is reverse-old. Effects for the same
  account are merged before application, so replacing a transaction on the
  same account touches that account's row exactly once.
*/
package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Effect is a signed balance delta against one account.
type Effect struct {
	AccountID string
	Delta     decimal.Decimal
}

// Effects returns the balance effects of a transaction. For income and
// expense there is exactly one; for transfers there are two.
func Effects(tx *Transaction) []Effect {
	switch tx.Type {
	case TxIncome:
		return []Effect{{AccountID: tx.AccountID, Delta: tx.Amount}}
	case TxExpense:
		return []Effect{{AccountID: tx.AccountID, Delta: tx.Amount.Neg()}}
	case TxTransfer:
		effects := []Effect{{AccountID: tx.AccountID, Delta: tx.Amount.Neg()}}
		// A cascade-deleted destination clears TransferToID on surviving
		// rows; only the source leg remains to reverse.
		if tx.TransferToID != "" {
			effects = append(effects, Effect{AccountID: tx.TransferToID, Delta: tx.Amount})
		}
		return effects
	}
	return nil
}

// Reverse returns the negation of a set of effects.
func Reverse(effects []Effect) []Effect {
	reversed := make([]Effect, len(effects))
	for i, e := range effects {
		reversed[i] = Effect{AccountID: e.AccountID, Delta: e.Delta.Neg()}
	}
	return reversed
}

// Merge sums effects per account and returns them in ascending account-id
// order. The canonical order keeps lock acquisition deterministic when an
// operation touches two accounts.
func Merge(sets ...[]Effect) []Effect {
	totals := make(map[string]decimal.Decimal)
	for _, set := range sets {
		for _, e := range set {
			totals[e.AccountID] = totals[e.AccountID].Add(e.Delta)
		}
	}

	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	merged := make([]Effect, 0, len(ids))
	for _, id := range ids {
		merged = append(merged, Effect{AccountID: id, Delta: totals[id]})
	}
	return merged
}
