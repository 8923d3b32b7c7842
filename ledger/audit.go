package ledger

import "github.com/shopspring/decimal"

// ExpectedBalance recomputes what the account's balance should be: the
// opening balance plus the summed deltas of every transaction touching the
// account, as source or as transfer destination. Used by audit tooling to
// detect drift between stored balances and the transaction history.
func ExpectedBalance(a Account, txs []Transaction) decimal.Decimal {
	balance := a.OpeningBalance
	for _, tx := range txs {
		for _, e := range Effects(&tx) {
			if e.AccountID == a.ID {
				balance = balance.Add(e.Delta)
			}
		}
	}
	return balance
}

// Drift is one account whose stored balance disagrees with its history.
type Drift struct {
	Account  Account
	Expected decimal.Decimal
}

// Delta returns stored minus expected.
func (d Drift) Delta() decimal.Decimal {
	return d.Account.Balance.Sub(d.Expected)
}
