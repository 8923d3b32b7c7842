/*
engine.go - The three ledger operations

PURPOSE:
  The Engine keeps Account.Balance consistent with the set of Transaction
  rows referencing it, across create, replace, and remove. It is the only
  code in the system that writes balances.

THE INVARIANT:
  For any account:
    balance == initial_balance + sum(signed deltas of live transactions)
  This holds after every operation, and is never observable in a violated
  state: each operation runs inside one storage transaction, and balance
  writes are guarded by an optimistic version check.

OPERATION SHAPE:
  Record:  validate -> insert row -> apply effects
  Replace: load old -> validate new -> overwrite row -> apply merged
           (reversed-old + new) effects
  Remove:  load old -> delete row -> apply reversed effects

  Effects for the same account are merged before application (delta.go), so
  the reverse-then-reapply sequence touches each account row exactly once,
  in ascending account-id order. Two operations racing on the same account
  serialize on the version check; the loser rolls back fully and surfaces
  ErrConflict for the caller to retry.

EXPLICIT EXCEPTION:
  Deleting an ACCOUNT cascades deletion of its transactions as a bulk
  storage operation without per-transaction reversal. That path is not
  mediated by the engine and is the one documented exception to the
  invariant; see store/sqlite DeleteAccount.

SEE ALSO:
  - delta.go: Effect computation
  - validate.go: Input validation
  - store.go: The persistence contract the engine relies on
*/
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Engine applies transaction intents to the ledger.
type Engine struct {
	Store TxStore
	Rules Rules

	// Now and NewID are injectable for tests.
	Now   func() time.Time
	NewID func() string
}

// NewEngine creates an engine with default rules, clock, and id generation.
func NewEngine(store TxStore) *Engine {
	return &Engine{
		Store: store,
		Rules: DefaultRules(),
		Now:   time.Now,
		NewID: uuid.NewString,
	}
}

// =============================================================================
// OPERATIONS
// =============================================================================

// Record validates the input, persists a new transaction, and applies its
// balance effects, all inside one unit of work. Returns the created
// transaction and every account whose balance changed.
func (e *Engine) Record(ctx context.Context, userID string, in TransactionInput) (*Transaction, []Account, error) {
	if err := e.Rules.Validate(in); err != nil {
		return nil, nil, err
	}

	now := e.Now()
	tx := newTransaction(e.NewID(), userID, in, now)

	var accounts []Account
	err := e.Store.WithTx(ctx, func(s Store) error {
		if err := s.InsertTransaction(ctx, tx); err != nil {
			return err
		}
		updated, err := applyEffects(ctx, s, userID, Merge(Effects(tx)))
		if err != nil {
			return err
		}
		accounts = updated
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return tx, accounts, nil
}

// Replace overwrites an existing transaction's fields with the new input,
// moving its entire balance effect: the old account loses the old delta and
// the (possibly different) new account gains the new delta. The reversed-old
// and new effects are merged, so when old and new refer to the same account
// its balance is written once with the net change - a concurrent reader can
// never observe the intermediate post-reversal state.
func (e *Engine) Replace(ctx context.Context, userID, txID string, in TransactionInput) (*Transaction, []Account, error) {
	var (
		updated  *Transaction
		accounts []Account
	)
	err := e.Store.WithTx(ctx, func(s Store) error {
		// Resolve the existing row first: a missing transaction is a
		// not-found failure even when the new input is also invalid.
		old, err := s.GetTransaction(ctx, userID, txID)
		if err != nil {
			return err
		}
		if err := e.Rules.Validate(in); err != nil {
			return err
		}

		next := newTransaction(old.ID, userID, in, e.Now())
		next.CreatedAt = old.CreatedAt
		if err := s.UpdateTransaction(ctx, next); err != nil {
			return err
		}

		touched, err := applyEffects(ctx, s, userID, Merge(Reverse(Effects(old)), Effects(next)))
		if err != nil {
			return err
		}
		updated = next
		accounts = touched
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, accounts, nil
}

// Remove reverses the transaction's balance effects and deletes the row.
// Returns every account whose balance changed.
func (e *Engine) Remove(ctx context.Context, userID, txID string) ([]Account, error) {
	var accounts []Account
	err := e.Store.WithTx(ctx, func(s Store) error {
		old, err := s.GetTransaction(ctx, userID, txID)
		if err != nil {
			return err
		}
		if err := s.DeleteTransaction(ctx, userID, txID); err != nil {
			return err
		}
		touched, err := applyEffects(ctx, s, userID, Merge(Reverse(Effects(old))))
		if err != nil {
			return err
		}
		accounts = touched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// =============================================================================
// INTERNALS
// =============================================================================

// applyEffects loads each touched account, adds its merged delta, and saves
// the new balance under the optimistic version check. Effects arrive in
// ascending account-id order from Merge, which keeps row access order
// canonical when two accounts are involved. Accounts are loaded even for a
// zero net delta: that both verifies the reference resolves for this user
// and serializes with concurrent writers.
func applyEffects(ctx context.Context, s Store, userID string, effects []Effect) ([]Account, error) {
	updated := make([]Account, 0, len(effects))
	for _, eff := range effects {
		account, err := s.GetAccount(ctx, userID, eff.AccountID)
		if err != nil {
			return nil, err
		}
		account.Balance = account.Balance.Add(eff.Delta)
		if err := s.SaveAccountBalance(ctx, account); err != nil {
			return nil, err
		}
		updated = append(updated, *account)
	}
	return updated, nil
}

func newTransaction(id, userID string, in TransactionInput, now time.Time) *Transaction {
	return &Transaction{
		ID:                 id,
		UserID:             userID,
		AccountID:          in.AccountID,
		TransferToID:       in.TransferToID,
		Type:               in.Type,
		Amount:             in.Amount,
		Category:           in.Category,
		Description:        in.Description,
		Date:               in.Date,
		PaymentMethod:      in.PaymentMethod,
		ReferenceNumber:    in.ReferenceNumber,
		Recurring:          in.Recurring,
		RecurringFrequency: in.RecurringFrequency,
		Notes:              in.Notes,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}
