package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/corebank-ng/ledger/internal/domain"
)

// validateRequest fails fast on the request shape alone, before any account
// is touched. Returns the amount in minor units.
func validateRequest(req Request) (int64, error) {
	amount, err := domain.ParseAmount(req.Amount)
	if err != nil {
		return 0, fmt.Errorf("validateRequest: %w", err)
	}

	if !req.Kind.IsValid() {
		return 0, fmt.Errorf("validateRequest: %q: %w", req.Kind, domain.ErrInvalidKind)
	}

	if req.Channel != "" && !req.Channel.IsValid() {
		return 0, fmt.Errorf("validateRequest: %q: %w", req.Channel, domain.ErrInvalidChannel)
	}

	if req.Currency != "" && !req.Currency.IsValid() {
		return 0, fmt.Errorf("validateRequest: %q: %w", req.Currency, domain.ErrCurrencyMismatch)
	}

	return amount, nil
}

// resolveAccounts turns locators into accounts per the movement kind:
// deposit needs a destination, withdrawal a source, transfer both. Accounts
// that exist but are not active resolve the same as missing ones.
func (e *Engine) resolveAccounts(ctx context.Context, req Request) (source, destination *domain.Account, err error) {
	switch req.Kind {
	case domain.KindDeposit:
		destination, err = e.resolveActive(ctx, req.Destination)
		if err != nil {
			return nil, nil, fmt.Errorf("resolveAccounts: destination: %w", err)
		}
	case domain.KindWithdrawal:
		source, err = e.resolveActive(ctx, req.Source)
		if err != nil {
			return nil, nil, fmt.Errorf("resolveAccounts: source: %w", err)
		}
	case domain.KindTransfer:
		source, err = e.resolveActive(ctx, req.Source)
		if err != nil {
			return nil, nil, fmt.Errorf("resolveAccounts: source: %w", err)
		}
		destination, err = e.resolveActive(ctx, req.Destination)
		if err != nil {
			return nil, nil, fmt.Errorf("resolveAccounts: destination: %w", err)
		}
		if source.ID == destination.ID {
			return nil, nil, fmt.Errorf("resolveAccounts: %w", domain.ErrSameAccount)
		}
		if source.Currency != destination.Currency {
			return nil, nil, fmt.Errorf("resolveAccounts: %s vs %s: %w",
				source.Currency, destination.Currency, domain.ErrCurrencyMismatch)
		}
	}

	if req.Currency != "" {
		primary := source
		if primary == nil {
			primary = destination
		}
		if primary.Currency != req.Currency {
			return nil, nil, fmt.Errorf("resolveAccounts: requested %s, account holds %s: %w",
				req.Currency, primary.Currency, domain.ErrCurrencyMismatch)
		}
	}

	return source, destination, nil
}

func (e *Engine) resolveActive(ctx context.Context, locator string) (*domain.Account, error) {
	if locator == "" {
		return nil, fmt.Errorf("resolveActive: empty locator: %w", domain.ErrAccountNotFound)
	}

	account, err := e.accounts.GetByLocator(ctx, locator)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("resolveActive: %w", domain.ErrAccountNotFound)
		}
		return nil, fmt.Errorf("resolveActive: %w", err)
	}
	if account.Status != domain.AccountStatusActive {
		return nil, fmt.Errorf("resolveActive: %w", domain.ErrAccountNotFound)
	}
	return account, nil
}

// authorize enforces the secret policy: every transfer verifies the source
// account's transfer PIN; withdrawals on card channels verify the card PIN.
// Every failure, missing card included, collapses into the one generic
// authorization error so callers cannot probe what exists.
func (e *Engine) authorize(ctx context.Context, req Request, source *domain.Account) error {
	switch {
	case req.Kind == domain.KindTransfer:
		if req.Secret == "" || !e.pins.Verify(req.Secret, source.TransferPINHash) {
			return fmt.Errorf("authorize: %w", domain.ErrUnauthorized)
		}
	case req.Kind == domain.KindWithdrawal && req.Channel.IsCardChannel():
		card, err := e.cards.GetActiveByAccountID(ctx, source.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("authorize: %w", domain.ErrUnauthorized)
			}
			return fmt.Errorf("authorize: %w", err)
		}
		if req.Secret == "" || !e.pins.Verify(req.Secret, card.PINHash) {
			return fmt.Errorf("authorize: %w", domain.ErrUnauthorized)
		}
	}
	return nil
}
