package promo

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
)

// Normalize trims surrounding whitespace from a user supplied code.
// Matching is case-insensitive, so casing is left to the repository.
func Normalize(code string) string {
	return strings.TrimSpace(code)
}

// Check resolves a code for the customer and verifies that it can be
// applied on day. It does not consume a use; see Repository.Redeem.
func Check(ctx context.Context, repo Repository, code string, customerID int64, day time.Time) (*Code, error) {
	code = Normalize(code)
	if code == "" {
		return nil, ErrCodeNotFound
	}

	c, err := repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrCodeNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, errors.Wrap(err, "lookup code")
	}

	if !c.ValidOn(day) {
		return nil, ErrCodeNotCurrentlyValid
	}
	if c.Exhausted() {
		return nil, ErrCodeFullyRedeemed
	}

	if c.OneTime {
		used, err := repo.Redeemed(ctx, customerID, c.ID)
		if err != nil {
			return nil, errors.Wrap(err, "lookup redemption")
		}
		if used {
			return nil, ErrCodeAlreadyUsed
		}
	}

	return c, nil
}
