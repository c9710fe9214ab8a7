// Package redeem orchestrates the five-step merch redemption flow: quote,
// eligibility check, shipment form, redeem, completed. Every step is stateless
// per request; durable correlation lives in the shipment ledger keyed by the
// client-minted session reference.
package redeem

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var ErrInvalidConfig = errors.New("redeem: invalid config")

// Production defaults for the Superbasedd drop.
const (
	DefaultCollectionAddress = "96zvmKqKJJ7LBx6PqQhPDTmCXaVnqiqMJSgHwgbtbiyq"
	DefaultFeePayeeAddress   = "9yhrkxMKfvzzaUDYcwxNCwsgVbjyC2u9dYCA3166GsCt"
	DefaultFeeMintAddress    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	DefaultFeeAmount         = 15
	DefaultFeeDecimals       = 6
	DefaultFeeCurrency       = "USDC"

	DefaultTitle    = "Redeem your Superbasedd T-Shirt"
	DefaultIcon     = "https://ucarecdn.com/6f0bf147-e745-45c8-b181-e8869b7577bc/-/preview/880x880/-/format/auto/-/quality/smart/"
	DefaultBasePath = "/bp-merch"
)

// DefaultWinnerNames is the allow-list of prize collectible names.
func DefaultWinnerNames() []string {
	return []string{
		"OG SOL BROTHERS TEE",
		"DONALD TRUMP TEE",
		"FTX THE MOVIE",
		"JUNK MAIL TEE",
		"LA BIKER TEE",
	}
}

// Config is the immutable configuration injected into the flow. The fee is
// expressed in whole currency units and scaled by FeeDecimals on chain.
type Config struct {
	Collection  solana.PublicKey
	WinnerNames []string

	FeeAmount   uint64
	FeeDecimals uint8
	FeeCurrency string
	FeeMint     solana.PublicKey
	FeePayee    solana.PublicKey

	Title    string
	Label    string
	Icon     string
	BasePath string
}

// DefaultConfig returns the production configuration of the drop.
func DefaultConfig() Config {
	return Config{
		Collection:  solana.MustPublicKeyFromBase58(DefaultCollectionAddress),
		WinnerNames: DefaultWinnerNames(),
		FeeAmount:   DefaultFeeAmount,
		FeeDecimals: DefaultFeeDecimals,
		FeeCurrency: DefaultFeeCurrency,
		FeeMint:     solana.MustPublicKeyFromBase58(DefaultFeeMintAddress),
		FeePayee:    solana.MustPublicKeyFromBase58(DefaultFeePayeeAddress),
		Title:       DefaultTitle,
		Label:       DefaultTitle,
		Icon:        DefaultIcon,
		BasePath:    DefaultBasePath,
	}
}

func (c Config) Validate() error {
	if c.Collection.IsZero() {
		return fmt.Errorf("%w: missing collection", ErrInvalidConfig)
	}
	if len(c.WinnerNames) == 0 {
		return fmt.Errorf("%w: empty winner name allow-list", ErrInvalidConfig)
	}
	if c.FeeAmount == 0 {
		return fmt.Errorf("%w: zero fee amount", ErrInvalidConfig)
	}
	if c.FeeMint.IsZero() {
		return fmt.Errorf("%w: missing fee mint", ErrInvalidConfig)
	}
	if c.FeePayee.IsZero() {
		return fmt.Errorf("%w: missing fee payee", ErrInvalidConfig)
	}
	if c.Title == "" || c.Icon == "" {
		return fmt.Errorf("%w: missing title or icon", ErrInvalidConfig)
	}
	if c.BasePath == "" {
		return fmt.Errorf("%w: missing base path", ErrInvalidConfig)
	}
	return nil
}

// FeeBaseUnits returns the fee amount scaled to the currency's base units.
func (c Config) FeeBaseUnits() uint64 {
	out := c.FeeAmount
	for i := uint8(0); i < c.FeeDecimals; i++ {
		out *= 10
	}
	return out
}

// Description is the quote and form description shown to the wallet.
func (c Config) Description() string {
	return fmt.Sprintf(
		"Redeem your Superbasedd T-Shirt via this blink. The shipping fee is %d %s, please make sure you have enough funds in your wallet.",
		c.FeeAmount, c.FeeCurrency,
	)
}
