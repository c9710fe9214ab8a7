package redeem

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"

	"github.com/superbasedd/merch-blink/internal/actions"
	"github.com/superbasedd/merch-blink/internal/chain"
	"github.com/superbasedd/merch-blink/internal/collectible"
	"github.com/superbasedd/merch-blink/internal/reference"
	"github.com/superbasedd/merch-blink/internal/shipevent"
	"github.com/superbasedd/merch-blink/internal/shipment"
	"github.com/superbasedd/merch-blink/internal/txcompose"
)

// EventSink receives shipment lifecycle events. Implemented by
// shipevent.Publisher; optional.
type EventSink interface {
	Emit(ctx context.Context, payload shipevent.Payload) error
}

// FormData is the shipping detail payload submitted at the redeem step.
type FormData struct {
	Name    string
	Country string
	Address string
	Email   string
	NFTName string
	Size    string
}

func (d FormData) complete() bool {
	for _, v := range []string{d.Name, d.Country, d.Address, d.Email, d.NFTName, d.Size} {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}

// Deps are the capabilities injected into the flow.
type Deps struct {
	Reader    chain.Reader
	Index     collectible.Index
	Burner    txcompose.BurnBuilder
	Store     shipment.Store
	Scheduler Scheduler
	Events    EventSink
	Logger    *slog.Logger
}

// Flow is the redemption state machine. All chain state is re-read on every
// step; no outcome of an earlier step is trusted as cached truth.
type Flow struct {
	cfg       Config
	evaluator *collectible.Evaluator
	composer  *txcompose.Composer
	burner    txcompose.BurnBuilder
	store     shipment.Store
	scheduler Scheduler
	events    EventSink
	logger    *slog.Logger
	now       func() time.Time
}

func NewFlow(cfg Config, deps Deps) (*Flow, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Reader == nil || deps.Index == nil || deps.Burner == nil {
		return nil, fmt.Errorf("%w: nil reader, index or burner", ErrInvalidConfig)
	}
	if deps.Store == nil {
		return nil, fmt.Errorf("%w: nil shipment store", ErrInvalidConfig)
	}
	if deps.Scheduler == nil {
		return nil, fmt.Errorf("%w: nil scheduler", ErrInvalidConfig)
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	evaluator, err := collectible.NewEvaluator(deps.Index, deps.Reader, cfg.Collection, cfg.WinnerNames, cfg.FeeMint, cfg.FeeAmount, cfg.FeeDecimals)
	if err != nil {
		return nil, err
	}
	composer, err := txcompose.NewComposer(deps.Reader)
	if err != nil {
		return nil, err
	}
	return &Flow{
		cfg:       cfg,
		evaluator: evaluator,
		composer:  composer,
		burner:    deps.Burner,
		store:     deps.Store,
		scheduler: deps.Scheduler,
		events:    deps.Events,
		logger:    deps.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Quote returns the static drop metadata with a fresh session reference baked
// into the eligibility-check link. Read-only, no side effects.
func (f *Flow) Quote() (actions.Response, error) {
	sessionRef, err := reference.Generate()
	if err != nil {
		return nil, fmt.Errorf("redeem: mint session reference: %w", err)
	}
	return actions.NewMenu(f.cfg.Title, f.cfg.Description(), f.cfg.Label, f.cfg.Icon, actions.LinkedAction{
		Href:  f.stepHref("check-redeem-eligibility", sessionRef.String()),
		Label: "Check eligibility",
	}), nil
}

// CheckEligibility gates on redeemable assets and fee affordability, then
// proposes a marker-only transaction correlated to a fresh reference. The
// signed marker is an advisory commitment signal; its broadcast is never
// verified by later steps.
func (f *Flow) CheckEligibility(ctx context.Context, owner solana.PublicKey, sessionRef string) (actions.Response, error) {
	redeemable, err := f.evaluator.Redeemable(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(redeemable) == 0 {
		return nil, userError(MsgNoShirts)
	}
	affordable, err := f.evaluator.CanAffordFee(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !affordable {
		return nil, userError(MsgInsufficientFunds)
	}

	ref, err := reference.Generate()
	if err != nil {
		return nil, fmt.Errorf("redeem: mint proposal reference: %w", err)
	}
	tx, err := f.composer.Compose(ctx, []solana.Instruction{reference.MarkerInstruction(ref)}, owner)
	if err != nil {
		return nil, err
	}
	encoded, err := tx.ToBase64()
	if err != nil {
		return nil, fmt.Errorf("redeem: encode transaction: %w", err)
	}
	return actions.NewProposal(encoded, ref.String(), f.stepHref("fill-shipment-form", sessionRef)), nil
}

// ShipmentForm re-derives eligibility and returns the dynamic form. With no
// redeemable assets the step is disabled rather than an error; with
// insufficient funds the form stays visible but cannot be submitted.
func (f *Flow) ShipmentForm(ctx context.Context, owner solana.PublicKey, sessionRef string) (actions.Response, error) {
	redeemable, err := f.evaluator.Redeemable(ctx, owner)
	if err != nil {
		return nil, err
	}
	if len(redeemable) == 0 {
		return actions.NewDisabled(f.cfg.Title, MsgNoShirts, "Not available", f.cfg.Icon), nil
	}
	affordable, err := f.evaluator.CanAffordFee(ctx, owner)
	if err != nil {
		return nil, err
	}

	label := "Redeem"
	if !affordable {
		label = "Insufficient funds"
	}
	action := actions.LinkedAction{
		Href:       f.stepHref("redeem", sessionRef),
		Label:      label,
		Parameters: formParameters(collectible.UniqueNames(redeemable)),
	}
	return actions.NewForm(f.cfg.Title, f.cfg.Description(), f.cfg.Label, f.cfg.Icon, !affordable, action), nil
}

// Redeem validates the submission, composes the burn-and-pay transaction with
// the session reference as its correlation reference, and persists the
// shipment record before returning the proposal. The record therefore exists
// even when the client never broadcasts.
func (f *Flow) Redeem(ctx context.Context, owner solana.PublicKey, sessionRef string, data FormData) (actions.Response, error) {
	if strings.TrimSpace(sessionRef) == "" {
		return nil, userError(MsgRedeemNotAvailable)
	}
	affordable, err := f.evaluator.CanAffordFee(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !affordable {
		return nil, userError(MsgInsufficientFunds)
	}
	redeemable, err := f.evaluator.Redeemable(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !data.complete() {
		f.logger.Warn("redeem submission incomplete", "session_reference", sessionRef)
		return nil, userError(MsgRedeemNotAvailable)
	}
	asset, ok := collectible.FirstByName(redeemable, data.NFTName)
	if !ok {
		f.logger.Warn("redeem selection not redeemable", "session_reference", sessionRef, "name", data.NFTName)
		return nil, userError(MsgRedeemNotAvailable)
	}

	// Proposal reference == session reference: the completion callback can
	// locate this transaction by the identifier the client already holds.
	ref, err := reference.Parse(sessionRef)
	if err != nil {
		f.logger.Warn("session reference is not address shaped", "session_reference", sessionRef, "error", err)
		return nil, userError(MsgRedeemNotAvailable)
	}
	tx, err := f.composer.BurnAndPay(ctx, f.burner, asset.Address, f.cfg.Collection, owner, f.cfg.FeeBaseUnits(), f.cfg.FeeMint, f.cfg.FeePayee, ref)
	if err != nil {
		f.logger.Error("redeem transaction composition failed", "session_reference", sessionRef, "error", err)
		return nil, userError(MsgTryAgainLater)
	}
	encoded, err := tx.ToBase64()
	if err != nil {
		f.logger.Error("redeem transaction encoding failed", "session_reference", sessionRef, "error", err)
		return nil, userError(MsgTryAgainLater)
	}

	rec := shipment.Record{
		SessionReference: sessionRef,
		Name:             data.Name,
		Country:          data.Country,
		Address:          data.Address,
		Contact:          data.Email,
		WalletAddress:    owner.String(),
		TShirt:           data.NFTName,
		TShirtSize:       data.Size,
		BurnTxReference:  sessionRef,
	}
	if err := f.store.Upsert(ctx, rec); err != nil {
		f.logger.Error("shipment upsert failed", "session_reference", sessionRef, "error", err)
		return nil, userError(MsgTryAgainLater)
	}
	f.emit(ctx, shipevent.Payload{
		Version:          shipevent.KindRecorded,
		SessionReference: sessionRef,
		WalletAddress:    owner.String(),
		TShirt:           data.NFTName,
		BurnTxReference:  sessionRef,
		At:               f.now(),
	})

	return actions.NewProposal(encoded, sessionRef, f.stepHref("completed", sessionRef)), nil
}

// Completed acknowledges the broadcast signature and schedules the deferred
// ledger update. The acknowledgment never waits for the update: a missing
// record or a failed write is logged, not surfaced.
func (f *Flow) Completed(_ context.Context, sessionRef, signature string) (actions.Response, error) {
	if strings.TrimSpace(sessionRef) == "" {
		return nil, userError(MsgRedeemNotAvailable)
	}
	if strings.TrimSpace(signature) == "" {
		return nil, userError(MsgSignatureRequired)
	}

	f.scheduler.Schedule("shipment-signature-update", func(taskCtx context.Context) {
		updated, err := f.store.SetBurnSignature(taskCtx, sessionRef, signature)
		if err != nil {
			f.logger.Error("burn signature update failed", "session_reference", sessionRef, "error", err)
			return
		}
		if !updated {
			f.logger.Warn("burn signature update matched no record", "session_reference", sessionRef)
			return
		}
		f.emit(taskCtx, shipevent.Payload{
			Version:          shipevent.KindCompleted,
			SessionReference: sessionRef,
			BurnTxSignature:  signature,
			At:               f.now(),
		})
	})

	return actions.NewTerminal(f.cfg.Title, "Redeem your Superbasedd T-Shirt via this blink", "Completed", f.cfg.Icon), nil
}

func (f *Flow) stepHref(step, sessionRef string) string {
	return f.cfg.BasePath + "/" + step + "?sessionReference=" + sessionRef
}

func (f *Flow) emit(ctx context.Context, payload shipevent.Payload) {
	if f.events == nil {
		return
	}
	if err := f.events.Emit(ctx, payload); err != nil {
		f.logger.Warn("shipment event emit failed", "session_reference", payload.SessionReference, "error", err)
	}
}

func formParameters(shirtNames []string) []actions.Parameter {
	shirtOptions := make([]actions.Option, 0, len(shirtNames))
	for _, name := range shirtNames {
		shirtOptions = append(shirtOptions, actions.Option{Label: name, Value: name})
	}
	return []actions.Parameter{
		{Name: "name", Label: "Name", Type: "text", Required: true},
		{Name: "country", Label: "Country", Type: "text", Required: true},
		{Name: "address", Label: "Address", Type: "textarea", Required: true},
		{Name: "email", Label: "Email", Type: "email", Required: true},
		{Name: "nftName", Label: "T-Shirt", Type: "select", Required: true, Options: shirtOptions},
		{Name: "size", Label: "Size", Type: "select", Required: true, Options: []actions.Option{
			{Label: "Small", Value: "s"},
			{Label: "Medium", Value: "m"},
			{Label: "Large", Value: "l"},
			{Label: "X-Large", Value: "xl"},
		}},
	}
}
