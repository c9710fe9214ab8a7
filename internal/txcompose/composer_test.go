package txcompose

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"

	"github.com/superbasedd/merch-blink/internal/chain"
)

var (
	testMint  = solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	testPayee = solana.MustPublicKeyFromBase58("9yhrkxMKfvzzaUDYcwxNCwsgVbjyC2u9dYCA3166GsCt")
)

type stubReader struct {
	blockhash solana.Hash
	balances  map[solana.PublicKey]chain.TokenBalance
	err       error
}

func (s *stubReader) NativeBalance(context.Context, solana.PublicKey) (uint64, error) {
	return 0, nil
}

func (s *stubReader) TokenBalance(_ context.Context, owner, _ solana.PublicKey) (chain.TokenBalance, error) {
	if s.err != nil {
		return chain.TokenBalance{}, s.err
	}
	return s.balances[owner], nil
}

func (s *stubReader) LatestBlockhash(context.Context) (solana.Hash, error) {
	if s.err != nil {
		return solana.Hash{}, s.err
	}
	return s.blockhash, nil
}

type fixedBurner struct {
	ix solana.Instruction
}

func (f *fixedBurner) BurnInstructions(_, _, _ solana.PublicKey) ([]solana.Instruction, error) {
	return []solana.Instruction{f.ix}, nil
}

func newKey(t *testing.T) solana.PublicKey {
	t.Helper()
	k, err := solana.NewRandomPrivateKey()
	if err != nil {
		t.Fatalf("new key: %v", err)
	}
	return k.PublicKey()
}

func testBlockhash() solana.Hash {
	var h solana.Hash
	for i := range h {
		h[i] = byte(i + 1)
	}
	return h
}

func TestCompose(t *testing.T) {
	t.Parallel()

	payer := newKey(t)
	ref := newKey(t)
	reader := &stubReader{blockhash: testBlockhash()}
	c, err := NewComposer(reader)
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}

	marker := solana.NewInstruction(solana.MemoProgramID,
		solana.AccountMetaSlice{solana.NewAccountMeta(ref, false, false)}, nil)
	tx, err := c.Compose(context.Background(), []solana.Instruction{marker}, payer)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}

	if tx.Message.RecentBlockhash != testBlockhash() {
		t.Fatalf("blockhash: got %s", tx.Message.RecentBlockhash)
	}
	if len(tx.Message.AccountKeys) == 0 || !tx.Message.AccountKeys[0].Equals(payer) {
		t.Fatalf("fee payer must be first account key")
	}
	if len(tx.Signatures) != 0 && tx.Signatures[0] != (solana.Signature{}) {
		t.Fatalf("transaction must be unsigned")
	}
}

func TestCompose_EmptyInstructions(t *testing.T) {
	t.Parallel()

	c, err := NewComposer(&stubReader{blockhash: testBlockhash()})
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}
	if _, err := c.Compose(context.Background(), nil, newKey(t)); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("err: got %v want ErrInvalidConfig", err)
	}
}

func TestTokenTransferInstruction_MissingAccounts(t *testing.T) {
	t.Parallel()

	payer := newKey(t)

	cases := []struct {
		name     string
		balances map[solana.PublicKey]chain.TokenBalance
	}{
		{
			name: "payer sub-account missing",
			balances: map[solana.PublicKey]chain.TokenBalance{
				testPayee: {Amount: 1, AccountExists: true},
			},
		},
		{
			name: "payee sub-account missing",
			balances: map[solana.PublicKey]chain.TokenBalance{
				payer: {Amount: 20_000_000, AccountExists: true},
			},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := NewComposer(&stubReader{blockhash: testBlockhash(), balances: tc.balances})
			if err != nil {
				t.Fatalf("NewComposer: %v", err)
			}
			_, err = c.TokenTransferInstruction(context.Background(), 15_000_000, testMint, payer, testPayee)
			if !errors.Is(err, ErrMissingTokenAccount) {
				t.Fatalf("err: got %v want ErrMissingTokenAccount", err)
			}
		})
	}
}

func TestBurnAndPay_InstructionOrder(t *testing.T) {
	t.Parallel()

	owner := newKey(t)
	asset := newKey(t)
	collection := newKey(t)
	ref := newKey(t)
	burnProgram := newKey(t)

	reader := &stubReader{
		blockhash: testBlockhash(),
		balances: map[solana.PublicKey]chain.TokenBalance{
			owner:     {Amount: 20_000_000, AccountExists: true},
			testPayee: {Amount: 0, AccountExists: true},
		},
	}
	c, err := NewComposer(reader)
	if err != nil {
		t.Fatalf("NewComposer: %v", err)
	}

	burnIx := solana.NewInstruction(burnProgram,
		solana.AccountMetaSlice{solana.NewAccountMeta(asset, true, false)}, []byte{12, 0})
	tx, err := c.BurnAndPay(context.Background(), &fixedBurner{ix: burnIx},
		asset, collection, owner, 15_000_000, testMint, testPayee, ref)
	if err != nil {
		t.Fatalf("BurnAndPay: %v", err)
	}

	msg := tx.Message
	if len(msg.Instructions) != 3 {
		t.Fatalf("instructions: got %d want 3", len(msg.Instructions))
	}
	programAt := func(i int) solana.PublicKey {
		return msg.AccountKeys[msg.Instructions[i].ProgramIDIndex]
	}
	if !programAt(0).Equals(burnProgram) {
		t.Fatalf("instruction 0: got program %s want burn program", programAt(0))
	}
	if !programAt(1).Equals(solana.TokenProgramID) {
		t.Fatalf("instruction 1: got program %s want token program", programAt(1))
	}
	if !programAt(2).Equals(solana.MemoProgramID) {
		t.Fatalf("instruction 2: got program %s want memo program", programAt(2))
	}

	// The reference must appear among the message accounts even though no
	// instruction writes to it.
	found := false
	for _, k := range msg.AccountKeys {
		if k.Equals(ref) {
			found = true
		}
	}
	if !found {
		t.Fatalf("reference %s missing from account keys", ref)
	}
}
