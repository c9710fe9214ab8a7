package chain

import (
	"context"
	"errors"
	"testing"

	"github.com/gagliardetto/solana-go"
)

type stubReader struct {
	native    uint64
	nativeErr error

	token    TokenBalance
	tokenErr error
}

func (s *stubReader) NativeBalance(context.Context, solana.PublicKey) (uint64, error) {
	return s.native, s.nativeErr
}

func (s *stubReader) TokenBalance(context.Context, solana.PublicKey, solana.PublicKey) (TokenBalance, error) {
	return s.token, s.tokenErr
}

func (s *stubReader) LatestBlockhash(context.Context) (solana.Hash, error) {
	return solana.Hash{}, nil
}

func TestResolveBalance(t *testing.T) {
	t.Parallel()

	owner := solana.MustPublicKeyFromBase58("9yhrkxMKfvzzaUDYcwxNCwsgVbjyC2u9dYCA3166GsCt")
	mint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	lookupErr := errors.New("rpc unreachable")

	cases := []struct {
		name    string
		reader  stubReader
		mint    *solana.PublicKey
		want    uint64
		wantErr error
	}{
		{
			name:   "native balance when no mint given",
			reader: stubReader{native: 1_500_000},
			want:   1_500_000,
		},
		{
			name:   "token balance from existing sub-account",
			reader: stubReader{token: TokenBalance{Amount: 15_000_000, AccountExists: true}},
			mint:   &mint,
			want:   15_000_000,
		},
		{
			name:   "missing sub-account resolves to zero, not error",
			reader: stubReader{token: TokenBalance{}},
			mint:   &mint,
			want:   0,
		},
		{
			name:    "lookup failure propagates",
			reader:  stubReader{tokenErr: lookupErr},
			mint:    &mint,
			wantErr: lookupErr,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := ResolveBalance(context.Background(), &tc.reader, owner, tc.mint)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err: got %v want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveBalance: %v", err)
			}
			if got != tc.want {
				t.Fatalf("balance: got %d want %d", got, tc.want)
			}
		})
	}
}
