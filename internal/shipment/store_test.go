package shipment

import (
	"context"
	"errors"
	"testing"
	"time"
)

func testRecord(sessionRef string) Record {
	return Record{
		SessionReference: sessionRef,
		Name:             "Ada Lovelace",
		Country:          "UK",
		Address:          "12 St James Square, London",
		Contact:          "ada@example.com",
		WalletAddress:    "9yhrkxMKfvzzaUDYcwxNCwsgVbjyC2u9dYCA3166GsCt",
		TShirt:           "JUNK MAIL TEE",
		TShirtSize:       "m",
		BurnTxReference:  sessionRef,
	}
}

func TestMemoryStore_UpsertLastWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(nil)

	first := testRecord("session-1")
	if err := s.Upsert(ctx, first); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	second := first
	second.Address = "1 Infinite Loop, Cupertino"
	second.TShirtSize = "xl"
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	got, err := s.Get(ctx, "session-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Address != second.Address || got.TShirtSize != "xl" {
		t.Fatalf("expected second write to win, got %+v", got)
	}
	if got.BurnTxSignature != "" {
		t.Fatalf("upsert must not touch settlement signature, got %q", got.BurnTxSignature)
	}
}

func TestMemoryStore_UpsertPreservesSignature(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := NewMemoryStore(nil)

	if err := s.Upsert(ctx, testRecord("session-2")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	updated, err := s.SetBurnSignature(ctx, "session-2", "5igSig")
	if err != nil || !updated {
		t.Fatalf("SetBurnSignature: updated=%v err=%v", updated, err)
	}

	if err := s.Upsert(ctx, testRecord("session-2")); err != nil {
		t.Fatalf("Upsert after signature: %v", err)
	}
	got, err := s.Get(ctx, "session-2")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.BurnTxSignature != "5igSig" {
		t.Fatalf("signature: got %q want %q", got.BurnTxSignature, "5igSig")
	}
}

func TestMemoryStore_SetBurnSignatureWithoutRecord(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore(nil)
	updated, err := s.SetBurnSignature(context.Background(), "never-redeemed", "5igSig")
	if err != nil {
		t.Fatalf("SetBurnSignature: %v", err)
	}
	if updated {
		t.Fatalf("update-only semantics: must not create a record")
	}
	if _, err := s.Get(context.Background(), "never-redeemed"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get: got %v want ErrNotFound", err)
	}
}

func TestMemoryStore_CreatedAtStable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	current := base
	s := NewMemoryStore(func() time.Time { return current })

	if err := s.Upsert(ctx, testRecord("session-3")); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	current = base.Add(time.Hour)
	if err := s.Upsert(ctx, testRecord("session-3")); err != nil {
		t.Fatalf("Upsert again: %v", err)
	}

	got, err := s.Get(ctx, "session-3")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !got.CreatedAt.Equal(base) {
		t.Fatalf("created at: got %v want %v", got.CreatedAt, base)
	}
	if !got.UpdatedAt.Equal(base.Add(time.Hour)) {
		t.Fatalf("updated at: got %v want %v", got.UpdatedAt, base.Add(time.Hour))
	}
}

func TestRecordValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*Record)
	}{
		{"missing session reference", func(r *Record) { r.SessionReference = "" }},
		{"missing name", func(r *Record) { r.Name = " " }},
		{"missing country", func(r *Record) { r.Country = "" }},
		{"missing address", func(r *Record) { r.Address = "" }},
		{"missing wallet", func(r *Record) { r.WalletAddress = "" }},
		{"missing shirt", func(r *Record) { r.TShirt = "" }},
		{"missing size", func(r *Record) { r.TShirtSize = "" }},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := testRecord("session-4")
			tc.mutate(&rec)
			if err := rec.Validate(); !errors.Is(err, ErrInvalidRecord) {
				t.Fatalf("err: got %v want ErrInvalidRecord", err)
			}
		})
	}

	valid := testRecord("session-4")
	valid.Contact = ""
	if err := valid.Validate(); err != nil {
		t.Fatalf("contact is optional, got %v", err)
	}
}
