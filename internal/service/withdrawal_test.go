package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"cloudmine_backend/internal/domain"

	"github.com/shopspring/decimal"
)

const (
	btcAddress = "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq"
	ethAddress = "0x52908400098527886E0F7030069857D2E4169EE7"
)

type withdrawalFixture struct {
	svc     *WithdrawalService
	ledger  *LedgerService
	store   *memLedger
	wallets *memWallets
}

func newWithdrawalFixture(t *testing.T, minByCrypto map[string]decimal.Decimal) *withdrawalFixture {
	t.Helper()

	store := newMemLedger()
	ledger := NewLedgerService(store)
	wallets := newMemWallets()
	svc := NewWithdrawalService(newMemWithdrawals(store), ledger, wallets, NewLocks(), decimal.NewFromInt(10), minByCrypto)

	return &withdrawalFixture{svc: svc, ledger: ledger, store: store, wallets: wallets}
}

func (f *withdrawalFixture) fund(t *testing.T, userID int64, amount string) {
	t.Helper()
	err := f.store.Append(context.Background(), &domain.LedgerEntry{
		ID:             "fund-" + amount,
		UserID:         userID,
		Kind:           domain.EntryAdjustment,
		Amount:         decimal.RequireFromString(amount),
		IdempotencyKey: "fund:" + amount,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestWithdrawalValidation(t *testing.T) {
	f := newWithdrawalFixture(t, nil)
	f.fund(t, 1, "100")
	ctx := context.Background()

	tests := []struct {
		name    string
		amount  string
		crypto  string
		address string
		wantErr error
	}{
		{"zero amount", "0", "bitcoin", btcAddress, ErrInvalidAmount},
		{"negative amount", "-5", "bitcoin", btcAddress, ErrInvalidAmount},
		{"address for wrong chain", "20", "bitcoin", ethAddress, ErrInvalidAddress},
		{"unsupported crypto", "20", "monero", btcAddress, ErrInvalidAddress},
		{"below global minimum", "9.99", "bitcoin", btcAddress, ErrBelowMinimum},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Request(ctx, 1, decimal.RequireFromString(tt.amount), tt.crypto, tt.address)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}

	// Nothing above should have touched the ledger.
	bal, _ := f.ledger.Balance(ctx, 1)
	if !bal.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("balance = %s after rejected requests, want 100", bal)
	}
}

func TestWithdrawalPerCryptoMinimum(t *testing.T) {
	f := newWithdrawalFixture(t, map[string]decimal.Decimal{"ethereum": decimal.NewFromInt(25)})
	f.fund(t, 1, "100")
	ctx := context.Background()

	// Above global minimum but below the ethereum floor.
	_, err := f.svc.Request(ctx, 1, decimal.NewFromInt(20), "ethereum", ethAddress)
	if !errors.Is(err, ErrBelowMinimum) {
		t.Fatalf("err = %v, want ErrBelowMinimum", err)
	}

	// The same amount is fine on bitcoin.
	if _, err := f.svc.Request(ctx, 1, decimal.NewFromInt(20), "bitcoin", btcAddress); err != nil {
		t.Fatalf("bitcoin request: %v", err)
	}
}

func TestWithdrawalReservesImmediately(t *testing.T) {
	f := newWithdrawalFixture(t, nil)
	f.fund(t, 1, "50")
	ctx := context.Background()

	w, err := f.svc.Request(ctx, 1, decimal.NewFromInt(30), "bitcoin", btcAddress)
	if err != nil {
		t.Fatal(err)
	}
	if w.Status != domain.WithdrawalPending {
		t.Errorf("status = %s, want pending", w.Status)
	}

	// The debit is on the ledger before anything external happens.
	bal, _ := f.ledger.Balance(ctx, 1)
	if !bal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("balance = %s after reserve, want 20", bal)
	}

	entries, _ := f.ledger.History(ctx, 1, 10)
	debit := entries[0]
	if debit.Kind != domain.EntryWithdrawalDebit {
		t.Errorf("kind = %s, want withdrawal_debit", debit.Kind)
	}
	if !debit.Amount.Equal(decimal.NewFromInt(-30)) {
		t.Errorf("debit amount = %s, want -30", debit.Amount)
	}
	if debit.Reference != w.ID {
		t.Errorf("debit reference = %s, want withdrawal id %s", debit.Reference, w.ID)
	}

	// A second withdrawal no longer covered by the remainder is rejected.
	_, err = f.svc.Request(ctx, 1, decimal.NewFromInt(21), "bitcoin", btcAddress)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestWithdrawalInsufficientBalance(t *testing.T) {
	f := newWithdrawalFixture(t, nil)
	f.fund(t, 1, "15")

	_, err := f.svc.Request(context.Background(), 1, decimal.NewFromInt(20), "bitcoin", btcAddress)
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("err = %v, want ErrInsufficientBalance", err)
	}
}

func TestConcurrentWithdrawalsNeverOverspend(t *testing.T) {
	f := newWithdrawalFixture(t, nil)
	f.fund(t, 1, "50")
	ctx := context.Background()

	// 50 covers exactly one of these 30s.
	var wg sync.WaitGroup
	var mu sync.Mutex
	var granted, rejected int

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Request(ctx, 1, decimal.NewFromInt(30), "bitcoin", btcAddress)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				granted++
			case errors.Is(err, ErrInsufficientBalance):
				rejected++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if granted != 1 || rejected != 7 {
		t.Fatalf("granted=%d rejected=%d, want exactly one grant", granted, rejected)
	}
	bal, _ := f.ledger.Balance(ctx, 1)
	if !bal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("balance = %s, want 20", bal)
	}
	if bal.IsNegative() {
		t.Fatal("balance went negative")
	}
}

func TestWithdrawalRemembersWallet(t *testing.T) {
	f := newWithdrawalFixture(t, nil)
	f.fund(t, 1, "100")
	ctx := context.Background()

	if _, err := f.svc.Request(ctx, 1, decimal.NewFromInt(10), "bitcoin", btcAddress); err != nil {
		t.Fatal(err)
	}
	// Same address again: still one saved wallet.
	if _, err := f.svc.Request(ctx, 1, decimal.NewFromInt(10), "bitcoin", btcAddress); err != nil {
		t.Fatal(err)
	}

	wallets, err := f.svc.Wallets(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(wallets) != 1 {
		t.Fatalf("saved wallets = %d, want 1", len(wallets))
	}
	if wallets[0].Address != btcAddress {
		t.Errorf("address = %s, want %s", wallets[0].Address, btcAddress)
	}
}

func TestWithdrawalList(t *testing.T) {
	f := newWithdrawalFixture(t, nil)
	f.fund(t, 1, "100")
	ctx := context.Background()

	first, err := f.svc.Request(ctx, 1, decimal.NewFromInt(10), "bitcoin", btcAddress)
	if err != nil {
		t.Fatal(err)
	}
	second, err := f.svc.Request(ctx, 1, decimal.NewFromInt(20), "bitcoin", btcAddress)
	if err != nil {
		t.Fatal(err)
	}

	list, err := f.svc.List(ctx, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("len = %d, want 2", len(list))
	}
	if list[0].ID != second.ID || list[1].ID != first.ID {
		t.Error("expected newest-first ordering")
	}
}
