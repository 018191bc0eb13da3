package service

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type fakeRateSource struct {
	rates []model.TransferRate
	err   error
	calls int
}

func (f *fakeRateSource) byScope(match func(model.RateScope) bool) ([]model.TransferRate, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []model.TransferRate
	for _, r := range f.rates {
		if r.Active && match(r.Scope) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRateSource) ActiveGlobal(ctx context.Context) ([]model.TransferRate, error) {
	return f.byScope(func(s model.RateScope) bool { return s.Kind == model.ScopeGlobal })
}

func (f *fakeRateSource) ActiveCountry(ctx context.Context, countryID int64) ([]model.TransferRate, error) {
	return f.byScope(func(s model.RateScope) bool { return s == model.CountryScope(countryID) })
}

func (f *fakeRateSource) ActiveCorridor(ctx context.Context, senderCountryID, receiverCountryID int64) ([]model.TransferRate, error) {
	return f.byScope(func(s model.RateScope) bool { return s == model.CorridorScope(senderCountryID, receiverCountryID) })
}

type fakeCountries map[int64]model.Country

func (f fakeCountries) FindByID(ctx context.Context, id int64) (*model.Country, error) {
	c, ok := f[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &c, nil
}

type fakeFX struct {
	rates map[string]decimal.Decimal
	err   error
	calls int
	mu    sync.Mutex
}

func (f *fakeFX) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return decimal.Zero, f.err
	}
	r, ok := f.rates[from+"/"+to]
	if !ok {
		return decimal.Zero, errors.New("pair not quoted")
	}
	return r, nil
}

type fakeSettings map[string]string

func (f fakeSettings) String(ctx context.Context, key, fallback string) (string, error) {
	if v, ok := f[key]; ok {
		return v, nil
	}
	return fallback, nil
}

func (f fakeSettings) Bool(ctx context.Context, key string, fallback bool) (bool, error) {
	if v, ok := f[key]; ok {
		return v == "true", nil
	}
	return fallback, nil
}

type fakeMethods struct {
	byCountry map[int64][]model.CountryPaymentMethod
	err       error
}

func (f *fakeMethods) ActiveCountryMethods(ctx context.Context, countryID int64) ([]model.CountryPaymentMethod, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byCountry[countryID], nil
}

type fakeWallets map[int64]*model.Wallet

func (f fakeWallets) FindWithSubWallets(ctx context.Context, countryID int64) (*model.Wallet, error) {
	w, ok := f[countryID]
	if !ok {
		return nil, model.ErrNotFound
	}
	return w, nil
}

// memLedger is an in-memory LedgerStore. A transaction works on a copy of
// the state which replaces the committed state only when fn succeeds.
type memLedger struct {
	mu          sync.Mutex
	wallets     map[int64]*model.Wallet // by country id
	nextID      int64
	settlements []model.Settlement
	recorded    []model.Settlement

	// failOn makes the named operation fail inside the transaction.
	failOn  string
	failErr error
	// staleBy inflates the balance LockSubWallet reports, as a caller holding
	// an outdated read would see it.
	staleBy decimal.Decimal
}

func newMemLedger() *memLedger {
	return &memLedger{wallets: map[int64]*model.Wallet{}, nextID: 100}
}

func (m *memLedger) addSubWallet(countryID, paymentMethodID int64, balance string) {
	w, ok := m.wallets[countryID]
	if !ok {
		m.nextID++
		w = &model.Wallet{ID: m.nextID, CountryID: countryID}
		m.wallets[countryID] = w
	}
	m.nextID++
	b := dec(balance)
	w.SubWallets = append(w.SubWallets, model.SubWallet{
		ID: m.nextID, WalletID: w.ID, PaymentMethodID: paymentMethodID,
		CountryPaymentMethodID: m.nextID, Balance: b, Active: true,
	})
	w.Balance = w.Balance.Add(b)
}

func (m *memLedger) subBalance(countryID, paymentMethodID int64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.wallets[countryID]
	if !ok {
		return decimal.Zero
	}
	sw, _ := w.SubWalletFor(paymentMethodID)
	return sw.Balance
}

func (m *memLedger) walletBalance(countryID int64) decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	if w, ok := m.wallets[countryID]; ok {
		return w.Balance
	}
	return decimal.Zero
}

func cloneWallets(in map[int64]*model.Wallet) map[int64]*model.Wallet {
	out := make(map[int64]*model.Wallet, len(in))
	for k, w := range in {
		cp := *w
		cp.SubWallets = append([]model.SubWallet(nil), w.SubWallets...)
		out[k] = &cp
	}
	return out
}

func (m *memLedger) RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memTx{m: m, wallets: cloneWallets(m.wallets), nextID: m.nextID}
	if err := fn(tx); err != nil {
		return err
	}
	m.wallets = tx.wallets
	m.nextID = tx.nextID
	m.settlements = append(m.settlements, tx.settlements...)
	return nil
}

func (m *memLedger) RecordSettlement(ctx context.Context, s *model.Settlement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recorded = append(m.recorded, *s)
	return nil
}

type memTx struct {
	m           *memLedger
	wallets     map[int64]*model.Wallet
	nextID      int64
	settlements []model.Settlement
}

func (t *memTx) fail(op string) error {
	if t.m.failOn == op {
		return t.m.failErr
	}
	return nil
}

func (t *memTx) EnsureWallet(ctx context.Context, countryID int64) error {
	if err := t.fail("ensure_wallet"); err != nil {
		return err
	}
	if _, ok := t.wallets[countryID]; !ok {
		t.nextID++
		t.wallets[countryID] = &model.Wallet{ID: t.nextID, CountryID: countryID}
	}
	return nil
}

func (t *memTx) LockWallets(ctx context.Context, countryIDs ...int64) (map[int64]*model.Wallet, error) {
	ids := append([]int64(nil), countryIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := map[int64]*model.Wallet{}
	for _, id := range ids {
		if w, ok := t.wallets[id]; ok {
			out[id] = w
		}
	}
	return out, nil
}

func (t *memTx) walletByID(id int64) *model.Wallet {
	for _, w := range t.wallets {
		if w.ID == id {
			return w
		}
	}
	return nil
}

func (t *memTx) LockSubWallet(ctx context.Context, walletID, paymentMethodID int64) (*model.SubWallet, error) {
	w := t.walletByID(walletID)
	if w == nil {
		return nil, model.ErrNotFound
	}
	for i := range w.SubWallets {
		if w.SubWallets[i].PaymentMethodID == paymentMethodID && w.SubWallets[i].Active {
			sw := w.SubWallets[i]
			sw.Balance = sw.Balance.Add(t.m.staleBy)
			return &sw, nil
		}
	}
	return nil, model.ErrNotFound
}

func (t *memTx) EnsureSubWallet(ctx context.Context, wallet *model.Wallet, paymentMethodID int64) (*model.SubWallet, error) {
	w := t.walletByID(wallet.ID)
	for i := range w.SubWallets {
		if w.SubWallets[i].PaymentMethodID == paymentMethodID {
			sw := w.SubWallets[i]
			return &sw, nil
		}
	}
	t.nextID++
	sw := model.SubWallet{ID: t.nextID, WalletID: w.ID, PaymentMethodID: paymentMethodID, CountryPaymentMethodID: t.nextID, Active: true}
	w.SubWallets = append(w.SubWallets, sw)
	return &sw, nil
}

func (t *memTx) adjust(sw *model.SubWallet, delta decimal.Decimal) error {
	w := t.walletByID(sw.WalletID)
	for i := range w.SubWallets {
		if w.SubWallets[i].ID == sw.ID {
			next := w.SubWallets[i].Balance.Add(delta)
			if next.IsNegative() {
				return ErrInsufficientBalance
			}
			w.SubWallets[i].Balance = next
			w.Balance = w.Balance.Add(delta)
			return nil
		}
	}
	return model.ErrNotFound
}

func (t *memTx) Debit(ctx context.Context, sw *model.SubWallet, amount decimal.Decimal) error {
	if err := t.fail("debit"); err != nil {
		return err
	}
	return t.adjust(sw, amount.Neg())
}

func (t *memTx) Credit(ctx context.Context, sw *model.SubWallet, amount decimal.Decimal) error {
	if err := t.fail("credit"); err != nil {
		return err
	}
	return t.adjust(sw, amount)
}

func (t *memTx) InsertSettlement(ctx context.Context, s *model.Settlement) error {
	if err := t.fail("insert_settlement"); err != nil {
		return err
	}
	t.settlements = append(t.settlements, *s)
	return nil
}

type recordingPublisher struct {
	mu  sync.Mutex
	got []model.Settlement
}

func (p *recordingPublisher) PublishSettlement(ctx context.Context, s *model.Settlement) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, *s)
	return nil
}

type stubQuoter struct {
	out *Breakdown
	err error
}

func (q stubQuoter) Quote(ctx context.Context, req QuoteRequest) (*Breakdown, error) {
	return q.out, q.err
}
