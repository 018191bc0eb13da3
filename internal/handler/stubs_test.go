package handler

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/gic/cashtransfer/internal/model"
	"github.com/gic/cashtransfer/internal/service"
)

type stubQuoter struct {
	got service.QuoteRequest
	out *service.Breakdown
	err error
}

func (s *stubQuoter) Quote(ctx context.Context, req service.QuoteRequest) (*service.Breakdown, error) {
	s.got = req
	return s.out, s.err
}

type stubMatcher struct {
	calls int
	out   []service.AvailableMethod
	err   error
}

func (s *stubMatcher) Match(ctx context.Context, senderCountryID, receiverCountryID int64, amount decimal.Decimal) ([]service.AvailableMethod, error) {
	s.calls++
	return s.out, s.err
}

type stubSettler struct {
	got service.SettleRequest
	out *model.Settlement
	err error
}

func (s *stubSettler) SettleTransfer(ctx context.Context, req service.SettleRequest) (*model.Settlement, error) {
	s.got = req
	return s.out, s.err
}

type stubSettlements struct {
	byID       map[string]model.Settlement
	gotStatus  model.SettlementStatus
	gotLimit   int
	gotOffset  int
	listResult []model.Settlement
	total      int
}

func (s *stubSettlements) FindByID(ctx context.Context, id string) (*model.Settlement, error) {
	st, ok := s.byID[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &st, nil
}

func (s *stubSettlements) List(ctx context.Context, status model.SettlementStatus, limit, offset int) ([]model.Settlement, int, error) {
	s.gotStatus, s.gotLimit, s.gotOffset = status, limit, offset
	return s.listResult, s.total, nil
}

type stubRates struct {
	byID        map[int64]model.TransferRate
	created     *model.TransferRate
	updated     *model.TransferRate
	deactivated int64
	gotKind     model.ScopeKind
	createErr   error
}

func (s *stubRates) List(ctx context.Context, kind model.ScopeKind, limit, offset int) ([]model.TransferRate, int, error) {
	s.gotKind = kind
	var out []model.TransferRate
	for _, r := range s.byID {
		out = append(out, r)
	}
	return out, len(out), nil
}

func (s *stubRates) Get(ctx context.Context, id int64) (*model.TransferRate, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, model.ErrNotFound
	}
	return &r, nil
}

func (s *stubRates) Create(ctx context.Context, rate *model.TransferRate) error {
	if s.createErr != nil {
		return s.createErr
	}
	rate.ID = 100
	s.created = rate
	return nil
}

func (s *stubRates) Update(ctx context.Context, rate *model.TransferRate) error {
	if _, ok := s.byID[rate.ID]; !ok {
		return model.ErrNotFound
	}
	s.updated = rate
	return nil
}

func (s *stubRates) Deactivate(ctx context.Context, id int64) error {
	if _, ok := s.byID[id]; !ok {
		return model.ErrNotFound
	}
	s.deactivated = id
	return nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(ctx context.Context) error { return p.err }

var errDown = errors.New("connection refused")
