// Package service implements the conversation engine that turns chat
// messages into catalog operations.
package service

import (
	"context"

	"github.com/im7mortal/kmutex"
	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/loggo/v2"

	"github.com/xiaot623/catalogbot/internal/auth"
	"github.com/xiaot623/catalogbot/internal/domain"
	"github.com/xiaot623/catalogbot/internal/repository"
	"github.com/xiaot623/catalogbot/internal/session"
)

var logger = loggo.GetLogger("catalogbot.service")

// Options tune the conversation engine.
type Options struct {
	// StrictProductInput validates price and stock in the add-product flow.
	StrictProductInput bool
	// Clock stamps session activity. Defaults to the wall clock.
	Clock clock.Clock
}

// Service is the conversation engine.
type Service struct {
	store    repository.Store
	gate     auth.Verifier
	sessions session.Store
	locks    *kmutex.Kmutex
	opts     Options
	clock    clock.Clock
	steps    map[domain.FlowState]stepFunc
}

// New creates the conversation engine.
func New(store repository.Store, gate auth.Verifier, sessions session.Store, opts Options) *Service {
	clk := opts.Clock
	if clk == nil {
		clk = clock.WallClock
	}
	s := &Service{
		store:    store,
		gate:     gate,
		sessions: sessions,
		locks:    kmutex.New(),
		opts:     opts,
		clock:    clk,
	}
	s.steps = s.transitionTable()
	return s
}

// ListProducts returns the catalog for read-only API consumers.
func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "failed to list products")
	}
	return products, nil
}

// GetProduct returns one product with its attribute values.
func (s *Service) GetProduct(ctx context.Context, productID int64) (*domain.Product, []domain.AttributeValue, error) {
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, nil, errors.Annotate(err, "failed to get product")
	}
	values, err := s.store.ListAttributeValues(ctx, productID)
	if err != nil {
		return nil, nil, errors.Annotate(err, "failed to list attribute values")
	}
	return product, values, nil
}

// SessionCount returns the number of live conversations.
func (s *Service) SessionCount() int {
	return s.sessions.Len()
}
