package service

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/xiaot623/catalogbot/internal/domain"
)

func (s *Service) stepAddName(_ context.Context, sess *domain.Session, text string) []domain.Reply {
	sess.Scratch.Draft.Name = text
	sess.Flow = domain.FlowAwaitAddPrice
	return []domain.Reply{reply(msgPricePrompt)}
}

func (s *Service) stepAddPrice(_ context.Context, sess *domain.Session, text string) []domain.Reply {
	if s.opts.StrictProductInput {
		if err := validatePrice(text); err != nil {
			return []domain.Reply{reply(reprompt(msgInvalidPrice, msgPricePrompt))}
		}
		text = strings.TrimSpace(text)
	}
	sess.Scratch.Draft.Price = text
	sess.Flow = domain.FlowAwaitAddStock
	return []domain.Reply{reply(msgStockPrompt)}
}

func (s *Service) stepAddStock(_ context.Context, sess *domain.Session, text string) []domain.Reply {
	if s.opts.StrictProductInput {
		if err := validateStock(text); err != nil {
			return []domain.Reply{reply(reprompt(msgInvalidStock, msgStockPrompt))}
		}
		text = strings.TrimSpace(text)
	}
	sess.Scratch.Draft.Stock = text
	sess.Flow = domain.FlowAwaitAddDescription
	return []domain.Reply{reply(msgDescriptionPrompt)}
}

func (s *Service) stepAddDescription(ctx context.Context, sess *domain.Session, text string) []domain.Reply {
	draft := sess.Scratch.Draft
	draft.Description = text

	id, err := s.store.CreateProduct(ctx, draft)
	sess.ResetFlow(domain.FlowMenuIdle)
	if err != nil {
		logger.Warningf("create product %q: %v", draft.Name, err)
		return []domain.Reply{menuReply(msgProductCreateFailed)}
	}
	logger.Infof("product %d created by %s", id, sess.Username)
	return []domain.Reply{menuReply(msgProductCreated)}
}

func validatePrice(text string) error {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.NotValidf("price %q", text)
	}
	return nil
}

func validateStock(text string) error {
	if _, err := strconv.ParseUint(strings.TrimSpace(text), 10, 64); err != nil {
		return errors.NotValidf("stock %q", text)
	}
	return nil
}
