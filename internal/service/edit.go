package service

import (
	"context"
	"strconv"
	"strings"

	"github.com/juju/errors"

	"github.com/xiaot623/catalogbot/internal/domain"
)

// parseID parses a decimal identifier typed by the operator. Zero and
// negative values parse; they match no row and surface as not found.
func parseID(text, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0, errors.NotValidf("%s %q", what, text)
	}
	return id, nil
}

func (s *Service) stepEditProductID(ctx context.Context, sess *domain.Session, text string) []domain.Reply {
	productID, err := parseID(text, "product id")
	if err != nil {
		return []domain.Reply{reply(reprompt(msgProductIDNotNumber, msgEditProductPrompt))}
	}

	values, err := s.attributesOf(ctx, productID)
	switch {
	case domain.IsNotFound(err):
		sess.ResetFlow(domain.FlowMenuIdle)
		return []domain.Reply{menuReply(msgProductNotFound)}
	case err != nil:
		logger.Warningf("edit product %d: %v", productID, err)
		sess.ResetFlow(domain.FlowMenuIdle)
		return []domain.Reply{menuReply(msgDatabaseError)}
	case len(values) == 0:
		sess.ResetFlow(domain.FlowMenuIdle)
		return []domain.Reply{menuReply(msgNoAttributes)}
	}

	sess.Scratch.EditProductID = productID
	sess.Flow = domain.FlowAwaitEditAttributeID
	return pageReplies(renderAttributes(productID, values))
}

// attributesOf returns the attribute table of an existing product.
func (s *Service) attributesOf(ctx context.Context, productID int64) ([]domain.AttributeValue, error) {
	exists, err := s.store.ProductExists(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFoundf("product %d", productID)
	}
	return s.store.ListAttributeValues(ctx, productID)
}

func (s *Service) stepEditAttributeID(_ context.Context, sess *domain.Session, text string) []domain.Reply {
	attributeID, err := parseID(text, "attribute id")
	if err != nil {
		return []domain.Reply{reply(reprompt(msgAttributeIDNotNumber, msgAttributeIDPrompt))}
	}

	sess.Scratch.EditAttributeID = attributeID
	sess.Flow = domain.FlowAwaitEditValue
	return []domain.Reply{reply(msgValuePrompt)}
}

func (s *Service) stepEditValue(ctx context.Context, sess *domain.Session, text string) []domain.Reply {
	err := s.store.UpsertProductAttribute(ctx, domain.ProductAttribute{
		ProductID:   sess.Scratch.EditProductID,
		AttributeID: sess.Scratch.EditAttributeID,
		Value:       text,
	})
	sess.ResetFlow(domain.FlowMenuIdle)
	if err != nil {
		logger.Warningf("update attribute: %v", err)
		return []domain.Reply{menuReply(msgDatabaseError)}
	}
	return []domain.Reply{menuReply(msgAttributeUpdated)}
}
