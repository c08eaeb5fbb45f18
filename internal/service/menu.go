package service

import (
	"context"
	"strings"

	"github.com/xiaot623/catalogbot/internal/domain"
)

var menuLabels = []string{
	domain.MenuViewProducts,
	domain.MenuEditAttributes,
	domain.MenuAddProduct,
}

// matchMenu finds the single menu command contained in text, ignoring case
// and any numeric prefix. Text naming more than one command matches none.
func matchMenu(text string) (string, bool) {
	lower := strings.ToLower(text)
	match := ""
	for _, label := range menuLabels {
		if strings.Contains(lower, strings.ToLower(label)) {
			if match != "" {
				return "", false
			}
			match = label
		}
	}
	return match, match != ""
}

func (s *Service) stepMenu(ctx context.Context, sess *domain.Session, text string) []domain.Reply {
	label, ok := matchMenu(text)
	if !ok {
		return []domain.Reply{menuReply(msgUnrecognized)}
	}

	switch label {
	case domain.MenuViewProducts:
		return s.viewProducts(ctx)
	case domain.MenuEditAttributes:
		sess.ResetFlow(domain.FlowAwaitEditProductID)
		return []domain.Reply{reply(msgEditProductPrompt)}
	default:
		sess.ResetFlow(domain.FlowAwaitAddName)
		return []domain.Reply{reply(msgAddNamePrompt)}
	}
}

func (s *Service) viewProducts(ctx context.Context) []domain.Reply {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		logger.Warningf("view products: %v", err)
		return []domain.Reply{menuReply(msgDatabaseError)}
	}
	if len(products) == 0 {
		return []domain.Reply{reply(msgNoProducts)}
	}

	return pageReplies(renderProducts(products))
}

func pageReplies(pages []string) []domain.Reply {
	replies := make([]domain.Reply, 0, len(pages))
	for _, page := range pages {
		replies = append(replies, reply(page))
	}
	return replies
}
