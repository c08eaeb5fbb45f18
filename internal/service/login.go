package service

import (
	"context"

	"github.com/xiaot623/catalogbot/internal/domain"
)

func (s *Service) stepUnauthenticated(_ context.Context, _ *domain.Session, _ string) []domain.Reply {
	return []domain.Reply{reply(msgPleaseLogin)}
}

func (s *Service) stepUsername(_ context.Context, sess *domain.Session, text string) []domain.Reply {
	sess.Scratch.CandidateUsername = text
	sess.Flow = domain.FlowAwaitingPassword
	return []domain.Reply{reply(msgPasswordPrompt)}
}

func (s *Service) stepPassword(ctx context.Context, sess *domain.Session, text string) []domain.Reply {
	username := sess.Scratch.CandidateUsername

	if s.gate.VerifyAdmin(ctx, username, text) {
		sess.Authenticated = true
		sess.Username = username
		sess.ResetFlow(domain.FlowMenuIdle)
		return []domain.Reply{menuReply(msgLoginOK)}
	}

	sess.Authenticated = false
	sess.Username = ""
	sess.ResetFlow(domain.FlowUnauthenticated)
	return []domain.Reply{reply(msgLoginFailed)}
}
