package service

import (
	"context"
	"strings"

	"github.com/xiaot623/catalogbot/internal/domain"
)

// stepFunc advances a session that is waiting in one state. It mutates the
// session in place and returns the replies to send.
type stepFunc func(ctx context.Context, sess *domain.Session, text string) []domain.Reply

// transitionTable maps every state to its step.
func (s *Service) transitionTable() map[domain.FlowState]stepFunc {
	return map[domain.FlowState]stepFunc{
		domain.FlowUnauthenticated:      s.stepUnauthenticated,
		domain.FlowAwaitingUsername:     s.stepUsername,
		domain.FlowAwaitingPassword:     s.stepPassword,
		domain.FlowMenuIdle:             s.stepMenu,
		domain.FlowAwaitEditProductID:   s.stepEditProductID,
		domain.FlowAwaitEditAttributeID: s.stepEditAttributeID,
		domain.FlowAwaitEditValue:       s.stepEditValue,
		domain.FlowAwaitAddName:         s.stepAddName,
		domain.FlowAwaitAddPrice:        s.stepAddPrice,
		domain.FlowAwaitAddStock:        s.stepAddStock,
		domain.FlowAwaitAddDescription:  s.stepAddDescription,
	}
}

// Global commands, accepted in every state.
const (
	cmdStart  = "/start"
	cmdCancel = "/cancel"
	cmdLogout = "/logout"
)

// HandleMessage processes one inbound message for a session and returns the
// replies to deliver. Steps for the same session never run concurrently and
// each runs to completion, including its database work, before the next one
// starts.
func (s *Service) HandleMessage(ctx context.Context, sessionID, text string) []domain.Reply {
	s.locks.Lock(sessionID)
	defer s.locks.Unlock(sessionID)

	sess := s.sessions.Get(sessionID)
	normalize(&sess)
	from := sess.Flow

	var replies []domain.Reply
	if handled, out := s.handleCommand(&sess, text); handled {
		replies = out
		if !domain.CanTransitionByCommand(sess.Flow) {
			logger.Errorf("session %s: command moved %s to %s", sessionID, from, sess.Flow)
		}
	} else {
		replies = s.steps[from](ctx, &sess, text)
		if !domain.CanTransition(from, sess.Flow) {
			logger.Errorf("session %s: illegal transition %s -> %s", sessionID, from, sess.Flow)
		}
	}

	if from != sess.Flow {
		logger.Debugf("session %s: %s -> %s", sessionID, from, sess.Flow)
	}

	sess.LastActivity = s.clock.Now()
	s.sessions.Put(sessionID, sess)

	for i := range replies {
		replies[i].SessionID = sessionID
	}
	return replies
}

// normalize redirects sessions that are outside the login flow without being
// authenticated, and sessions in an unknown state.
func normalize(sess *domain.Session) {
	if !sess.Flow.Valid() {
		if sess.Authenticated {
			sess.ResetFlow(domain.FlowMenuIdle)
		} else {
			sess.ResetFlow(domain.FlowUnauthenticated)
		}
	}
	if !sess.Authenticated && !sess.Flow.IsLoginFlow() {
		sess.ResetFlow(domain.FlowUnauthenticated)
	}
}

func (s *Service) handleCommand(sess *domain.Session, text string) (bool, []domain.Reply) {
	switch commandOf(text) {
	case cmdStart:
		sess.Authenticated = false
		sess.Username = ""
		sess.ResetFlow(domain.FlowAwaitingUsername)
		return true, []domain.Reply{reply(msgWelcome)}
	case cmdCancel:
		if sess.Authenticated {
			sess.ResetFlow(domain.FlowMenuIdle)
			return true, []domain.Reply{menuReply(msgCancelled)}
		}
		sess.ResetFlow(domain.FlowUnauthenticated)
		return true, []domain.Reply{reply(msgPleaseLogin)}
	case cmdLogout:
		*sess = domain.NewSession(sess.ID)
		return true, []domain.Reply{reply(msgLoggedOut)}
	}
	return false, nil
}

// commandOf extracts a lower-cased bot command ("/start@ShopBot arg" -> "/start").
func commandOf(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		return ""
	}
	cmd := fields[0]
	if at := strings.IndexByte(cmd, '@'); at > 0 {
		cmd = cmd[:at]
	}
	return strings.ToLower(cmd)
}

func reply(text string) domain.Reply {
	return domain.Reply{Text: text, Keyboard: domain.KeyboardNone}
}

func menuReply(text string) domain.Reply {
	return domain.Reply{Text: text, Keyboard: domain.KeyboardMainMenu}
}
