package handler

import (
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/protocol"
)

func (s *Session) sendMessage(req protocol.Request) protocol.Response {
	receiver, err := req.String(0)
	if err != nil {
		return protocol.Failure(err)
	}
	content, err := req.NullableString(1)
	if err != nil {
		return protocol.Failure(err)
	}
	sender, found := s.currentAccount()
	if !found {
		return protocol.Failure(errNotLoggedIn)
	}
	if _, found := s.accounts.FindByName(receiver); !found {
		return protocol.FailureText(apperr.KindNotFound, "FAILURE: Receiver not found")
	}
	if err := s.convs.SendMessage(sender.Name, receiver, content); err != nil {
		if apperr.Is(err, apperr.KindIO) {
			s.logger.Error("send message failed", "err", err)
		}
		return protocol.FailureText(apperr.KindOf(err), "Failure: Failed to send message")
	}
	return ok(nil)
}

func (s *Session) messageHistory(protocol.Request) protocol.Response {
	acct, found := s.currentAccount()
	if !found {
		return protocol.Failure(errHistoryNotLoggedIn)
	}
	history, err := s.convs.HistoryOf(acct.Name)
	if err != nil {
		s.logger.Error("read message history failed", "err", err)
		return fail("Failure: ", err)
	}
	return ok(history)
}
