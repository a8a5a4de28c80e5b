package handler

import (
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/protocol"
)

func (s *Session) login(req protocol.Request) protocol.Response {
	identifier, err := req.String(0)
	if err != nil {
		return protocol.Failure(err)
	}
	password, err := req.String(1)
	if err != nil {
		return protocol.Failure(err)
	}
	if s.current != "" {
		return protocol.FailureText(apperr.KindState, "Failure: Already logged in on this connection")
	}
	acct, err := s.accounts.Login(identifier, password)
	if err != nil {
		return fail("Failure: ", err)
	}
	s.current = acct.Email
	s.logger.Info("user logged in", "email", acct.Email)
	return ok(toAccountView(acct))
}

func (s *Session) logout(protocol.Request) protocol.Response {
	if s.current == "" {
		return protocol.Failure(errNotLoggedIn)
	}
	s.accounts.Logout(s.current)
	s.logger.Info("user logged out", "email", s.current)
	s.current = ""
	return ok(nil)
}

func (s *Session) createAccount(req protocol.Request) protocol.Response {
	var (
		name, email, password string
		balance               float64
		err                   error
	)
	if name, err = req.String(0); err != nil {
		return protocol.Failure(err)
	}
	if email, err = req.String(1); err != nil {
		return protocol.Failure(err)
	}
	if password, err = req.String(2); err != nil {
		return protocol.Failure(err)
	}
	if balance, err = req.Float(3); err != nil {
		return protocol.Failure(err)
	}
	if _, err := s.accounts.CreateAccount(name, email, password, balance); err != nil {
		return fail("Cannot create account: ", err)
	}
	return ok(nil)
}

func (s *Session) changeUsername(req protocol.Request) protocol.Response {
	name, err := req.String(0)
	if err != nil {
		return protocol.Failure(err)
	}
	if _, err := s.accounts.ChangeName(s.current, name); err != nil {
		return fail("Failure: ", err)
	}
	s.persist()
	return ok(nil)
}

func (s *Session) changePassword(req protocol.Request) protocol.Response {
	password, err := req.String(0)
	if err != nil {
		return protocol.Failure(err)
	}
	if _, err := s.accounts.ChangePassword(s.current, password); err != nil {
		return fail("Failure: ", err)
	}
	s.persist()
	return ok(nil)
}

func (s *Session) changeEmail(req protocol.Request) protocol.Response {
	email, err := req.String(0)
	if err != nil {
		return protocol.Failure(err)
	}
	acct, err := s.accounts.ChangeEmail(s.current, email)
	if err != nil {
		return fail("Failure: ", err)
	}
	s.current = acct.Email
	s.persist()
	return ok(nil)
}

func (s *Session) deleteAccount(protocol.Request) protocol.Response {
	if err := s.accounts.DeleteAccount(s.current); err != nil {
		return fail("Failure: ", err)
	}
	s.logger.Info("account deleted", "email", s.current)
	s.current = ""
	s.persist()
	return ok(nil)
}
