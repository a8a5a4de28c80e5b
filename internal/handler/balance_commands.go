package handler

import (
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/protocol"
)

func (s *Session) getBalance(protocol.Request) protocol.Response {
	acct, found := s.currentAccount()
	if !found {
		return protocol.Failure(errNotLoggedIn)
	}
	return ok(BalanceView{Balance: acct.Balance})
}

func (s *Session) addBalance(req protocol.Request) protocol.Response {
	amount, err := req.Float(0)
	if err != nil {
		return protocol.Failure(err)
	}
	acct, err := s.accounts.AddBalance(s.current, amount)
	if err != nil {
		return fail("Failure: ", err)
	}
	s.persist()
	return protocol.Success(
		"Success: Added $"+model.FormatAmount(amount)+". New balance: $"+model.FormatAmount(acct.Balance),
		BalanceView{Balance: acct.Balance})
}

func (s *Session) withdrawBalance(req protocol.Request) protocol.Response {
	amount, err := req.Float(0)
	if err != nil {
		return protocol.Failure(err)
	}
	acct, err := s.accounts.WithdrawBalance(s.current, amount)
	if err != nil {
		return fail("Failure: ", err)
	}
	s.persist()
	return protocol.Success(
		"Success: Withdrew $"+model.FormatAmount(amount)+". New balance: $"+model.FormatAmount(acct.Balance),
		BalanceView{Balance: acct.Balance})
}
