package handler

import (
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/protocol"
)

var (
	errNotLoggedIn        = apperr.Unauthenticated("Failure: No user is currently logged in")
	errHistoryNotLoggedIn = apperr.Unauthenticated("FAILURE: User not logged in")
)

type command struct {
	arity int
	// auth commands need a logged-in session.
	auth   bool
	unauth error
	run    func(*Session, protocol.Request) protocol.Response
}

func (c command) unauthenticated() error {
	if c.unauth != nil {
		return c.unauth
	}
	return errNotLoggedIn
}

var commands = map[string]command{
	"login":         {arity: 2, run: (*Session).login},
	"logout":        {arity: 0, run: (*Session).logout},
	"createAccount": {arity: 4, run: (*Session).createAccount},
	"search":        {arity: 1, run: (*Session).search},
	"viewItems":     {arity: 0, run: (*Session).viewItems},

	"postItem":          {arity: 3, auth: true, run: (*Session).postItem},
	"removeItem":        {arity: 1, auth: true, run: (*Session).removeItem},
	"myItems":           {arity: 0, auth: true, run: (*Session).myItems},
	"buyItem":           {arity: 3, auth: true, run: (*Session).buyItem},
	"sendMessage":       {arity: 2, auth: true, run: (*Session).sendMessage},
	"getMessageHistory": {arity: 0, auth: true, unauth: errHistoryNotLoggedIn, run: (*Session).messageHistory},
	"changeUsername":    {arity: 1, auth: true, run: (*Session).changeUsername},
	"changePassword":    {arity: 1, auth: true, run: (*Session).changePassword},
	"changeEmail":       {arity: 1, auth: true, run: (*Session).changeEmail},
	"deleteAccount":     {arity: 0, auth: true, run: (*Session).deleteAccount},
	"getBalance":        {arity: 0, auth: true, run: (*Session).getBalance},
	"addBalance":        {arity: 1, auth: true, run: (*Session).addBalance},
	"withdrawBalance":   {arity: 1, auth: true, run: (*Session).withdrawBalance},
}

// fail renders err behind a fixed prefix such as "Failure: ".
func fail(prefix string, err error) protocol.Response {
	return protocol.FailureText(apperr.KindOf(err), prefix+apperr.Message(err))
}

func ok(data any) protocol.Response {
	return protocol.Success("Success", data)
}
