package handler

import (
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/protocol"
)

type AccountService interface {
	CreateAccount(name, email, password string, balance float64) (model.Account, error)
	Login(identifier, password string) (model.Account, error)
	Logout(email string)
	FindByEmail(email string) (model.Account, bool)
	FindByName(name string) (model.Account, bool)
	ChangeName(email, name string) (model.Account, error)
	ChangePassword(email, password string) (model.Account, error)
	ChangeEmail(email, newEmail string) (model.Account, error)
	DeleteAccount(email string) error
	AddBalance(email string, amount float64) (model.Account, error)
	WithdrawBalance(email string, amount float64) (model.Account, error)

	CreateListing(ownerEmail, itemName string, price float64, description string) (model.Listing, error)
	RemoveListing(ownerEmail, itemName string) (model.Listing, error)
	SearchListings(term string) []model.Listing
	Listings() []model.Listing
	ListingsByOwner(ownerEmail string) []model.Listing
	Buy(buyerEmail, sellerName, itemName string, price float64) (model.Purchase, error)

	Persist() error
}

type ConversationService interface {
	SendMessage(sender, receiver string, content *string) error
	HistoryOf(name string) (map[string][]string, error)
}

// Session runs the command loop of one client connection. The logged-in
// account is tracked by email and belongs to this session only.
type Session struct {
	id       uuid.UUID
	remote   string
	codec    protocol.Codec
	accounts AccountService
	convs    ConversationService
	logger   *slog.Logger

	onClose   func(*Session)
	current   string
	closeOnce sync.Once
}

func NewSession(codec protocol.Codec, remote string, accounts AccountService, convs ConversationService, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	id := uuid.New()
	return &Session{
		id:       id,
		remote:   remote,
		codec:    codec,
		accounts: accounts,
		convs:    convs,
		logger:   logger.With("session_id", id.String(), "remote", remote),
	}
}

func (s *Session) ID() uuid.UUID { return s.id }

func (s *Session) Remote() string { return s.remote }

// OnClose registers fn to run once when the session ends. It must be set
// before Serve is called.
func (s *Session) OnClose(fn func(*Session)) { s.onClose = fn }

// Serve reads and answers requests until the peer disconnects, the stream
// turns malformed, or the session is closed. Cleanup runs on every exit path.
func (s *Session) Serve() {
	defer s.cleanup()
	s.logger.Info("session started")
	for {
		req, err := s.codec.ReadRequest()
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				s.logger.Info("client disconnected")
			case apperr.Is(err, apperr.KindProtocol):
				s.logger.Warn("malformed stream, closing session", "err", err)
				_ = s.codec.WriteResponse(protocol.Failure(err))
			default:
				s.logger.Info("read failed, closing session", "err", err)
			}
			return
		}
		resp := s.dispatch(req)
		if err := s.codec.WriteResponse(resp); err != nil {
			s.logger.Info("write failed, closing session", "err", err)
			return
		}
	}
}

// Close ends the session from outside, unblocking a pending read.
func (s *Session) Close() {
	_ = s.codec.Close()
}

func (s *Session) cleanup() {
	s.closeOnce.Do(func() {
		if s.current != "" {
			s.accounts.Logout(s.current)
			s.current = ""
		}
		if s.onClose != nil {
			s.onClose(s)
		}
		_ = s.codec.Close()
		s.logger.Info("session closed")
	})
}

func (s *Session) dispatch(req protocol.Request) (resp protocol.Response) {
	cmd, ok := commands[req.Command]
	if !ok {
		return protocol.FailureText(apperr.KindProtocol, "ERROR: Unknown command "+req.Command)
	}
	if err := req.Arity(cmd.arity); err != nil {
		return protocol.Failure(err)
	}
	if cmd.auth && s.current == "" {
		return protocol.Failure(cmd.unauthenticated())
	}
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("command panicked", "command", req.Command, "panic", r)
			resp = protocol.FailureText(apperr.KindInternal, "ERROR: internal error")
		}
	}()
	s.logger.Debug("command", "command", req.Command)
	return cmd.run(s, req)
}

// persist flushes the account store after a mutating command. A failed save
// leaves memory authoritative until the next save.
func (s *Session) persist() {
	if err := s.accounts.Persist(); err != nil {
		s.logger.Error("persist failed", "err", err)
	}
}

// currentAccount returns the logged-in account, if it still exists.
func (s *Session) currentAccount() (model.Account, bool) {
	if s.current == "" {
		return model.Account{}, false
	}
	return s.accounts.FindByEmail(s.current)
}
