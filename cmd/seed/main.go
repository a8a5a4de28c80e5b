package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v9"
	"github.com/joho/godotenv"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/config"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/logging"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/repository"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/store"
)

type seedConfig struct {
	ForceSeed bool `env:"FORCE_SEED" envDefault:"false"`
}

type seedAccount struct {
	Name    string
	Email   string
	Balance float64
	Items   []seedItem
}

type seedItem struct {
	Name        string
	Price       float64
	Description string
}

type seedMessage struct {
	From, To, Content string
}

const seedPassword = "Passw0rd"

func main() {
	if err := run(); err != nil {
		slog.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	var sc seedConfig
	if err := env.Parse(&sc); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	accounts := store.NewAccountStore(
		repository.NewAccountFile(cfg.AccountsPath()),
		repository.NewListingFile(cfg.ListingsPath()),
		logger,
	)
	if _, err := accounts.Reload(); err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}
	convs := store.NewConversationStore(
		repository.NewConversationFiles(cfg.MessagesPath()),
		repository.NewIndexFile(cfg.IndexPath()),
		logger,
	)
	if _, err := convs.Reload(); err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}

	if n := accounts.Stats().Accounts; n > 0 && !sc.ForceSeed {
		logger.Info("accounts already exist; skipping seed (set FORCE_SEED=true to override)", "accounts", n)
		return nil
	}

	created, posted := 0, 0
	for _, a := range buildSeedAccounts() {
		if _, err := accounts.CreateAccount(a.Name, a.Email, seedPassword, a.Balance); err != nil {
			if apperr.Is(err, apperr.KindDuplicate) {
				logger.Info("account exists, skipping", "email", a.Email)
				continue
			}
			return fmt.Errorf("create account %s: %w", a.Email, err)
		}
		created++
		for _, it := range a.Items {
			if _, err := accounts.CreateListing(a.Email, it.Name, it.Price, it.Description); err != nil {
				return fmt.Errorf("post %q for %s: %w", it.Name, a.Email, err)
			}
			posted++
		}
	}
	for _, m := range seedMessages() {
		content := m.Content
		if err := convs.SendMessage(m.From, m.To, &content); err != nil {
			return fmt.Errorf("send message %s -> %s: %w", m.From, m.To, err)
		}
	}

	if err := accounts.Persist(); err != nil {
		return err
	}
	if err := convs.SaveIndex(); err != nil {
		return err
	}
	logger.Info("seed completed", "accounts", created, "listings", posted)
	return nil
}

func buildSeedAccounts() []seedAccount {
	return []seedAccount{
		{Name: "alice", Email: "alice@example.com", Balance: 250, Items: []seedItem{
			{"Road Bike", 180, "Aluminium frame, 21 speeds, lightly used"},
			{"Desk Lamp", 15.5, "LED, warm white"},
		}},
		{Name: "bob", Email: "bob@example.com", Balance: 120, Items: []seedItem{
			{"Textbook: Data Structures", 35, "Some highlighting in chapter 3"},
			{"Mechanical Keyboard", 60, "Brown switches, full size"},
		}},
		{Name: "carol", Email: "carol@example.com", Balance: 80, Items: []seedItem{
			{"Mini Fridge", 70, "Fits under a desk"},
		}},
		{Name: "dave", Email: "dave@example.com", Balance: 400},
	}
}

func seedMessages() []seedMessage {
	return []seedMessage{
		{"dave", "alice", "Is the road bike still available?"},
		{"alice", "dave", "Yes, come by any time this week."},
		{"bob", "carol", "Would you take 60 for the fridge?"},
	}
}
