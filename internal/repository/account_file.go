package repository

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"
)

// AccountFile stores one account per line: username,password,email,balance.
type AccountFile struct {
	path string
}

func NewAccountFile(path string) *AccountFile {
	return &AccountFile{path: path}
}

func (f *AccountFile) Path() string { return f.path }

// Load reads every account. A missing file is an empty store.
func (f *AccountFile) Load() ([]model.Account, error) {
	file, err := openIfExists(f.path)
	if err != nil || file == nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 4
	var out []model.Account
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.path, err)
		}
		balance, err := model.ParseAmount(rec[3])
		if err != nil {
			line, _ := r.FieldPos(3)
			return nil, fmt.Errorf("parse %s line %d: balance %q: %w", f.path, line, rec[3], err)
		}
		out = append(out, model.Account{
			Name:     rec[0],
			Password: rec[1],
			Email:    rec[2],
			Balance:  balance,
		})
	}
}

// Save overwrites the file with accounts.
func (f *AccountFile) Save(accounts []model.Account) error {
	return writeAtomic(f.path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		for _, a := range accounts {
			if err := cw.Write(accountRecord(a)); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

// Append adds a single account line without rewriting the file.
func (f *AccountFile) Append(a model.Account) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(accountRecord(a)); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return appendLine(f.path, buf.Bytes())
}

func accountRecord(a model.Account) []string {
	return []string{a.Name, a.Password, a.Email, model.FormatAmount(a.Balance)}
}
