package repository

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"
)

// ListingRecord is a listings file line. The owner is stored by display name.
type ListingRecord struct {
	OwnerName   string
	ItemName    string
	Price       float64
	Description string
	ForSale     bool
}

// ListingFile stores one listing per line: ownerName,itemName,price,description,forSale.
type ListingFile struct {
	path string
}

func NewListingFile(path string) *ListingFile {
	return &ListingFile{path: path}
}

func (f *ListingFile) Path() string { return f.path }

func (f *ListingFile) Load() ([]ListingRecord, error) {
	file, err := openIfExists(f.path)
	if err != nil || file == nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = 5
	var out []ListingRecord
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", f.path, err)
		}
		line, _ := r.FieldPos(0)
		price, err := model.ParseAmount(rec[2])
		if err != nil {
			return nil, fmt.Errorf("parse %s line %d: price %q: %w", f.path, line, rec[2], err)
		}
		forSale, err := strconv.ParseBool(rec[4])
		if err != nil {
			return nil, fmt.Errorf("parse %s line %d: forSale %q: %w", f.path, line, rec[4], err)
		}
		out = append(out, ListingRecord{
			OwnerName:   rec[0],
			ItemName:    rec[1],
			Price:       price,
			Description: rec[3],
			ForSale:     forSale,
		})
	}
}

func (f *ListingFile) Save(records []ListingRecord) error {
	return writeAtomic(f.path, func(w io.Writer) error {
		cw := csv.NewWriter(w)
		for _, rec := range records {
			if err := cw.Write(rec.fields()); err != nil {
				return err
			}
		}
		cw.Flush()
		return cw.Error()
	})
}

func (f *ListingFile) Append(rec ListingRecord) error {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(rec.fields()); err != nil {
		return err
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return err
	}
	return appendLine(f.path, buf.Bytes())
}

func (r ListingRecord) fields() []string {
	return []string{
		r.OwnerName,
		r.ItemName,
		model.FormatAmount(r.Price),
		r.Description,
		strconv.FormatBool(r.ForSale),
	}
}
