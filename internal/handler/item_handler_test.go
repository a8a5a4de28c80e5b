package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
)

func TestItemHandler(t *testing.T) {
	f := newFixture(t)
	_, err := f.accounts.CreateAccount("alice", "alice@x.com", "Passw0rd", 100)
	require.NoError(t, err)
	for _, item := range []string{"Bike", "Lamp"} {
		_, err := f.accounts.CreateListing("alice@x.com", item, 10, "")
		require.NoError(t, err)
	}

	e := echo.New()
	h := NewItemHandler(f.accounts)

	tests := []struct {
		name      string
		target    string
		handle    echo.HandlerFunc
		wantCode  int
		wantTotal int
	}{
		{"list", "/api/items", h.List, http.StatusOK, 2},
		{"search", "/api/items/search?q=Bik", h.Search, http.StatusOK, 1},
		{"search empty term", "/api/items/search?q=", h.Search, http.StatusOK, 2},
		{"search missing term", "/api/items/search", h.Search, http.StatusBadRequest, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, tt.target, nil), rec)
			require.NoError(t, tt.handle(c))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				var body ErrorResponse
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, apperr.KindValidation, body.Error.Code)
				assert.Equal(t, "missing query parameter q", body.Error.Message)
				return
			}
			var body ItemListResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantTotal, body.Total)
			assert.Len(t, body.Items, tt.wantTotal)
		})
	}
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{apperr.Validation("bad"), http.StatusBadRequest},
		{apperr.NotFound("gone"), http.StatusNotFound},
		{apperr.Duplicate("taken"), http.StatusConflict},
		{apperr.Unauthenticated("who"), http.StatusUnauthorized},
		{apperr.IO("disk", assert.AnError), http.StatusInternalServerError},
		{assert.AnError, http.StatusInternalServerError},
	}
	e := echo.New()
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		require.NoError(t, writeError(c, tt.err))
		assert.Equal(t, tt.want, rec.Code, tt.err.Error())

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, apperr.KindOf(tt.err), body.Error.Code)
	}
}
