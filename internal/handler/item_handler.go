package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/apperr"
	"github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"
)

var errMissingQuery = apperr.Validation("missing query parameter q")

type ListingReader interface {
	Listings() []model.Listing
	SearchListings(term string) []model.Listing
}

// ItemHandler serves read-only listing queries over the admin HTTP API.
type ItemHandler struct {
	listings ListingReader
}

func NewItemHandler(listings ListingReader) *ItemHandler {
	return &ItemHandler{listings: listings}
}

type ItemListResponse struct {
	Items []ListingView `json:"items"`
	Total int           `json:"total"`
}

func (h *ItemHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, newItemListResponse(h.listings.Listings()))
}

func (h *ItemHandler) Search(c echo.Context) error {
	if !c.QueryParams().Has("q") {
		return writeError(c, errMissingQuery)
	}
	return c.JSON(http.StatusOK, newItemListResponse(h.listings.SearchListings(c.QueryParam("q"))))
}

func newItemListResponse(ls []model.Listing) ItemListResponse {
	items := toListingViews(ls)
	return ItemListResponse{Items: items, Total: len(items)}
}
