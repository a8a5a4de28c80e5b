package handler

import "github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/model"

// AccountView is the account snapshot sent to clients. The password never
// leaves the server.
type AccountView struct {
	Username string  `json:"username"`
	Email    string  `json:"email"`
	Balance  float64 `json:"balance"`
	Online   bool    `json:"online"`
}

type ListingView struct {
	ID          string  `json:"id"`
	Owner       string  `json:"owner"`
	ItemName    string  `json:"itemName"`
	Price       float64 `json:"price"`
	Description string  `json:"description"`
	ForSale     bool    `json:"forSale"`
}

type PurchaseView struct {
	Buyer   AccountView `json:"buyer"`
	Seller  string      `json:"seller"`
	Listing ListingView `json:"listing"`
}

type BalanceView struct {
	Balance float64 `json:"balance"`
}

func toAccountView(a model.Account) AccountView {
	return AccountView{Username: a.Name, Email: a.Email, Balance: a.Balance, Online: a.Online}
}

func toListingView(l model.Listing) ListingView {
	return ListingView{
		ID:          l.ID.String(),
		Owner:       l.OwnerName,
		ItemName:    l.ItemName,
		Price:       l.Price,
		Description: l.Description,
		ForSale:     l.ForSale,
	}
}

func toListingViews(ls []model.Listing) []ListingView {
	out := make([]ListingView, 0, len(ls))
	for _, l := range ls {
		out = append(out, toListingView(l))
	}
	return out
}

// toPurchaseView hides the seller's balance from the buyer.
func toPurchaseView(p model.Purchase) PurchaseView {
	return PurchaseView{
		Buyer:   toAccountView(p.Buyer),
		Seller:  p.Seller.Name,
		Listing: toListingView(p.Listing),
	}
}
