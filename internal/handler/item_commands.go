package handler

import "github.com/Namhoangtranabcdxyztblabla/shell-for-trade/internal/protocol"

const transactionOK = "Transaction occurs successfully"

func (s *Session) postItem(req protocol.Request) protocol.Response {
	name, err := req.String(0)
	if err != nil {
		return protocol.Failure(err)
	}
	price, err := req.Float(1)
	if err != nil {
		return protocol.Failure(err)
	}
	description, err := req.String(2)
	if err != nil {
		return protocol.Failure(err)
	}
	l, err := s.accounts.CreateListing(s.current, name, price, description)
	if err != nil {
		return fail("FAILURE: ", err)
	}
	s.persist()
	return ok(toListingView(l))
}

func (s *Session) removeItem(req protocol.Request) protocol.Response {
	name, err := req.String(0)
	if err != nil {
		return protocol.Failure(err)
	}
	if _, err := s.accounts.RemoveListing(s.current, name); err != nil {
		return fail("Failure: ", err)
	}
	s.persist()
	return ok(nil)
}

func (s *Session) search(req protocol.Request) protocol.Response {
	term, err := req.String(0)
	if err != nil {
		return protocol.Failure(err)
	}
	return ok(toListingViews(s.accounts.SearchListings(term)))
}

func (s *Session) viewItems(protocol.Request) protocol.Response {
	return ok(toListingViews(s.accounts.Listings()))
}

func (s *Session) myItems(protocol.Request) protocol.Response {
	return ok(toListingViews(s.accounts.ListingsByOwner(s.current)))
}

func (s *Session) buyItem(req protocol.Request) protocol.Response {
	seller, err := req.String(0)
	if err != nil {
		return protocol.Failure(err)
	}
	item, err := req.String(1)
	if err != nil {
		return protocol.Failure(err)
	}
	price, err := req.Float(2)
	if err != nil {
		return protocol.Failure(err)
	}
	p, err := s.accounts.Buy(s.current, seller, item, price)
	if err != nil {
		return fail("Failure: ", err)
	}
	s.logger.Info("purchase completed",
		"buyer", p.Buyer.Email, "seller", p.Seller.Email, "item", p.Listing.ItemName, "price", p.Listing.Price)
	s.persist()
	return protocol.Success("Success: "+transactionOK, toPurchaseView(p))
}
