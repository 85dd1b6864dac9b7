package market

import (
	"github.com/ValentinKolb/kvmarket/lib/market/model"
	"github.com/shopspring/decimal"
)

// Dashboard summarizes the activity of one account
type Dashboard struct {
	Account        model.Account
	Listings       int             // products listed by the account
	Purchases      int             // completed checkouts
	ItemsBought    int             // units over all purchases
	TotalSpent     decimal.Decimal // sum of all purchase totals
	CartLines      int
	CartItems      int
	CartTotal      decimal.Decimal
	RecentListings []model.Product // newest listings first, at most dashboardRecent
}

const dashboardRecent = 3

// Dashboard builds the summary of the logged in account
func (m *Marketplace) Dashboard() (Dashboard, error) {
	account, err := m.requireAccount()
	if err != nil {
		return Dashboard{}, err
	}

	listings, err := m.Catalog.ListByUser(account.ID)
	if err != nil {
		return Dashboard{}, err
	}
	purchases, err := m.Carts.Purchases()
	if err != nil {
		return Dashboard{}, err
	}
	lines, err := m.Carts.Lines()
	if err != nil {
		return Dashboard{}, err
	}

	d := Dashboard{
		Account:    account,
		Listings:   len(listings),
		Purchases:  len(purchases),
		TotalSpent: decimal.Zero,
		CartLines:  len(lines),
		CartItems:  model.ItemCount(lines),
		CartTotal:  model.LinesTotal(lines),
	}
	for _, p := range purchases {
		d.TotalSpent = d.TotalSpent.Add(p.Total)
		d.ItemsBought += model.ItemCount(p.Lines)
	}
	for i := len(listings) - 1; i >= 0 && len(d.RecentListings) < dashboardRecent; i-- {
		d.RecentListings = append(d.RecentListings, listings[i])
	}
	return d, nil
}
