package withdraw

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// Asset carries the per-network withdrawal parameters. Amounts here are in
// the asset's own units, not minor fiat units.
type Asset struct {
	Symbol     string
	MinAmount  decimal.Decimal
	NetworkFee decimal.Decimal
	Rate       decimal.Decimal // fiat per unit; injected, refreshed out of band
	address    *regexp.Regexp
}

func (a Asset) ValidAddress(addr string) bool {
	return a.address.MatchString(addr)
}

// Quote converts a fiat amount in minor units to the asset amount sent on
// chain: fiat / rate, minus the network fee.
func (a Asset) Quote(amountMinor int64) decimal.Decimal {
	fiat := decimal.NewFromInt(amountMinor).Div(decimal.NewFromInt(100))
	return fiat.DivRound(a.Rate, 8).Sub(a.NetworkFee)
}

var assets = map[string]Asset{
	"BTC": {
		Symbol:     "BTC",
		MinAmount:  decimal.RequireFromString("0.001"),
		NetworkFee: decimal.RequireFromString("0.0005"),
		Rate:       decimal.RequireFromString("65000"),
		address:    regexp.MustCompile(`^(bc1|[13])[a-zA-HJ-NP-Z0-9]{25,62}$`),
	},
	"ETH": {
		Symbol:     "ETH",
		MinAmount:  decimal.RequireFromString("0.01"),
		NetworkFee: decimal.RequireFromString("0.005"),
		Rate:       decimal.RequireFromString("3200"),
		address:    regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`),
	},
	"USDT": {
		Symbol:     "USDT",
		MinAmount:  decimal.RequireFromString("20"),
		NetworkFee: decimal.RequireFromString("5"),
		Rate:       decimal.NewFromInt(1),
		address:    regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`),
	},
	"USDC": {
		Symbol:     "USDC",
		MinAmount:  decimal.RequireFromString("20"),
		NetworkFee: decimal.RequireFromString("5"),
		Rate:       decimal.NewFromInt(1),
		address:    regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`),
	},
	"LTC": {
		Symbol:     "LTC",
		MinAmount:  decimal.RequireFromString("0.1"),
		NetworkFee: decimal.RequireFromString("0.01"),
		Rate:       decimal.RequireFromString("85"),
		address:    regexp.MustCompile(`^[LM3][a-km-zA-HJ-NP-Z1-9]{26,33}$`),
	},
	"TRX": {
		Symbol:     "TRX",
		MinAmount:  decimal.NewFromInt(100),
		NetworkFee: decimal.NewFromInt(1),
		Rate:       decimal.RequireFromString("0.12"),
		address:    regexp.MustCompile(`^T[A-Za-z1-9]{33}$`),
	},
}

// AssetFor returns the asset table entry for a symbol.
func AssetFor(symbol string) (Asset, bool) {
	a, ok := assets[symbol]
	return a, ok
}
