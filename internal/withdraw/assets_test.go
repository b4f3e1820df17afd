package withdraw

import "testing"

func TestQuote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		asset  string
		amount int64
		want   string
	}{
		{"USDT", 4000, "35"},       // $40 at 1:1 minus the 5 USDT network fee
		{"BTC", 650_000, "0.0995"}, // $6500 at 65000 minus 0.0005
		{"TRX", 1200, "99"},        // $12 at 0.12 minus 1
	}
	for _, tt := range tests {
		a, ok := AssetFor(tt.asset)
		if !ok {
			t.Fatalf("asset %s missing", tt.asset)
		}
		if got := a.Quote(tt.amount); got.String() != tt.want {
			t.Errorf("%s Quote(%d) = %s, want %s", tt.asset, tt.amount, got, tt.want)
		}
	}
}

func TestValidAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		asset string
		addr  string
		ok    bool
	}{
		{"BTC", "1BvBMSEYstWetqTFn5Au4m4GFg7xJaNVN2", true},
		{"BTC", "bc1qar0srrr7xfkvy5l643lydnw9re59gtzzwf5mdq", true},
		{"BTC", "0x52908400098527886E0F7030069857D2E4169EE7", false},
		{"ETH", "0x52908400098527886E0F7030069857D2E4169EE7", true},
		{"ETH", "0x5290840", false},
		{"TRX", "TJRabPrwbZy45sbavfcjinPJC18kjpRTv8", true},
		{"TRX", "JRabPrwbZy45sbavfcjinPJC18kjpRTv8", false},
	}
	for _, tt := range tests {
		a, _ := AssetFor(tt.asset)
		if got := a.ValidAddress(tt.addr); got != tt.ok {
			t.Errorf("%s ValidAddress(%s) = %v, want %v", tt.asset, tt.addr, got, tt.ok)
		}
	}
}
