package core

// DefaultCurrency is assumed when an entity carries no currency code.
const DefaultCurrency = "USD"

// currencySymbols is the fixed display table. Unknown codes display as the
// raw code string; that is a documented fallback, not an error.
var currencySymbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"INR": "₹",
	"JPY": "¥",
}

// CurrencySymbol resolves a currency code to its display symbol, falling
// back to the code itself.
func CurrencySymbol(code string) string {
	if sym, ok := currencySymbols[code]; ok {
		return sym
	}
	return code
}

// FormatAmount renders an amount with its currency symbol, e.g. "$12.34".
func FormatAmount(m Money, currency string) string {
	return CurrencySymbol(currency) + m.String()
}
