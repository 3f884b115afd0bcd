// Package pricing holds the single money computation used by every surface
// that displays or persists a total: cart view, checkout, and order creation
// all go through here. Amounts are int64 minor currency units throughout;
// no float arithmetic in money paths.
package pricing

import "strconv"

// Defaults observed in production configuration.
const (
	DefaultFreeShippingThreshold int64 = 1_000_000
	DefaultFlatShippingFee       int64 = 30_000
)

type Config struct {
	FreeShippingThreshold int64
	FlatShippingFee       int64
}

func DefaultConfig() Config {
	return Config{
		FreeShippingThreshold: DefaultFreeShippingThreshold,
		FlatShippingFee:       DefaultFlatShippingFee,
	}
}

// Line is the minimal shape pricing needs from a cart or order line.
type Line struct {
	UnitPrice int64
	Quantity  int
}

func Subtotal(lines []Line) int64 {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPrice * int64(l.Quantity)
	}
	return subtotal
}

// ShippingFee is zero at or above the free-shipping threshold, otherwise the
// flat fee.
func ShippingFee(subtotal int64, cfg Config) int64 {
	if subtotal >= cfg.FreeShippingThreshold {
		return 0
	}
	return cfg.FlatShippingFee
}

func Total(subtotal, shippingFee int64) int64 {
	return subtotal + shippingFee
}

// FormatVND renders an amount of minor units with dot thousands separators
// and the dong sign, e.g. 1029999 -> "1.029.999 ₫". Display helper only;
// never parsed back.
func FormatVND(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}

	s := strconv.FormatInt(amount, 10)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, c)
	}

	if neg {
		return "-" + string(out) + " ₫"
	}
	return string(out) + " ₫"
}
