package currency

import (
	"strconv"
	"strings"

	"outgo/internal/core"
)

// Convert converts an amount between two currency codes through the USD
// pivot. When either rate is missing the amount is returned unchanged with
// converted=false: callers keep rendering something sensible while the gap
// stays visible in the log. This mirrors the historical behavior and is a
// policy, not an accident.
func (s *Service) Convert(m core.Money, from, to string) (result core.Money, converted bool) {
	if from == to {
		return m, true
	}

	amount := m.Float()
	if from != Pivot {
		rate, ok := s.Rate(from)
		if !ok || rate == 0 {
			s.logger.Warn("missing exchange rate, amount left unconverted", "code", from)
			return m, false
		}
		amount /= rate
	}
	if to != Pivot {
		rate, ok := s.Rate(to)
		if !ok || rate == 0 {
			s.logger.Warn("missing exchange rate, amount left unconverted", "code", to)
			return m, false
		}
		amount *= rate
	}
	return core.MoneyFromFloat(amount), true
}

// Format renders an amount with the currency's symbol, thousands grouping
// and two fraction digits. The code drives the symbol; the device locale
// never does. Unknown codes fall back to "CODE 12.34".
func Format(m core.Money, code string) string {
	cents := m.Cents
	neg := cents < 0
	if neg {
		cents = -cents
	}
	units := strconv.FormatInt(cents/100, 10)
	body := groupThousands(units) + "." + pad2(cents%100)

	sym := SymbolFor(code)
	var out string
	if sym == "" {
		out = code + " " + body
	} else {
		out = sym + body
	}
	if neg {
		return "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func pad2(v int64) string {
	if v < 10 {
		return "0" + strconv.FormatInt(v, 10)
	}
	return strconv.FormatInt(v, 10)
}
