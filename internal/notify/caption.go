package notify

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
)

const captionDateLayout = "02.01.2006 15:04"

// Caption renders the text that accompanies the order report.
func Caption(o *order.Order, currency, adminURL string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Status: %s\n", o.Status.Display())
	fmt.Fprintf(&b, "Order ID: %d\n", o.ID)
	fmt.Fprintf(&b, "Name: %s\n", o.Name)
	fmt.Fprintf(&b, "Phone: %s\n", o.Phone)
	fmt.Fprintf(&b, "Date: %s\n", o.CreatedAt.Format(captionDateLayout))
	fmt.Fprintf(&b, "Total: %s%s", FormatAmount(o.Total), currency)
	if adminURL != "" {
		fmt.Fprintf(&b, "\n%s/%d/change", strings.TrimRight(adminURL, "/"), o.ID)
	}
	return b.String()
}

// FormatAmount rounds d to whole units and groups thousands with spaces,
// e.g. 1234567.5 becomes "1 234 568".
func FormatAmount(d decimal.Decimal) string {
	s := d.Round(0).String()

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
