// Package financial extracts transaction details from payment notifications.
package financial

import (
	"regexp"
	"strconv"
	"strings"

	"basegraph.app/herald/internal/model"
)

// DefaultMaxAmount bounds accepted amounts when the caller passes zero.
const DefaultMaxAmount = 1_000_000

type rule struct {
	txnType model.TransactionType
	phrases []string
}

// Checked in order; "paid you" must be tried before "you paid".
var rules = []rule{
	{model.TransactionTypeRequest, []string{"requested", "is requesting", "sent you a request", "request for"}},
	{model.TransactionTypeRefund, []string{"refund", "refunded"}},
	{model.TransactionTypeDeposit, []string{"paid you", "sent you", "you received", "deposited", "direct deposit", "money in"}},
	{model.TransactionTypePayment, []string{"you paid", "you sent", "payment to", "payment of", "autopay"}},
	{model.TransactionTypePurchase, []string{"purchase", "spent", "charged", "transaction at", "card was used"}},
	{model.TransactionTypeTransfer, []string{"transfer", "transferred"}},
}

var actionPhrases = []string{"action required", "approve", "review and pay", "accept or decline"}

var symbolCurrency = map[string]string{
	"$": "USD",
	"€": "EUR",
	"£": "GBP",
	"¥": "JPY",
	"₹": "INR",
}

// A run of digits, commas and dots is captured whole so that malformed values
// like "1.2.3" reach the parser and get rejected instead of being truncated.
var (
	symbolAmount = regexp.MustCompile(`([$€£¥₹])\s?([0-9][0-9,.]*)`)
	codeAmount   = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|JPY|INR|CAD|AUD)\s?([0-9][0-9,.]*)`)
	amountCode   = regexp.MustCompile(`(?i)([0-9][0-9,.]*)\s?(USD|EUR|GBP|JPY|INR|CAD|AUD)\b`)
)

// Parse returns nil when the text carries no recognisable transaction
// wording. An amount that cannot be parsed or exceeds maxAmount leaves
// AmountMinor nil; it is never an error.
func Parse(title, body string, maxAmount float64) *model.Financial {
	if maxAmount <= 0 {
		maxAmount = DefaultMaxAmount
	}

	text := strings.TrimSpace(title + " " + body)
	lower := strings.ToLower(text)

	txnType, ok := detectType(lower)
	if !ok {
		return nil
	}

	f := &model.Financial{
		Type:           txnType,
		RequiresAction: txnType == model.TransactionTypeRequest || containsAny(lower, actionPhrases),
	}

	raw, currency := findAmount(text)
	f.Currency = currency
	if raw != "" {
		if amount, ok := parseAmount(raw, maxAmount); ok {
			minor := model.AmountToMinor(amount)
			f.AmountMinor = &minor
		}
	}

	return f
}

func detectType(lower string) (model.TransactionType, bool) {
	for _, r := range rules {
		if containsAny(lower, r.phrases) {
			return r.txnType, true
		}
	}
	return "", false
}

func findAmount(text string) (string, string) {
	if m := symbolAmount.FindStringSubmatch(text); m != nil {
		return m[2], symbolCurrency[m[1]]
	}
	if m := codeAmount.FindStringSubmatch(text); m != nil {
		return m[2], strings.ToUpper(m[1])
	}
	if m := amountCode.FindStringSubmatch(text); m != nil {
		return m[1], strings.ToUpper(m[2])
	}
	return "", ""
}

func parseAmount(raw string, maxAmount float64) (float64, bool) {
	// sentence punctuation, e.g. "$50.00."
	raw = strings.TrimRight(raw, ".,")
	raw = strings.ReplaceAll(raw, ",", "")
	if strings.Count(raw, ".") > 1 {
		return 0, false
	}
	amount, err := strconv.ParseFloat(raw, 64)
	if err != nil || amount < 0 || amount > maxAmount {
		return 0, false
	}
	return amount, true
}

func containsAny(s string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}
