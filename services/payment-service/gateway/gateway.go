package gateway

import (
	"context"
	"crypto/hmac"
	"encoding/hex"
	"hash"
	"sort"
	"strings"
)

// Transaction is the result of initiating a payment at a gateway.
type Transaction struct {
	PaymentURL    string
	TransactionID string
}

// CallbackResult is the verified outcome carried by a gateway callback.
type CallbackResult struct {
	TransactionID string
	Success       bool
	ResultCode    string
}

// Gateway abstracts one online payment provider. Each implementation owns
// its transaction id format and its signing scheme; VerifyCallback must use
// the exact canonicalization of the creation path or legitimate callbacks
// get rejected.
type Gateway interface {
	Name() string
	CreateTransaction(ctx context.Context, orderID string, amount int, forceNew bool) (*Transaction, error)
	VerifyCallback(params map[string]string) (*CallbackResult, error)
	Refund(ctx context.Context, transactionID string, amount int) error
}

// signParams builds the canonical signing string (alphabetically sorted
// key=value pairs joined by &, empty values dropped) and returns its HMAC
// hex digest.
func signParams(params map[string]string, secret string, newHash func() hash.Hash) string {
	keys := make([]string, 0, len(params))
	for k, v := range params {
		if v == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	mac := hmac.New(newHash, []byte(secret))
	mac.Write([]byte(b.String()))
	return hex.EncodeToString(mac.Sum(nil))
}

// equalSignatures compares hex signatures in constant time.
func equalSignatures(a, b string) bool {
	return hmac.Equal([]byte(strings.ToLower(a)), []byte(strings.ToLower(b)))
}
