// Package upi builds UPI deep-link payment requests and renders them as QR codes.
package upi

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

const (
	Scheme      = "upi://pay"
	Currency    = "INR"
	DefaultSize = 256

	dataURLPrefix = "data:image/png;base64,"
)

var ErrInvalidPayload = errors.New("invalid payment payload")

type Payee struct {
	UpiID     string
	PayeeName string
}

type Payload struct {
	URI   string
	Image string // PNG as a data URL
}

// BuildURI returns the deep link for paying amount to payee with the order reference as note.
// Parameters are emitted in a fixed order so equal inputs give equal strings.
func BuildURI(amount decimal.Decimal, orderNumber string, payee Payee) string {
	params := []struct{ key, value string }{
		{"pa", payee.UpiID},
		{"pn", payee.PayeeName},
		{"am", amount.StringFixed(2)},
		{"cu", Currency},
		{"tn", "Order " + orderNumber},
	}

	var b strings.Builder
	b.WriteString(Scheme)
	for i, p := range params {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(p.key)
		b.WriteByte('=')
		b.WriteString(escape(p.value))
	}
	return b.String()
}

func escape(v string) string {
	s := url.QueryEscape(v)
	s = strings.ReplaceAll(s, "+", "%20")
	return strings.ReplaceAll(s, "%40", "@")
}

type Builder struct {
	Size  int
	Level qrcode.RecoveryLevel
}

func NewBuilder(size int) *Builder {
	if size <= 0 {
		size = DefaultSize
	}
	return &Builder{Size: size, Level: qrcode.Medium}
}

func (b *Builder) Build(amount decimal.Decimal, orderNumber string, payee Payee) (*Payload, error) {
	if !amount.IsPositive() {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidPayload)
	}
	if payee.UpiID == "" || orderNumber == "" {
		return nil, fmt.Errorf("%w: payee address and order reference required", ErrInvalidPayload)
	}

	uri := BuildURI(amount, orderNumber, payee)
	png, err := qrcode.Encode(uri, b.Level, b.Size)
	if err != nil {
		return nil, fmt.Errorf("render qr: %w", err)
	}

	return &Payload{
		URI:   uri,
		Image: dataURLPrefix + base64.StdEncoding.EncodeToString(png),
	}, nil
}

// DecodeImage returns the PNG bytes carried by a data URL produced by Build.
func DecodeImage(image string) ([]byte, error) {
	raw, ok := strings.CutPrefix(image, dataURLPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: not a png data url", ErrInvalidPayload)
	}
	return base64.StdEncoding.DecodeString(raw)
}
