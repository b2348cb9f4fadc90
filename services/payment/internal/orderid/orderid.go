// Package orderid generates the human-readable order references shown to buyers and admins.
package orderid

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultPrefix = "PV"
	suffixLen     = 4
)

type Generator interface {
	Next() string
}

// Func adapts a plain function to Generator.
type Func func() string

func (f Func) Next() string { return f() }

// TimeRandom produces PREFIX-TIMESTAMP-RANDOM where TIMESTAMP is the base-36 unix millisecond
// clock and RANDOM is four base-36 characters, both uppercased. Uniqueness is not guaranteed,
// the ledger enforces it.
type TimeRandom struct {
	Prefix string
	Now    func() time.Time
}

func New(prefix string) *TimeRandom {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &TimeRandom{Prefix: prefix, Now: time.Now}
}

func (g *TimeRandom) Next() string {
	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	ts := strings.ToUpper(strconv.FormatInt(now().UnixMilli(), 36))
	return fmt.Sprintf("%s-%s-%s", g.Prefix, ts, randomSuffix())
}

func randomSuffix() string {
	var b strings.Builder
	for range suffixLen {
		b.WriteString(strings.ToUpper(strconv.FormatInt(rand.Int64N(36), 36)))
	}
	return b.String()
}
