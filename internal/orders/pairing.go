package orders

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/strikelabs/strikedesk/internal/domain"
)

// pairGroup accumulates the orders sharing one (underlying, expiry, boundary)
// key during a pairing pass.
type pairGroup struct {
	underlying string
	boundary   float64
	expiry     int64
	call       *legCandidate
	put        *legCandidate
}

type legCandidate struct {
	raw    domain.RawOrder
	parsed domain.ParsedOrder
}

// PairBinaryOrders joins complementary binary CALL/PUT orders into yes/no
// prediction markets. Orders without the binary discriminator (vanilla
// spreads, butterflies, condors) are skipped; spots supplies latest
// underlying prices for display and may be nil.
//
// The decision boundary is the strike nearer the outside of each leg's
// range: the CALL's maximum and the PUT's minimum. Both are rounded to the
// nearest integer unit before grouping so float noise cannot split a group.
// Groups missing either side are dropped, never exposed one-sided. When a
// group holds more than one order of the same side, the first encountered
// wins and the rest are ignored.
//
// Pairs come back in group-encounter order; callers wanting soonest-expiry
// ordering apply SortByExpiry.
func PairBinaryOrders(raw []domain.RawOrder, spots map[string]float64) ([]domain.BinaryPair, error) {
	groups := make(map[string]*pairGroup)
	var keyOrder []string

	for _, o := range raw {
		parsed, err := Normalize(o)
		if err != nil {
			return nil, err
		}
		if parsed.Strategy != domain.StrategyBinary {
			continue
		}

		boundary := decisionBoundary(parsed)
		key := fmt.Sprintf("%s|%d|%d", parsed.Underlying, o.Expiry, int64(boundary))

		g, ok := groups[key]
		if !ok {
			g = &pairGroup{
				underlying: parsed.Underlying,
				boundary:   boundary,
				expiry:     o.Expiry,
			}
			groups[key] = g
			keyOrder = append(keyOrder, key)
		}

		cand := &legCandidate{raw: o, parsed: parsed}
		if parsed.IsCall {
			if g.call == nil {
				g.call = cand
			}
		} else {
			if g.put == nil {
				g.put = cand
			}
		}
	}

	var pairs []domain.BinaryPair
	for _, key := range keyOrder {
		g := groups[key]
		if g.call == nil || g.put == nil {
			continue
		}

		yes, err := buildLeg(*g.call)
		if err != nil {
			return nil, err
		}
		no, err := buildLeg(*g.put)
		if err != nil {
			return nil, err
		}

		pair := domain.BinaryPair{
			ID:         domain.PairID(g.underlying, g.boundary, g.expiry),
			Underlying: g.underlying,
			Boundary:   g.boundary,
			Expiry:     yes.Parsed.Expiry,
			Question:   questionFor(g.underlying, g.boundary, yes.Parsed.Expiry),
			Yes:        yes,
			No:         no,
		}
		if spots != nil {
			pair.Spot = spots[g.underlying]
		}
		pairs = append(pairs, pair)
	}

	return pairs, nil
}

// decisionBoundary picks the shared threshold: the CALL's maximum strike,
// the PUT's minimum. Rounded to the nearest integer unit to keep grouping
// immune to floating-point representation of 1e8-scaled values.
func decisionBoundary(p domain.ParsedOrder) float64 {
	if len(p.Strikes) == 0 {
		return 0
	}
	b := p.Strikes[0]
	for _, s := range p.Strikes[1:] {
		if p.IsCall && s > b {
			b = s
		}
		if !p.IsCall && s < b {
			b = s
		}
	}
	return math.Round(b)
}

// buildLeg computes the implied probability of a leg. A binary leg must have
// exactly two strikes; a zero strike width would otherwise divide to
// infinity, so it is rejected explicitly.
func buildLeg(c legCandidate) (domain.PairLeg, error) {
	if c.parsed.StrikeWidth == 0 {
		return domain.PairLeg{}, fmt.Errorf("orders: pair leg %s: %w", c.parsed.Underlying, domain.ErrZeroStrikeWidth)
	}
	return domain.PairLeg{
		Raw:         c.raw,
		Parsed:      c.parsed,
		Probability: c.parsed.Price / c.parsed.StrikeWidth * 100,
	}, nil
}

func questionFor(underlying string, boundary float64, expiry time.Time) string {
	return fmt.Sprintf("Will %s be above %s on %s?",
		underlying, formatUSD(boundary), expiry.Format("Jan 2, 2006"))
}

// formatUSD renders a dollar amount with comma grouping, e.g. "$3,500".
func formatUSD(v float64) string {
	n := int64(math.Round(v))
	neg := n < 0
	if neg {
		n = -n
	}
	s := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-$" + b.String()
	}
	return "$" + b.String()
}
