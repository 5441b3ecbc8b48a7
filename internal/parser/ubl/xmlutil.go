package ubl

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	moneydec "github.com/rezonia/dian-processor/internal/decimal"
)

// UBL 2.1 namespace URIs. Elements are matched by URI, never by prefix:
// real-world documents use arbitrary prefixes, and legacy unqualified
// documents carry no namespace at all.
const (
	nsCBC              = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
	nsCAC              = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	nsAttachedDocument = "urn:oasis:names:specification:ubl:schema:xsd:AttachedDocument-2"
)

// nsMatch accepts the expected URI or an empty one (unqualified legacy docs).
func nsMatch(el *etree.Element, ns string) bool {
	uri := el.NamespaceURI()
	return uri == ns || uri == ""
}

// child returns the first direct child with the given local name in the given
// namespace, or nil.
func child(el *etree.Element, ns, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == tag && nsMatch(c, ns) {
			return c
		}
	}
	return nil
}

// children returns all direct children with the given local name and namespace.
func children(el *etree.Element, ns, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag && nsMatch(c, ns) {
			out = append(out, c)
		}
	}
	return out
}

// descendant returns the first element with the given local name and
// namespace anywhere under el, depth-first.
func descendant(el *etree.Element, ns, tag string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, c := range el.ChildElements() {
		if c.Tag == tag && nsMatch(c, ns) {
			return c
		}
		if d := descendant(c, ns, tag); d != nil {
			return d
		}
	}
	return nil
}

// descendants collects every element with the given local name and namespace
// under el, in document order.
func descendants(el *etree.Element, ns, tag string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag && nsMatch(c, ns) {
			out = append(out, c)
		}
		out = append(out, descendants(c, ns, tag)...)
	}
	return out
}

// childText returns the trimmed text of a direct child, or "".
func childText(el *etree.Element, ns, tag string) string {
	c := child(el, ns, tag)
	if c == nil {
		return ""
	}
	return strings.TrimSpace(c.Text())
}

// childTextDefault returns the trimmed child text, or def when absent/empty.
func childTextDefault(el *etree.Element, ns, tag, def string) string {
	if s := childText(el, ns, tag); s != "" {
		return s
	}
	return def
}

// childDecimal parses a monetary/percentage child value. Thousands commas are
// stripped before conversion; absent or unparseable values resolve to zero.
func childDecimal(el *etree.Element, ns, tag string) decimal.Decimal {
	return parseAmount(childText(el, ns, tag))
}

// parseAmount converts an amount string to decimal, stripping thousands
// commas. This is the plain UBL numeric dialect, not the Colombian-formatted
// strings handled by the reconciliation comparator.
func parseAmount(s string) decimal.Decimal {
	return moneydec.FromAmountString(s)
}
