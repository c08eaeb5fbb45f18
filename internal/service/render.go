package service

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/xiaot623/catalogbot/internal/domain"
)

// maxMessageLen keeps rendered pages under Telegram's 4096 character limit.
const maxMessageLen = 4000

// maxFieldLen bounds one operator-supplied field so that a single entry
// always fits on a page.
const maxFieldLen = 512

const notSet = "(Not Set)"

// renderProducts formats the product list, split into pages that fit a
// single chat message.
func renderProducts(products []domain.Product) []string {
	entries := make([]string, 0, len(products))
	for _, p := range products {
		entries = append(entries, fmt.Sprintf("🆔 ID: %d\n📌 Name: %s\n💰 Price: $%s\n🔢 Stock: %s\n----------------\n",
			p.ID, clip(p.Name), clip(p.Price), clip(p.Stock)))
	}
	return paginate("📦 Product List:\n\n", entries, "")
}

// renderAttributes formats the attribute table of one product. The prompt
// for the attribute id always closes the last page.
func renderAttributes(productID int64, values []domain.AttributeValue) []string {
	entries := make([]string, 0, len(values))
	for _, v := range values {
		current := notSet
		if v.Value != nil && *v.Value != "" {
			current = *v.Value
		}
		entries = append(entries, fmt.Sprintf("🔹 Attr ID: %d | Name: %s | Current Value: %s\n",
			v.AttributeID, clip(v.Name), clip(current)))
	}
	header := fmt.Sprintf("🔧 Attributes for Product ID: %d\n\n", productID)
	return paginate(header, entries, "\n"+msgAttributeIDPrompt)
}

// paginate packs header, entries and footer into pages of at most
// maxMessageLen bytes. Entries are never split across pages.
func paginate(header string, entries []string, footer string) []string {
	var pages []string
	var b strings.Builder
	b.WriteString(header)
	add := func(s string) {
		if b.Len() > 0 && b.Len()+len(s) > maxMessageLen {
			pages = append(pages, b.String())
			b.Reset()
		}
		b.WriteString(s)
	}
	for _, e := range entries {
		add(e)
	}
	if footer != "" {
		add(footer)
	}
	return append(pages, b.String())
}

// clip shortens s to maxFieldLen bytes on a rune boundary.
func clip(s string) string {
	if len(s) <= maxFieldLen {
		return s
	}
	cut := maxFieldLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
