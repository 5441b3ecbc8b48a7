package ubl

import (
	"regexp"
	"strings"

	"github.com/beevik/etree"

	"github.com/rezonia/dian-processor/internal/model"
)

// Last-resort patterns for envelopes whose CDATA placement defeats the tree
// walk. Preferred extraction goes through the parsed envelope.
var (
	cdataInvoiceRe  = regexp.MustCompile(`(?s)<!\[CDATA\[(.*?<Invoice[^>]*>.*?</Invoice>.*?)\]\]>`)
	directInvoiceRe = regexp.MustCompile(`(?s)(<Invoice[^>]*xmlns[^>]*>.*?</Invoice>)`)
)

// IsAttachedDocument reports whether the content looks like a DIAN
// AttachedDocument envelope rather than a bare invoice.
func IsAttachedDocument(content string) bool {
	return strings.Contains(content, "AttachedDocument") &&
		strings.Contains(content, nsAttachedDocument)
}

// Unwrap detects an AttachedDocument envelope and extracts the embedded
// Invoice payload together with the attachment references declared in the
// envelope. Bare invoices pass through unchanged. Finding no embedded invoice
// inside a detected envelope is not an error: the original content is
// returned and the parser fails later if it is genuinely not an invoice.
func Unwrap(content string) (string, []model.AttachmentReference) {
	if !IsAttachedDocument(content) {
		return content, nil
	}

	var refs []model.AttachmentReference

	doc := etree.NewDocument()
	if err := doc.ReadFromString(content); err == nil && doc.Root() != nil {
		root := doc.Root()
		refs = collectEnvelopeReferences(root)

		// Tree walk first: the invoice normally lives as CDATA inside a
		// Description element under Attachment/ExternalReference.
		for _, desc := range descendants(root, nsCBC, "Description") {
			if payload, ok := sliceInvoice(desc.Text()); ok {
				return payload, refs
			}
		}
	}

	// Non-standard CDATA placement: fall back to substring scanning over the
	// raw envelope text.
	if m := cdataInvoiceRe.FindStringSubmatch(content); m != nil {
		if payload, ok := sliceInvoice(m[1]); ok {
			return payload, refs
		}
	}
	if m := directInvoiceRe.FindStringSubmatch(content); m != nil {
		return m[1], refs
	}

	return content, refs
}

// sliceInvoice cuts the substring from "<Invoice" through its closing tag.
func sliceInvoice(s string) (string, bool) {
	start := strings.Index(s, "<Invoice")
	if start < 0 {
		return "", false
	}
	const closing = "</Invoice>"
	end := strings.LastIndex(s, closing)
	if end < start {
		return "", false
	}
	return s[start : end+len(closing)], true
}

// collectEnvelopeReferences gathers AttachmentReference candidates from the
// envelope's DocumentReference and Attachment/ExternalReference elements.
func collectEnvelopeReferences(root *etree.Element) []model.AttachmentReference {
	var refs []model.AttachmentReference

	for _, docRef := range descendants(root, nsCAC, "DocumentReference") {
		id := childText(docRef, nsCBC, "ID")
		docType := childText(docRef, nsCBC, "DocumentType")
		if id == "" {
			continue
		}
		refs = append(refs, model.AttachmentReference{
			ReferenceID:   id,
			ReferenceType: classifyDocumentReference(id, docType),
			Description:   docType,
		})
	}

	for _, att := range descendants(root, nsCAC, "Attachment") {
		extRef := child(att, nsCAC, "ExternalReference")
		if extRef == nil {
			continue
		}
		uri := childText(extRef, nsCBC, "URI")
		hash := childText(extRef, nsCBC, "DocumentHash")
		mime := childText(extRef, nsCBC, "MimeCode")
		if uri == "" && hash == "" {
			continue
		}
		id := uri
		if id == "" {
			id = hash
			if len(id) > 20 {
				id = id[:20]
			}
		}
		desc := ""
		if mime != "" {
			desc = "MIME: " + mime
		}
		refs = append(refs, model.AttachmentReference{
			ReferenceID:   id,
			ReferenceType: model.ReferenceArchivoAdjunto,
			Description:   desc,
		})
	}

	return refs
}

// classifyDocumentReference maps a document reference's declared type and ID
// to a reference category. Purchase-order hints win over contract hints.
func classifyDocumentReference(id, docType string) model.ReferenceType {
	lowerType := strings.ToLower(docType)
	lowerID := strings.ToLower(id)
	switch {
	case strings.Contains(lowerType, "orden") || strings.Contains(lowerID, "oc"):
		return model.ReferenceOrdenCompra
	case strings.Contains(lowerType, "contrato"):
		return model.ReferenceContrato
	default:
		return model.ReferenceDocumento
	}
}
