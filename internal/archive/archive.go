// Package archive opens an invoice package ZIP: the DIAN invoice XML plus
// its PDF attachments, including those carried inside a nested attachments
// ZIP (Anexo.zip / adjuntos.zip).
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"path"
	"strings"

	"github.com/rezonia/dian-processor/internal/model"
)

// nestedZipNames are the attachment containers recognized inside a package.
var nestedZipNames = map[string]bool{
	"anexo.zip":       true,
	"adjuntos.zip":    true,
	"attachments.zip": true,
}

// AttachmentSource tells which layer of the package a PDF came from.
type AttachmentSource string

const (
	SourceMainZip   AttachmentSource = "main_zip"
	SourceNestedZip AttachmentSource = "nested_zip"
)

// Attachment is one PDF found in the package.
type Attachment struct {
	Name    string
	Content []byte
	Source  AttachmentSource
}

// Package is the extracted content of one invoice ZIP.
type Package struct {
	XMLName       string
	XMLContent    []byte
	Attachments   []Attachment
	NestedZipName string
	AllFiles      map[string][]byte
}

// Open extracts an invoice package. Directories and hidden files are skipped;
// a corrupt nested ZIP is tolerated (its content is simply unavailable), but
// a corrupt outer ZIP is an error.
func Open(content []byte) (*Package, error) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, model.NewExtractionError("zip", "invalid invoice package", err)
	}

	pkg := &Package{AllFiles: map[string][]byte{}}

	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		name := path.Base(file.Name)
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := readZipFile(file)
		if err != nil {
			return nil, model.NewExtractionError("zip", "read "+name, err)
		}

		lower := strings.ToLower(name)
		switch {
		case nestedZipNames[lower]:
			pkg.NestedZipName = name
			pkg.extractNested(data)

		case strings.HasSuffix(lower, ".xml"):
			if pkg.XMLContent == nil {
				pkg.XMLName = name
				pkg.XMLContent = data
			}
			pkg.AllFiles[name] = data

		case strings.HasSuffix(lower, ".pdf"):
			pkg.Attachments = append(pkg.Attachments, Attachment{
				Name:    name,
				Content: data,
				Source:  SourceMainZip,
			})
			pkg.AllFiles[name] = data

		default:
			pkg.AllFiles[name] = data
		}
	}

	return pkg, nil
}

// extractNested pulls PDFs out of an inner attachments ZIP. A bad nested ZIP
// is not fatal.
func (p *Package) extractNested(content []byte) {
	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return
	}
	for _, file := range reader.File {
		if file.FileInfo().IsDir() {
			continue
		}
		name := path.Base(file.Name)
		if name == "" || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := readZipFile(file)
		if err != nil {
			continue
		}
		if strings.HasSuffix(strings.ToLower(name), ".pdf") {
			p.Attachments = append(p.Attachments, Attachment{
				Name:    name,
				Content: data,
				Source:  SourceNestedZip,
			})
		}
		p.AllFiles["anexo/"+name] = data
	}
}

// Attachment returns the named PDF, or nil.
func (p *Package) Attachment(name string) *Attachment {
	for i := range p.Attachments {
		if p.Attachments[i].Name == name {
			return &p.Attachments[i]
		}
	}
	return nil
}

// MatchReferences marks each attachment reference whose ID appears in one of
// the package's attachment filenames. This is the only post-parse mutation of
// the document model.
func MatchReferences(refs []model.AttachmentReference, pkg *Package) {
	for i := range refs {
		for _, att := range pkg.Attachments {
			if matchesFilename(refs[i].ReferenceID, att.Name) {
				refs[i].FoundInArchive = true
				refs[i].MatchedFilename = att.Name
				break
			}
		}
	}
}

// matchesFilename checks whether the reference ID occurs in the filename,
// ignoring case and common separator noise.
func matchesFilename(referenceID, filename string) bool {
	id := normalizeToken(referenceID)
	if id == "" {
		return false
	}
	return strings.Contains(normalizeToken(filename), id)
}

func normalizeToken(s string) string {
	s = strings.ToLower(s)
	for _, sep := range []string{"-", "_", " "} {
		s = strings.ReplaceAll(s, sep, "")
	}
	return s
}

func readZipFile(file *zip.File) ([]byte, error) {
	rc, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}
