// Package exchange implements the cross-site interchange pipeline: a
// schema-validated, signed XML document carrying citizens and their nested
// accounts between two store instances.
package exchange

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
)

// FormatVersion is the interchange document format version.
const FormatVersion = "1.0"

// Wire formats for date and timestamp fields.
const (
	DateFormat      = "2006-01-02"
	TimestampFormat = "2006-01-02T15:04:05Z07:00" // RFC 3339
)

// Document is the top-level interchange element. All leaf fields are wire
// strings; the schema validator and importer parse them.
type Document struct {
	XMLName   xml.Name        `xml:"PanExchange"`
	Version   string          `xml:"version,attr"`
	Metadata  Metadata        `xml:"Metadata"`
	Citizens  []CitizenRecord `xml:"Citizens>Citizen"`
	Signature string          `xml:"Signature"`
}

// Metadata is the export metadata block. It sits outside the payload so it
// can be inspected before signature verification when the signature scope
// is payload-only.
type Metadata struct {
	ExportedAt    string `xml:"ExportedAt"`
	Source        string `xml:"Source"`
	RecordCount   int    `xml:"RecordCount"`
	FormatVersion string `xml:"FormatVersion"`
}

// CitizenRecord is one citizen element with its nested accounts.
type CitizenRecord struct {
	ID           string          `xml:"id,attr"`
	LastModified string          `xml:"lastModified,attr"`
	PAN          string          `xml:"PAN"`
	Name         string          `xml:"Name"`
	DOB          string          `xml:"DOB"`
	Phone        string          `xml:"Phone,omitempty"`
	Address      AddressBlock    `xml:"Address"`
	Accounts     []AccountRecord `xml:"Accounts>Account"`
}

// AddressBlock is the structured address element.
type AddressBlock struct {
	Street     string `xml:"Street,omitempty"`
	City       string `xml:"City,omitempty"`
	State      string `xml:"State,omitempty"`
	PostalCode string `xml:"PostalCode,omitempty"`
	Country    string `xml:"Country"`
}

// AccountRecord is one account element. Variant fields are present only for
// the matching type tag.
type AccountRecord struct {
	Number   string `xml:"Number"`
	Type     string `xml:"Type"`
	Balance  string `xml:"Balance"`
	Branch   string `xml:"Branch"`
	Status   string `xml:"Status"`
	OpenedAt string `xml:"OpenedAt"`

	InterestRate   string `xml:"InterestRate,omitempty"`
	MinimumBalance string `xml:"MinimumBalance,omitempty"`
	OverdraftLimit string `xml:"OverdraftLimit,omitempty"`
	MaturityDate   string `xml:"MaturityDate,omitempty"`
	PenaltyRate    string `xml:"PenaltyRate,omitempty"`
}

// Parse reads a document from r.
func Parse(r io.Reader) (*Document, error) {
	var doc Document
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("parsing interchange document: %w", err)
	}
	return &doc, nil
}

// ParseFile reads a document from path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening interchange document: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Write serializes the document to w with an XML declaration.
func (d *Document) Write(w io.Writer) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("writing XML header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encoding interchange document: %w", err)
	}
	return enc.Close()
}

// WriteFile serializes the document to path.
func (d *Document) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating interchange document: %w", err)
	}
	defer f.Close()
	return d.Write(f)
}
