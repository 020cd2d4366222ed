package cda

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

const xmlProlog = `<?xml version="1.0" encoding="utf-8"?>` + "\n"

// Marshal serializes the document with the standard XML prolog and two-space
// indentation.
func Marshal(doc *ClinicalDocument) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal clinical document: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(len(xmlProlog) + len(body) + 1)
	buf.WriteString(xmlProlog)
	buf.Write(body)
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
