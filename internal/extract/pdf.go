// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// MaxPDFPages limits the pages read from one PDF
const MaxPDFPages = 200

func init() {
	// pdfcpu would otherwise create a configuration directory on first use
	api.DisableConfigDir()
}

func extractPDF(path string) (*Content, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening PDF %s: %w", path, err)
	}
	defer f.Close()

	content := &Content{Pages: r.NumPage(), Encoding: "pdf"}
	pages := content.Pages
	if pages > MaxPDFPages {
		pages = MaxPDFPages
	}

	var buf bytes.Buffer
	for i := 1; i <= pages; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(text)
	}

	if form := formFields(r); form != "" {
		if buf.Len() > 0 {
			buf.WriteString("\n")
		}
		buf.WriteString(form)
	}
	content.Text = buf.String()
	content.Metadata = pdfInfo(path)
	return content, nil
}

// formFields returns AcroForm field values as "name: value" lines
func formFields(r *pdf.Reader) string {
	root := r.Trailer().Key("Root")
	if root.IsNull() {
		return ""
	}
	fields := root.Key("AcroForm").Key("Fields")
	if fields.Kind() != pdf.Array {
		return ""
	}

	var b strings.Builder
	for i := 0; i < fields.Len(); i++ {
		field := fields.Index(i)
		if field.Kind() != pdf.Dict {
			continue
		}
		name := field.Key("T").Text()
		value := fieldValue(field.Key("V"))
		if value == "" {
			value = fieldValue(field.Key("DV"))
		}
		if name != "" && value != "" {
			fmt.Fprintf(&b, "%s: %s\n", name, value)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func fieldValue(v pdf.Value) string {
	switch v.Kind() {
	case pdf.String:
		return v.Text()
	case pdf.Name:
		return v.Name()
	}
	return ""
}

// pdfInfo reads the document information dictionary. Unreadable files yield no metadata.
func pdfInfo(path string) map[string]string {
	ctx, err := api.ReadContextFile(path)
	if err != nil {
		return nil
	}

	info := map[string]string{}
	for key, value := range map[string]string{
		"Title":    ctx.Title,
		"Author":   ctx.Author,
		"Subject":  ctx.Subject,
		"Keywords": ctx.Keywords,
		"Creator":  ctx.Creator,
		"Producer": ctx.Producer,
	} {
		if value = strings.TrimSpace(value); value != "" {
			info[key] = value
		}
	}
	if len(info) == 0 {
		return nil
	}
	return info
}
