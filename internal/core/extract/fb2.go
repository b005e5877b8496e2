package extract

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
)

// FB2Extractor walks the FictionBook XML tree, concatenating paragraph,
// section and title text. Book title and author from the description block
// are prefixed to the body.
type FB2Extractor struct{}

func NewFB2Extractor() *FB2Extractor { return &FB2Extractor{} }

func (e *FB2Extractor) Format() Format { return FormatFB2 }
func (e *FB2Extractor) Name() string   { return "fb2-xml" }
func (e *FB2Extractor) MIMETypes() []string {
	return []string{"application/x-fictionbook+xml", "application/x-fictionbook"}
}
func (e *FB2Extractor) Extensions() []string { return []string{"fb2"} }

// Validate looks for the XML declaration plus the FictionBook root tag in
// the leading bytes, without parsing the document.
func (e *FB2Extractor) Validate(data []byte) bool {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	return bytes.Contains(head, []byte("<?xml")) && bytes.Contains(head, []byte("<FictionBook"))
}

func (e *FB2Extractor) Extract(filename string, data []byte) (*Result, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		sb            strings.Builder
		title, author string
		inDescription bool
		descDepth     int
	)

	appendLine := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(s)
	}

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ExtractionError{Format: FormatFB2, Err: err}
		}

		switch t := tok.(type) {
		case xml.StartElement:
			local := t.Name.Local
			if inDescription {
				descDepth++
				switch local {
				case "book-title":
					if title == "" {
						title = strings.TrimSpace(elementText(dec))
						descDepth--
					}
				case "author":
					if author == "" {
						author = fb2AuthorName(dec)
						descDepth--
					}
				}
				continue
			}
			switch local {
			case "description":
				inDescription = true
				descDepth = 0
			case "p", "v", "subtitle":
				appendLine(elementText(dec))
			case "title":
				// Section titles get a surrounding blank line so chapter
				// markers survive into the chunker.
				text := strings.TrimSpace(elementText(dec))
				if text != "" {
					if sb.Len() > 0 {
						sb.WriteString("\n")
					}
					appendLine(text)
					sb.WriteString("\n")
				}
			case "section":
				if sb.Len() > 0 {
					sb.WriteString("\n")
				}
			case "binary":
				// Embedded images; skip the whole element.
				if err := dec.Skip(); err != nil {
					return nil, &ExtractionError{Format: FormatFB2, Err: err}
				}
			}
		case xml.EndElement:
			if inDescription {
				if t.Name.Local == "description" {
					inDescription = false
				} else if descDepth > 0 {
					descDepth--
				}
			}
		}
	}

	body := strings.TrimSpace(sb.String())
	var head strings.Builder
	if title != "" {
		head.WriteString(title)
		head.WriteString("\n")
	}
	if author != "" {
		head.WriteString(author)
		head.WriteString("\n")
	}
	text := strings.TrimSpace(head.String() + "\n" + body)
	if text == "" {
		return nil, ErrEmptyExtraction
	}
	return &Result{Text: text, Title: title, Author: author}, nil
}

// fb2AuthorName assembles "First Last" from the author element's name parts.
func fb2AuthorName(dec *xml.Decoder) string {
	var first, last, nick string
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "first-name":
				first = strings.TrimSpace(elementText(dec))
			case "last-name":
				last = strings.TrimSpace(elementText(dec))
			case "nickname":
				nick = strings.TrimSpace(elementText(dec))
			default:
				depth++
			}
		case xml.EndElement:
			depth--
		}
	}
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		name = nick
	}
	return name
}

// elementText consumes tokens until the current element closes, returning
// the concatenated character data.
func elementText(dec *xml.Decoder) string {
	var out strings.Builder
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		case xml.CharData:
			out.Write(t)
		}
	}
	return out.String()
}
