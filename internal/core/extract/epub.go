package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"golang.org/x/net/html"
)

// EPUBExtractor iterates the book flow (the OPF spine order), strips the
// HTML of each chapter and joins chapters with blank-line separators. A
// chapter that fails to read or parse is recorded as a warning and treated
// as empty text; it never fails the whole document.
type EPUBExtractor struct{}

func NewEPUBExtractor() *EPUBExtractor { return &EPUBExtractor{} }

func (e *EPUBExtractor) Format() Format { return FormatEPUB }
func (e *EPUBExtractor) Name() string   { return "epub-flow" }
func (e *EPUBExtractor) MIMETypes() []string {
	return []string{"application/epub+zip"}
}
func (e *EPUBExtractor) Extensions() []string { return []string{"epub"} }

func (e *EPUBExtractor) Validate(data []byte) bool {
	return bytes.HasPrefix(data, zipMagic)
}

func (e *EPUBExtractor) Extract(filename string, data []byte) (*Result, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, &ExtractionError{Format: FormatEPUB, Err: err}
	}

	containerXML, err := zipEntry(zr, "META-INF/container.xml")
	if err != nil {
		return nil, &ExtractionError{Format: FormatEPUB, Err: fmt.Errorf("missing container.xml: %w", err)}
	}
	opfPath, err := opfLocation(containerXML)
	if err != nil {
		return nil, &ExtractionError{Format: FormatEPUB, Err: err}
	}
	opfXML, err := zipEntry(zr, opfPath)
	if err != nil {
		return nil, &ExtractionError{Format: FormatEPUB, Err: fmt.Errorf("missing package file: %w", err)}
	}

	title, author, flow := parsePackage(opfXML)

	opfDir := path.Dir(opfPath)
	if opfDir == "." {
		opfDir = ""
	}

	var (
		chapters []string
		warnings []string
	)
	for idx, href := range flow {
		if unescaped, uerr := url.PathUnescape(href); uerr == nil && unescaped != "" {
			href = unescaped
		}
		full := path.Clean(path.Join(opfDir, href))
		raw, zerr := zipEntry(zr, full)
		if zerr != nil {
			warnings = append(warnings, fmt.Sprintf("chapter %d (%s): %v", idx+1, href, zerr))
			continue
		}
		text := collapseWhitespace(chapterText(raw))
		if text == "" {
			continue
		}
		chapters = append(chapters, text)
	}

	text := strings.TrimSpace(strings.Join(chapters, "\n\n"))
	if text == "" {
		return nil, ErrEmptyExtraction
	}
	return &Result{
		Text:     text,
		Title:    title,
		Author:   author,
		Pages:    len(flow),
		Warnings: warnings,
	}, nil
}

func zipEntry(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name == name || strings.EqualFold(f.Name, name) {
			rc, err := f.Open()
			if err != nil {
				return nil, err
			}
			defer rc.Close()
			return io.ReadAll(rc)
		}
	}
	return nil, fmt.Errorf("entry not found: %s", name)
}

// opfLocation reads the rootfile path out of META-INF/container.xml.
func opfLocation(containerXML []byte) (string, error) {
	var c struct {
		Rootfiles struct {
			Rootfile []struct {
				FullPath string `xml:"full-path,attr"`
			} `xml:"rootfile"`
		} `xml:"rootfiles"`
	}
	if err := xml.Unmarshal(containerXML, &c); err != nil {
		return "", fmt.Errorf("container.xml: %w", err)
	}
	for _, rf := range c.Rootfiles.Rootfile {
		if p := strings.TrimSpace(rf.FullPath); p != "" {
			return p, nil
		}
	}
	return "", fmt.Errorf("container.xml: no rootfile path")
}

// parsePackage pulls title, author and the ordered chapter hrefs (spine
// resolved through the manifest) out of the OPF. Namespace-agnostic on
// purpose; real-world EPUBs disagree about prefixes.
func parsePackage(opf []byte) (title, author string, flow []string) {
	manifest := map[string]string{}
	var spine []string

	dec := xml.NewDecoder(bytes.NewReader(opf))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch strings.ToLower(se.Name.Local) {
		case "title":
			if title == "" {
				title = strings.TrimSpace(elementText(dec))
			}
		case "creator":
			if author == "" {
				author = strings.TrimSpace(elementText(dec))
			}
		case "item":
			var id, href string
			for _, a := range se.Attr {
				switch strings.ToLower(a.Name.Local) {
				case "id":
					id = a.Value
				case "href":
					href = a.Value
				}
			}
			if id != "" && href != "" {
				manifest[id] = href
			}
		case "itemref":
			for _, a := range se.Attr {
				if strings.ToLower(a.Name.Local) == "idref" && a.Value != "" {
					spine = append(spine, a.Value)
					break
				}
			}
		}
	}

	flow = make([]string, 0, len(spine))
	for _, id := range spine {
		if href, ok := manifest[id]; ok && href != "" {
			flow = append(flow, href)
		}
	}
	return title, author, flow
}

// chapterText strips tags from one chapter document, keeping block
// boundaries as newlines. A parse failure yields an empty string.
func chapterText(raw []byte) string {
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil || doc == nil {
		return ""
	}

	blockTags := map[string]bool{
		"p": true, "div": true, "section": true, "article": true,
		"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
		"li": true, "blockquote": true, "tr": true,
	}
	skipTags := map[string]bool{
		"script": true, "style": true, "head": true, "title": true, "nav": true,
	}

	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			tag := strings.ToLower(n.Data)
			if skipTags[tag] {
				return
			}
			if tag == "br" || blockTags[tag] {
				sb.WriteString("\n")
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
					sb.WriteString(" ")
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockTags[strings.ToLower(n.Data)] {
			sb.WriteString("\n")
		}
	}
	walk(doc)
	return sb.String()
}

// collapseWhitespace normalizes line endings, squeezes runs of blank lines
// down to one and trims every line.
func collapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := 0
	for _, line := range lines {
		t := strings.TrimSpace(line)
		if t == "" {
			blank++
			if blank == 1 && len(out) > 0 {
				out = append(out, "")
			}
			continue
		}
		blank = 0
		out = append(out, t)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
