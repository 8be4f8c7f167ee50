package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"path"
	"strings"
)

// EPUBLoader implements Loader for EPUB files. An EPUB is a zip container
// holding an OPF manifest/spine and XHTML chapter parts — structurally the
// same shape as DOCX's zip-of-XML-parts, so this reuses the teacher's
// DOCXParser technique (archive/zip + encoding/xml, no third-party library)
// rather than reaching for an EPUB-specific package, none of which appear
// anywhere in the example pack.
//
// Per spec.md §4.1, the EPUB loader concatenates all spine chapters into a
// single page (PageNumber 1), unlike PDF's one-page-per-page model.
type EPUBLoader struct{}

func (l *EPUBLoader) SupportedExtensions() []string { return []string{".epub"} }

func (l *EPUBLoader) Load(ctx context.Context, filePath string) (*LoadResult, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening EPUB: %w", err)
	}
	defer r.Close()

	fileIndex := make(map[string]*zip.File, len(r.File))
	for _, f := range r.File {
		fileIndex[f.Name] = f
	}

	opfPath, err := locateOPF(fileIndex)
	if err != nil {
		return nil, err
	}

	opfData, err := readZipFile(fileIndex[opfPath])
	if err != nil {
		return nil, fmt.Errorf("reading OPF package: %w", err)
	}

	pkg, err := parseOPFPackage(opfData)
	if err != nil {
		return nil, fmt.Errorf("parsing OPF package: %w", err)
	}

	manifest := make(map[string]string, len(pkg.Manifest.Items)) // id -> href
	for _, item := range pkg.Manifest.Items {
		manifest[item.ID] = item.Href
	}

	opfDir := path.Dir(opfPath)
	var chapters []string
	for _, ref := range pkg.Spine.ItemRefs {
		href, ok := manifest[ref.IDRef]
		if !ok {
			continue
		}
		itemPath := path.Join(opfDir, href)
		f, ok := fileIndex[itemPath]
		if !ok {
			continue
		}
		data, err := readZipFile(f)
		if err != nil {
			continue
		}
		text := extractXHTMLText(data)
		text = strings.TrimSpace(text)
		if text != "" {
			chapters = append(chapters, text)
		}
	}

	metadata := map[string]string{}
	if pkg.Metadata.Title != "" {
		metadata["title"] = pkg.Metadata.Title
	}
	if pkg.Metadata.Creator != "" {
		metadata["author"] = pkg.Metadata.Creator
	}

	fullText := strings.Join(chapters, "\n\n")
	var pages []Page
	if fullText != "" {
		pages = []Page{{PageNumber: 1, Text: fullText}}
	}

	return &LoadResult{Pages: pages, Metadata: metadata}, nil
}

func readZipFile(f *zip.File) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("file not found in archive")
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// locateOPF reads META-INF/container.xml to find the OPF package's path,
// the standard EPUB bootstrap mechanism.
func locateOPF(fileIndex map[string]*zip.File) (string, error) {
	container, ok := fileIndex["META-INF/container.xml"]
	if !ok {
		return "", fmt.Errorf("missing META-INF/container.xml: not a valid EPUB")
	}
	data, err := readZipFile(container)
	if err != nil {
		return "", err
	}

	var c struct {
		Rootfiles struct {
			Rootfile []struct {
				FullPath string `xml:"full-path,attr"`
			} `xml:"rootfile"`
		} `xml:"rootfiles"`
	}
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("parsing container.xml: %w", err)
	}
	if len(c.Rootfiles.Rootfile) == 0 {
		return "", fmt.Errorf("container.xml lists no rootfile")
	}
	return c.Rootfiles.Rootfile[0].FullPath, nil
}

type opfPackage struct {
	Metadata struct {
		Title   string `xml:"title"`
		Creator string `xml:"creator"`
	} `xml:"metadata"`
	Manifest struct {
		Items []struct {
			ID   string `xml:"id,attr"`
			Href string `xml:"href,attr"`
		} `xml:"item"`
	} `xml:"manifest"`
	Spine struct {
		ItemRefs []struct {
			IDRef string `xml:"idref,attr"`
		} `xml:"itemref"`
	} `xml:"spine"`
}

func parseOPFPackage(data []byte) (*opfPackage, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, err
	}
	return &pkg, nil
}

// extractXHTMLText walks the XHTML token stream and concatenates character
// data, skipping <script>/<style> content — the same token-walking approach
// the teacher's parseDocxXML uses for OOXML, applied here to XHTML.
func extractXHTMLText(data []byte) string {
	decoder := xml.NewDecoder(strings.NewReader(string(data)))
	decoder.Strict = false
	decoder.AutoClose = xml.HTMLAutoClose
	decoder.Entity = xml.HTMLEntity

	var sb strings.Builder
	var skipDepth int
	for {
		tok, err := decoder.Token()
		if err != nil {
			break
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "script" || t.Name.Local == "style" {
				skipDepth++
			}
			if isBlockElement(t.Name.Local) && sb.Len() > 0 {
				sb.WriteString("\n")
			}
		case xml.EndElement:
			if t.Name.Local == "script" || t.Name.Local == "style" {
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case xml.CharData:
			if skipDepth == 0 {
				sb.Write(t)
			}
		}
	}
	return collapseWhitespace(sb.String())
}

func isBlockElement(name string) bool {
	switch name {
	case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "li", "tr":
		return true
	}
	return false
}

func collapseWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
