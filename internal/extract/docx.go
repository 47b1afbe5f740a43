package extract

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

func docxText(path string) (string, error) {
	doc, err := docx.ReadDocxFile(path)
	if err != nil {
		return "", err
	}
	defer doc.Close()

	return paragraphs(doc.Editable().GetContent())
}

// paragraphs walks word/document.xml and returns one line per w:p element.
func paragraphs(documentXML string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(documentXML))

	var (
		lines   []string
		current strings.Builder
		inText  bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				current.WriteString("\t")
			case "br":
				current.WriteString("\n")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				lines = append(lines, current.String())
				current.Reset()
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}

	return strings.Join(lines, "\n"), nil
}
