package extract

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfText joins the text of every page. Pages without extractable text, such as
// scanned images, contribute an empty line instead of failing the document.
func pdfText(path string) (text string, err error) {
	// The parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf parser: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		pages = append(pages, pageText(reader.Page(i)))
	}

	return strings.Join(pages, "\n"), nil
}

func pageText(page pdf.Page) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	if page.V.IsNull() {
		return ""
	}

	content, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return content
}
