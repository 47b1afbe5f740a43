package extract

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const documentXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
  <w:body>
    <w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>
    <w:p><w:r><w:t xml:space="preserve">Senior </w:t></w:r><w:r><w:t>Go Engineer</w:t></w:r></w:p>
    <w:p></w:p>
    <w:p><w:r><w:t>jane@example.com</w:t></w:r></w:p>
  </w:body>
</w:document>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"></Relationships>`

func writeDocx(t *testing.T, path string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create docx: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for name, body := range map[string]string{
		"word/document.xml":            documentXML,
		"word/_rels/document.xml.rels": documentRels,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("write zip entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func TestTextDocxJoinsParagraphs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jane.docx")
	writeDocx(t, path)

	text, err := Text(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Jane Doe\nSenior Go Engineer\n\njane@example.com"
	if text != want {
		t.Fatalf("expected %q, got %q", want, text)
	}
}

func TestTextUppercaseExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "JANE.DOCX")
	writeDocx(t, path)

	if _, err := Text(path); err != nil {
		t.Fatalf("expected upper-case extension to be supported, got %v", err)
	}
}

func TestTextErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	unsupported := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(unsupported, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	corruptPDF := filepath.Join(dir, "broken.pdf")
	if err := os.WriteFile(corruptPDF, []byte("definitely not a pdf"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	corruptDocx := filepath.Join(dir, "broken.docx")
	if err := os.WriteFile(corruptDocx, []byte("PK not really"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	tests := []struct {
		name       string
		path       string
		sentinel   error
		extraction bool
	}{
		{name: "unsupported extension", path: unsupported, sentinel: ErrUnsupportedFormat},
		{name: "unsupported even when missing", path: filepath.Join(dir, "absent.odt"), sentinel: ErrUnsupportedFormat},
		{name: "missing pdf", path: filepath.Join(dir, "absent.pdf"), sentinel: ErrFileNotFound},
		{name: "missing docx", path: filepath.Join(dir, "absent.docx"), sentinel: ErrFileNotFound},
		{name: "corrupt pdf", path: corruptPDF, extraction: true},
		{name: "corrupt docx", path: corruptDocx, extraction: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := Text(tt.path)
			if err == nil {
				t.Fatal("expected error")
			}

			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Fatalf("expected %v, got %v", tt.sentinel, err)
			}

			var extractionErr *ExtractionError
			if errors.As(err, &extractionErr) != tt.extraction {
				t.Fatalf("unexpected ExtractionError match for %v", err)
			}
		})
	}
}

func TestSupported(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]bool{
		"cv.pdf":      true,
		"cv.PDF":      true,
		"cv.docx":     true,
		"cv.doc":      false,
		"cv.txt":      false,
		".processed":  false,
		"no-extension": false,
	} {
		if got := Supported(name); got != want {
			t.Fatalf("Supported(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestParagraphsRejectsBrokenXML(t *testing.T) {
	if _, err := paragraphs("<w:document><w:p>"); err == nil {
		t.Fatal("expected error for truncated xml")
	}
}
