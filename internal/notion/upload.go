package notion

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

var fileContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
}

func fileContentType(name string) string {
	if ct, ok := fileContentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

type fileUpload struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// uploadFile runs the two-step upload: initiate, then send the content.
func (c *Client) uploadFile(ctx context.Context, path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read cv file: %w", err)
	}

	name := filepath.Base(path)
	ct := fileContentType(name)

	var created fileUpload
	if err := c.doJSON(ctx, http.MethodPost, c.APIURL+"/file_uploads",
		map[string]any{"filename": name, "content_type": ct}, &created); err != nil {
		return "", fmt.Errorf("initiate file upload: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("initiate file upload: notion returned empty upload id")
	}

	var sent fileUpload
	if err := c.postFile(ctx, c.APIURL+"/file_uploads/"+created.ID+"/send", name, ct, content, &sent); err != nil {
		return "", fmt.Errorf("send file content: %w", err)
	}

	return created.ID, nil
}

func (c *Client) postFile(ctx context.Context, url, name, ct string, content []byte, target any) error {
	var b bytes.Buffer
	w := multipart.NewWriter(&b)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	header.Set("Content-Type", ct)

	part, err := w.CreatePart(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(part, bytes.NewReader(content)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &b)
	if err != nil {
		return err
	}

	req = c.setHeaders(req)
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.request(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return decodeResponse(resp, target)
}
