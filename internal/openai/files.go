package openai

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// UploadFile sends raw bytes to the files endpoint with the given purpose
// and returns the provider file id.
func (c *Client) UploadFile(ctx context.Context, data []byte, fileName, purpose string) (string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	if err := writer.WriteField("purpose", purpose); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	mimeType := mime.TypeByExtension(ext)
	if mimeType == "" {
		switch ext {
		case ".pdf":
			mimeType = "application/pdf"
		case ".md":
			mimeType = "text/markdown"
		case ".docx":
			mimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
		default:
			mimeType = "application/octet-stream"
		}
	}

	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {mimeType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, fileName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("failed to write file body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/files"), &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("file upload failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusRequestEntityTooLarge {
		return "", fmt.Errorf("file %q exceeds the provider size limit", fileName)
	}
	if err := checkStatus(resp); err != nil {
		return "", err
	}

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := decodeBody(resp, &uploadResp); err != nil {
		return "", err
	}
	if uploadResp.ID == "" {
		return "", fmt.Errorf("file upload response has no id")
	}

	c.logger.Info("file uploaded",
		zap.String("file_id", uploadResp.ID),
		zap.String("file_name", fileName),
		zap.Int("bytes", len(data)),
	)
	return uploadResp.ID, nil
}

// DeleteFile removes an uploaded file. Deleting an unknown id is treated
// as already done.
func (c *Client) DeleteFile(ctx context.Context, fileID string) error {
	err := c.delete(ctx, "/files/"+fileID)
	if isNotFound(err) {
		return nil
	}
	return err
}
