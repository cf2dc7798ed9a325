package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pkg/errors"
)

// wireMsg is the role/content pair shared by the Ollama and OpenAI style
// chat endpoints.
type wireMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func toWire(messages []Message) []wireMsg {
	out := make([]wireMsg, 0, len(messages))
	for _, m := range messages {
		out = append(out, wireMsg{Role: m.Role, Content: m.Content})
	}
	return out
}

func endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}

// postJSON sends in as a JSON body and decodes a 2xx reply into out. Non-2xx
// replies become errors carrying the status and the start of the body.
func postJSON(ctx context.Context, client *http.Client, provider, url string, header http.Header, in, out any) error {
	if client == nil {
		return errors.Errorf("%s: http client is nil", provider)
	}
	b, err := json.Marshal(in)
	if err != nil {
		return errors.Wrapf(err, "%s: marshal request", provider)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return errors.Wrapf(err, "%s: build request", provider)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return errors.Wrapf(err, "%s: request failed", provider)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		if msg := strings.TrimSpace(string(body)); msg != "" {
			return fmt.Errorf("%s: status %d: %s", provider, resp.StatusCode, msg)
		}
		return fmt.Errorf("%s: status %d", provider, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "%s: decode response", provider)
	}
	return nil
}
