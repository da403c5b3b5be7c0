package session

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
)

const maxPeekBytes = 1 << 20

// tokenPayload covers the token fields the backend may put in a JSON body.
type tokenPayload struct {
	AccessToken string `json:"accessToken"`
	CSRFToken   string `json:"csrfToken"`
	Message     string `json:"message"`
	Error       string `json:"error"`
}

// peekBody reads up to maxPeekBytes of resp.Body and puts an equivalent reader back.
func peekBody(resp *http.Response) ([]byte, error) {
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil, nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPeekBytes))
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	resp.Body = struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(data), resp.Body), resp.Body}
	return data, nil
}

// drain discards and closes a response that is about to be replaced by a retry.
func drain(resp *http.Response) {
	if resp.Body == nil {
		return
	}
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxPeekBytes))
	resp.Body.Close()
}

func isJSON(header http.Header) bool {
	mediaType, _, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

func decodePayload(data []byte) (tokenPayload, bool) {
	var p tokenPayload
	if len(bytes.TrimSpace(data)) == 0 {
		return p, false
	}
	if err := json.Unmarshal(data, &p); err != nil {
		return p, false
	}
	return p, true
}

// messageFrom extracts the error message of a response body: the message field, then the error field, then the
// body text itself.
func messageFrom(data []byte) string {
	if p, ok := decodePayload(data); ok {
		if p.Message != "" {
			return p.Message
		}
		if p.Error != "" {
			return p.Error
		}
		return ""
	}
	return strings.TrimSpace(string(data))
}
