package upstream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"

	app_errors "github.com/roguedev-ai/kasmchannelgpt-sub002/internal/errors"
	"github.com/roguedev-ai/kasmchannelgpt-sub002/internal/model"
)

const maxSSELine = 1 << 20

type httpClient struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewHTTPClient returns a Client talking to baseURL with a bearer apiKey.
func NewHTTPClient(baseURL, apiKey string, hc *http.Client) Client {
	if hc == nil {
		hc = &http.Client{}
	}
	return &httpClient{
		client:  hc,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

func (c *httpClient) projectPath(agentID string, parts ...string) string {
	p := "/projects/" + url.PathEscape(agentID)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

func (c *httpClient) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("could not create http request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// do executes the request and returns the body of a 2xx response.
func (c *httpClient) do(req *http.Request) ([]byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", app_errors.ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: could not read response body: %v", app_errors.ErrTransport, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &app_errors.UpstreamError{Status: resp.StatusCode, Message: errorMessage(body)}
	}
	return body, nil
}

func (c *httpClient) doJSON(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var body io.Reader
	contentType := ""
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *httpClient) GetAgentSettings(ctx context.Context, agentID string) (*model.AgentSettings, error) {
	body, err := c.doJSON(ctx, http.MethodGet, c.projectPath(agentID), nil)
	if err != nil {
		return nil, err
	}
	settings := agentSettingsOf(agentID, object(body))
	return &settings, nil
}

type sendBody struct {
	MessagePayload
	Stream bool `json:"stream"`
}

func (c *httpClient) SendMessage(ctx context.Context, agentID, sessionRef string, payload MessagePayload) (*MessageRecord, error) {
	path := c.projectPath(agentID, "conversations", sessionRef, "messages")
	body, err := c.doJSON(ctx, http.MethodPost, path, sendBody{MessagePayload: payload})
	if err != nil {
		return nil, err
	}
	rec := messageRecordOf(object(body))
	return &rec, nil
}

// SendMessageStream posts the prompt with stream=true and decodes the
// server-sent events until the body ends or a done/error unit arrives.
func (c *httpClient) SendMessageStream(ctx context.Context, agentID, sessionRef string, payload MessagePayload, cb StreamCallbacks) error {
	fail := func(err error) error {
		if cb.OnError != nil {
			cb.OnError(err)
		}
		return err
	}

	raw, err := json.Marshal(sendBody{MessagePayload: payload, Stream: true})
	if err != nil {
		return fail(fmt.Errorf("could not marshal request: %w", err))
	}
	path := c.projectPath(agentID, "conversations", sessionRef, "messages") + "?stream=true"
	req, err := c.newRequest(ctx, http.MethodPost, path, bytes.NewReader(raw), "application/json")
	if err != nil {
		return fail(err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.client.Do(req)
	if err != nil {
		return fail(fmt.Errorf("%w: %v", app_errors.ErrTransport, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fail(&app_errors.UpstreamError{Status: resp.StatusCode, Message: errorMessage(body)})
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)
	var data bytes.Buffer
	dispatch := func() (finished bool, err error) {
		if data.Len() == 0 {
			return false, nil
		}
		defer data.Reset()
		for _, chunk := range decodeStreamEvent(data.Bytes()) {
			switch chunk.Type {
			case model.ChunkError:
				return true, fmt.Errorf("%w: %s", app_errors.ErrTransport, chunk.Error)
			case model.ChunkDone:
				if cb.OnChunk != nil {
					cb.OnChunk(chunk)
				}
				return true, nil
			default:
				if cb.OnChunk != nil {
					cb.OnChunk(chunk)
				}
			}
		}
		return false, nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			finished, err := dispatch()
			if err != nil {
				return fail(err)
			}
			if finished {
				break
			}
			continue
		}
		if after, ok := strings.CutPrefix(line, "data:"); ok {
			if data.Len() > 0 {
				data.WriteByte('\n')
			}
			data.WriteString(strings.TrimPrefix(after, " "))
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		return fail(fmt.Errorf("%w: %v", app_errors.ErrTransport, err))
	}
	if _, err := dispatch(); err != nil {
		return fail(err)
	}
	if cb.OnComplete != nil {
		cb.OnComplete()
	}
	return nil
}

func (c *httpClient) GetMessages(ctx context.Context, agentID, sessionRef string) ([]MessageRecord, error) {
	path := c.projectPath(agentID, "conversations", sessionRef, "messages")
	body, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	items := listItems(body, "messages")
	records := make([]MessageRecord, 0, len(items))
	for _, it := range items {
		records = append(records, messageRecordOf(it))
	}
	return records, nil
}

func (c *httpClient) GetCitation(ctx context.Context, agentID string, citationID int) (*CitationRecord, error) {
	path := c.projectPath(agentID, "citations", fmt.Sprint(citationID))
	body, err := c.doJSON(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	rec := citationRecordOf(object(body))
	if rec.ID == 0 {
		rec.ID = citationID
	}
	return &rec, nil
}

func (c *httpClient) UploadFile(ctx context.Context, agentID string, file model.Attachment) (string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return "", fmt.Errorf("could not build upload: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return "", fmt.Errorf("could not build upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("could not build upload: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, c.projectPath(agentID, "sources"), &buf, w.FormDataContentType())
	if err != nil {
		return "", err
	}
	body, err := c.do(req)
	if err != nil {
		return "", err
	}
	obj := object(body)
	ref := stringOf(obj.Get("id"))
	if ref == "" {
		ref = stringOf(obj.Get("pages.0.id"))
	}
	if ref == "" {
		return "", errors.New("upload response carried no source id")
	}
	return ref, nil
}

func (c *httpClient) CreateConversation(ctx context.Context, agentID, title string) (*ConversationRecord, error) {
	body, err := c.doJSON(ctx, http.MethodPost, c.projectPath(agentID, "conversations"), map[string]string{"name": title})
	if err != nil {
		return nil, err
	}
	rec := conversationRecordOf(object(body))
	if rec.Title == "" {
		rec.Title = title
	}
	return &rec, nil
}

func (c *httpClient) UpdateConversation(ctx context.Context, agentID, sessionRef, title string) error {
	_, err := c.doJSON(ctx, http.MethodPut, c.projectPath(agentID, "conversations", sessionRef), map[string]string{"name": title})
	return err
}

func (c *httpClient) DeleteConversation(ctx context.Context, agentID, sessionRef string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, c.projectPath(agentID, "conversations", sessionRef), nil)
	return err
}

func (c *httpClient) UpdateMessageFeedback(ctx context.Context, agentID, sessionRef string, promptID int64, feedback model.Feedback) error {
	reaction := string(feedback)
	if reaction == "" {
		reaction = "neutral"
	}
	path := c.projectPath(agentID, "conversations", sessionRef, "messages", fmt.Sprint(promptID), "feedback")
	_, err := c.doJSON(ctx, http.MethodPut, path, map[string]string{"reaction": reaction})
	return err
}
