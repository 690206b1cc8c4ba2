// Package remote talks to a Supabase-compatible storage REST API
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ecogroup/ecgsite/storages"
)

type Client struct {
	*http.Client // [Embedded]
	BaseURL      string
	Key          string
}

var _ storages.FileStore = (*Client)(nil)

func New(httpClient *http.Client, baseURL, key string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{Client: httpClient, BaseURL: strings.TrimRight(baseURL, "/"), Key: key}
}

func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

func (c *Client) objectURL(bucket, objectPath string) string {
	return c.BaseURL + "/storage/v1/object/" + url.PathEscape(bucket) + "/" + escapePath(objectPath)
}

// request sends an authorized request.
// The caller is responsible for closing response.Body.
func (c *Client) request(ctx context.Context, method, upstrURL string, body io.Reader, contentType string) (*http.Response, error) {
	upstrReq, err := http.NewRequestWithContext(ctx, method, upstrURL, body)
	if err != nil {
		return nil, err
	}
	upstrReq.Header.Set("apikey", c.Key)
	upstrReq.Header.Set("Authorization", "Bearer "+c.Key)
	if contentType != "" {
		upstrReq.Header.Set("Content-Type", contentType)
	}
	return c.Do(upstrReq)
}

func (c *Client) requestJSON(ctx context.Context, method, upstrURL string, reqBody any, out any) error {
	upstrReqBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return err
	}
	upstrRes, err := c.request(ctx, method, upstrURL, bytes.NewReader(upstrReqBodyBytes), "application/json")
	if err != nil {
		return err
	}
	defer closeBody(upstrRes)
	if err = statusError(upstrRes); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(upstrRes.Body).Decode(out)
}

func closeBody(res *http.Response) {
	if err := res.Body.Close(); err != nil {
		log.Printf("[WARN][STORAGE] %v", err)
	}
}

func statusError(res *http.Response) error {
	switch {
	case res.StatusCode >= 200 && res.StatusCode < 300:
		return nil
	case res.StatusCode == http.StatusNotFound:
		return storages.ErrNotFound
	}
	var apiErr struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(res.Body, 4096)).Decode(&apiErr)
	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Error
	}
	// the storage API reports missing objects as 400 with a not-found message
	if strings.Contains(strings.ToLower(msg), "not found") {
		return storages.ErrNotFound
	}
	return fmt.Errorf("storage API: HTTP Status Code: %d: %s", res.StatusCode, msg)
}

func (c *Client) Upload(ctx context.Context, bucket, objectPath string, r io.Reader, contentType string) (string, error) {
	objectPath = storages.CleanPath(objectPath)
	if objectPath == "" {
		return "", storages.ErrInvalidPath
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	upstrRes, err := c.request(ctx, http.MethodPost, c.objectURL(bucket, objectPath), r, contentType)
	if err != nil {
		return "", err
	}
	defer closeBody(upstrRes)
	if err = statusError(upstrRes); err != nil {
		return "", err
	}
	return c.PublicURL(bucket, objectPath), nil
}

func (c *Client) Delete(ctx context.Context, bucket, objectPath string) error {
	var removed []json.RawMessage
	reqBody := map[string][]string{"prefixes": {objectPath}}
	if err := c.requestJSON(ctx, http.MethodDelete, c.BaseURL+"/storage/v1/object/"+url.PathEscape(bucket), reqBody, &removed); err != nil {
		return err
	}
	if len(removed) == 0 {
		return storages.ErrNotFound
	}
	return nil
}

type listRequest struct {
	Prefix string `json:"prefix"`
	Limit  int    `json:"limit"`
	Offset int    `json:"offset"`
	Search string `json:"search,omitempty"`
	SortBy struct {
		Column string `json:"column"`
		Order  string `json:"order"`
	} `json:"sortBy"`
}

type listEntry struct {
	Name      string     `json:"name"`
	ID        *string    `json:"id"` // null for folders
	UpdatedAt *time.Time `json:"updated_at"`
	Metadata  *struct {
		Size     int64  `json:"size"`
		MimeType string `json:"mimetype"`
	} `json:"metadata"`
}

func (c *Client) List(ctx context.Context, bucket string, opts storages.ListOptions) ([]storages.Object, error) {
	req := listRequest{Prefix: opts.Prefix, Limit: opts.LimitOrDefault(), Offset: opts.Offset, Search: opts.Search}
	req.SortBy.Column = "name"
	req.SortBy.Order = "asc"
	var entries []listEntry
	if err := c.requestJSON(ctx, http.MethodPost, c.BaseURL+"/storage/v1/object/list/"+url.PathEscape(bucket), req, &entries); err != nil {
		return nil, err
	}
	objects := make([]storages.Object, 0, len(entries))
	for _, e := range entries {
		if e.ID == nil {
			continue
		}
		obj := storages.Object{Name: e.Name}
		if e.Metadata != nil {
			obj.Size = e.Metadata.Size
			obj.ContentType = e.Metadata.MimeType
		}
		if e.UpdatedAt != nil {
			obj.UpdatedAt = *e.UpdatedAt
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

func (c *Client) Open(ctx context.Context, bucket, objectPath string) (io.ReadCloser, error) {
	upstrRes, err := c.request(ctx, http.MethodGet, c.objectURL(bucket, objectPath), nil, "")
	if err != nil {
		return nil, err
	}
	if err = statusError(upstrRes); err != nil {
		closeBody(upstrRes)
		return nil, err
	}
	return upstrRes.Body, nil
}

func (c *Client) PublicURL(bucket, objectPath string) string {
	return c.BaseURL + "/storage/v1/object/public/" + url.PathEscape(bucket) + "/" + escapePath(objectPath)
}
