package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"

	"github.com/pribylovaa/flashcards-client/internal/models"
)

// logicalFailure — тело это JSON-объект с явным success=false.
// Отсутствующее поле success ошибкой не считается.
func logicalFailure(body []byte) bool {
	if !gjson.ValidBytes(body) {
		return false
	}

	res := gjson.GetBytes(body, "success")
	return res.Exists() && res.Type == gjson.False
}

// DecodeEnvelope разбирает конверт ответа и возвращает его целиком.
func DecodeEnvelope[T any](resp *Response) (models.Envelope[T], error) {
	const op = "client.DecodeEnvelope"

	var env models.Envelope[T]
	if resp == nil || len(resp.Body) == 0 {
		return env, nil
	}

	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return env, fmt.Errorf("%s: %w", op, err)
	}

	return env, nil
}

// Call выполняет запрос и декодирует data конверта в T.
func Call[T any](ctx context.Context, c *Client, req *Request) (T, error) {
	var zero T

	resp, err := c.Do(ctx, req)
	if err != nil {
		return zero, err
	}

	env, err := DecodeEnvelope[T](resp)
	if err != nil {
		return zero, err
	}

	return env.Data, nil
}

// CallPage — как Call, но для списков с metaData.
func CallPage[T any](ctx context.Context, c *Client, req *Request) (models.Page[T], error) {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return models.Page[T]{}, err
	}

	env, err := DecodeEnvelope[[]T](resp)
	if err != nil {
		return models.Page[T]{}, err
	}

	page := models.Page[T]{Items: env.Data}
	if env.MetaData != nil {
		page.Meta = *env.MetaData
	}

	return page, nil
}

// Get — GET path?query.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post — POST с JSON-телом.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPost, path, body)
}

func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPut, path, body)
}

func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.sendJSON(ctx, http.MethodPatch, path, body)
}

func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path})
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body any) (*Response, error) {
	req, err := NewJSONRequest(method, path, body)
	if err != nil {
		return nil, err
	}

	return c.Do(ctx, req)
}
