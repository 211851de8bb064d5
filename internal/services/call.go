package services

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pribylovaa/flashcards-client/internal/client"
	"github.com/pribylovaa/flashcards-client/internal/models"
)

// call — JSON-запрос с разбором data конверта в T.
func call[T any](ctx context.Context, c *client.Client, method, path string, body any) (T, error) {
	req, err := client.NewJSONRequest(method, path, body)
	if err != nil {
		var zero T
		return zero, err
	}

	return client.Call[T](ctx, c, req)
}

// callAnonymous — как call, но без bearer и без refresh на 401.
func callAnonymous[T any](ctx context.Context, c *client.Client, path string, body any) (T, error) {
	req, err := client.NewJSONRequest(http.MethodPost, path, body)
	if err != nil {
		var zero T
		return zero, err
	}
	req.Anonymous = true

	return client.Call[T](ctx, c, req)
}

func get[T any](ctx context.Context, c *client.Client, path string, q url.Values) (T, error) {
	return client.Call[T](ctx, c, &client.Request{Method: http.MethodGet, Path: path, Query: q})
}

func getPage[T any](ctx context.Context, c *client.Client, path string, q url.Values) (models.Page[T], error) {
	return client.CallPage[T](ctx, c, &client.Request{Method: http.MethodGet, Path: path, Query: q})
}

func idPath(prefix string, id int64, suffix string) string {
	return prefix + "/" + strconv.FormatInt(id, 10) + suffix
}

// setInt пропускает нулевые значения: сервер подставит свои умолчания.
func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}
