package mockapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/flashcards-client/internal/models"
)

var errBadID = errors.New("invalid id")

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// ok — 200 с конвертом success=true.
func ok[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusOK, models.Envelope[T]{Code: http.StatusOK, Success: true, Data: data})
}

func created[T any](w http.ResponseWriter, data T) {
	writeJSON(w, http.StatusCreated, models.Envelope[T]{Code: http.StatusCreated, Success: true, Data: data})
}

func okPage[T any](w http.ResponseWriter, items []T, meta models.MetaData) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, models.Envelope[[]T]{Code: http.StatusOK, Success: true, Data: items, MetaData: &meta})
}

// fail — конверт ошибки с HTTP-статусом status.
func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.Envelope[any]{Code: status, Success: false, Message: msg})
}

// failLogical — бизнес-отказ, который бэкенд отдаёт с HTTP 200.
func failLogical(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, http.StatusOK, models.Envelope[any]{Code: code, Success: false, Message: msg})
}

// decodeStrict — строгий JSON-декодер: неизвестные поля запрещены.
// Пустое тело допустимо и оставляет value нетронутым.
func decodeStrict(r *http.Request, value any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(value)
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}

	return id, nil
}

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v <= 0 {
		return def
	}

	return v
}

// paginate режет items на страницы; page и pageSize нормализуются.
func paginate[T any](items []T, page, pageSize int) ([]T, models.MetaData) {
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	meta := models.MetaData{Page: page, PageSize: pageSize, Total: len(items)}
	meta.TotalPages = (meta.Total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	if start >= len(items) {
		return nil, meta
	}
	end := min(start+pageSize, len(items))

	return items[start:end], meta
}
