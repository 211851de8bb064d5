// models — DTO удалённого REST API, зеркалят JSON-контракт бэкенда.
package models

// Envelope — единый конверт ответа API.
// Data декодируется в конкретный тип вызывающим кодом.
type Envelope[T any] struct {
	Code     int       `json:"code"`
	Success  bool      `json:"success"`
	Message  string    `json:"message,omitempty"`
	Data     T         `json:"data"`
	MetaData *MetaData `json:"metaData,omitempty"`
}

// MetaData — пагинация списковых эндпойнтов.
// Бэкенд отдаёт то totalPage, то totalPages — принимаем оба.
type MetaData struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Total      int `json:"total"`
	TotalPage  int `json:"totalPage,omitempty"`
	TotalPages int `json:"totalPages,omitempty"`
}

// Pages возвращает число страниц независимо от того, какое поле прислал сервер.
// Если оба поля пусты — считаем по total/pageSize.
func (m MetaData) Pages() int {
	switch {
	case m.TotalPages > 0:
		return m.TotalPages
	case m.TotalPage > 0:
		return m.TotalPage
	case m.PageSize > 0:
		return (m.Total + m.PageSize - 1) / m.PageSize
	default:
		return 0
	}
}

// HasNext — есть ли страница после текущей.
func (m MetaData) HasNext() bool { return m.Page < m.Pages() }

// Page — страница списка вместе с метаданными.
type Page[T any] struct {
	Items []T
	Meta  MetaData
}
