package domain

import "errors"

// Бизнес-ошибки (маппятся на HTTP коды в transport/web/v1)
var (
	ErrBadParams        = errors.New("bad_params")         // 400
	ErrNotFound         = errors.New("not_found")          // 404
	ErrMethodNotAllowed = errors.New("method_not_allowed") // 405
	ErrUnexpected       = errors.New("unexpected")         // 500
	ErrCacheNotWarmed   = errors.New("cache_not_warmed")   // 503
	ErrCorruptEntry     = errors.New("corrupt_cache_entry")
)

// Коды ошибок в конверте ответа
const (
	ErrCodeBadParams        = 1000
	ErrCodeNotFound         = 1004
	ErrCodeMethodNotAllowed = 1005
	ErrCodeUnexpected       = 1500
	ErrCodeCacheNotWarmed   = 1503
)

// MissingEntryError — предвычисленной записи нет, а прямого запроса для категории не предусмотрено.
// Отличается от «пустого результата»: пустая страница здесь была бы враньём.
type MissingEntryError struct {
	Key string
}

func (e *MissingEntryError) Error() string {
	return "cache entry " + e.Key + " missing, run warmup"
}

func (e *MissingEntryError) Unwrap() error { return ErrCacheNotWarmed }
