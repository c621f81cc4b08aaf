package domain

import (
	"encoding/json"
	"fmt"
)

type PayloadKind string

const (
	KindIDs    PayloadKind = "ids"
	KindCount  PayloadKind = "count"
	KindStruct PayloadKind = "struct"
)

// CacheEntry — то, что лежит в кеше под ключом списка/счётчика.
// Key всегда финальный: staged-копия валидна под финальным ключом без перекодирования.
type CacheEntry struct {
	Key        string          `json:"key"`
	Kind       PayloadKind     `json:"kind"`
	IDs        []MovieID       `json:"ids,omitempty"`
	Count      *int            `json:"count,omitempty"`
	Struct     json.RawMessage `json:"struct,omitempty"`
	TTLSeconds int             `json:"ttl"`
}

func NewIDsEntry(key string, ids []MovieID, ttlSeconds int) CacheEntry {
	if ids == nil {
		ids = []MovieID{}
	}
	return CacheEntry{Key: key, Kind: KindIDs, IDs: ids, TTLSeconds: ttlSeconds}
}

func NewCountEntry(key string, n int, ttlSeconds int) CacheEntry {
	return CacheEntry{Key: key, Kind: KindCount, Count: &n, TTLSeconds: ttlSeconds}
}

func NewStructEntry(key string, v any, ttlSeconds int) (CacheEntry, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return CacheEntry{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return CacheEntry{Key: key, Kind: KindStruct, Struct: raw, TTLSeconds: ttlSeconds}, nil
}

// Encode детерминирован: одинаковый вход даёт байт-в-байт одинаковый payload.
func (e CacheEntry) Encode() ([]byte, error) {
	return json.Marshal(e)
}

// DecodeEntry проверяет запись на границе кеша: ключ внутри должен совпасть с ключом чтения,
// payload — с объявленным видом.
func DecodeEntry(key string, raw []byte) (CacheEntry, error) {
	var e CacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return CacheEntry{}, fmt.Errorf("%s: %w: %v", key, ErrCorruptEntry, err)
	}
	if e.Key != key {
		return CacheEntry{}, fmt.Errorf("%s: %w: entry is for %q", key, ErrCorruptEntry, e.Key)
	}
	switch e.Kind {
	case KindIDs:
		if e.IDs == nil {
			e.IDs = []MovieID{}
		}
	case KindCount:
		if e.Count == nil || *e.Count < 0 {
			return CacheEntry{}, fmt.Errorf("%s: %w: bad count", key, ErrCorruptEntry)
		}
	case KindStruct:
		if len(e.Struct) == 0 {
			return CacheEntry{}, fmt.Errorf("%s: %w: empty struct", key, ErrCorruptEntry)
		}
	default:
		return CacheEntry{}, fmt.Errorf("%s: %w: unknown kind %q", key, ErrCorruptEntry, e.Kind)
	}
	return e, nil
}

func (e CacheEntry) DecodeStruct(v any) error {
	if e.Kind != KindStruct {
		return fmt.Errorf("%s: %w: not a struct entry", e.Key, ErrCorruptEntry)
	}
	if err := json.Unmarshal(e.Struct, v); err != nil {
		return fmt.Errorf("%s: %w: %v", e.Key, ErrCorruptEntry, err)
	}
	return nil
}
