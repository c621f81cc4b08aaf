package domain

import (
	"context"
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Ключи кеша.
// Суффикс версии поднимаем при любом изменении фильтра/сортировки измерения:
// старые записи просто доживают свой TTL непрочитанными.
func CacheKeyList(slug string, version int) string {
	return fmt.Sprintf("%s_ids_v%d", slug, version)
}

func CacheKeyCount(slug string, version int) string {
	return fmt.Sprintf("%s_count_v%d", slug, version)
}

func CacheKeyCurated(slug string, version int) string {
	return fmt.Sprintf("%s_curated_v%d", slug, version)
}

func CacheKeyTailCount(slug string, version int, prefix []MovieID) string {
	return fmt.Sprintf("%s_tail_count_v%d_%s", slug, version, PrefixSignature(prefix))
}

const CacheKeyCountries = "countries_with_counts_v2"

// Приватное пространство имён warmup-а. Резолвер его никогда не читает.
const StagingPrefix = "staging:"

func StagingKey(final string) string { return StagingPrefix + final }

func IsStagingKey(key string) bool { return strings.HasPrefix(key, StagingPrefix) }

// PrefixSignature — хэш множества id кураторского префикса (порядок и дубли не важны).
func PrefixSignature(ids []MovieID) string {
	uniq := make([]MovieID, 0, len(ids))
	seen := make(map[MovieID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		uniq = append(uniq, id)
	}
	sort.Slice(uniq, func(i, j int) bool { return uniq[i] < uniq[j] })

	h := fnv.New64a()
	for _, id := range uniq {
		_, _ = h.Write([]byte(strconv.FormatInt(id, 10)))
		_, _ = h.Write([]byte{','})
	}
	return strconv.FormatUint(h.Sum64(), 36)
}

// Простой k/v интерфейс без транзакций. Реализации: Redis и память.
// Get возвращает ok=false при промахе.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttlSeconds int) error
	Del(ctx context.Context, keys ...string) error
	Ping(context.Context) error
	Close()
}

type CacheWrite struct {
	Key        string
	Val        []byte
	TTLSeconds int
}

// BatchSetter — опционально: атомарная запись нескольких ключей (MULTI/EXEC в Redis).
type BatchSetter interface {
	SetMany(ctx context.Context, writes []CacheWrite) error
}

// KeyLister опционален: перечисление ключей по glob-шаблону.
type KeyLister interface {
	Keys(ctx context.Context, pattern string) ([]string, error)
}
