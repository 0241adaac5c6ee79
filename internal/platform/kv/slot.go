package kv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/singleflight"
)

// Slot serialises a whole ordered collection of T into one key, with its id
// sequence kept under "<key>:seq".
type Slot[T any] struct {
	store Store
	key   string
	group singleflight.Group
}

// NewSlot binds a collection to key.
func NewSlot[T any](store Store, key string) *Slot[T] {
	return &Slot[T]{store: store, key: key}
}

// SeqKey returns the sequence key.
func (s *Slot[T]) SeqKey() string { return s.key + ":seq" }

type rawSlot struct {
	items []byte
	seq   []byte
}

// Load reads the collection and its sequence. A missing collection returns
// ErrMissing, an undecodable one ErrCorrupt. A missing or unreadable sequence
// is reported as zero. Concurrent loads of one slot share a single backend
// read; decoding happens per caller so results never alias.
func (s *Slot[T]) Load(ctx context.Context) ([]T, int64, error) {
	ch := s.group.DoChan(s.key, func() (interface{}, error) {
		items, err := s.store.Get(ctx, s.key)
		if err != nil {
			return nil, err
		}
		seq, err := s.store.Get(ctx, s.SeqKey())
		if err != nil && !errors.Is(err, ErrMissing) {
			return nil, err
		}
		return rawSlot{items: items, seq: seq}, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, 0, res.Err
	}
	raw := res.Val.(rawSlot)

	var items []T
	if err := json.Unmarshal(raw.items, &items); err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.key, err)
	}
	if items == nil {
		items = []T{}
	}
	return items, parseSeq(raw.seq), nil
}

// Save overwrites the collection and its sequence in one write.
func (s *Slot[T]) Save(ctx context.Context, items []T, seq int64) error {
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("kv: encode %s: %w", s.key, err)
	}
	return s.store.SetMulti(ctx,
		Entry{Key: s.key, Value: payload},
		Entry{Key: s.SeqKey(), Value: []byte(strconv.FormatInt(seq, 10))},
	)
}

func parseSeq(raw []byte) int64 {
	if len(raw) == 0 {
		return 0
	}
	seq, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}

// NextID returns the id following both the persisted sequence and the
// largest id already present, so collections written before the sequence
// existed never hand out a taken id.
func NextID(seq, maxID int64) int64 {
	if maxID > seq {
		seq = maxID
	}
	return seq + 1
}
