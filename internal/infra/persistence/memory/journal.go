package memory

import (
	"bytes"
	"sync"
)

// BucketPayload is one encoded snapshot bucket.
type BucketPayload struct {
	Bucket  string
	Payload []byte
}

// Journal remembers the payload last written for each bucket so durable
// stores rewrite only the buckets a transaction changed.
type Journal struct {
	mu      sync.Mutex
	written map[string][]byte
}

// NewJournal returns an empty journal; every bucket is pending until recorded.
func NewJournal() *Journal {
	return &Journal{written: make(map[string][]byte)}
}

// Pending encodes every bucket of snap and returns, in Buckets order, those
// whose payload differs from the last recorded write.
func (j *Journal) Pending(snap *Snapshot) ([]BucketPayload, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	var out []BucketPayload
	for _, bucket := range Buckets {
		data, err := snap.EncodeBucket(bucket)
		if err != nil {
			return nil, err
		}
		if prev, ok := j.written[bucket]; ok && bytes.Equal(prev, data) {
			continue
		}
		out = append(out, BucketPayload{Bucket: bucket, Payload: data})
	}
	return out, nil
}

// Record marks payloads as durably written.
func (j *Journal) Record(payloads ...BucketPayload) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, p := range payloads {
		j.written[p.Bucket] = append([]byte(nil), p.Payload...)
	}
}
