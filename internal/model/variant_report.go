package model

import (
	"bytes"
	"encoding/hex"
	"encoding/json"

	"golang.org/x/crypto/sha3"
)

// VariantReport maps variant SKUs to the ids of the reviews written for them.
//
// SKUs keep the order in which they were first seen and every bucket keeps the
// order in which reviews were added, so rendering a report twice from the same
// input yields identical output. VariantReport is not safe for concurrent use;
// the variant.Aggregator serializes access to it.
type VariantReport struct {
	order   []string
	buckets map[string][]string
}

// NewVariantReport returns an empty report.
func NewVariantReport() *VariantReport {
	return &VariantReport{
		order:   make([]string, 0),
		buckets: make(map[string][]string),
	}
}

// Add appends reviewID to the bucket for sku, creating the bucket if absent.
func (r *VariantReport) Add(sku, reviewID string) {
	if _, ok := r.buckets[sku]; !ok {
		r.order = append(r.order, sku)
	}
	r.buckets[sku] = append(r.buckets[sku], reviewID)
}

// SKUs returns the SKUs in first-insertion order.
func (r *VariantReport) SKUs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Reviews returns the review ids attributed to sku in insertion order.
// It returns nil when the SKU has no bucket.
func (r *VariantReport) Reviews(sku string) []string {
	ids, ok := r.buckets[sku]
	if !ok {
		return nil
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}

// Len returns the number of SKU buckets.
func (r *VariantReport) Len() int {
	return len(r.order)
}

// TotalReviews returns the number of review ids across all buckets.
func (r *VariantReport) TotalReviews() int {
	total := 0
	for _, ids := range r.buckets {
		total += len(ids)
	}
	return total
}

// Contains reports whether reviewID appears in any bucket.
func (r *VariantReport) Contains(reviewID string) bool {
	for _, ids := range r.buckets {
		for _, id := range ids {
			if id == reviewID {
				return true
			}
		}
	}
	return false
}

// MarshalJSON encodes the report as a JSON object whose keys follow SKU
// insertion order. encoding/json would otherwise sort map keys.
func (r *VariantReport) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, sku := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(sku)
		if err != nil {
			return nil, err
		}
		ids, err := json.Marshal(r.buckets[sku])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(ids)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Fingerprint returns the hex encoded SHA3-256 digest of the report's JSON
// encoding. Two runs over the same export and the same order data produce the
// same fingerprint.
func (r *VariantReport) Fingerprint() string {
	data, err := r.MarshalJSON()
	if err != nil {
		// MarshalJSON only fails on unencodable strings, which Go strings are not.
		return ""
	}
	sum := sha3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
