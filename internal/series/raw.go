// Package series implements the time-series normalization and filtering
// pipeline: it ingests a raw balance-sheet document in one of two
// recognized shapes, normalizes it into the canonical per-series form,
// and derives filtered views for a selected date window.
package series

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Form identifies which of the two recognized raw document shapes a
// payload carries.
type Form int

const (
	// FormTuple is the producer shape: a JSON object mapping each series
	// key to an ordered list of [dateString, value] pairs, plus a meta
	// record.
	FormTuple Form = iota

	// FormRecord is the per-day shape: a JSON array of records, each
	// holding a date and one named numeric field per tracked series.
	FormRecord
)

func (f Form) String() string {
	if f == FormRecord {
		return "record"
	}
	return "tuple"
}

// RawMeta is the optional document-level metadata record.
type RawMeta struct {
	LastUpdated string `json:"last_updated"`
}

// TuplePair is a single [dateString, value] observation. The value slot
// may be null or absent in source documents; it stays nil rather than
// being coerced, and the normalizer decides what to do with it.
type TuplePair struct {
	Date  string
	Value *float64
}

// UnmarshalJSON decodes the heterogeneous two-element JSON array form.
func (p *TuplePair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("tuple pair: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw[0], &p.Date); err != nil {
			return fmt.Errorf("tuple pair date: %w", err)
		}
	}
	if len(raw) > 1 {
		if err := json.Unmarshal(raw[1], &p.Value); err != nil {
			return fmt.Errorf("tuple pair value: %w", err)
		}
	}
	return nil
}

// MarshalJSON encodes back to the [dateString, value] array form.
func (p TuplePair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Date, p.Value})
}

// TupleDocument mirrors the producer's JSON document: six named pair
// lists plus an optional meta record.
type TupleDocument struct {
	Meta            *RawMeta    `json:"meta,omitempty"`
	Formula1        []TuplePair `json:"formula_1"`
	FedAssets       []TuplePair `json:"fed_assets"`
	TGA             []TuplePair `json:"tga"`
	RRP             []TuplePair `json:"rrp"`
	LoansFacilities []TuplePair `json:"loans_facilities"`
	LoansHeld       []TuplePair `json:"loans_held"`
}

// Record is one per-day entry of a record-form document. Numeric fields
// are pointers so an absent field is distinguishable from zero. The
// optional meta record may ride on the first element of the sequence.
type Record struct {
	Meta            *RawMeta `json:"meta,omitempty"`
	Date            string   `json:"date"`
	NetLiquidity    *float64 `json:"Net_Liquidity"`
	FedAssets       *float64 `json:"Fed_Assets"`
	TGA             *float64 `json:"TGA"`
	RRP             *float64 `json:"RRP"`
	LoansFacilities *float64 `json:"Loans_Facilities"`
	LoansHeld       *float64 `json:"Loans_Held"`
}

// RawDocument is the tagged union of the two recognized shapes. Exactly
// one variant is populated, according to Form.
type RawDocument struct {
	Form    Form
	Tuple   *TupleDocument
	Records []Record
}

// ParseRaw detects the document shape by its leading JSON token and
// decodes the matching variant. An array is Record form; anything else
// is treated as Tuple form.
func ParseRaw(data []byte) (*RawDocument, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty raw document")
	}

	if trimmed[0] == '[' {
		var records []Record
		if err := json.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("decode record-form document: %w", err)
		}
		return &RawDocument{Form: FormRecord, Records: records}, nil
	}

	var doc TupleDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("decode tuple-form document: %w", err)
	}
	return &RawDocument{Form: FormTuple, Tuple: &doc}, nil
}
