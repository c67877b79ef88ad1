// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for communicating with the DocuMind
// backend.
package api

import (
	"bytes"
	"encoding/json"
)

// =============================================================================
// STREAM DECODER
// =============================================================================

// Event is one decoded record from the answer stream.
type Event struct {
	// Content is the incremental text fragment carried by the record.
	Content string
}

// StreamDecoder converts a raw byte stream into decoded events, one per
// newline-delimited JSON record.
//
// Network chunk boundaries carry no framing guarantee: a record may be split
// across two reads. The decoder keeps the unterminated tail of each chunk as
// a carry-over buffer and only parses fully terminated lines, so a record
// split across chunks is reconstructed and parsed exactly once.
//
// Failure policy: a line that does not parse as JSON, or parses but lacks a
// content field, is silently skipped. One bad line never aborts the stream.
type StreamDecoder struct {
	carry []byte
}

// NewStreamDecoder creates an empty decoder.
func NewStreamDecoder() *StreamDecoder {
	return &StreamDecoder{}
}

// Feed consumes one chunk of bytes and returns the events for every line the
// chunk completed. The trailing unterminated segment (if the chunk did not
// end exactly on a newline) is retained for the next Feed call.
func (d *StreamDecoder) Feed(chunk []byte) []Event {
	d.carry = append(d.carry, chunk...)

	var events []Event
	for {
		i := bytes.IndexByte(d.carry, '\n')
		if i < 0 {
			break
		}
		line := d.carry[:i]
		d.carry = d.carry[i+1:]

		if ev, ok := decodeLine(line); ok {
			events = append(events, ev)
		}
	}
	return events
}

// Finish flushes the carry-over buffer at end of stream. A non-empty
// remainder is treated as a final record if it parses, otherwise discarded.
// The decoder is exhausted afterwards; further Feed calls start clean.
func (d *StreamDecoder) Finish() []Event {
	line := d.carry
	d.carry = nil

	if ev, ok := decodeLine(line); ok {
		return []Event{ev}
	}
	return nil
}

// Pending returns the number of buffered bytes awaiting a terminating newline.
func (d *StreamDecoder) Pending() int {
	return len(d.carry)
}

// decodeLine parses one line as a {"content": ...} record.
// The content pointer distinguishes a missing field from an empty fragment:
// records of other shapes are dropped, an explicit empty string is kept.
func decodeLine(line []byte) (Event, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Event{}, false
	}

	var rec struct {
		Content *string `json:"content"`
	}
	if err := json.Unmarshal(line, &rec); err != nil {
		return Event{}, false
	}
	if rec.Content == nil {
		return Event{}, false
	}
	return Event{Content: *rec.Content}, true
}
