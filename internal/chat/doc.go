// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat runs question/answer exchanges against the backend.
//
// The Engine owns the lifecycle of a single exchange at a time: a question
// goes out, the answer streams back line by line, and the exchange settles
// as a success, a failure with a user-facing advisory, or a cancellation
// that keeps whatever text had arrived. Emissions during streaming are
// cumulative - each one carries the full answer text so far, never a delta -
// so a renderer can simply replace what it is showing.
package chat
