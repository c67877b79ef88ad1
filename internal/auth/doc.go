// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package auth tracks who the client is talking to the backend as.
//
// The IdentityStore is the single source of truth for the current
// authentication mode: Guest (no token, no server-side history) or
// Authenticated (bearer token present). All mutation - login, registration,
// continue-as-guest, logout - funnels through its methods, and every mutation
// persists the credential pair (token, email) atomically so identity survives
// process restarts.
//
// Credentials at rest are AES-256-GCM encrypted with a key derived from a
// random machine-local master key file (0600). This is the portable
// encrypted-file fallback; it protects against casual file disclosure, not
// against an attacker who already owns the account on this machine.
package auth
