// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session holds the signed-in user's credentials.
//
// A session is either Anonymous or Authenticated. Login trims the supplied
// display name, API key and endpoint, fills in the default endpoint, mirrors
// the result into durable storage and becomes Authenticated. Restore reloads
// that stored value on the next start; Logout forgets it in memory and in
// storage. There is no expiry and no validation of the key until the first
// completion request uses it.
//
// # Key Types
//
//   - Credentials: display name, API key and endpoint URL
//   - Repository: Load/Save/Clear of the single stored credentials value
//   - KVRepository: Repository over a storage.KV under StorageKey
//   - Manager: the Anonymous/Authenticated state machine
//
// # Usage
//
//	mgr := session.NewManager(session.NewKVRepository(kv), logger)
//	mgr.Restore()
//	if !mgr.IsAuthenticated() {
//		if err := mgr.Login(name, apiKey, endpoint); err != nil {
//			return err
//		}
//	}
//	creds, _ := mgr.Current()
package session
