// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tokens estimates prompt sizes before a request is sent.
//
// Counts use tiktoken encodings. OpenRouter model IDs carry a vendor prefix
// ("openai/gpt-4o"); the prefix is stripped before lookup and anything
// unknown is counted with o200k_base. The numbers are estimates: the
// provider's reported usage is authoritative.
package tokens
