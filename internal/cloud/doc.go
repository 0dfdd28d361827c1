// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud is the completion gateway: a client for OpenRouter and other
// OpenAI-compatible chat completion endpoints.
//
// Each call is a single POST to <endpoint>/chat/completions. There are no
// retries and no streaming; the caller's context bounds the request and the
// transport default applies unless a timeout is configured.
//
// # Failures
//
// Every failure is a *Failure whose Error() is the text shown to the user:
//
//   - KindAuthentication (HTTP 401, errors.Is ErrAuthFailed)
//   - KindInsufficientBalance (HTTP 402, errors.Is ErrInsufficientCredits)
//   - KindProvider (anything else, errors.Is ErrProvider)
//
// # Usage
//
//	client := cloud.NewClient().
//		WithModel(cfg.Cloud.Model).
//		WithMaxTokens(cfg.Cloud.MaxTokens).
//		WithSite(cfg.App.SiteURL, cfg.App.Name)
//
//	result := client.Complete(ctx, creds, payload)
//	if reply, ok := result.Reply(); ok {
//		fmt.Println(reply.Content)
//	}
package cloud
