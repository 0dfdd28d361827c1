// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package fixture provides the read-only assistant profile and project
// dataset that ground every conversation.
//
// Both fixtures ship embedded in the binary. Config may point at replacement
// files (JSON, or TOML when the extension is .toml); they are read once at
// startup and never change for the life of the process.
//
// # Key Types
//
//   - Profile: identity, tone and instructions of the assistant
//   - Dataset: company name, fiscal year and project records
//   - Project: one record; Spent may exceed Budget
//   - Date: calendar date serialized as "2006-01-02"
//   - Summary: portfolio totals derived from a Dataset
//
// # Usage
//
//	profile, dataset, err := fixture.Load(cfg.Fixtures.ProfilePath, cfg.Fixtures.DatasetPath)
//	if err != nil {
//		return err
//	}
//	fmt.Println(dataset.CompanyName, len(dataset.Projects))
package fixture
