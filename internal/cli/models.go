// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// models.go - List models offered by the endpoint.
package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jeranaias/projectanalyst/internal/cloud"
	"github.com/jeranaias/projectanalyst/internal/session"
	"github.com/jeranaias/projectanalyst/internal/util"
)

// ModelsTimeout bounds the models request.
const ModelsTimeout = 30 * time.Second

// HandleModels lists the endpoint's models. A positional argument filters
// by substring. Without credentials the default endpoint is queried
// anonymously.
func HandleModels(args Args, rt *Runtime) error {
	creds, err := rt.Credentials(true)
	if err != nil {
		creds = session.Credentials{EndpointURL: session.DefaultEndpointURL}
	}

	ctx, cancel := context.WithTimeout(context.Background(), ModelsTimeout)
	defer cancel()

	models, err := rt.Client.ListModels(ctx, creds)
	if err != nil {
		return WrapError(err, "failed to list models")
	}

	filter := strings.ToLower(strings.Join(args.Raw, " "))
	filtered := models[:0]
	for _, m := range models {
		if filter == "" || strings.Contains(strings.ToLower(m.ID), filter) ||
			strings.Contains(strings.ToLower(m.Name), filter) {
			filtered = append(filtered, m)
		}
	}
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].ID < filtered[j].ID })

	if args.JSON {
		return NewJSONResponse("models", filtered).Write(rt.Stdout)
	}

	current := rt.Client.Model()
	for _, m := range filtered {
		marker := "  "
		if m.ID == current {
			marker = SuccessStyle.Render("* ")
		}
		fmt.Fprintf(rt.Stdout, "%s%s %s\n", marker,
			util.PadRight(util.Truncate(m.ID, 48), 48),
			DimStyle.Render(describeModel(m)))
	}
	if !args.Quiet {
		fmt.Fprintln(rt.Stdout, DimStyle.Render(fmt.Sprintf("%d models · endpoint %s", len(filtered), creds.Normalize().EndpointURL)))
	}
	return nil
}

func describeModel(m cloud.ModelInfo) string {
	var parts []string
	if m.ContextSize > 0 {
		parts = append(parts, fmt.Sprintf("%dk ctx", m.ContextSize/1000))
	}
	if m.Pricing.Prompt == "0" && m.Pricing.Completion == "0" {
		parts = append(parts, "free")
	}
	return strings.Join(parts, ", ")
}
