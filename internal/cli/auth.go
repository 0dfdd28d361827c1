// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// auth.go - login, logout and status commands.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jeranaias/projectanalyst/internal/config"
	"github.com/jeranaias/projectanalyst/internal/session"
)

// =============================================================================
// LOGIN
// =============================================================================

// HandleLogin asks for a display name, API key and optional endpoint and
// stores them. The key is read without echo on a terminal. --name and
// --endpoint skip their prompts; ANALYST_API_KEY skips the key prompt.
func HandleLogin(args Args, rt *Runtime) error {
	if rt.Sessions.IsAuthenticated() {
		return NewCommandError("login", "store credentials",
			"already signed in; run 'analyst logout' first", session.ErrAlreadyAuthenticated)
	}

	p := NewArgParser(args.Raw)
	reader := bufio.NewReader(rt.Stdin)
	interactive := isTerminal(rt.Stdin)

	if interactive && !args.Quiet {
		fmt.Fprintln(rt.Stdout, TitleStyle.Render("Welcome"))
		fmt.Fprintln(rt.Stdout, DimStyle.Render("Configure your AI assistant credentials to begin."))
	}

	name := p.Flag("name")
	if name == "" {
		var err error
		if name, err = promptLine(reader, rt.Stdout, "Your Name: "); err != nil {
			return fmt.Errorf("failed to read name: %w", err)
		}
	}

	apiKey := os.Getenv(session.EnvAPIKey)
	if apiKey == "" {
		var err error
		if interactive {
			apiKey, err = readSecret(rt.Stdout, "API Key (sk-or-...): ")
		} else {
			apiKey, err = promptLine(reader, rt.Stdout, "API Key: ")
		}
		if err != nil {
			return fmt.Errorf("failed to read API key: %w", err)
		}
	}

	endpoint := p.Flag("endpoint")
	if endpoint == "" && !p.HasFlag("endpoint") {
		var err error
		prompt := fmt.Sprintf("Base URL (Optional, default %s): ", session.DefaultEndpointURL)
		if endpoint, err = promptLine(reader, rt.Stdout, prompt); err != nil {
			return fmt.Errorf("failed to read endpoint: %w", err)
		}
	}

	if err := rt.Sessions.Login(name, apiKey, endpoint); err != nil {
		if errors.Is(err, session.ErrMissingName) || errors.Is(err, session.ErrMissingAPIKey) {
			return &ValidationError{Field: "credentials", Reason: "Please enter your name and API key."}
		}
		return WrapError(err, "failed to sign in")
	}

	creds, _ := rt.Sessions.Current()
	if !args.Quiet {
		fmt.Fprintf(rt.Stdout, "%s Signed in as %s (%s)\n",
			RenderStatus("ok"), creds.DisplayName, creds.EndpointURL)
		fmt.Fprintln(rt.Stdout, DimStyle.Render("Your credentials are stored locally and used directly with the API."))
	}
	return nil
}

// =============================================================================
// LOGOUT
// =============================================================================

// HandleLogout forgets the stored credentials.
func HandleLogout(args Args, rt *Runtime) error {
	wasSignedIn := rt.Sessions.IsAuthenticated()
	if err := rt.Sessions.Logout(); err != nil {
		return WrapError(err, "failed to clear stored session")
	}
	if args.Quiet {
		return nil
	}
	if wasSignedIn {
		fmt.Fprintf(rt.Stdout, "%s Signed out\n", RenderStatus("ok"))
	} else {
		fmt.Fprintf(rt.Stdout, "%s Not signed in\n", RenderStatus("info"))
	}
	return nil
}

// =============================================================================
// STATUS
// =============================================================================

// HandleStatus prints the session, config and fixture state.
func HandleStatus(args Args, rt *Runtime) error {
	data := collectStatus(rt)
	if args.JSON {
		return NewJSONResponse("status", data).Write(rt.Stdout)
	}

	w := rt.Stdout
	fmt.Fprintln(w, TitleStyle.Render("analyst status"))

	fmt.Fprintln(w, SectionStyle.Render("Session"))
	if data.SignedIn {
		fmt.Fprintf(w, "  %s %s %s\n", RenderLabel("Signed in:"), RenderStatus("ok"), data.Name)
		fmt.Fprintf(w, "  %s %s\n", RenderLabel("Endpoint:"), data.EndpointURL)
		fmt.Fprintf(w, "  %s sha256:%s...\n", RenderLabel("API key:"), data.KeyFingerprint)
		fmt.Fprintf(w, "  %s %s ago\n", RenderLabel("Since:"), formatDuration(time.Since(data.Since)))
	} else {
		fmt.Fprintf(w, "  %s %s run 'analyst login'\n", RenderLabel("Signed in:"), RenderStatus("no"))
	}

	fmt.Fprintln(w, SectionStyle.Render("Configuration"))
	fmt.Fprintf(w, "  %s %s\n", RenderLabel("Config file:"), data.ConfigPath)
	if rt.ConfigErr != nil {
		fmt.Fprintf(w, "  %s %s %v\n", RenderLabel(""), RenderStatus("warn"), rt.ConfigErr)
	}
	fmt.Fprintf(w, "  %s %s\n", RenderLabel("Model:"), data.Model)
	fmt.Fprintf(w, "  %s %s\n", RenderLabel("Storage:"), data.Storage)

	fmt.Fprintln(w, SectionStyle.Render("Data"))
	fmt.Fprintf(w, "  %s %s\n", RenderLabel("Company:"), data.Company)
	fmt.Fprintf(w, "  %s %d\n", RenderLabel("Projects:"), data.Projects)
	if data.ContextTokens > 0 {
		fmt.Fprintf(w, "  %s ~%d tokens\n", RenderLabel("System context:"), data.ContextTokens)
	}
	return nil
}

func collectStatus(rt *Runtime) StatusData {
	st := rt.Sessions.GetStatus()
	data := StatusData{
		SignedIn:       st.State == session.StateAuthenticated,
		Name:           st.DisplayName,
		EndpointURL:    st.EndpointURL,
		KeyFingerprint: st.KeyFingerprint,
		Since:          st.Since,
		Model:          rt.Client.Model(),
		Storage:        rt.Config.Storage.Backend,
		Company:        rt.Dataset.CompanyName,
		Projects:       len(rt.Dataset.Projects),
	}
	if path, err := config.ConfigPathTOML(); err == nil {
		data.ConfigPath = path
	}
	if n, err := rt.Counter.Text(rt.Client.Model(), rt.Assembler.SystemContext()); err == nil {
		data.ContextTokens = n
	}
	return data
}
