// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads gemmabots settings.
//
// The effective configuration is layered, last wins:
//   - built-in defaults
//   - ~/.gemmabots/config.toml, or config.json when there is no TOML file
//   - .env in the working directory or ~/.gemmabots
//   - GEMMABOTS_* environment variables
//
// Load returns a usable Config even when the file is broken, together with
// the file's error so the CLI can warn. ReadFile and WriteFile work on the
// file alone, which is what `gemmabots config set` edits.
//
// Watch follows the file while serving:
//
//	go config.Watch(ctx, path, logger, srv.SetConfig)
package config
