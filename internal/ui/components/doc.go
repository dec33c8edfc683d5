// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package components provides the reusable pieces of the chat view.
//
// # Components
//
//   - CodeBlock / HighlightFences: chroma highlighting of fenced code,
//     applied to reasoning text where models draft code
//   - CompletionPopup: the slash command completion list above the input
//   - Sidebar: settings, document, statistics, capability badges and
//     quick prompts of the running session
//
// Components are plain render helpers. They hold no tea.Model state; the
// chat model owns the data and calls View/Render each frame.
package components
