// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package thinking separates a model's reasoning from its final answer.
//
// Models prompted to reason wrap their chain-of-thought in a pair of
// literal markers:
//
//	<think>
//	reasoning, draft code, analysis
//	</think>
//	final answer
//
// Split is re-applied to the cumulative text after every streamed delta.
// It is a pure function of that text, so a live view that redraws on each
// delta always converges on the same split as a single call on the
// complete response.
//
// # Key Types
//
//   - Segments: the think and answer halves of a response
//
// # Usage
//
//	seg := thinking.Split(cumulative)
//	if seg.HasThink() {
//	    render(thinking.Tail(seg.Think, thinking.LiveTailLimit))
//	}
//	render(seg.Answer)
package thinking
