// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package bot implements one conversational turn of each bot.
//
// A turn takes a session and the user's text, talks to the model, and
// leaves the session with exactly one new user message and exactly one new
// assistant message. Backend failures never escape a turn: they become the
// assistant message.
//
// # Character Bot
//
// CharacterBot.Turn is blocking. A message naming a persona switches the
// session to it and clears the history first.
//
// # Jargon Bot
//
// JargonBot.Begin starts a streamed turn. The caller pulls deltas and then
// finishes the turn:
//
//	turn := jb.Begin(ctx, sess, text)
//	for {
//	    d, ok := turn.Next()
//	    if !ok {
//	        break
//	    }
//	    render(d.Segments)
//	}
//	msg := turn.Finish()
//
// Run wraps that loop for callers that only need a callback.
package bot
