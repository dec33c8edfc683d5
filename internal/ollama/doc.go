// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ollama provides the HTTP client for communicating with Ollama API.
//
// Two call shapes are supported: a blocking completion against
// /api/generate, and a streaming chat against /api/chat that is consumed
// one chunk at a time.
//
// # Key Types
//
//   - Client: HTTP client for Ollama API communication
//   - Message: Chat message with role and content
//   - GenerateRequest: Request structure for blocking completions
//   - Stream: Pull-based sequence of chat chunks
//   - ClientError: Categorized failure (not running, timeout, status, ...)
//
// # Usage
//
// Blocking completion:
//
//	client := ollama.NewClient()
//	resp, err := client.Generate(ctx, ollama.GenerateRequest{
//	    Model:  "gemma3:latest",
//	    Prompt: prompt,
//	})
//
// Streaming chat:
//
//	stream, err := client.ChatStream(ctx, "gemma3:latest", messages)
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//	for {
//	    chunk, err := stream.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(chunk.Content)
//	}
package ollama
