// Package api opens streaming chat completions against the supported
// provider families and exposes them through one pull-based Stream.
//
// # Backends
//
//   - openai.go: OpenAI through the official openai-go SDK
//   - anthropic.go: Anthropic Messages through anthropic-sdk-go
//   - google.go: Gemini through google.golang.org/genai
//   - compat.go: OpenAI-compatible chat completions over plain HTTP with
//     custom client headers (GitHub Models, GitHub Copilot)
//
// # Streams
//
// Every backend adapts its SDK iterator to ChunkSource. Stream wraps a
// source, skips empty fragments and accumulates the text so the caller can
// either echo fragments as they arrive or ask for the full text at the end.
//
//	stream, err := client.Stream(ctx, target, api.Request{System: sys, Messages: history})
//	if err != nil {
//	    // request rejected before any text arrived
//	}
//	defer stream.Close()
//	for stream.Next() {
//	    fmt.Print(stream.Current())
//	}
//	if err := stream.Err(); err != nil {
//	    // stream broke mid-way
//	}
//
// Backends wait for the first fragment before returning, so authentication,
// quota and unknown-model failures surface from Client.Stream rather than
// from the first call to Next.
package api
