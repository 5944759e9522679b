// Package genai is the client for the external text-generation service used
// for translation and session summaries.
//
// The service speaks the Ollama generate API: a POST to /api/generate with
// {"model", "prompt", "stream": false} answered by {"response": "..."}.
//
//	client, err := genai.NewClient(genai.Config{BaseURL: "127.0.0.1:11434"})
//	if errors.Is(err, genai.ErrUnavailable) {
//		// no service configured
//	}
//	text, err := client.Generate(ctx, prompt)
//
// ErrUnavailable is returned when no base URL is configured, when the
// service cannot be dialed and when it answers 502 or 503. Other HTTP
// failures are *StatusError.
package genai
