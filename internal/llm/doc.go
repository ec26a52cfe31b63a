// Package llm provides language model clients for writing spending
// commentary. It supports OpenAI, Anthropic and Gemini, with rate limiting
// and response caching shared across providers.
package llm
