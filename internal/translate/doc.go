// Package translate renders device lines into the operator's language
// through a genai.Generator and memoizes the results.
//
// Keys are (source "en", target, text). English targets bypass the
// generator. Misses for the same key that arrive together share one
// generation call. Failures are reported as ErrServiceUnavailable when the
// generator is missing or unreachable and as *CallError otherwise, and are
// never cached.
package translate
