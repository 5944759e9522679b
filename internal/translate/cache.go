package translate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/five82/neuroglove/internal/genai"
)

// SourceLanguage is the language of every exchanged line.
const SourceLanguage = "en"

var (
	ErrServiceUnavailable = errors.New("translation service unavailable")
	ErrCallFailed         = errors.New("translation call failed")
)

// CallError wraps a failed generation call.
type CallError struct {
	Target string
	Err    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("translate to %s: %v", e.Target, e.Err)
}

func (e *CallError) Unwrap() []error { return []error{ErrCallFailed, e.Err} }

// Cache memoizes translations for the lifetime of the process. Entries are
// never evicted and failures are never stored.
type Cache struct {
	gen genai.Generator
	log logrus.FieldLogger

	mu      sync.RWMutex
	entries map[string]string
	group   singleflight.Group
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the diagnostics logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// New builds a Cache over gen. A nil gen makes every miss fail with
// ErrServiceUnavailable.
func New(gen genai.Generator, opts ...Option) *Cache {
	c := &Cache{
		gen:     gen,
		log:     logrus.StandardLogger(),
		entries: make(map[string]string),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func cacheKey(target, text string) string {
	return SourceLanguage + ":" + target + ":" + text
}

// Translate returns text rendered in target. The source language is returned
// unchanged without a call. Concurrent misses for one key share a call; the
// shared call outlives any one caller's cancellation and is bounded by the
// generator's own timeout.
func (c *Cache) Translate(ctx context.Context, text, target string) (string, error) {
	target = strings.TrimSpace(target)
	if target == "" || target == SourceLanguage {
		return text, nil
	}
	key := cacheKey(target, text)

	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}
	if c.gen == nil {
		return "", ErrServiceUnavailable
	}

	callCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		out, err := c.gen.Generate(callCtx, Prompt(text, target))
		if err != nil {
			return "", err
		}
		out = strings.TrimSpace(out)
		c.mu.Lock()
		c.entries[key] = out
		c.mu.Unlock()
		return out, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		return "", &CallError{Target: target, Err: ctx.Err()}
	}
	if err := res.Err; err != nil {
		c.log.WithError(err).WithField("lang", target).Warn("translation failed")
		if errors.Is(err, genai.ErrUnavailable) {
			return "", fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
		}
		return "", &CallError{Target: target, Err: err}
	}
	return res.Val.(string), nil
}

// Len reports the number of cached translations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Prompt builds the generation prompt for one translation.
func Prompt(text, target string) string {
	return fmt.Sprintf("Translate this English text to %s and return only the translation: \"%s\"", LanguageName(target), text)
}
