// Package analysis produces a markdown summary of a session transcript with
// the text-generation service.
package analysis
