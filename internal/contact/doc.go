// Package contact holds the assistance contacts shown to the operator: the
// nearby clinic, public helplines and the remembered emergency number, plus
// helpers that build tel:, WhatsApp and map links for them.
package contact
