// Package kvstore provides the persistent key-value storage used for the
// exchange log. SQLite is the on-disk implementation (WAL journal, one kv
// table); Memory backs tests and the --ephemeral mode.
package kvstore
