// Package config loads the neuroglove TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/neuroglove/config.toml
//  3. If the file doesn't exist, use Default()
//  4. If the file exists but fields are missing or blank, use the defaults for those fields
//
// # File Format
//
//	data_dir = "~/.local/share/neuroglove"
//	log_level = "info"
//
//	[serial]
//	device = ""          # empty: enumerate ports and ask
//	baud_rate = 9600
//
//	[wireless]
//	device = "/dev/rfcomm0"
//	address = ""         # BD_ADDR used for RSSI queries
//
//	[genai]
//	base_url = ""        # empty: OLLAMA_HOST, else translation is unavailable
//	model = "llama3.2"
//	summary_model = ""   # empty: same as model
//	timeout_seconds = 60
//
// # Derived Paths
//
//   - Day records: <data_dir>/neuroglove.db
//   - Diagnostics log: <data_dir>/neuroglove.log
//
// Paths starting with ~ are expanded against the user's home directory and
// made absolute. Invalid log levels and negative baud rates are reported as
// errors rather than silently replaced.
package config
