// Package app is the composition root for the neuroglove console.
//
// Run loads configuration and preferences, points logrus at the diagnostics
// file, opens the day-log store and the text-generation clients, then starts
// the TUI:
//
//	Run()
//	 ├─> config.Load / prefs.Load
//	 ├─> NewLogger()            <data_dir>/neuroglove.log
//	 ├─> OpenServices()         kvstore + logstore + translate + analysis
//	 ├─> session.New()          transport.Platform with the TUI picker
//	 ├─> Recorder.Start()       session events -> state.Store + logstore
//	 └─> ui.Run()               blocks until quit
//
// The Recorder is the only writer of connection state and entries into the
// display store. Persist failures are counted on the store so the header can
// flag degraded storage while the live session carries on.
//
// On exit the session is disconnected and the recorder drained before the
// database closes.
package app
