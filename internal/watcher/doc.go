// Package watcher imports macro files dropped into a directory.
//
// A Watcher subscribes to a single directory with fsnotify. Every .json file
// created or rewritten there is decoded with the macro codec and saved to
// the library under its base name, so "login.json" becomes the macro
// "login". Files already present when the watcher starts are imported once.
//
// Key features:
//   - Debounced imports (bursts of writes to one file coalesce)
//   - Bad files are logged and skipped; the watcher keeps running
//   - Shuts down when its context is cancelled
//
// Example usage:
//
//	st, err := store.Open("~/.automice/automice.db")
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer st.Close()
//
//	w, err := watcher.New(st, "/home/me/macros")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//	defer stop()
//	if err := w.Run(ctx); err != nil {
//		log.Fatal(err)
//	}
package watcher
