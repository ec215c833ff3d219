// Package storage writes annotated page snapshots to disk.
//
// The Manager keeps the checksum of the last snapshot it wrote (or found on
// disk at startup) and skips writes whose content has not changed. Writes go
// to a temporary file first and are renamed into place, so readers never see
// a partial page.
//
// Usage:
//
//	manager, err := storage.NewManager("annotated.html")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	if _, err := manager.Flush(doc); err != nil {
//	    log.Printf("Failed to write snapshot: %v", err)
//	}
package storage
