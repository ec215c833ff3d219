package storage

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Manager writes annotated page snapshots to a single output file. A
// snapshot identical to the last one written is skipped.
type Manager struct {
	outputPath string
	lastSum    [sha256.Size]byte
	hasSum     bool
	writes     int
	mu         sync.Mutex
}

// NewManager creates a snapshot manager for outputPath.
func NewManager(outputPath string) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	manager := &Manager{outputPath: outputPath}

	if err := manager.scanExistingFile(); err != nil {
		return nil, fmt.Errorf("failed to scan existing snapshot: %w", err)
	}

	return manager, nil
}

// scanExistingFile remembers the checksum of a snapshot left by an earlier run.
func (m *Manager) scanExistingFile() error {
	data, err := os.ReadFile(m.outputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	m.lastSum = sha256.Sum256(data)
	m.hasSum = true
	return nil
}

// Flush renders src and writes it when it differs from the last snapshot.
// It reports whether the file was written.
func (m *Manager) Flush(src io.WriterTo) (bool, error) {
	var buf bytes.Buffer
	if _, err := src.WriteTo(&buf); err != nil {
		return false, fmt.Errorf("failed to render snapshot: %w", err)
	}
	return m.Save(buf.Bytes())
}

// Save writes data atomically unless it matches the last snapshot.
func (m *Manager) Save(data []byte) (bool, error) {
	sum := sha256.Sum256(data)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.hasSum && sum == m.lastSum {
		return false, nil
	}

	tempFile := m.outputPath + ".tmp"
	out, err := os.Create(tempFile)
	if err != nil {
		return false, fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = out.Write(data)
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return false, fmt.Errorf("failed to write snapshot: %w", err)
	}

	if closeErr != nil {
		os.Remove(tempFile)
		return false, fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, m.outputPath); err != nil {
		os.Remove(tempFile)
		return false, fmt.Errorf("failed to rename temporary file: %w", err)
	}

	m.lastSum = sum
	m.hasSum = true
	m.writes++
	return true, nil
}

// GetOutputPath returns the snapshot path
func (m *Manager) GetOutputPath() string {
	return m.outputPath
}

// GetWriteCount returns how many snapshots this manager has written
func (m *Manager) GetWriteCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}
