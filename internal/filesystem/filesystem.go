// Package filesystem keeps materialized document snapshots in a
// content-addressed object store under the data directory.
package filesystem

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

const snapshotExt = ".md"

// hashPrefixLen is how much of the content hash goes into a snapshot name.
const hashPrefixLen = 16

// teamDir returns the directory holding the snapshots of one team.
func teamDir(objectsDir, teamID string) string {
	return filepath.Join(objectsDir, urlEncode(teamID))
}

// Store writes snapshots below a single objects directory.
type Store struct {
	root string
}

func NewStore(objectsDir string) *Store {
	return &Store{root: objectsDir}
}

// SaveSnapshot writes content for a document and returns its path and
// SHA-256 hash. Identical content maps to the same file, which is written
// once.
func (s *Store) SaveSnapshot(teamID, documentID, content string) (string, string, error) {
	dir := teamDir(s.root, teamID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", "", fmt.Errorf("create team dir: %w", err)
	}

	hash := CalculateHash(content)
	path := filepath.Join(dir, snapshotName(documentID, hash))

	if fileExists(path) {
		return path, hash, nil
	}

	// Write to a sibling and rename so readers never observe a partial file.
	tmp, err := os.CreateTemp(dir, ".snapshot-*")
	if err != nil {
		return "", "", fmt.Errorf("create snapshot: %w", err)
	}
	if _, err := tmp.WriteString(content); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", "", fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", "", fmt.Errorf("publish snapshot: %w", err)
	}

	return path, hash, nil
}

// PruneDocumentSnapshots removes the snapshots of a document other than
// keep and returns the number of removed files.
func (s *Store) PruneDocumentSnapshots(teamID, documentID, keep string) (int, error) {
	count := 0
	err := s.walkTeam(teamID, func(path string, d fs.DirEntry) error {
		if d.IsDir() || !isSnapshotOf(d.Name(), documentID) {
			return nil
		}
		if filepath.Clean(path) == filepath.Clean(keep) {
			return nil
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		count++
		return nil
	})
	return count, err
}

func (s *Store) walkTeam(teamID string, fn func(path string, d fs.DirEntry) error) error {
	dir := teamDir(s.root, teamID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if err := fn(filepath.Join(dir, entry.Name()), entry); err != nil {
			return err
		}
	}
	return nil
}

// ReadFile reads a file from disk and returns its contents as a string.
func ReadFile(path string) (string, error) {
	//nolint:gosec // G304: path is from database, controlled by application
	bytes, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// fileExists reports whether the given path exists.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CalculateHash returns the hex SHA-256 of content.
func CalculateHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func snapshotName(documentID, hash string) string {
	return urlEncode(documentID) + "_" + hash[:hashPrefixLen] + snapshotExt
}

// isSnapshotOf reports whether name is a snapshot of documentID. The hash
// part is checked so "doc" does not claim the snapshots of "doc_x".
func isSnapshotOf(name, documentID string) bool {
	rest, ok := strings.CutPrefix(name, urlEncode(documentID)+"_")
	if !ok {
		return false
	}
	hash, ok := strings.CutSuffix(rest, snapshotExt)
	if !ok || len(hash) != hashPrefixLen {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

func urlEncode(value string) string {
	// url.QueryEscape encodes spaces as '+'; keep them as %20 so names stay reversible.
	return strings.ReplaceAll(url.QueryEscape(value), "+", "%20")
}
