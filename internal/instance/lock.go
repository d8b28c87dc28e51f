// pattern: Imperative Shell
package instance

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"
)

const (
	lockDirName    = "locks"
	lockFileSuffix = ".lock"
	pidFileSuffix  = ".pid"
)

// LockPath returns the lock file guarding runs rooted at root.
func LockPath(dataDir, root string) string {
	sum := sha256.Sum256([]byte(root))
	return filepath.Join(dataDir, lockDirName, hex.EncodeToString(sum[:8])+lockFileSuffix)
}

// Lock acquires an exclusive file lock for runs rooted at root.
// Returns the flock handle (caller must defer Cleanup) or an error if
// another dev process holds it.
func Lock(dataDir, root string) (*flock.Flock, error) {
	lockPath := LockPath(dataDir, root)
	if err := os.MkdirAll(filepath.Dir(lockPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	fl := flock.New(lockPath)
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !locked {
		_ = fl.Close()
		if pid, ok := readPID(lockPath); ok {
			return nil, fmt.Errorf("another dev run is active in %s (pid %d)", root, pid)
		}
		return nil, fmt.Errorf("another dev run is active in %s", root)
	}

	_ = os.WriteFile(pidPath(lockPath), []byte(strconv.Itoa(os.Getpid())), 0600)
	return fl, nil
}

// Cleanup removes the pid file and releases the file lock.
func Cleanup(fl *flock.Flock) {
	if fl == nil {
		return
	}
	_ = os.Remove(pidPath(fl.Path()))
	_ = fl.Unlock()
}

func pidPath(lockPath string) string {
	return strings.TrimSuffix(lockPath, lockFileSuffix) + pidFileSuffix
}

func readPID(lockPath string) (int, bool) {
	data, err := os.ReadFile(pidPath(lockPath))
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	return pid, true
}
