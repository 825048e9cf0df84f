// Package devices discovers device and account folders under the configured
// base directory.
package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Device folders are Android serials: capital letters and digits, at least
// ten characters.
var devicePattern = regexp.MustCompile(`^[A-Z0-9]+$`)

const minDeviceIDLen = 10

// Folders inside a device dir that are never accounts.
var systemFolders = map[string]struct{}{
	".stm": {}, ".trash": {}, "trash": {}, "temp": {}, "temporary": {},
	"camera": {}, "crash_log": {}, "log": {},
}

// ListDevices returns device folders under baseDir.
func ListDevices(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list device directory: %w", err)
	}

	var devices []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() && devicePattern.MatchString(name) && len(name) >= minDeviceIDLen {
			devices = append(devices, name)
		}
	}
	return devices, nil
}

// ListAccounts returns the account folders of a device, sorted
// case-insensitively, excluding hidden and system folders.
func ListAccounts(baseDir, device string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(baseDir, device))
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts for %s: %w", device, err)
	}

	var accounts []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if _, ok := systemFolders[strings.ToLower(name)]; ok {
			continue
		}
		accounts = append(accounts, name)
	}

	sort.Slice(accounts, func(i, j int) bool {
		return strings.ToLower(accounts[i]) < strings.ToLower(accounts[j])
	})
	return accounts, nil
}

// DatabasePath is the location of an account's scheduled_post database.
func DatabasePath(baseDir, device, account string) string {
	return filepath.Join(baseDir, device, account, "scheduled_post.db")
}

// FilterActive keeps the accounts whose lower-cased name appears in the
// active username set.
func FilterActive(accounts []string, active map[string]struct{}) []string {
	var filtered []string
	for _, account := range accounts {
		if _, ok := active[strings.ToLower(strings.TrimSpace(account))]; ok {
			filtered = append(filtered, account)
		}
	}
	return filtered
}
