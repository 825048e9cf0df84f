package service

import (
	"bufio"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// TargetsFileName is the per-account file holding like-source usernames.
const TargetsFileName = "like-source-followers.txt"

type TargetsResult struct {
	Account  string
	Path     string
	Previous int
	Added    int
	Total    int
}

type TargetsService interface {
	ReadUsernames(path string) ([]string, error)
	UpdateAccounts(baseDir, device string, accounts, usernames []string) ([]TargetsResult, []error)
}

type targetsService struct{}

func NewTargetsService() TargetsService {
	return &targetsService{}
}

func (s *targetsService) ReadUsernames(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		slog.Info(err.Error())
		return nil, fmt.Errorf("failed to read usernames file: %w", err)
	}
	defer file.Close()

	var usernames []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			usernames = append(usernames, line)
		}
	}
	if err := scanner.Err(); err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	return usernames, nil
}

// UpdateAccounts merges the username list into each selected account's
// targets file. A missing file fails that account only.
func (s *targetsService) UpdateAccounts(baseDir, device string, accounts, usernames []string) ([]TargetsResult, []error) {
	var results []TargetsResult
	var errs []error

	for _, account := range accounts {
		path := filepath.Join(baseDir, device, account, TargetsFileName)
		result, err := mergeTargets(path, usernames)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", account, err))
			continue
		}
		result.Account = account
		results = append(results, *result)
		log.Printf("Updated %s: previous %d, added %d, total %d", path, result.Previous, result.Added, result.Total)
	}

	return results, errs
}

// mergeTargets unions the new usernames with the file's existing entries,
// deduplicated and sorted for stable output.
func mergeTargets(path string, usernames []string) (*TargetsResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("targets file not found: %w", err)
	}

	existing := make(map[string]struct{})
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			existing[line] = struct{}{}
		}
	}

	combined := make(map[string]struct{}, len(existing)+len(usernames))
	for name := range existing {
		combined[name] = struct{}{}
	}
	for _, name := range usernames {
		if name = strings.TrimSpace(name); name != "" {
			combined[name] = struct{}{}
		}
	}

	sorted := make([]string, 0, len(combined))
	for name := range combined {
		sorted = append(sorted, name)
	}
	sort.Strings(sorted)

	var sb strings.Builder
	for _, name := range sorted {
		sb.WriteString(name)
		sb.WriteString("\n")
	}
	if err := os.WriteFile(path, []byte(sb.String()), 0644); err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return &TargetsResult{
		Path:     path,
		Previous: len(existing),
		Added:    len(combined) - len(existing),
		Total:    len(combined),
	}, nil
}
