// Package operator implements the line-based prompts the tool asks a human:
// device and account selection, duplicate-conflict resolution, and retry
// confirmation. Everything reads and writes through injected streams so
// tests can script a session.
package operator

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zacmb/contentsched/internal/models"
)

type Prompter struct {
	in  *bufio.Scanner
	out io.Writer
}

func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:  bufio.NewScanner(in),
		out: out,
	}
}

func (p *Prompter) readLine(prompt string) string {
	fmt.Fprint(p.out, prompt)
	if !p.in.Scan() {
		return ""
	}
	return strings.TrimSpace(p.in.Text())
}

// SelectDevice asks the operator to pick one device by number.
func (p *Prompter) SelectDevice(devices []string) (string, error) {
	return p.SelectFrom("device", devices)
}

// SelectFrom asks the operator to pick one option by number.
func (p *Prompter) SelectFrom(label string, options []string) (string, error) {
	if len(options) == 0 {
		return "", fmt.Errorf("no %ss available", label)
	}

	fmt.Fprintf(p.out, "Available %ss:\n", label)
	for i, option := range options {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, option)
	}

	idx, err := strconv.Atoi(p.readLine(fmt.Sprintf("Select a %s: ", label)))
	if err != nil || idx < 1 || idx > len(options) {
		return "", fmt.Errorf("invalid %s selection", label)
	}
	return options[idx-1], nil
}

// SelectAccounts asks for a comma/range selection ("1,3-5"), empty input
// meaning all, then offers a removal pass over the chosen set.
func (p *Prompter) SelectAccounts(accounts []string) ([]string, error) {
	if len(accounts) == 0 {
		return nil, fmt.Errorf("no accounts available")
	}

	fmt.Fprintln(p.out, "Available accounts:")
	for i, account := range accounts {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, account)
	}

	input := p.readLine("Enter account numbers (e.g. 1,3-5) or press Enter for all: ")
	if input == "" {
		selected := make([]string, len(accounts))
		copy(selected, accounts)
		return selected, nil
	}

	indices, err := parseSelection(input, len(accounts))
	if err != nil {
		return nil, err
	}
	if len(indices) == 0 {
		return nil, fmt.Errorf("no valid accounts selected")
	}

	selected := make([]string, 0, len(indices))
	for _, i := range indices {
		selected = append(selected, accounts[i])
	}

	fmt.Fprintln(p.out, "Selected accounts:")
	for i, account := range selected {
		fmt.Fprintf(p.out, "%d. %s\n", i+1, account)
	}

	removal := p.readLine("Enter numbers to remove, or press Enter to continue: ")
	if removal == "" {
		return selected, nil
	}
	removeIdx, err := parseSelection(removal, len(selected))
	if err != nil {
		return nil, err
	}
	removed := make(map[int]struct{}, len(removeIdx))
	for _, i := range removeIdx {
		removed[i] = struct{}{}
	}

	var final []string
	for i, account := range selected {
		if _, ok := removed[i]; !ok {
			final = append(final, account)
		}
	}
	return final, nil
}

// parseSelection turns "1,3-5" into sorted zero-based indices, dropping
// out-of-range entries.
func parseSelection(input string, max int) ([]int, error) {
	seen := make(map[int]struct{})
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		if start, end, ok := strings.Cut(token, "-"); ok {
			lo, err1 := strconv.Atoi(strings.TrimSpace(start))
			hi, err2 := strconv.Atoi(strings.TrimSpace(end))
			if err1 != nil || err2 != nil || lo > hi {
				return nil, fmt.Errorf("invalid range: %s", token)
			}
			for n := lo; n <= hi; n++ {
				if n >= 1 && n <= max {
					seen[n-1] = struct{}{}
				}
			}
		} else {
			n, err := strconv.Atoi(token)
			if err != nil {
				return nil, fmt.Errorf("invalid number: %s", token)
			}
			if n >= 1 && n <= max {
				seen[n-1] = struct{}{}
			}
		}
	}

	indices := make([]int, 0, len(seen))
	for i := range seen {
		indices = append(indices, i)
	}
	for i := 1; i < len(indices); i++ {
		for j := i; j > 0 && indices[j] < indices[j-1]; j-- {
			indices[j], indices[j-1] = indices[j-1], indices[j]
		}
	}
	return indices, nil
}

// Resolve presents a caption conflict and maps the answer to a decision.
// Anything unrecognized keeps both, matching the tool's historical behavior.
func (p *Prompter) Resolve(conflict *models.Conflict) models.DuplicateDecision {
	fmt.Fprintln(p.out, "Duplicate caption detected:")
	fmt.Fprintf(p.out, "-> Existing post ID: %s\n", conflict.ExistingPostID)
	fmt.Fprintf(p.out, "-> Scheduled for: %s\n", conflict.ExistingSchedule)
	fmt.Fprintf(p.out, "-> File: %s\n", conflict.ExistingFile)
	fmt.Fprintf(p.out, "-> Caption: %s\n", conflict.Caption)
	fmt.Fprintln(p.out, "Options: [y] replace  [s] skip  [n] keep both  [a] skip all for this account")

	switch strings.ToLower(p.readLine("Your choice: ")) {
	case "y":
		return models.DecisionReplace
	case "s":
		return models.DecisionSkip
	case "a":
		return models.DecisionSkipAll
	default:
		return models.DecisionKeepBoth
	}
}

// ConfirmRetry asks whether to retry failed downloads.
func (p *Prompter) ConfirmRetry(failed int) bool {
	answer := p.readLine(fmt.Sprintf("%d file(s) failed. Retry failed downloads? (Y/N) ", failed))
	return strings.EqualFold(answer, "y")
}

// RecordLimit asks how many records to process. Empty input means all.
func (p *Prompter) RecordLimit() (int, error) {
	input := p.readLine("How many records do you want to process? (default: all) ")
	if input == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(input)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid record count: %s", input)
	}
	return n, nil
}
