// Package prompt holds the interactive strategies workflows suspend on: retry and divergence
// questions while publishing a branch, and manual selection of labels, milestones and users.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/smartcontractkit/forge-flow/publish"
	"github.com/smartcontractkit/forge-flow/selection"
)

// ErrNoAnswer is returned when input ends before a valid answer was read.
var ErrNoAnswer = errors.New("no answer given")

// LinePrompter asks questions one line at a time.
type LinePrompter struct {
	reader *bufio.Reader
	out    io.Writer
}

var (
	_ publish.Prompter  = (*LinePrompter)(nil)
	_ selection.Chooser = (*LinePrompter)(nil)
)

// NewLinePrompter reads answers from in and writes questions to out.
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{reader: bufio.NewReader(in), out: out}
}

// readLine returns the trimmed, lower-cased next line. io.EOF is only returned when nothing was read.
func (p *LinePrompter) readLine() (string, error) {
	line, err := p.reader.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

func (p *LinePrompter) ask(question string) (string, error) {
	if _, err := io.WriteString(p.out, question); err != nil {
		return "", err
	}
	return p.readLine()
}

// ConfirmRetry defaults to abort on an empty answer or closed input.
func (p *LinePrompter) ConfirmRetry(branch string, pushErr error) (bool, error) {
	answer, err := p.ask(fmt.Sprintf("Pushing %s failed: %v\n[r]etry or [A]bort? ", branch, pushErr))
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	switch answer {
	case "r", "retry", "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// ResolveDivergence repeats the question until it gets f, d or q. Closed input quits.
func (p *LinePrompter) ResolveDivergence(state publish.BranchState) (publish.DivergenceAction, error) {
	question := fmt.Sprintf(
		"%s has %s not present locally, %s would be published.\n[f]orce-push, [d]iff or [q]uit? ",
		state.RemoteBranch, plural(len(state.BehindCommits), "commit"), plural(len(state.AheadCommits), "commit"),
	)
	for {
		answer, err := p.ask(question)
		if errors.Is(err, io.EOF) {
			return publish.ActionQuit, nil
		}
		if err != nil {
			return publish.ActionQuit, err
		}
		switch answer {
		case "f", "force", "force-push":
			return publish.ActionForcePush, nil
		case "d", "diff":
			return publish.ActionShowDiff, nil
		case "q", "quit":
			return publish.ActionQuit, nil
		}
	}
}

// ShowDiff writes diff as is.
func (p *LinePrompter) ShowDiff(diff string) error {
	if !strings.HasSuffix(diff, "\n") {
		diff += "\n"
	}
	_, err := io.WriteString(p.out, diff)
	return err
}

// ChooseOne lists options numbered from 1, with 0 meaning none when allowNone is set.
func (p *LinePrompter) ChooseOne(title string, options []string, allowNone bool) (int, error) {
	if err := p.list(title, options, allowNone); err != nil {
		return 0, err
	}
	for {
		answer, err := p.ask("Number: ")
		if errors.Is(err, io.EOF) {
			return 0, ErrNoAnswer
		}
		if err != nil {
			return 0, err
		}
		n, err := strconv.Atoi(answer)
		switch {
		case err != nil:
		case n == 0 && allowNone:
			return -1, nil
		case n >= 1 && n <= len(options):
			return n - 1, nil
		}
		if _, err := fmt.Fprintf(p.out, "%q is not one of the listed numbers\n", answer); err != nil {
			return 0, err
		}
	}
}

// ChooseMany reads comma separated numbers and returns them in the order given, without duplicates.
func (p *LinePrompter) ChooseMany(title string, options []string) ([]int, error) {
	if err := p.list(title, options, false); err != nil {
		return nil, err
	}
	for {
		answer, err := p.ask("Numbers, comma separated: ")
		if errors.Is(err, io.EOF) {
			return nil, ErrNoAnswer
		}
		if err != nil {
			return nil, err
		}
		picked, ok := parseNumbers(answer, len(options))
		if ok {
			return picked, nil
		}
		if _, err := fmt.Fprintf(p.out, "%q is not a list of the listed numbers\n", answer); err != nil {
			return nil, err
		}
	}
}

func (p *LinePrompter) list(title string, options []string, allowNone bool) error {
	var b strings.Builder
	b.WriteString(title + "\n")
	if allowNone {
		b.WriteString("  0) none\n")
	}
	for i, option := range options {
		fmt.Fprintf(&b, "  %d) %s\n", i+1, option)
	}
	_, err := io.WriteString(p.out, b.String())
	return err
}

func parseNumbers(answer string, count int) ([]int, bool) {
	picked := []int{}
	seen := map[int]bool{}
	for _, token := range strings.Split(answer, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		n, err := strconv.Atoi(token)
		if err != nil || n < 1 || n > count {
			return nil, false
		}
		if !seen[n] {
			seen[n] = true
			picked = append(picked, n-1)
		}
	}
	return picked, true
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
