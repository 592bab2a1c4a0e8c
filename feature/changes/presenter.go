package changes

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"bibsync/feature/history"
)

// Presenter shows a report and asks whether its changes should be accepted.
type Presenter interface {
	Show(ctx context.Context, report *Report) (bool, error)
}

// TerminalPresenter renders reports to a terminal and prompts on a line reader.
type TerminalPresenter struct {
	in          *bufio.Reader
	out         io.Writer
	format      Format
	autoConfirm bool
}

// NewTerminalPresenter creates a presenter. With autoConfirm set it never prompts.
func NewTerminalPresenter(in io.Reader, out io.Writer, format Format, autoConfirm bool) *TerminalPresenter {
	return &TerminalPresenter{
		in:          bufio.NewReader(in),
		out:         out,
		format:      format,
		autoConfirm: autoConfirm,
	}
}

// Show renders report and, when it has changes, asks for confirmation.
func (p *TerminalPresenter) Show(ctx context.Context, report *Report) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := Render(p.out, report, p.format); err != nil {
		return false, fmt.Errorf("failed to render report: %w", err)
	}
	if report.Status != history.StatusChangesFound {
		return false, nil
	}

	if p.autoConfirm {
		fmt.Fprintln(p.out, "Changes auto-confirmed")
		return true, nil
	}

	fmt.Fprintf(p.out, "Accept %d change(s)? Type 'yes' to confirm: ", report.Summary.Total)
	response, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	switch strings.ToLower(strings.TrimSpace(response)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
