// Package insert places transcribed text at the OS cursor by way of the
// clipboard and a synthetic paste keystroke.
package insert

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-vgo/robotgo"

	"hotmic/internal/logging"
	"hotmic/internal/ports"
)

const DefaultRestoreDelay = 500 * time.Millisecond

// Inserter implements ports.TextInserter.
//
// The previous clipboard contents are restored after RestoreDelay without
// checking whether the user copied something in between; a copy made in that
// window is overwritten.
type Inserter struct {
	clipboard    ports.Clipboard
	paste        func() error
	trusted      func() bool
	restoreDelay time.Duration
	logger       *log.Logger
}

func New(clipboard ports.Clipboard, logger *log.Logger) *Inserter {
	if logger == nil {
		logger = log.Default()
	}
	return &Inserter{
		clipboard:    clipboard,
		paste:        pasteKeystroke,
		trusted:      accessibilityTrusted,
		restoreDelay: DefaultRestoreDelay,
		logger:       logger.WithPrefix("insert"),
	}
}

// Insert reports true when the text was pasted at the cursor and false when
// it could only be left on the clipboard.
func (i *Inserter) Insert(ctx context.Context, text string) (bool, error) {
	if i.clipboard == nil {
		return false, errors.New("clipboard is not configured")
	}

	if !i.trusted() {
		if err := i.clipboard.SetText(ctx, text); err != nil {
			return false, fmt.Errorf("clipboard write failed: %w", err)
		}
		return false, nil
	}

	previous, err := i.clipboard.GetText(ctx)
	if err != nil {
		i.logger.Debug("clipboard read failed; nothing will be restored", "err", err)
		previous = ""
	}

	if err := i.clipboard.SetText(ctx, text); err != nil {
		return false, fmt.Errorf("clipboard write failed: %w", err)
	}
	if err := i.paste(); err != nil {
		return false, fmt.Errorf("paste keystroke failed: %w", err)
	}

	if strings.TrimSpace(previous) != "" {
		logging.Go(i.logger, "clipboard restore", func() {
			time.Sleep(i.restoreDelay)
			if err := i.clipboard.SetText(context.Background(), previous); err != nil {
				i.logger.Warn("clipboard restore failed", "err", err)
			}
		})
	}
	return true, nil
}

func pasteKeystroke() error {
	modifier := "ctrl"
	if runtime.GOOS == "darwin" {
		modifier = "cmd"
	}
	return robotgo.KeyTap("v", modifier)
}
