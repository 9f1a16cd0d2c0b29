// Package sound plays the completion cue through the platform audio player.
package sound

import (
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"
)

// Player runs an external command to play a sound file.
type Player struct {
	command string
	args    []string
	logger  *log.Logger
}

// NewPlayer plays file with the platform player. An empty file selects the
// system default cue.
func NewPlayer(file string, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	p := &Player{logger: logger.WithPrefix("sound")}
	switch runtime.GOOS {
	case "darwin":
		if file == "" {
			file = "/System/Library/Sounds/Glass.aiff"
		}
		p.command, p.args = "afplay", []string{file}
	case "windows":
		if file == "" {
			file = `C:\Windows\Media\Windows Notify System Generic.wav`
		}
		p.command, p.args = "powershell", []string{"-NoProfile", "-Command", powershellPlay(file)}
	default:
		if file == "" {
			file = "/usr/share/sounds/freedesktop/stereo/complete.oga"
		}
		p.command, p.args = "paplay", []string{file}
	}
	return p
}

// powershellPlay builds a SoundPlayer invocation with file as a single-quoted
// literal, where an embedded quote is written twice.
func powershellPlay(file string) string {
	quoted := "'" + strings.ReplaceAll(file, "'", "''") + "'"
	return "(New-Object Media.SoundPlayer " + quoted + ").PlaySync()"
}

// NewCommandPlayer plays by running command with args.
func NewCommandPlayer(command string, args []string, logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	return &Player{command: command, args: args, logger: logger.WithPrefix("sound")}
}

// PlayCompletion starts playback and returns immediately.
func (p *Player) PlayCompletion() {
	go func() {
		if err := p.play(); err != nil {
			p.logger.Debug("completion sound failed", "command", p.command, "err", err)
		}
	}()
}

func (p *Player) play() error {
	return exec.Command(p.command, p.args...).Run()
}
