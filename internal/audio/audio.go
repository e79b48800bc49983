// Package audio loops the spray sound while a stroke is in progress.
//
// Playback is delegated to an external command line player found on the
// host. Failures are reported to the caller and logged; the drawing path
// never waits on audio.
package audio

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Player starts and stops a looping sound.
type Player interface {
	PlayLoop() error
	Stop() error
	Playing() bool
}

// Nop is a Player that does nothing.
type Nop struct{}

func (Nop) PlayLoop() error { return nil }
func (Nop) Stop() error     { return nil }
func (Nop) Playing() bool   { return false }

// ErrNoPlayer is returned when no supported command line player is installed.
var ErrNoPlayer = errors.New("no audio player found")

// Candidates are tried in order when no player command is configured. The
// sound path is appended as the final argument.
var Candidates = [][]string{
	{"paplay"},
	{"pw-play"},
	{"aplay", "-q"},
	{"afplay"},
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
}

var (
	lookPath    = exec.LookPath
	commandFunc = exec.CommandContext
)

// Option configures a CommandPlayer.
type Option func(*CommandPlayer)

// WithLogger sets the logger used for playback failures.
func WithLogger(l *zap.Logger) Option {
	return func(p *CommandPlayer) {
		if l != nil {
			p.log = l
		}
	}
}

// WithCommand sets the player command explicitly instead of probing
// Candidates.
func WithCommand(argv ...string) Option {
	return func(p *CommandPlayer) { p.argv = append([]string(nil), argv...) }
}

// CommandPlayer plays a sound file by running an external player repeatedly
// until stopped.
type CommandPlayer struct {
	path string
	argv []string
	log  *zap.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewCommandPlayer returns a player for the sound at path.
func NewCommandPlayer(path string, opts ...Option) *CommandPlayer {
	p := &CommandPlayer{path: path, log: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Path returns the sound file played.
func (p *CommandPlayer) Path() string { return p.path }

func (p *CommandPlayer) resolve() ([]string, error) {
	if len(p.argv) > 0 {
		if _, err := lookPath(p.argv[0]); err != nil {
			return nil, err
		}
		return p.argv, nil
	}
	for _, c := range Candidates {
		if _, err := lookPath(c[0]); err == nil {
			p.argv = c
			return c, nil
		}
	}
	return nil, ErrNoPlayer
}

// PlayLoop starts looping the sound in the background. Calling it while
// already playing does nothing. A loop that ended because the player failed
// is restarted.
func (p *CommandPlayer) PlayLoop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		select {
		case <-p.done:
			p.cancel()
			p.cancel, p.done = nil, nil
		default:
			return nil
		}
	}
	argv, err := p.resolve()
	if err != nil {
		return err
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	p.cancel, p.done = cancel, done
	go p.loop(ctx, argv, done)
	return nil
}

func (p *CommandPlayer) loop(ctx context.Context, argv []string, done chan struct{}) {
	defer close(done)
	args := append(append([]string(nil), argv[1:]...), p.path)
	for ctx.Err() == nil {
		start := time.Now()
		cmd := commandFunc(ctx, argv[0], args...)
		if err := cmd.Run(); err != nil && ctx.Err() == nil {
			p.log.Warn("audio playback failed", zap.String("player", argv[0]), zap.String("sound", p.path), zap.Error(err))
			return
		}
		// A player that exits immediately would spin.
		if time.Since(start) < 50*time.Millisecond {
			select {
			case <-ctx.Done():
			case <-time.After(100 * time.Millisecond):
			}
		}
	}
}

// Stop ends playback and waits for the player process to exit.
func (p *CommandPlayer) Stop() error {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	p.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Playing reports whether the loop is running.
func (p *CommandPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		return false
	}
	select {
	case <-p.done:
		return false
	default:
		return true
	}
}
