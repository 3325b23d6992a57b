package audio

import (
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/pino/internal/config"
)

// Manager plays the configured sound when the popup appears or its text
// changes.
type Manager struct {
	logger *slog.Logger
	sound  *Sound

	mu      sync.RWMutex
	enabled bool
	path    string
	play    func(path string) error
}

// NewManager creates a manager for cfg's sound section.
func NewManager(cfg *config.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Manager{logger: logger, sound: NewSound(logger)}
	m.play = m.loadAndPlay
	m.apply(cfg)
	return m
}

// apply reads the sound section of cfg. A sound without a readable file is
// disabled with a warning rather than failing the popup.
func (m *Manager) apply(cfg *config.Config) {
	path := cfg.SoundPath()
	enabled := cfg.Sound.Enabled
	switch {
	case !enabled:
	case path == "":
		m.logger.Warn("sound enabled without a file")
		enabled = false
	default:
		if _, err := os.Stat(path); err != nil {
			m.logger.Warn("sound file not readable", "path", path, "error", err)
			enabled = false
		}
	}

	m.sound.SetVolume(float64(cfg.Sound.Volume) / 100)

	m.mu.Lock()
	m.enabled, m.path = enabled, path
	m.mu.Unlock()
}

// Enabled reports whether Play makes a sound.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.enabled
}

// Path returns the expanded sound file.
func (m *Manager) Path() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.path
}

// Start decodes the sound ahead of the first Play.
func (m *Manager) Start() error {
	if !m.Enabled() {
		return nil
	}
	return m.sound.Load(m.Path())
}

// Play plays the sound when enabled.
func (m *Manager) Play() error {
	m.mu.RLock()
	enabled, path, play := m.enabled, m.path, m.play
	m.mu.RUnlock()
	if !enabled {
		return nil
	}
	return play(path)
}

func (m *Manager) loadAndPlay(path string) error {
	if err := m.sound.Load(path); err != nil {
		return err
	}
	return m.sound.Play()
}

// UpdateConfig applies a reloaded configuration. The file is decoded again
// on the next Play in case it was replaced in place.
func (m *Manager) UpdateConfig(cfg *config.Config) {
	m.sound.Unload()
	m.apply(cfg)
	m.logger.Debug("sound config updated", "enabled", m.Enabled(), "path", m.Path())
}

// Stop closes the audio output.
func (m *Manager) Stop() {
	m.sound.Close()
}
