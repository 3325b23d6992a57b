package dbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/jmylchreest/pino/internal/model"
)

const (
	// MPRISPrefix is the bus name prefix of MPRIS media players.
	MPRISPrefix = "org.mpris.MediaPlayer2."
	// MPRISPath is the object path every MPRIS player exports.
	MPRISPath = "/org/mpris/MediaPlayer2"
	// MPRISPlayerInterface holds the playback properties.
	MPRISPlayerInterface = "org.mpris.MediaPlayer2.Player"

	// DefaultMPRISInterval is the polling interval.
	DefaultMPRISInterval = 5 * time.Second
	// DefaultMPRISTimeout bounds each property call.
	DefaultMPRISTimeout = 500 * time.Millisecond
)

// ErrNoPlayer is returned when a player is not on the bus.
var ErrNoPlayer = errors.New("media player not available")

// DefaultPlayers are the MPRIS players polled by default.
var DefaultPlayers = []string{"spotify", "mpv", "vlc", "chromium", "firefox", "brave"}

// MediaInfo is the playback state of one player.
type MediaInfo struct {
	Player string
	Title  string
	Artist string
	Album  string
	Status string
}

// Summary renders the popup title: "<player> - <status>".
func (m MediaInfo) Summary() string {
	return m.Player + " - " + m.Status
}

// Body renders the popup message.
func (m MediaInfo) Body() string {
	switch {
	case m.Artist != "" && m.Title != "":
		return m.Artist + " - " + m.Title
	case m.Title != "":
		return m.Title
	default:
		return "Now Playing"
	}
}

// ToUpdate converts the playback state into a popup update.
func (m MediaInfo) ToUpdate(delay uint64) model.NotificationUpdate {
	return model.NewUpdate(m.Summary(), m.Body(), delay)
}

// mediaFromMetadata reads the xesam fields of an MPRIS metadata map.
func mediaFromMetadata(player, status string, metadata map[string]dbus.Variant) MediaInfo {
	info := MediaInfo{Player: player, Status: status}
	if v, ok := metadata["xesam:title"]; ok {
		info.Title, _ = v.Value().(string)
	}
	if v, ok := metadata["xesam:album"]; ok {
		info.Album, _ = v.Value().(string)
	}
	if v, ok := metadata["xesam:artist"]; ok {
		switch artist := v.Value().(type) {
		case []string:
			if len(artist) > 0 {
				info.Artist = artist[0]
			}
		case string:
			info.Artist = artist
		}
	}
	return info
}

// MediaSource looks up the playback state of a player.
type MediaSource interface {
	MediaInfo(ctx context.Context, player string) (MediaInfo, error)
}

// BusSource reads MPRIS properties from a D-Bus connection.
type BusSource struct {
	conn    *dbus.Conn
	timeout time.Duration
}

// NewBusSource creates a source on conn.
func NewBusSource(conn *dbus.Conn) *BusSource {
	return &BusSource{conn: conn, timeout: DefaultMPRISTimeout}
}

// MediaInfo implements MediaSource.
func (b *BusSource) MediaInfo(ctx context.Context, player string) (MediaInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	obj := b.conn.Object(MPRISPrefix+player, MPRISPath)

	var metadata map[string]dbus.Variant
	if err := b.property(ctx, obj, "Metadata", &metadata); err != nil {
		return MediaInfo{}, fmt.Errorf("%w: %s: %v", ErrNoPlayer, player, err)
	}

	var status string
	if err := b.property(ctx, obj, "PlaybackStatus", &status); err != nil {
		status = ""
	}
	return mediaFromMetadata(player, status, metadata), nil
}

func (b *BusSource) property(ctx context.Context, obj dbus.BusObject, name string, out any) error {
	var v dbus.Variant
	err := obj.CallWithContext(ctx, "org.freedesktop.DBus.Properties.Get", 0, MPRISPlayerInterface, name).Store(&v)
	if err != nil {
		return err
	}
	return dbus.Store([]any{v.Value()}, out)
}

// MPRISPoller polls media players and reports an update whenever a
// player's rendered text changes.
type MPRISPoller struct {
	mu     sync.Mutex
	logger *slog.Logger

	source   MediaSource
	players  []string
	interval time.Duration
	delay    uint64

	last     map[string]string
	onUpdate func(u model.NotificationUpdate)

	pollCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	running bool
}

// NewMPRISPoller creates a poller over source for DefaultPlayers.
func NewMPRISPoller(source MediaSource, logger *slog.Logger) *MPRISPoller {
	if logger == nil {
		logger = slog.Default()
	}
	return &MPRISPoller{
		logger:   logger,
		source:   source,
		players:  DefaultPlayers,
		interval: DefaultMPRISInterval,
		last:     make(map[string]string),
		pollCh:   make(chan struct{}, 1),
	}
}

// SetPlayers sets the player names to poll.
func (p *MPRISPoller) SetPlayers(players []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.players = players
}

// Players returns the polled player names.
func (p *MPRISPoller) Players() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.players
}

// SetInterval sets the polling interval. Takes effect on the next Start.
func (p *MPRISPoller) SetInterval(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if interval > 0 {
		p.interval = interval
	}
}

// SetDelay sets the popup delay of emitted updates, in seconds.
func (p *MPRISPoller) SetDelay(delay uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.delay = delay
}

// SetUpdateHandler sets the callback for changed players. It runs on the
// poller goroutine.
func (p *MPRISPoller) SetUpdateHandler(handler func(u model.NotificationUpdate)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onUpdate = handler
}

// Start polls immediately and then every interval until ctx is done or Stop
// is called.
func (p *MPRISPoller) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	interval := p.interval
	p.mu.Unlock()

	go p.pollLoop(ctx, interval)

	p.logger.Debug("mpris poller started", "interval", interval, "players", p.Players())
	return nil
}

// Stop stops polling and waits for the poller goroutine to exit.
func (p *MPRISPoller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	<-p.doneCh
	p.logger.Debug("mpris poller stopped")
}

// PollNow asks the running poller for an immediate poll.
func (p *MPRISPoller) PollNow() {
	select {
	case p.pollCh <- struct{}{}:
	default:
	}
}

func (p *MPRISPoller) pollLoop(ctx context.Context, interval time.Duration) {
	defer close(p.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	p.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
		case <-p.pollCh:
		}
		p.Poll(ctx)
	}
}

// Poll queries every player once and emits an update for each one whose
// text changed. It returns the number of updates emitted.
func (p *MPRISPoller) Poll(ctx context.Context) int {
	p.mu.Lock()
	players := p.players
	delay := p.delay
	handler := p.onUpdate
	p.mu.Unlock()

	emitted := 0
	for _, player := range players {
		info, err := p.source.MediaInfo(ctx, player)
		if err != nil {
			p.mu.Lock()
			delete(p.last, player)
			p.mu.Unlock()
			continue
		}

		text := info.Summary() + "\x00" + info.Body()
		p.mu.Lock()
		changed := p.last[player] != text
		p.last[player] = text
		p.mu.Unlock()
		if !changed {
			continue
		}

		u := info.ToUpdate(delay)
		p.logger.Debug("media changed", "id", u.ID, "player", player, "status", info.Status, "title", info.Title)
		if handler != nil {
			handler(u)
		}
		emitted++
	}
	return emitted
}
