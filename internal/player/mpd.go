package player

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"
)

// MPDPlayer talks the MPD line protocol over TCP. Connections are short
// lived: one per logical operation.
type MPDPlayer struct {
	addr   string
	dialer net.Dialer
}

// NewMPDPlayer returns a player client for the given host:port address.
func NewMPDPlayer(addr string) *MPDPlayer {
	return &MPDPlayer{addr: addr, dialer: net.Dialer{Timeout: 5 * time.Second}}
}

// mpdSong is a Song backed by MPD metadata.
type mpdSong struct {
	artist  string
	title   string
	file    string
	genres  []string
	seconds int
}

func (s mpdSong) Artist() string          { return s.artist }
func (s mpdSong) Title() string           { return s.title }
func (s mpdSong) Filename() string        { return s.file }
func (s mpdSong) Tags() []string          { return s.genres }
func (s mpdSong) Rating() float64         { return 0 }
func (s mpdSong) Loved() bool             { return false }
func (s mpdSong) Duration() time.Duration { return time.Duration(s.seconds) * time.Second }

// Search queries the MPD database. Artist/title terms search those tags;
// with only tags set, each tag is searched as a genre and results merged.
func (p *MPDPlayer) Search(ctx context.Context, q Query) ([]Song, error) {
	var commands []string
	switch {
	case q.Artist != "" || q.Title != "":
		var sb strings.Builder
		sb.WriteString("search")
		if q.Artist != "" {
			fmt.Fprintf(&sb, " artist %s", mpdQuote(q.Artist))
		}
		if q.Title != "" {
			fmt.Fprintf(&sb, " title %s", mpdQuote(q.Title))
		}
		commands = []string{sb.String()}
	case len(q.Tags) > 0:
		for _, tag := range q.Tags {
			commands = append(commands, "search genre "+mpdQuote(tag))
		}
	default:
		return nil, nil
	}

	seen := make(map[string]struct{})
	var out []Song
	for _, command := range commands {
		lines, err := p.roundTrip(ctx, command)
		if err != nil {
			return nil, err
		}
		for _, song := range parseSongs(lines) {
			if _, dup := seen[song.file]; dup {
				continue
			}
			seen[song.file] = struct{}{}
			out = append(out, song)
		}
	}
	return out, nil
}

// Enqueue appends the song to the MPD play queue by file URI.
func (p *MPDPlayer) Enqueue(ctx context.Context, song Song) error {
	if song.Filename() == "" {
		return fmt.Errorf("enqueue: song %q has no file", song.Title())
	}
	_, err := p.roundTrip(ctx, "add "+mpdQuote(song.Filename()))
	return err
}

// QueuedSongs returns the current play queue in order.
func (p *MPDPlayer) QueuedSongs(ctx context.Context) ([]Song, error) {
	lines, err := p.roundTrip(ctx, "playlistinfo")
	if err != nil {
		return nil, err
	}
	parsed := parseSongs(lines)
	out := make([]Song, len(parsed))
	for i, s := range parsed {
		out[i] = s
	}
	return out, nil
}

// QueueSeconds sums the durations of everything in the play queue.
func (p *MPDPlayer) QueueSeconds(ctx context.Context) (int, error) {
	lines, err := p.roundTrip(ctx, "playlistinfo")
	if err != nil {
		return 0, err
	}
	total := 0
	for _, s := range parseSongs(lines) {
		total += s.seconds
	}
	return total, nil
}

// CurrentSong returns the playing song, or nil when stopped.
func (p *MPDPlayer) CurrentSong(ctx context.Context) (Song, error) {
	lines, err := p.roundTrip(ctx, "currentsong")
	if err != nil {
		return nil, err
	}
	songs := parseSongs(lines)
	if len(songs) == 0 {
		return nil, nil
	}
	return songs[0], nil
}

// roundTrip dials, reads the banner, sends one command, and collects the
// response lines up to the terminating OK.
func (p *MPDPlayer) roundTrip(ctx context.Context, command string) ([]string, error) {
	conn, err := p.dialer.DialContext(ctx, "tcp", p.addr)
	if err != nil {
		return nil, fmt.Errorf("connect mpd %s: %w", p.addr, err)
	}
	defer conn.Close() //nolint:errcheck

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else {
		_ = conn.SetDeadline(time.Now().Add(10 * time.Second))
	}

	reader := bufio.NewReader(conn)
	banner, err := reader.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("read mpd banner: %w", err)
	}
	if !strings.HasPrefix(banner, "OK MPD") {
		return nil, fmt.Errorf("unexpected mpd banner %q", strings.TrimSpace(banner))
	}

	if _, err := fmt.Fprintf(conn, "%s\n", command); err != nil {
		return nil, fmt.Errorf("send mpd command: %w", err)
	}

	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			return nil, fmt.Errorf("read mpd response: %w", err)
		}
		line = strings.TrimRight(line, "\n")
		if line == "OK" {
			return lines, nil
		}
		if strings.HasPrefix(line, "ACK ") {
			return nil, fmt.Errorf("mpd error: %s", strings.TrimPrefix(line, "ACK "))
		}
		lines = append(lines, line)
	}
}

// parseSongs splits a key-value response into songs, one per "file:" record.
func parseSongs(lines []string) []mpdSong {
	var songs []mpdSong
	var current *mpdSong
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		switch key {
		case "file":
			if current != nil {
				songs = append(songs, *current)
			}
			current = &mpdSong{file: value}
		case "Artist":
			if current != nil {
				current.artist = value
			}
		case "Title":
			if current != nil {
				current.title = value
			}
		case "Genre":
			if current != nil {
				current.genres = append(current.genres, value)
			}
		case "Time":
			if current != nil {
				if secs, err := strconv.Atoi(value); err == nil {
					current.seconds = secs
				}
			}
		}
	}
	if current != nil {
		songs = append(songs, *current)
	}
	return songs
}

// mpdQuote wraps an argument in double quotes, escaping the characters the
// protocol treats specially.
func mpdQuote(arg string) string {
	escaped := strings.ReplaceAll(arg, `\`, `\\`)
	escaped = strings.ReplaceAll(escaped, `"`, `\"`)
	return `"` + escaped + `"`
}
