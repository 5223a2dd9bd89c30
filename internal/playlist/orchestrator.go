// Package playlist orchestrates external playlist creation for a
// finalized candidate list, degrading to search links when the target
// platform integration is unconfigured.
package playlist

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
	"golang.org/x/time/rate"

	"github.com/loydmilligan/mashboard-strategist/internal/league"
	"github.com/loydmilligan/mashboard-strategist/internal/songs"
)

const (
	// maxTitleLen and maxDescriptionLen cap sanitized playlist metadata.
	maxTitleLen       = 100
	maxDescriptionLen = 300

	// minMatchScore is the Jaro-Winkler floor below which a search
	// result is not trusted as the candidate's track.
	minMatchScore = 0.80

	// linkStagger spaces degraded-mode search links so clients opening
	// them as tabs are not popup-blocked.
	linkStagger = 350 * time.Millisecond

	// DefaultSearchDelay is the fixed inter-request delay between
	// track lookups, respecting third-party rate limits.
	DefaultSearchDelay = 350 * time.Millisecond
)

// Configuration reports whether a platform integration is usable.
type Configuration struct {
	Configured bool
	Reason     string
}

// TrackRef is a platform-resolved track reference.
type TrackRef struct {
	ID      string
	URI     string
	VideoID string
	Title   string
	Artist  string
	URL     string
}

// CreatedPlaylist is the result of a platform playlist creation.
type CreatedPlaylist struct {
	ID  string
	URL string
}

// PlatformService abstracts a playlist platform (Spotify, YouTube).
type PlatformService interface {
	Name() string
	CheckConfiguration(ctx context.Context) Configuration
	SearchTrack(ctx context.Context, title, artist string) ([]TrackRef, error)
	CreatePlaylist(ctx context.Context, title, description string, tracks []TrackRef) (*CreatedPlaylist, error)
	SearchURL(title, artist string) string
}

// Orchestrator implements league.PlaylistCreator over a set of
// platform services.
type Orchestrator struct {
	services map[string]PlatformService
	limiter  *rate.Limiter
	now      func() time.Time
	logf     func(format string, args ...any)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSearchDelay overrides the fixed delay between search lookups.
func WithSearchDelay(delay time.Duration) Option {
	return func(o *Orchestrator) {
		if delay > 0 {
			o.limiter = rate.NewLimiter(rate.Every(delay), 1)
		}
	}
}

// WithClock overrides the time source (tests).
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger overrides the log sink.
func WithLogger(logf func(format string, args ...any)) Option {
	return func(o *Orchestrator) { o.logf = logf }
}

// NewOrchestrator registers the given platform services by name.
func NewOrchestrator(services []PlatformService, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		services: make(map[string]PlatformService, len(services)),
		limiter:  rate.NewLimiter(rate.Every(DefaultSearchDelay), 1),
		now:      time.Now,
		logf:     log.Printf,
	}
	for _, svc := range services {
		o.services[strings.ToLower(svc.Name())] = svc
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Create resolves track references for the candidates and creates a
// playlist on the target platform. An unconfigured platform is never a
// hard failure: the outcome degrades to staggered search links with an
// explanatory message.
func (o *Orchestrator) Create(ctx context.Context, platform, title, description string, candidates []songs.Song) (*league.PlaylistOutcome, error) {
	svc, ok := o.services[strings.ToLower(platform)]
	if !ok {
		return nil, fmt.Errorf("unknown playlist platform %q", platform)
	}

	if cfg := svc.CheckConfiguration(ctx); !cfg.Configured {
		return o.degrade(svc, cfg, candidates), nil
	}

	// Resolve a track reference per candidate, skipping failures.
	refs := make([]TrackRef, 0, len(candidates))
	skipped := 0
	for _, song := range candidates {
		if ref, ok := presetRef(song); ok {
			refs = append(refs, ref)
			continue
		}

		// Fixed inter-request delay between lookups.
		if err := o.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("waiting for search slot: %w", err)
		}

		results, err := svc.SearchTrack(ctx, song.Title, song.Artist)
		if err != nil {
			o.logf("track search failed for %s - %s on %s: %v", song.Title, song.Artist, svc.Name(), err)
			skipped++
			continue
		}
		ref, ok := bestMatch(song, results)
		if !ok {
			o.logf("no usable match for %s - %s on %s", song.Title, song.Artist, svc.Name())
			skipped++
			continue
		}
		refs = append(refs, ref)
	}

	created, err := svc.CreatePlaylist(ctx, SanitizeTitle(title), SanitizeDescription(description), refs)
	if err != nil {
		return nil, fmt.Errorf("creating %s playlist: %w", svc.Name(), err)
	}

	message := fmt.Sprintf("Your playlist is live on %s with %d track(s): %s", svc.Name(), len(refs), created.URL)
	if skipped > 0 {
		message += fmt.Sprintf(" (%d candidate(s) could not be resolved and were skipped)", skipped)
	}

	return &league.PlaylistOutcome{
		Record: &league.PlaylistRecord{
			Platform:  svc.Name(),
			ID:        created.ID,
			URL:       created.URL,
			CreatedAt: o.now(),
		},
		Message: message,
	}, nil
}

// degrade builds the search-link fallback outcome.
func (o *Orchestrator) degrade(svc PlatformService, cfg Configuration, candidates []songs.Song) *league.PlaylistOutcome {
	links := make([]league.SearchLink, 0, len(candidates))
	for i, song := range candidates {
		links = append(links, league.SearchLink{
			URL:       svc.SearchURL(song.Title, song.Artist),
			OpenAfter: time.Duration(i) * linkStagger,
		})
	}

	message := fmt.Sprintf("%s is not configured, so no playlist was created. Falling back to %d search link(s) instead.", svc.Name(), len(links))
	if cfg.Reason != "" {
		message = fmt.Sprintf("%s (%s)", message, cfg.Reason)
	}

	return &league.PlaylistOutcome{
		Degraded:    true,
		Message:     message,
		SearchLinks: links,
	}
}

// presetRef uses a candidate's pre-resolved external reference when it
// already carries one, skipping the search lookup.
func presetRef(song songs.Song) (TrackRef, bool) {
	if song.TrackID == "" && song.TrackURI == "" && song.VideoID == "" {
		return TrackRef{}, false
	}
	return TrackRef{
		ID:      song.TrackID,
		URI:     song.TrackURI,
		VideoID: song.VideoID,
		Title:   song.Title,
		Artist:  song.Artist,
	}, true
}

// bestMatch scores search results against the candidate and returns the
// highest scorer above the similarity floor.
func bestMatch(song songs.Song, results []TrackRef) (TrackRef, bool) {
	want := strings.ToLower(song.Artist + " " + song.Title)
	jw := metrics.NewJaroWinkler()

	var best TrackRef
	var bestScore float64
	for _, r := range results {
		got := strings.ToLower(r.Artist + " " + r.Title)
		score := strutil.Similarity(want, got, jw)
		if score > bestScore {
			bestScore = score
			best = r
		}
	}
	if bestScore < minMatchScore {
		return TrackRef{}, false
	}
	return best, true
}

// SanitizeTitle keeps the first line only, strips special characters,
// and caps the length.
func SanitizeTitle(title string) string {
	if i := strings.IndexAny(title, "\r\n"); i >= 0 {
		title = title[:i]
	}

	var b strings.Builder
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case strings.ContainsRune(" -&',.!?", r):
			b.WriteRune(r)
		}
	}

	out := strings.Join(strings.Fields(b.String()), " ")
	if out == "" {
		out = "Music League Round"
	}
	if len(out) > maxTitleLen {
		out = strings.TrimSpace(out[:maxTitleLen])
	}
	return out
}

// SanitizeDescription collapses newlines to spaces and caps the length.
func SanitizeDescription(description string) string {
	out := strings.Join(strings.Fields(description), " ")
	if len(out) > maxDescriptionLen {
		out = strings.TrimSpace(out[:maxDescriptionLen])
	}
	return out
}

var _ league.PlaylistCreator = (*Orchestrator)(nil)
