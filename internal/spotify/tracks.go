package spotify

import (
	"context"
	"fmt"
	"strings"

	"github.com/zmb3/spotify/v2"

	"github.com/loydmilligan/mashboard-strategist/internal/playlist"
)

const searchLimit = 5

// SearchTrack looks up candidate tracks by title and artist using
// Spotify's field filters.
func (s *Service) SearchTrack(ctx context.Context, title, artist string) ([]playlist.TrackRef, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf("track:%s artist:%s", title, artist)
	results, err := api.Search(ctx, query, spotify.SearchTypeTrack, spotify.Limit(searchLimit))
	if err != nil {
		return nil, fmt.Errorf("searching track: %w", err)
	}
	if results.Tracks == nil {
		return nil, nil
	}

	refs := make([]playlist.TrackRef, 0, len(results.Tracks.Tracks))
	for _, track := range results.Tracks.Tracks {
		refs = append(refs, toTrackRef(track))
	}
	return refs, nil
}

// toTrackRef converts a Spotify FullTrack with artists joined by ", ".
func toTrackRef(track spotify.FullTrack) playlist.TrackRef {
	artists := make([]string, len(track.Artists))
	for i, a := range track.Artists {
		artists[i] = a.Name
	}
	return playlist.TrackRef{
		ID:     track.ID.String(),
		URI:    string(track.URI),
		Title:  track.Name,
		Artist: strings.Join(artists, ", "),
		URL:    track.ExternalURLs["spotify"],
	}
}
