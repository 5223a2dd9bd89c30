package spotify

import (
	"context"
	"fmt"

	"github.com/zmb3/spotify/v2"

	"github.com/loydmilligan/mashboard-strategist/internal/playlist"
)

const maxTracksPerRequest = 100

// CreatePlaylist creates a private playlist for the current user and
// adds all resolved tracks in batches. Spotify allows max 100 tracks
// per add request.
func (s *Service) CreatePlaylist(ctx context.Context, title, description string, tracks []playlist.TrackRef) (*playlist.CreatedPlaylist, error) {
	api, err := s.client(ctx)
	if err != nil {
		return nil, err
	}

	userID, err := s.currentUserID(ctx, api)
	if err != nil {
		return nil, err
	}

	created, err := api.CreatePlaylistForUser(ctx, userID, title, description, false, false)
	if err != nil {
		return nil, fmt.Errorf("creating playlist: %w", err)
	}

	ids := make([]spotify.ID, 0, len(tracks))
	for _, t := range tracks {
		if t.ID != "" {
			ids = append(ids, spotify.ID(t.ID))
		}
	}

	for i := 0; i < len(ids); i += maxTracksPerRequest {
		end := min(i+maxTracksPerRequest, len(ids))
		if _, err := api.AddTracksToPlaylist(ctx, created.ID, ids[i:end]...); err != nil {
			return nil, fmt.Errorf("adding tracks (batch %d-%d): %w", i+1, end, err)
		}
	}

	return &playlist.CreatedPlaylist{
		ID:  created.ID.String(),
		URL: created.ExternalURLs["spotify"],
	}, nil
}
