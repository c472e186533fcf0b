// Package extract flattens staging pool items into provenance-tagged tracks.
package extract

import (
	"github.com/osa030/mixbox/internal/domain/source"
	"github.com/osa030/mixbox/internal/domain/track"
)

// Tracks returns every track of every item, in pool order and then in each
// item's own track order. Each track is a copy tagged with its provenance.
// Items of unknown type or without tracks contribute nothing.
func Tracks(items []source.Item) []track.Track {
	tracks := make([]track.Track, 0)
	for i := range items {
		tracks = appendTracks(tracks, &items[i])
	}
	return tracks
}

// Grouped returns one track slice per item, in pool order, using the same
// resolution rules as Tracks. Items without tracks yield an empty slice.
func Grouped(items []source.Item) [][]track.Track {
	groups := make([][]track.Track, len(items))
	for i := range items {
		groups[i] = appendTracks(make([]track.Track, 0, items[i].TrackCount()), &items[i])
	}
	return groups
}

func appendTracks(dst []track.Track, item *source.Item) []track.Track {
	prov := track.Provenance{
		SourceID:   item.ID,
		SourceType: string(item.Type),
		SourceName: item.Name,
	}
	for _, t := range item.GetTracks() {
		t.Provenance = prov
		dst = append(dst, t)
	}
	return dst
}
