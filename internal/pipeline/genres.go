package pipeline

import "recoengine/internal/catalog"

// perGenreCap and maxTotalGenres bound how many recommendations any single
// genre may contribute and how many genres a single run considers.
const (
	perGenreCap    = 5
	maxTotalGenres = 12
	maxPreferredGenres = 8
	similarPerSeed = 3
	maxSeeds       = 8
	minRatingForSeed = 4
)

type genreEntry struct {
	name string
	id   int
}

// filmGenres and seriesGenres mirror the catalog's own genre taxonomy
// (movie vs. TV genre ids differ even where the name matches) so the
// pipeline can translate a genre name the user prefers into the id a
// discovery call needs, and back again from a candidate's genre ids.
var filmGenres = []genreEntry{
	{"Action", 28}, {"Adventure", 12}, {"Animation", 16}, {"Comedy", 35},
	{"Crime", 80}, {"Documentary", 99}, {"Drama", 18}, {"Family", 10751},
	{"Fantasy", 14}, {"History", 36}, {"Horror", 27}, {"Music", 10402},
	{"Mystery", 9648}, {"Romance", 10749}, {"Science Fiction", 878},
	{"Thriller", 53}, {"War", 10752}, {"Western", 37},
}

var seriesGenres = []genreEntry{
	{"Action & Adventure", 10759}, {"Animation", 16}, {"Comedy", 35},
	{"Crime", 80}, {"Documentary", 99}, {"Drama", 18}, {"Family", 10751},
	{"Kids", 10762}, {"Mystery", 9648}, {"Sci-Fi & Fantasy", 10765},
	{"War & Politics", 10768}, {"Western", 37},
}

func genreTable(kind catalog.MediaKind) []genreEntry {
	if kind == catalog.KindSeries {
		return seriesGenres
	}
	return filmGenres
}

func genreIDByName(kind catalog.MediaKind, name string) (int, bool) {
	for _, g := range genreTable(kind) {
		if g.name == name {
			return g.id, true
		}
	}
	return 0, false
}

// primaryGenre returns the name of the first genre id in ids that this
// kind's table recognizes, matching catalog order (a candidate's genre ids
// are presumed most-significant-first).
func primaryGenre(kind catalog.MediaKind, ids []int) string {
	table := genreTable(kind)
	for _, id := range ids {
		for _, g := range table {
			if g.id == id {
				return g.name
			}
		}
	}
	return ""
}
