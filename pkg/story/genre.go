package story

// Genre is a story genre offered on the start screen.
type Genre string

const (
	GenreSuperhero  Genre = "Superhero Romance"
	GenreNoir       Genre = "Detective Noir"
	GenreSciFi      Genre = "Sci-Fi Space Opera"
	GenreHighSchool Genre = "High School Drama"
)

// DefaultGenre is preselected for new players.
const DefaultGenre = GenreSuperhero

// Genres is the start screen catalog, in display order.
var Genres = []Genre{GenreSuperhero, GenreNoir, GenreSciFi, GenreHighSchool}
