package igdb

// Raw API response types (internal)

// gameStatusEarlyAccess is IGDB's release status enum value for early access.
const gameStatusEarlyAccess = 4

// Age rating category enum values.
const ageRatingCategoryESRB = 1

type rawToken struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

type rawGame struct {
	ID                int           `json:"id"`
	Name              string        `json:"name"`
	Slug              string        `json:"slug"`
	Summary           string        `json:"summary"`
	Storyline         string        `json:"storyline"`
	FirstReleaseDate  int64         `json:"first_release_date"`
	TotalRating       float64       `json:"total_rating"`
	AggregatedRating  float64       `json:"aggregated_rating"`
	Status            int           `json:"status"`
	URL               string        `json:"url"`
	Cover             *rawImage     `json:"cover"`
	Artworks          []rawImage    `json:"artworks"`
	Screenshots       []rawImage    `json:"screenshots"`
	Videos            []rawVideo    `json:"videos"`
	Websites          []rawWebsite  `json:"websites"`
	Genres            []rawNamed    `json:"genres"`
	Themes            []rawNamed    `json:"themes"`
	Keywords          []rawNamed    `json:"keywords"`
	InvolvedCompanies []rawInvolved `json:"involved_companies"`
	AgeRatings        []rawAgeRate  `json:"age_ratings"`
}

type rawNamed struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type rawImage struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

type rawVideo struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	VideoID string `json:"video_id"`
}

type rawWebsite struct {
	ID  int    `json:"id"`
	URL string `json:"url"`
}

type rawInvolved struct {
	Company   rawNamed `json:"company"`
	Developer bool     `json:"developer"`
	Publisher bool     `json:"publisher"`
}

type rawAgeRate struct {
	Category int `json:"category"`
	Rating   int `json:"rating"`
}
