package rawg

// Raw API response types (internal)

type rawSearchResponse struct {
	Count   int       `json:"count"`
	Results []rawGame `json:"results"`
}

type rawGame struct {
	ID                       int        `json:"id"`
	Slug                     string     `json:"slug"`
	Name                     string     `json:"name"`
	Description              string     `json:"description"`
	Released                 string     `json:"released"`
	TBA                      bool       `json:"tba"`
	BackgroundImage          string     `json:"background_image"`
	BackgroundImageAdditional string    `json:"background_image_additional"`
	Website                  string     `json:"website"`
	Metacritic               int        `json:"metacritic"`
	Rating                   float64    `json:"rating"`
	Playtime                 int        `json:"playtime"`
	ESRBRating               *rawESRB   `json:"esrb_rating"`
	Genres                   []rawNamed `json:"genres"`
	Tags                     []rawTag   `json:"tags"`
	Developers               []rawNamed `json:"developers"`
	Publishers               []rawNamed `json:"publishers"`
}

type rawNamed struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type rawTag struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Slug     string `json:"slug"`
	Language string `json:"language"`
}

type rawESRB struct {
	ID   int    `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type rawScreenshotsResponse struct {
	Results []struct {
		Image string `json:"image"`
	} `json:"results"`
}

type rawMoviesResponse struct {
	Results []struct {
		Name string `json:"name"`
		Data struct {
			Max string `json:"max"`
		} `json:"data"`
	} `json:"results"`
}
