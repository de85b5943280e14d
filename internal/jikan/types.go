package jikan

import (
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/anitrack/internal/broadcast"
)

// Anime is the subset of a Jikan anime resource used by the tracker.
type Anime struct {
	MalID         int        `json:"mal_id"`
	URL           string     `json:"url"`
	Images        Images     `json:"images"`
	Title         string     `json:"title"`
	TitleEnglish  string     `json:"title_english"`
	TitleJapanese string     `json:"title_japanese"`
	Type          string     `json:"type"`
	Source        string     `json:"source"`
	Episodes      *int       `json:"episodes"`
	Status        string     `json:"status"`
	Airing        bool       `json:"airing"`
	Aired         Aired      `json:"aired"`
	Duration      string     `json:"duration"`
	Rating        string     `json:"rating"`
	Score         *float64   `json:"score"`
	ScoredBy      int        `json:"scored_by"`
	Rank          *int       `json:"rank"`
	Popularity    int        `json:"popularity"`
	Members       int        `json:"members"`
	Synopsis      string     `json:"synopsis"`
	Season        string     `json:"season"`
	Year          *int       `json:"year"`
	Broadcast     Broadcast  `json:"broadcast"`
	Genres        []Resource `json:"genres"`
	Studios       []Resource `json:"studios"`
}

// Images holds cover art URLs per format.
type Images struct {
	JPG  ImageSet `json:"jpg"`
	WebP ImageSet `json:"webp"`
}

// ImageSet is one format's cover art at several sizes.
type ImageSet struct {
	ImageURL      string `json:"image_url"`
	SmallImageURL string `json:"small_image_url"`
	LargeImageURL string `json:"large_image_url"`
}

// Aired is the airing date range.
type Aired struct {
	From   *time.Time `json:"from"`
	To     *time.Time `json:"to"`
	String string     `json:"string"`
}

// Broadcast is the weekly slot as reported by Jikan. Any field may be null.
type Broadcast struct {
	Day      string `json:"day"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
	String   string `json:"string"`
}

// Resource is a named MyAnimeList entity such as a genre or studio.
type Resource struct {
	MalID int    `json:"mal_id"`
	Type  string `json:"type"`
	Name  string `json:"name"`
	URL   string `json:"url"`
}

// Pagination is Jikan's paging block.
type Pagination struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
	CurrentPage     int  `json:"current_page"`
}

// Page is one page of a paginated listing.
type Page[T any] struct {
	Items       []T  `json:"items"`
	HasNextPage bool `json:"has_next_page"`
	CurrentPage int  `json:"current_page"`
	LastPage    int  `json:"last_page"`
}

type listResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

type itemResponse[T any] struct {
	Data *T `json:"data"`
}

// Recommendation pairs two anime that users recommended together.
type Recommendation struct {
	MalID   string  `json:"mal_id"`
	Entry   []Anime `json:"entry"`
	Content string  `json:"content"`
}

// Spec converts the broadcast block into a resolver input.
func (a Anime) Spec() broadcast.Spec {
	return broadcast.Spec{Day: a.Broadcast.Day, Time: a.Broadcast.Time, Timezone: a.Broadcast.Timezone}
}

// ImageURL prefers the large JPG cover and falls back to the regular one.
func (a Anime) ImageURL() string {
	if a.Images.JPG.LargeImageURL != "" {
		return a.Images.JPG.LargeImageURL
	}
	return a.Images.JPG.ImageURL
}

// ReleaseYear is the season year, else the year of the first air date, else 0.
func (a Anime) ReleaseYear() int {
	if a.Year != nil && *a.Year > 0 {
		return *a.Year
	}
	if a.Aired.From != nil {
		return a.Aired.From.Year()
	}
	return 0
}

// DisplayTitle is the romanized title, or "Unknown" when missing.
func (a Anime) DisplayTitle() string {
	if t := strings.TrimSpace(a.Title); t != "" {
		return t
	}
	return "Unknown"
}

// ScoreText formats the MyAnimeList score, "N/A" when unscored.
func (a Anime) ScoreText() string {
	if a.Score == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.2f", *a.Score)
}

// EpisodesText formats the episode count, "N/A" when unknown.
func (a Anime) EpisodesText() string {
	if a.Episodes == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *a.Episodes)
}

// SynopsisText is the synopsis, or a placeholder when empty.
func (a Anime) SynopsisText() string {
	if s := strings.TrimSpace(a.Synopsis); s != "" {
		return s
	}
	return "No synopsis available."
}

// GenreNames lists genre names in API order.
func (a Anime) GenreNames() []string {
	names := make([]string, 0, len(a.Genres))
	for _, g := range a.Genres {
		names = append(names, g.Name)
	}
	return names
}
