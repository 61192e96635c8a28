package catalog

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	PageSize       = 20
	TopRatedMin    = 4.0
	DefaultPrice   = 500
	dateLayout     = "2006-01-02"
	devModeMessage = "Development mode - payment not required"
)

// Movie is a catalog row. Media fields hold storage keys, not URLs.
type Movie struct {
	ID                     int64     `json:"id"`
	Title                  string    `json:"title"`
	Overview               string    `json:"overview"`
	Thumbnail              *string   `json:"thumbnail"`
	Backdrop               *string   `json:"backdrop"`
	VideoFile              *string   `json:"video_file"`
	TrailerFile            *string   `json:"trailer_file"`
	Price                  int       `json:"price"`
	Views                  int64     `json:"views"`
	Rating                 float64   `json:"rating"`
	ReleaseDate            Date      `json:"release_date"`
	DurationMinutes        int       `json:"duration_minutes"`
	TrailerDurationSeconds *int      `json:"trailer_duration_seconds"`
	IsActive               bool      `json:"is_active"`
	HasFreePreview         bool      `json:"has_free_preview"`
	Cast                   []string  `json:"cast"`
	Genres                 []string  `json:"genres"`
	Producer               *string   `json:"producer"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// Date is a calendar date serialized as YYYY-MM-DD.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("release_date must be a string: %w", err)
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return fmt.Errorf("date has wrong format, use YYYY-MM-DD")
	}
	*d = Date{t}
	return nil
}

// Order selects one of the fixed listing orders.
type Order int

const (
	OrderViewsDesc Order = iota
	OrderReleaseDesc
	OrderRatingDesc
	OrderCreatedDesc
	OrderReleaseAsc
)

// Query is a listing over active movies.
type Query struct {
	Order             Order
	MinRating         float64
	ReleasedOnOrAfter *time.Time
	Limit             int
	Offset            int
}

// sortKeys maps the public sort_by values to orders. Unknown keys fall back
// to popularity.
var sortKeys = map[string]Order{
	"popularity.desc":   OrderViewsDesc,
	"release_date.desc": OrderReleaseDesc,
	"rating.desc":       OrderRatingDesc,
}

func ParseSortKey(sortBy string) Order {
	if o, ok := sortKeys[sortBy]; ok {
		return o
	}
	return OrderViewsDesc
}

// Page is the paginated listing envelope.
type Page struct {
	Page         int            `json:"page"`
	Results      []MovieSummary `json:"results"`
	TotalResults int            `json:"total_results"`
	TotalPages   int            `json:"total_pages"`
}

func TotalPages(total int) int {
	return (total + PageSize - 1) / PageSize
}

type MovieSummary struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	Overview        string  `json:"overview"`
	ThumbnailURL    *string `json:"thumbnail_url"`
	BackdropURL     *string `json:"backdrop_url"`
	Price           int     `json:"price"`
	Rating          float64 `json:"rating"`
	ReleaseDate     Date    `json:"release_date"`
	Views           int64   `json:"views"`
	DurationMinutes int     `json:"duration_minutes"`
	HasFreePreview  bool    `json:"has_free_preview"`
}

type MovieDetail struct {
	ID                     int64     `json:"id"`
	Title                  string    `json:"title"`
	Overview               string    `json:"overview"`
	ThumbnailURL           *string   `json:"thumbnail_url"`
	BackdropURL            *string   `json:"backdrop_url"`
	TrailerURL             *string   `json:"trailer_url"`
	TrailerDurationSeconds *int      `json:"trailer_duration_seconds"`
	Price                  int       `json:"price"`
	Views                  int64     `json:"views"`
	Rating                 float64   `json:"rating"`
	ReleaseDate            Date      `json:"release_date"`
	DurationMinutes        int       `json:"duration_minutes"`
	HasFreePreview         bool      `json:"has_free_preview"`
	IsActive               bool      `json:"is_active"`
	CreatedAt              time.Time `json:"created_at"`
	Cast                   []string  `json:"cast"`
	Genres                 []string  `json:"genres"`
	Producer               *string   `json:"producer"`
}

// Video is one entry of the videos listing. The trailer entry is free; the
// full movie entry carries its price.
type Video struct {
	Key             *string `json:"key"`
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Site            string  `json:"site"`
	DurationSeconds *int    `json:"duration_seconds,omitempty"`
	DurationMinutes *int    `json:"duration_minutes,omitempty"`
	IsFree          bool    `json:"is_free,omitempty"`
	RequiresPayment bool    `json:"requires_payment,omitempty"`
	Price           *int    `json:"price,omitempty"`
}

type Videos struct {
	ID      int64   `json:"id"`
	Results []Video `json:"results"`
}

type ImageRef struct {
	FilePath *string `json:"file_path"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

type Images struct {
	ID        int64      `json:"id"`
	Backdrops []ImageRef `json:"backdrops"`
	Posters   []ImageRef `json:"posters"`
}

type VideoAccess struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	VideoURL        *string `json:"video_url"`
	TrailerURL      *string `json:"trailer_url"`
	DurationMinutes int     `json:"duration_minutes"`
	AccessGranted   bool    `json:"access_granted"`
}

type Stream struct {
	Movie     VideoAccess `json:"movie"`
	StreamURL *string     `json:"stream_url"`
	Views     int64       `json:"views"`
	Message   string      `json:"message"`
}

type Trailer struct {
	ID              int64   `json:"id"`
	Title           string  `json:"title"`
	TrailerKey      string  `json:"trailer_key"`
	StreamURL       *string `json:"stream_url"`
	DurationSeconds *int    `json:"duration_seconds"`
	IsFree          bool    `json:"is_free"`
}

// CreateRequest is the admin payload for a new movie. Media fields carry keys
// returned by the upload endpoints.
type CreateRequest struct {
	Title                  string   `json:"title"`
	Overview               string   `json:"overview"`
	Thumbnail              *string  `json:"thumbnail"`
	Backdrop               *string  `json:"backdrop"`
	VideoFile              *string  `json:"video_file"`
	TrailerFile            *string  `json:"trailer_file"`
	Price                  *int     `json:"price"`
	ReleaseDate            Date     `json:"release_date"`
	DurationMinutes        *int     `json:"duration_minutes"`
	TrailerDurationSeconds *int     `json:"trailer_duration_seconds"`
	IsActive               *bool    `json:"is_active"`
	HasFreePreview         *bool    `json:"has_free_preview"`
	Cast                   []string `json:"cast"`
	Genres                 []string `json:"genres"`
	Producer               *string  `json:"producer"`
}

// BulkRequest toggles one flag on many movies.
type BulkRequest struct {
	IDs   []int64 `json:"ids"`
	Value *bool   `json:"value"`
}

type BulkResponse struct {
	Updated int64 `json:"updated"`
}
