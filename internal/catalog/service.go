package catalog

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"movievault/internal/metrics"
)

var ErrNoTrailer = errors.New("trailer not available for this movie")

// ValidationError maps field names to messages.
type ValidationError map[string][]string

func (v ValidationError) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "invalid movie: " + strings.Join(fields, ", ")
}

func (v ValidationError) add(field, msg string) {
	v[field] = append(v[field], msg)
}

var videoExtensions = map[string]bool{".mp4": true, ".mov": true, ".avi": true, ".mkv": true}

type Service struct {
	store  Store
	linker *Linker
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewService(store Store, linker *Linker, logger *zap.SugaredLogger) *Service {
	return &Service{
		store:  store,
		linker: linker,
		logger: logger,
		now:    time.Now,
	}
}

// Discover lists active movies ordered by sortBy.
func (s *Service) Discover(ctx context.Context, sortBy string, page int) (*Page, error) {
	return s.list(ctx, Query{Order: ParseSortKey(sortBy)}, page)
}

func (s *Service) Popular(ctx context.Context, page int) (*Page, error) {
	return s.list(ctx, Query{Order: OrderViewsDesc}, page)
}

// NowPlaying lists the most recently added movies.
func (s *Service) NowPlaying(ctx context.Context, page int) (*Page, error) {
	return s.list(ctx, Query{Order: OrderCreatedDesc}, page)
}

func (s *Service) TopRated(ctx context.Context, page int) (*Page, error) {
	return s.list(ctx, Query{Order: OrderRatingDesc, MinRating: TopRatedMin}, page)
}

// Upcoming lists movies releasing today or later, soonest first.
func (s *Service) Upcoming(ctx context.Context, page int) (*Page, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return s.list(ctx, Query{Order: OrderReleaseAsc, ReleasedOnOrAfter: &today}, page)
}

func (s *Service) list(ctx context.Context, q Query, page int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	q.Limit = PageSize
	q.Offset = (page - 1) * PageSize

	movies, total, err := s.store.List(ctx, q)
	if err != nil {
		return nil, err
	}

	results := make([]MovieSummary, 0, len(movies))
	for i := range movies {
		summary, err := s.summary(ctx, &movies[i])
		if err != nil {
			return nil, err
		}
		results = append(results, *summary)
	}

	return &Page{
		Page:         page,
		Results:      results,
		TotalResults: total,
		TotalPages:   TotalPages(total),
	}, nil
}

func (s *Service) summary(ctx context.Context, m *Movie) (*MovieSummary, error) {
	thumb, err := s.linker.URL(ctx, m.Thumbnail)
	if err != nil {
		return nil, err
	}
	backdrop, err := s.linker.URL(ctx, m.Backdrop)
	if err != nil {
		return nil, err
	}
	return &MovieSummary{
		ID:              m.ID,
		Title:           m.Title,
		Overview:        m.Overview,
		ThumbnailURL:    thumb,
		BackdropURL:     backdrop,
		Price:           m.Price,
		Rating:          m.Rating,
		ReleaseDate:     m.ReleaseDate,
		Views:           m.Views,
		DurationMinutes: m.DurationMinutes,
		HasFreePreview:  m.HasFreePreview,
	}, nil
}

func (s *Service) Detail(ctx context.Context, id int64) (*MovieDetail, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	links, err := s.links(ctx, m.Thumbnail, m.Backdrop, m.TrailerFile)
	if err != nil {
		return nil, err
	}

	return &MovieDetail{
		ID:                     m.ID,
		Title:                  m.Title,
		Overview:               m.Overview,
		ThumbnailURL:           links[0],
		BackdropURL:            links[1],
		TrailerURL:             links[2],
		TrailerDurationSeconds: m.TrailerDurationSeconds,
		Price:                  m.Price,
		Views:                  m.Views,
		Rating:                 m.Rating,
		ReleaseDate:            m.ReleaseDate,
		DurationMinutes:        m.DurationMinutes,
		HasFreePreview:         m.HasFreePreview,
		IsActive:               m.IsActive,
		CreatedAt:              m.CreatedAt,
		Cast:                   m.Cast,
		Genres:                 m.Genres,
		Producer:               m.Producer,
	}, nil
}

// Videos lists the trailer, when there is one, and the full movie.
func (s *Service) Videos(ctx context.Context, id int64) (*Videos, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var results []Video
	if hasKey(m.TrailerFile) {
		results = append(results, Video{
			Key:             m.TrailerFile,
			Name:            m.Title + " - Trailer",
			Type:            "Trailer",
			Site:            "Local",
			DurationSeconds: m.TrailerDurationSeconds,
			IsFree:          true,
		})
	}
	duration, price := m.DurationMinutes, m.Price
	results = append(results, Video{
		Key:             m.VideoFile,
		Name:            m.Title + " - Full Movie",
		Type:            "Full Movie",
		Site:            "Local",
		DurationMinutes: &duration,
		RequiresPayment: true,
		Price:           &price,
	})

	return &Videos{ID: m.ID, Results: results}, nil
}

// Images lists the backdrop, if any, and the poster.
func (s *Service) Images(ctx context.Context, id int64) (*Images, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	links, err := s.links(ctx, m.Thumbnail, m.Backdrop)
	if err != nil {
		return nil, err
	}

	images := &Images{
		ID:        m.ID,
		Backdrops: []ImageRef{},
		Posters:   []ImageRef{{FilePath: links[0], Width: 300, Height: 450}},
	}
	if links[1] != nil {
		images.Backdrops = append(images.Backdrops, ImageRef{FilePath: links[1], Width: 1280, Height: 720})
	}
	return images, nil
}

// Stream grants access to the full movie and counts one view. Payment is not
// checked.
func (s *Service) Stream(ctx context.Context, id int64) (*Stream, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	views, err := s.store.IncrementViews(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.StreamViews.Inc()

	links, err := s.links(ctx, m.VideoFile, m.TrailerFile)
	if err != nil {
		return nil, err
	}

	s.logger.Infow("stream granted", "movie_id", id, "views", views)
	return &Stream{
		Movie: VideoAccess{
			ID:              m.ID,
			Title:           m.Title,
			VideoURL:        links[0],
			TrailerURL:      links[1],
			DurationMinutes: m.DurationMinutes,
			AccessGranted:   true,
		},
		StreamURL: links[0],
		Views:     views,
		Message:   devModeMessage,
	}, nil
}

func (s *Service) Trailer(ctx context.Context, id int64) (*Trailer, error) {
	m, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !hasKey(m.TrailerFile) {
		return nil, ErrNoTrailer
	}

	u, err := s.linker.URL(ctx, m.TrailerFile)
	if err != nil {
		return nil, err
	}

	return &Trailer{
		ID:              m.ID,
		Title:           m.Title,
		TrailerKey:      *m.TrailerFile,
		StreamURL:       u,
		DurationSeconds: m.TrailerDurationSeconds,
		IsFree:          true,
	}, nil
}

// Create validates req and stores a new movie.
func (s *Service) Create(ctx context.Context, req *CreateRequest) (*Movie, error) {
	if err := validateCreate(req); err != nil {
		return nil, err
	}

	m := &Movie{
		Title:                  strings.TrimSpace(req.Title),
		Overview:               req.Overview,
		Thumbnail:              normalizeKey(req.Thumbnail),
		Backdrop:               normalizeKey(req.Backdrop),
		VideoFile:              normalizeKey(req.VideoFile),
		TrailerFile:            normalizeKey(req.TrailerFile),
		Price:                  intOr(req.Price, DefaultPrice),
		ReleaseDate:            req.ReleaseDate,
		DurationMinutes:        intOr(req.DurationMinutes, 0),
		TrailerDurationSeconds: req.TrailerDurationSeconds,
		IsActive:               boolOr(req.IsActive, true),
		HasFreePreview:         boolOr(req.HasFreePreview, true),
		Cast:                   nonNil(req.Cast),
		Genres:                 nonNil(req.Genres),
		Producer:               req.Producer,
	}
	if m.TrailerDurationSeconds == nil {
		zero := 0
		m.TrailerDurationSeconds = &zero
	}

	if err := s.store.Create(ctx, m); err != nil {
		return nil, err
	}

	s.logger.Infow("movie created", "movie_id", m.ID, "title", m.Title)
	return m, nil
}

func validateCreate(req *CreateRequest) error {
	v := ValidationError{}

	if strings.TrimSpace(req.Title) == "" {
		v.add("title", "This field is required.")
	} else if len(req.Title) > 255 {
		v.add("title", "Ensure this field has no more than 255 characters.")
	}
	if strings.TrimSpace(req.Overview) == "" {
		v.add("overview", "This field is required.")
	}
	if req.ReleaseDate.IsZero() {
		v.add("release_date", "This field is required.")
	}

	for field, n := range map[string]*int{
		"price":                    req.Price,
		"duration_minutes":         req.DurationMinutes,
		"trailer_duration_seconds": req.TrailerDurationSeconds,
	} {
		if n != nil && *n < 0 {
			v.add(field, "Ensure this value is greater than or equal to 0.")
		}
	}

	for field, key := range map[string]*string{
		"video_file":   req.VideoFile,
		"trailer_file": req.TrailerFile,
	} {
		if hasKey(key) && !videoExtensions[strings.ToLower(path.Ext(*key))] {
			v.add(field, fmt.Sprintf("File extension %q is not allowed. Allowed extensions are: mp4, mov, avi, mkv.", path.Ext(*key)))
		}
	}

	if len(v) > 0 {
		return v
	}
	return nil
}

func (s *Service) SetActive(ctx context.Context, ids []int64, active bool) (int64, error) {
	n, err := s.store.SetActive(ctx, ids, active)
	if err != nil {
		return 0, err
	}
	s.logger.Infow("movies active flag updated", "count", n, "value", active)
	return n, nil
}

func (s *Service) SetFreePreview(ctx context.Context, ids []int64, free bool) (int64, error) {
	n, err := s.store.SetFreePreview(ctx, ids, free)
	if err != nil {
		return 0, err
	}
	s.logger.Infow("movies free preview flag updated", "count", n, "value", free)
	return n, nil
}

func (s *Service) links(ctx context.Context, keys ...*string) ([]*string, error) {
	out := make([]*string, len(keys))
	for i, k := range keys {
		u, err := s.linker.URL(ctx, k)
		if err != nil {
			return nil, err
		}
		out[i] = u
	}
	return out, nil
}

func hasKey(k *string) bool {
	return k != nil && *k != ""
}

func normalizeKey(k *string) *string {
	if !hasKey(k) {
		return nil
	}
	v := strings.TrimSpace(*k)
	return &v
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
