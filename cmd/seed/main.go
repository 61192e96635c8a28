// Command seed fills the movies table with sample catalog rows for local
// development.
//
// Usage:
//
//	go run ./cmd/seed                 # insert the sample catalog
//	go run ./cmd/seed --reset         # delete every movie first
//	go run ./cmd/seed --dry-run       # print what would be inserted
//	go run ./cmd/seed --episodes=30   # number of generated episode rows
//
// Reads DATABASE_URL (and .env). Never run it against production.
package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"movievault/internal/catalog"
	"movievault/internal/config"
	"movievault/internal/logger"
)

var sampleMovies = []struct {
	Title    string
	Overview string
	Duration int
	Genres   []string
}{
	{"Umurinzi w'Imana", "A powerful story of resilience and hope during Rwanda's darkest hours, following a family's journey through tragedy and healing.", 18, []string{"Drama", "History"}},
	{"The Kigali Streets", "A young entrepreneur navigates the bustling streets of Kigali, building a tech startup while honoring traditional values.", 15, []string{"Drama"}},
	{"Beyond the Hills", "Two childhood friends reunite after years apart, discovering their paths have taken them to opposite sides of Rwanda's transformation.", 20, []string{"Drama"}},
	{"Amakuru y'Ubuntu", "A documentary-style drama exploring the meaning of Ubuntu in modern Rwanda through interconnected stories of kindness.", 12, []string{"Documentary"}},
	{"Digital Dreams", "Young developers at a Kigali tech hub race to build an app that could revolutionize African e-commerce.", 17, []string{"Drama", "Comedy"}},
	{"The Coffee Trail", "Following Rwandan coffee from the hills of Nyamasheke to prestigious cafés around the world.", 14, []string{"Documentary"}},
	{"Inganzo Nshya", "A traditional drummer teaches a new generation while adapting ancient rhythms to modern music.", 16, []string{"Music"}},
	{"The Market Day", "A day in the life of Kimironko market, where diverse lives intersect and stories unfold.", 13, []string{"Drama"}},
	{"Sunrise Over Volcanoes", "A park ranger's dedication to protecting mountain gorillas while supporting his family and community.", 19, []string{"Adventure"}},
	{"The Last Bus", "Strangers on a bus journey from Kigali to Rubavu share stories that change their perspectives on life.", 11, []string{"Drama"}},
	{"Umuganda Spirit", "A community comes together during monthly Umuganda to build more than just infrastructure.", 10, []string{"Documentary"}},
	{"Fashion Forward", "Young designers blend traditional Rwandan patterns with contemporary fashion, aiming for international runways.", 15, []string{"Drama"}},
}

type seedRow struct {
	Title           string
	Overview        string
	Thumbnail       string
	Backdrop        string
	VideoFile       string
	TrailerFile     string
	Duration        int
	TrailerDuration int
	Views           int
	Rating          float64
	ReleaseDate     time.Time
	Genres          []string
}

func main() {
	dryRun := flag.Bool("dry-run", false, "print rows without writing")
	reset := flag.Bool("reset", false, "delete existing movies first")
	episodes := flag.Int("episodes", 15, "number of generated episode rows")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	rows := buildRows(time.Now().UTC(), *episodes, rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 42)))

	if *dryRun {
		for _, r := range rows {
			fmt.Printf("%-40s release=%s views=%-5d rating=%.1f video=%s\n",
				r.Title, r.ReleaseDate.Format("2006-01-02"), r.Views, r.Rating, r.VideoFile)
		}
		log.Infow("dry run, nothing written", "rows", len(rows))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalw("open database", "error", err)
	}
	defer db.Close()

	if err := catalog.NewPostgresStore(db).EnsureSchema(ctx); err != nil {
		log.Fatalw("ensure schema", "error", err)
	}

	if err := seed(ctx, db, rows, *reset, log); err != nil {
		log.Fatalw("seed failed", "error", err)
	}
}

// buildRows lays out past, recent, and upcoming releases, then adds episode
// variations of random base titles.
func buildRows(today time.Time, episodes int, rng *rand.Rand) []seedRow {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	trailerLengths := []int{90, 120, 150}

	var rows []seedRow
	for i, m := range sampleMovies {
		var release time.Time
		switch {
		case i < 6:
			release = today.AddDate(0, 0, -(30 + rng.IntN(336)))
		case i < 9:
			release = today.AddDate(0, 0, -(1 + rng.IntN(15)))
		default:
			release = today.AddDate(0, 0, 7+rng.IntN(84))
		}

		slug := slugify(m.Title)
		r := seedRow{
			Title:           m.Title,
			Overview:        m.Overview,
			Thumbnail:       fmt.Sprintf("movies/thumbnails/%s.jpg", slug),
			Backdrop:        fmt.Sprintf("movies/backdrops/%s.jpg", slug),
			VideoFile:       fmt.Sprintf("movies/full/%s.mp4", slug),
			TrailerFile:     fmt.Sprintf("movies/trailers/%s_trailer.mp4", slug),
			Duration:        m.Duration,
			TrailerDuration: trailerLengths[rng.IntN(len(trailerLengths))],
			ReleaseDate:     release,
			Genres:          m.Genres,
		}
		if !release.After(today) {
			r.Views = 50 + rng.IntN(2451)
			r.Rating = roundRating(3.5 + rng.Float64()*1.5)
		}
		rows = append(rows, r)
	}

	for i := 0; i < episodes; i++ {
		base := sampleMovies[rng.IntN(len(sampleMovies))]
		release := today.AddDate(0, 0, rng.IntN(241)-180)
		r := seedRow{
			Title:           fmt.Sprintf("%s - Episode %d", base.Title, i+1),
			Overview:        fmt.Sprintf("%s (Part %d)", base.Overview, i+1),
			Thumbnail:       fmt.Sprintf("movies/thumbnails/episode_%d.jpg", i+1),
			Backdrop:        fmt.Sprintf("movies/backdrops/episode_%d.jpg", i+1),
			VideoFile:       fmt.Sprintf("movies/full/episode_%d.mp4", i+1),
			TrailerFile:     fmt.Sprintf("movies/trailers/episode_%d_trailer.mp4", i+1),
			Duration:        10 + rng.IntN(11),
			TrailerDuration: trailerLengths[rng.IntN(len(trailerLengths))],
			ReleaseDate:     release,
			Genres:          base.Genres,
		}
		if !release.After(today) {
			r.Views = rng.IntN(3001)
			r.Rating = roundRating(3.0 + rng.Float64()*2.0)
		}
		rows = append(rows, r)
	}
	return rows
}

func seed(ctx context.Context, db *sql.DB, rows []seedRow, reset bool, log *zap.SugaredLogger) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if reset {
		log.Warn("Clearing existing movies...")
		if _, err := tx.ExecContext(ctx, `DELETE FROM movies`); err != nil {
			return fmt.Errorf("reset: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO movies (title, overview, thumbnail, backdrop, video_file, trailer_file,
			genres, duration_minutes, trailer_duration_seconds, price, views, rating, release_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx,
			r.Title, r.Overview, r.Thumbnail, r.Backdrop, r.VideoFile, r.TrailerFile,
			pq.Array(r.Genres), r.Duration, r.TrailerDuration, catalog.DefaultPrice,
			r.Views, r.Rating, r.ReleaseDate.Format("2006-01-02"),
		); err != nil {
			return fmt.Errorf("insert %q: %w", r.Title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	log.Infow("✅ seeded movies", "count", len(rows), "reset", reset)
	return nil
}

func slugify(title string) string {
	return strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(title), " ", "_"), "'", "")
}

func roundRating(r float64) float64 {
	return float64(int(r*10+0.5)) / 10
}
