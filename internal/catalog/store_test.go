package catalog

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBuildListQuery(t *testing.T) {
	t.Run("plain listing", func(t *testing.T) {
		countSQL, listSQL, countArgs, listArgs := buildListQuery(Query{Order: OrderViewsDesc, Limit: 20, Offset: 40})

		assert.Equal(t, "SELECT COUNT(*) FROM movies WHERE is_active = TRUE", countSQL)
		assert.Contains(t, listSQL, "WHERE is_active = TRUE ORDER BY views DESC, id DESC LIMIT $1 OFFSET $2")
		assert.Empty(t, countArgs)
		assert.Equal(t, []any{20, 40}, listArgs)
	})

	t.Run("top rated", func(t *testing.T) {
		countSQL, listSQL, countArgs, listArgs := buildListQuery(Query{Order: OrderRatingDesc, MinRating: 4.0, Limit: 20})

		assert.True(t, strings.HasSuffix(countSQL, "is_active = TRUE AND rating >= $1"))
		assert.Contains(t, listSQL, "ORDER BY rating DESC, id DESC LIMIT $2 OFFSET $3")
		assert.Equal(t, []any{4.0}, countArgs)
		assert.Equal(t, []any{4.0, 20, 0}, listArgs)
	})

	t.Run("upcoming", func(t *testing.T) {
		today := time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC)
		_, listSQL, countArgs, _ := buildListQuery(Query{Order: OrderReleaseAsc, ReleasedOnOrAfter: &today, Limit: 20})

		assert.Contains(t, listSQL, "release_date >= $1")
		assert.Contains(t, listSQL, "ORDER BY release_date ASC, id ASC")
		assert.Equal(t, []any{"2025-06-15"}, countArgs)
	})

	t.Run("unknown order falls back", func(t *testing.T) {
		_, listSQL, _, _ := buildListQuery(Query{Order: Order(99)})
		assert.Contains(t, listSQL, "ORDER BY views DESC")
	})
}

func TestOrderClauses_CoverEveryOrder(t *testing.T) {
	for _, o := range []Order{OrderViewsDesc, OrderReleaseDesc, OrderRatingDesc, OrderCreatedDesc, OrderReleaseAsc} {
		assert.Contains(t, orderClauses, o)
	}
}

func TestDate_JSON(t *testing.T) {
	var d Date
	assert.NoError(t, d.UnmarshalJSON([]byte(`"2024-12-25"`)))
	assert.Equal(t, NewDate(2024, time.December, 25), d)

	out, err := d.MarshalJSON()
	assert.NoError(t, err)
	assert.Equal(t, `"2024-12-25"`, string(out))

	assert.Error(t, d.UnmarshalJSON([]byte(`"25/12/2024"`)))
	assert.NoError(t, d.UnmarshalJSON([]byte(`null`)))
	assert.True(t, d.IsZero())

	out, _ = Date{}.MarshalJSON()
	assert.Equal(t, "null", string(out))
}
