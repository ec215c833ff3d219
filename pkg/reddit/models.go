package reddit

import (
	"math"
	"time"

	"bottagger/pkg/scoring"
)

// AboutResponse is the body of /user/{name}/about.json
type AboutResponse struct {
	Kind string    `json:"kind"`
	Data AboutData `json:"data"`
}

// AboutData holds the fields of an account we care about. Absent numbers
// decode to zero.
type AboutData struct {
	Name         string  `json:"name"`
	LinkKarma    int64   `json:"link_karma"`
	CommentKarma int64   `json:"comment_karma"`
	CreatedUTC   float64 `json:"created_utc"`
	IsSuspended  bool    `json:"is_suspended"`
}

// Stats converts the response into scoring input. A zero creation time is
// treated as unknown.
func (a AboutResponse) Stats() scoring.ProfileStats {
	stats := scoring.ProfileStats{
		Primary:   max(a.Data.LinkKarma, 0),
		Secondary: max(a.Data.CommentKarma, 0),
	}
	if a.Data.CreatedUTC > 0 {
		sec, frac := math.Modf(a.Data.CreatedUTC)
		created := time.Unix(int64(sec), int64(frac*1e9)).UTC()
		stats.CreatedAt = &created
	}
	return stats
}
