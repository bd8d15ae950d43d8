package model

import "time"

// UserProfile is the editable profile record.  It is stored under its own
// key and edited independently of bookings.
type UserProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	JoinDate string `json:"joinDate"`
}

// Credentials holds the bcrypt hash of the profile password.  It lives under
// a separate key so profile reads never carry the hash.
type Credentials struct {
	PasswordHash string    `json:"passwordHash"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// FilterPreferences are the persisted movie list controls.
type FilterPreferences struct {
	ViewMode   string  `json:"viewMode"`   // grid | list
	SortOption string  `json:"sortOption"` // popularity | rating | release
	MinRating  float64 `json:"minRating"`  // 0..10
	Language   string  `json:"language"`   // "all" or an ISO 639-1 code
}

// DefaultFilterPreferences returns the preferences used when none are stored.
func DefaultFilterPreferences() FilterPreferences {
	return FilterPreferences{ViewMode: "grid", SortOption: "popularity", MinRating: 0, Language: "all"}
}

// UpcomingBooking is the short form of a booking shown in the activity
// summary.
type UpcomingBooking struct {
	TransactionID string   `json:"id"`
	Movie         string   `json:"movie"`
	Date          string   `json:"date"`
	Time          string   `json:"time"`
	Seats         []string `json:"seats"`
}

// ActivitySummary is a derived record recomputed from favorites, bookings
// and the profile join date.  It is written back under its own key every
// time it is computed.
type ActivitySummary struct {
	MoviesWatched    int               `json:"moviesWatched"`
	Favorites        int               `json:"favorites"`
	Bookings         int               `json:"bookings"`
	DaysActive       int               `json:"daysActive"`
	UpcomingBookings []UpcomingBooking `json:"upcomingBookings"`
	ComputedAt       time.Time         `json:"computedAt"`
}
