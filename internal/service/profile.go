package service

import (
	"context"
	"errors"
	"log"
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/cinema-booking/internal/history"
	"github.com/iliyamo/cinema-booking/internal/model"
	"github.com/iliyamo/cinema-booking/internal/payment"
	"github.com/iliyamo/cinema-booking/internal/repository"
	"github.com/iliyamo/cinema-booking/internal/utils"
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 6

// ProfileUpdate is the editable part of the profile.
type ProfileUpdate struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
}

// PasswordChange is the change password form.
type PasswordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

// ProfileService manages the profile, its password and the activity
// summary derived from favorites and bookings.
type ProfileService struct {
	profiles   *repository.ProfileRepo
	favorites  *repository.FavoritesRepo
	bookings   *repository.BookingRepo
	activity   *repository.ActivityRepo
	bcryptCost int
	loc        *time.Location
	now        func() time.Time
}

func NewProfileService(p *repository.ProfileRepo, f *repository.FavoritesRepo, b *repository.BookingRepo,
	a *repository.ActivityRepo, bcryptCost int, loc *time.Location) *ProfileService {
	if loc == nil {
		loc = time.Local
	}
	return &ProfileService{profiles: p, favorites: f, bookings: b, activity: a, bcryptCost: bcryptCost, loc: loc, now: time.Now}
}

// Get returns the stored profile or the defaults.
func (s *ProfileService) Get(ctx context.Context, ns string) (model.UserProfile, error) {
	return s.profiles.Get(ctx, ns)
}

// Update replaces the editable fields.  Name and email are required and the
// email must look like an address.  The join date is kept.
func (s *ProfileService) Update(ctx context.Context, ns string, u ProfileUpdate) (model.UserProfile, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = strings.TrimSpace(u.Email)
	if u.Name == "" || u.Email == "" {
		return model.UserProfile{}, repository.ValidationError{Msg: "Name and email are required"}
	}
	if !payment.EmailPattern.MatchString(u.Email) {
		return model.UserProfile{}, repository.ValidationError{Field: "email", Msg: "Please enter a valid email address"}
	}
	p, err := s.profiles.Get(ctx, ns)
	if err != nil {
		return model.UserProfile{}, err
	}
	p.Name = u.Name
	p.Email = u.Email
	p.Phone = strings.TrimSpace(u.Phone)
	p.Location = strings.TrimSpace(u.Location)
	if err := s.profiles.Put(ctx, ns, p); err != nil {
		return model.UserProfile{}, err
	}
	return p, nil
}

// ChangePassword checks the form and stores the bcrypt hash of the new
// password.  When a password was set before, CurrentPassword must match it.
func (s *ProfileService) ChangePassword(ctx context.Context, ns string, pc PasswordChange) error {
	if pc.CurrentPassword == "" || pc.NewPassword == "" {
		return repository.ValidationError{Msg: "Current password and new password are required"}
	}
	if pc.NewPassword != pc.ConfirmPassword {
		return repository.ValidationError{Field: "confirmPassword", Msg: "New passwords do not match"}
	}
	if len(pc.NewPassword) < MinPasswordLength {
		return repository.ValidationError{Field: "newPassword", Msg: "Password must be at least 6 characters long"}
	}
	creds, ok, err := s.profiles.Credentials(ctx, ns)
	if err != nil {
		return err
	}
	if ok {
		match, err := utils.VerifyPassword(creds.PasswordHash, pc.CurrentPassword)
		if err != nil {
			// an unreadable hash is replaced like a missing one
			log.Printf("profile: stored password hash of %s unusable: %v", ns, err)
		} else if !match {
			return repository.ValidationError{Field: "currentPassword", Msg: "Current password is incorrect"}
		}
	}
	hash, err := utils.HashPassword(pc.NewPassword, s.bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return repository.ValidationError{Field: "newPassword", Msg: "Password must be at most 72 bytes long"}
	}
	if err != nil {
		return err
	}
	return s.profiles.PutCredentials(ctx, ns, model.Credentials{PasswordHash: hash, UpdatedAt: s.now().UTC()})
}

// MaxUpcoming is how many upcoming bookings the summary lists.
const MaxUpcoming = 3

// Activity recomputes the activity summary and stores it.
func (s *ProfileService) Activity(ctx context.Context, ns string) (model.ActivitySummary, error) {
	p, err := s.profiles.Get(ctx, ns)
	if err != nil {
		return model.ActivitySummary{}, err
	}
	favs, err := s.favorites.List(ctx, ns)
	if err != nil {
		return model.ActivitySummary{}, err
	}
	list, err := s.bookings.List(ctx, ns)
	if err != nil {
		return model.ActivitySummary{}, err
	}
	now := s.now()

	sum := model.ActivitySummary{
		Favorites:        len(favs),
		Bookings:         len(list.Items),
		DaysActive:       daysSince(p.JoinDate, now, s.loc),
		UpcomingBookings: []model.UpcomingBooking{},
		ComputedAt:       now.UTC(),
	}
	var upcoming []model.BookingRecord
	for _, rec := range list.Items {
		switch history.DeriveStatus(rec, now, s.loc) {
		case history.Completed:
			sum.MoviesWatched++
		case history.Upcoming, history.StartingSoon:
			upcoming = append(upcoming, rec)
		}
	}
	sort.SliceStable(upcoming, func(i, j int) bool {
		a, b := upcoming[i].Showtime, upcoming[j].Showtime
		if a.Date != b.Date {
			return a.Date < b.Date
		}
		return a.Time < b.Time
	})
	for i, rec := range upcoming {
		if i == MaxUpcoming {
			break
		}
		sum.UpcomingBookings = append(sum.UpcomingBookings, model.UpcomingBooking{
			TransactionID: rec.TransactionID(),
			Movie:         rec.Movie.Title,
			Date:          rec.Showtime.Date,
			Time:          rec.Showtime.Time,
			Seats:         rec.SeatIDs(),
		})
	}
	if err := s.activity.Put(ctx, ns, sum); err != nil {
		return model.ActivitySummary{}, err
	}
	return sum, nil
}

// daysSince returns the whole days, rounded up, between the join date and
// now.  An unreadable join date counts as zero.
func daysSince(joinDate string, now time.Time, loc *time.Location) int {
	var (
		t   time.Time
		err error
	)
	for _, layout := range []string{repository.JoinDateLayout, model.ShowtimeDateLayout} {
		if t, err = time.ParseInLocation(layout, joinDate, loc); err == nil {
			break
		}
	}
	if err != nil {
		return 0
	}
	return int(math.Ceil(math.Abs(now.Sub(t).Hours()) / 24))
}
