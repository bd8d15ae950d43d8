// Package payment validates the card form of the booking wizard and runs
// the simulated payment processor.  No card data leaves the process and
// only the last four digits are returned for storage.
package payment

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/cinema-booking/internal/model"
)

// Form is the submitted payment form.
type Form struct {
	CardNumber string `json:"cardNumber"`
	CardName   string `json:"cardName"`
	ExpiryDate string `json:"expiryDate"`
	CVV        string `json:"cvv"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
}

var (
	cardRe   = regexp.MustCompile(`^\d{16}$`)
	expiryRe = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvvRe    = regexp.MustCompile(`^\d{3,4}$`)
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe  = regexp.MustCompile(`^\d{10}$`)
	spaceRe  = regexp.MustCompile(`\s`)
)

// EmailPattern is shared with profile validation.
var EmailPattern = emailRe

// FieldErrors maps a form field to its message.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	keys := make([]string, 0, len(e))
	for k := range e {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e[k])
	}
	return "invalid payment details: " + strings.Join(parts, "; ")
}

// NormalizedCard returns the card number with all whitespace removed.
func (f Form) NormalizedCard() string { return spaceRe.ReplaceAllString(f.CardNumber, "") }

// Last4 returns the last four digits of the card number.
func (f Form) Last4() string {
	c := f.NormalizedCard()
	if len(c) < 4 {
		return c
	}
	return c[len(c)-4:]
}

// Validate checks every field and returns FieldErrors listing all failures,
// or nil.
func Validate(f Form) error {
	errs := FieldErrors{}
	if !cardRe.MatchString(f.NormalizedCard()) {
		errs["cardNumber"] = "Please enter a valid 16-digit card number"
	}
	if strings.TrimSpace(f.CardName) == "" {
		errs["cardName"] = "Cardholder name is required"
	}
	if !expiryRe.MatchString(f.ExpiryDate) {
		errs["expiryDate"] = "Please enter a valid expiry date (MM/YY)"
	}
	if !cvvRe.MatchString(f.CVV) {
		errs["cvv"] = "Please enter a valid CVV"
	}
	if !emailRe.MatchString(f.Email) {
		errs["email"] = "Please enter a valid email address"
	}
	if !phoneRe.MatchString(f.Phone) {
		errs["phone"] = "Please enter a valid 10-digit phone number"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// IDGenerator issues "TXN<unix millis>" transaction ids.  Ids are strictly
// increasing within one generator even when the clock stalls or steps back.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewIDGenerator(now func() time.Time) *IDGenerator {
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{now: now}
}

func (g *IDGenerator) Next() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return "TXN" + strconv.FormatInt(ms, 10)
}

// Processor authorizes a payment and returns the metadata to store.
type Processor interface {
	Process(ctx context.Context, amount float64, f Form) (model.PaymentInfo, error)
}

// DefaultDelay is the simulated processing time.
const DefaultDelay = 2 * time.Second

// SimulatedProcessor accepts every valid form after Delay.  It never
// contacts a gateway.
type SimulatedProcessor struct {
	Delay time.Duration
	IDs   *IDGenerator
	Now   func() time.Time
}

func NewSimulatedProcessor(delay time.Duration) *SimulatedProcessor {
	return &SimulatedProcessor{Delay: delay, IDs: NewIDGenerator(nil), Now: time.Now}
}

// Process validates f, waits Delay and returns the payment metadata.  When
// ctx ends during the wait the context error is returned and no id is
// issued.
func (p *SimulatedProcessor) Process(ctx context.Context, amount float64, f Form) (model.PaymentInfo, error) {
	if err := Validate(f); err != nil {
		return model.PaymentInfo{}, err
	}
	if amount <= 0 {
		return model.PaymentInfo{}, fmt.Errorf("payment: amount must be positive, got %.2f", amount)
	}
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return model.PaymentInfo{}, ctx.Err()
		}
	} else if err := ctx.Err(); err != nil {
		return model.PaymentInfo{}, err
	}
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	ids := p.IDs
	if ids == nil {
		ids = NewIDGenerator(now)
		p.IDs = ids
	}
	return model.PaymentInfo{
		TransactionID: ids.Next(),
		Timestamp:     now().UTC(),
		CardLast4:     f.Last4(),
		CardName:      strings.TrimSpace(f.CardName),
		Email:         f.Email,
		Phone:         f.Phone,
	}, nil
}
