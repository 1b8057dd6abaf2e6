// Package telegram validates Mini App init data sent by the employee client.
package telegram

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	initdata "github.com/telegram-mini-apps/init-data-golang"
)

var (
	ErrMissingHash = errors.New("init data has no hash")
	ErrInvalidHash = errors.New("init data signature mismatch")
	ErrExpired     = errors.New("init data expired")
	ErrMissingUser = errors.New("init data has no user")
	ErrMalformed   = errors.New("init data is malformed")
)

// User is the subset of the Telegram user object the backend relies on.
type User struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

type InitData struct {
	User     User
	AuthDate time.Time
	QueryID  string
}

// Validator checks init data against the bot token.
type Validator struct {
	botToken string
	maxAge   time.Duration
}

// NewValidator returns a validator for one bot. A zero maxAge disables the
// auth_date freshness check.
func NewValidator(botToken string, maxAge time.Duration) *Validator {
	return &Validator{botToken: botToken, maxAge: maxAge}
}

// Validate verifies the signature and freshness of raw init data and returns
// its parsed content.
func (v *Validator) Validate(raw string) (InitData, error) {
	if err := initdata.Validate(raw, v.botToken, v.maxAge); err != nil {
		return InitData{}, validationError(err)
	}

	parsed, err := initdata.Parse(raw)
	if err != nil {
		return InitData{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if parsed.User.ID == 0 {
		return InitData{}, ErrMissingUser
	}

	return InitData{
		User: User{
			ID:        parsed.User.ID,
			FirstName: parsed.User.FirstName,
			LastName:  parsed.User.LastName,
			Username:  parsed.User.Username,
		},
		AuthDate: parsed.AuthDate(),
		QueryID:  parsed.QueryID,
	}, nil
}

func validationError(err error) error {
	switch {
	case errors.Is(err, initdata.ErrSignMissing):
		return ErrMissingHash
	case errors.Is(err, initdata.ErrSignInvalid):
		return ErrInvalidHash
	case errors.Is(err, initdata.ErrExpired), errors.Is(err, initdata.ErrAuthDateMissing):
		return ErrExpired
	default:
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
}

// Sign builds signed init data for the given fields. Used by tests and local
// tooling to emulate the Telegram client; auth_date defaults to now.
func (v *Validator) Sign(fields url.Values) string {
	authDate := time.Now()
	payload := make(map[string]string, len(fields))
	for k := range fields {
		switch k {
		case "hash":
		case "auth_date":
			if sec, err := strconv.ParseInt(fields.Get(k), 10, 64); err == nil {
				authDate = time.Unix(sec, 0)
			}
		default:
			payload[k] = fields.Get(k)
		}
	}

	signed := url.Values{}
	for k, val := range payload {
		signed.Set(k, val)
	}
	signed.Set("auth_date", strconv.FormatInt(authDate.Unix(), 10))
	signed.Set("hash", initdata.Sign(payload, v.botToken, authDate))
	return signed.Encode()
}
