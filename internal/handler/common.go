package handler // handler defines http handlers

import (
	"errors"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-rsvp/internal/model"
)

// seatsPerRow fixes the width of generated seating rows: A1..A10, B1..B10
// and so on. Row labels carry past Z to AA for very large events.
const seatsPerRow = 10

// getUserID extracts the user_id from echo.Context and converts it to uint64.
func getUserID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// currentIdentity resolves the caller from the JWT claims stored by the
// auth middleware. ok is false when the request carried no valid token.
func currentIdentity(c echo.Context) (model.Identity, bool) {
	uid, err := getUserID(c)
	if err != nil || uid == 0 {
		return model.Identity{}, false
	}
	email, _ := c.Get("email").(string)
	return model.RegisteredIdentity(uid, email), true
}

// isAdmin reports whether the JWT role claim marks the caller as an admin.
func isAdmin(c echo.Context) bool {
	role, _ := c.Get("role").(string)
	return role == model.RoleAdmin
}

// seatLabels produces capacity seat labels row by row.
func seatLabels(capacity int) []string {
	labels := make([]string, 0, capacity)
	for i := 0; i < capacity; i++ {
		row := indexToRowLabel(i / seatsPerRow)
		labels = append(labels, row+strconv.Itoa(i%seatsPerRow+1))
	}
	return labels
}

// indexToRowLabel converts a zero-based index to an alphabetical row label
// like A, B, AA.
func indexToRowLabel(i int) string {
	if i < 0 {
		return ""
	}
	res := []rune{}
	for {
		rem := i % 26
		res = append(res, rune('A'+rem))
		i = i/26 - 1
		if i < 0 {
			break
		}
	}
	for j, k := 0, len(res)-1; j < k; j, k = j+1, k-1 {
		res[j], res[k] = res[k], res[j]
	}
	return string(res)
}

// normalizeEmail lowers and trims an email address so identity lookups
// and the unique guest constraint compare consistently.
func normalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
