package discourse

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
)

const activeUsersPath = "/admin/users/list/active.json"

// User is the subset of the Discourse user record the workflow consumes.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// FindActiveUser queries the active-user listing filtered by email.
// It returns (nil, nil) when the user is not visible yet: an empty
// result, or a body that is not a JSON array, both mean "keep polling".
func (c *Client) FindActiveUser(ctx context.Context, email string) (*User, error) {
	query := url.Values{
		"filter":      {email},
		"show_emails": {"true"},
	}

	req, err := c.newRequest(ctx, http.MethodGet, activeUsersPath+"?"+query.Encode(), nil)
	if err != nil {
		return nil, err
	}

	body, err := c.do(req, activeUsersPath)
	if err != nil {
		return nil, err
	}

	var users []User
	if err := json.Unmarshal(body, &users); err != nil {
		// Discourse occasionally answers with an object (e.g. while the
		// user is still staged). Treat it as not visible yet.
		return nil, nil
	}
	if len(users) == 0 {
		return nil, nil
	}

	return matchUser(users, email), nil
}

// matchUser prefers the record whose email equals the searched address
// case-insensitively; the filter is a substring match upstream, so the
// first element is only a fallback.
func matchUser(users []User, email string) *User {
	for i := range users {
		if strings.EqualFold(users[i].Email, email) {
			return &users[i]
		}
	}
	return &users[0]
}
