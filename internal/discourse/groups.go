package discourse

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// AddGroupMember adds a username to the group's member list. The raw
// response body is returned; callers only need it for diagnostics.
func (c *Client) AddGroupMember(ctx context.Context, groupID int64, username string) (string, error) {
	path := fmt.Sprintf("/groups/%d/members.json", groupID)

	form := url.Values{"usernames": {username}}
	req, err := c.newRequest(ctx, http.MethodPut, path, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	body, err := c.do(req, path)
	if err != nil {
		return "", err
	}
	return string(body), nil
}
