package auth

import "strconv"

// jwtSubject encodes a numeric user id as the JWT subject claim.
func jwtSubject(id int64) string {
	return strconv.FormatInt(id, 10)
}

// UserID decodes the subject claim back into the numeric user id.
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}
