// Package jobkey parses job keys and job auth tokens.
package jobkey

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Key identifies a single job execution: "<projectid>/<spiderid>/<jobcounter>".
type Key struct {
	ProjectID  int
	SpiderID   int
	JobCounter int
}

// Parse splits a job key into its three numeric parts.
func Parse(s string) (Key, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 {
		return Key{}, fmt.Errorf("invalid job key %q: want <project>/<spider>/<job>", s)
	}
	ids := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Key{}, fmt.Errorf("invalid job key %q: %w", s, err)
		}
		ids[i] = n
	}
	return Key{ProjectID: ids[0], SpiderID: ids[1], JobCounter: ids[2]}, nil
}

func (k Key) String() string {
	return fmt.Sprintf("%d/%d/%d", k.ProjectID, k.SpiderID, k.JobCounter)
}

// ProjectKey returns the project id in the string form storage lookups use.
func (k Key) ProjectKey() string {
	return strconv.Itoa(k.ProjectID)
}

// EncodeAuth builds the hex token exported as SHUB_JOBAUTH.
func EncodeAuth(key Key, secret string) string {
	return hex.EncodeToString([]byte(key.String() + ":" + secret))
}

// DecodeAuth turns a hex token back into "<jobkey>:<secret>".
func DecodeAuth(token string) (string, error) {
	b, err := hex.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decoding job auth: %w", err)
	}
	return string(b), nil
}

// SplitAuth separates a decoded auth string into its job key and secret.
func SplitAuth(auth string) (Key, string, error) {
	raw, secret, ok := strings.Cut(auth, ":")
	if !ok {
		return Key{}, "", fmt.Errorf("invalid job auth: missing secret")
	}
	key, err := Parse(raw)
	if err != nil {
		return Key{}, "", err
	}
	return key, secret, nil
}
