package lastfm

import (
	"encoding/json"
	"strconv"
)

// trackInfoResponse is the JSON response for track.getInfo.
type trackInfoResponse struct {
	Track struct {
		Name     string       `json:"name"`
		Duration milliseconds `json:"duration"`
		Artist   struct {
			Name string `json:"name"`
		} `json:"artist"`
	} `json:"track"`
}

// milliseconds decodes durations that Last.fm sends as either a number or a
// numeric string. Empty strings decode as zero.
type milliseconds int64

func (m *milliseconds) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*m = milliseconds(n)
		return nil
	}
	if s == "" {
		*m = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*m = milliseconds(n)
	return nil
}

// apiError represents a Last.fm API error response.
type apiError struct {
	Error   int    `json:"error"`
	Message string `json:"message"`
}
