package model

import "time"

// ExpireLayout matches the ISO-8601 form records have always been stored in,
// e.g. 2033-05-18T03:33:20.000Z.
const ExpireLayout = "2006-01-02T15:04:05.000Z"

type TrafficUsage struct {
	Upload   int64 `json:"upload"`
	Download int64 `json:"download"`
	Total    int64 `json:"total"`
}

type UserRecord struct {
	Sub     string       `json:"sub"`
	Expire  string       `json:"expire"`
	Note    *string      `json:"note,omitempty"`
	Traffic TrafficUsage `json:"traffic"`
}

// RecordEntry pairs a record with the uuid it is stored under.
type RecordEntry struct {
	UUID   string     `json:"uuid"`
	Record UserRecord `json:"record"`
}

// FormatExpire renders t in the stored expiry format.
func FormatExpire(t time.Time) string {
	return t.UTC().Format(ExpireLayout)
}

// ExpireTime parses the stored expiry. ok is false for legacy or corrupt values.
func (r *UserRecord) ExpireTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339Nano, r.Expire)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
