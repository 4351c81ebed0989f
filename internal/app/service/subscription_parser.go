package service

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"subhub/internal/domain/model"
	"time"

	"github.com/araddon/dateparse"
)

const (
	HeaderSubscriptionUserinfo = "Subscription-Userinfo"
	HeaderSubscriptionExpires  = "X-Subscription-Expires"
)

// RecordUpdate is a partial record derived from upstream headers.
// A nil field means "keep what is stored", not "reset".
type RecordUpdate struct {
	Traffic *model.TrafficUsage
	Expire  *string
}

// Apply merges u into rec. Sub and Note are never touched.
func (u RecordUpdate) Apply(rec model.UserRecord) model.UserRecord {
	if u.Traffic != nil {
		rec.Traffic = *u.Traffic
	}
	if u.Expire != nil {
		rec.Expire = *u.Expire
	}
	return rec
}

// ParseSubscriptionHeaders reads subscription-userinfo and
// x-subscription-expires. Malformed fields are skipped, never fatal.
func ParseSubscriptionHeaders(h http.Header) RecordUpdate {
	var update RecordUpdate

	if userinfo := h.Get(HeaderSubscriptionUserinfo); userinfo != "" {
		fields := parseUserinfo(userinfo)
		update.Traffic = &model.TrafficUsage{
			Upload:   parseByteCount(fields["upload"]),
			Download: parseByteCount(fields["download"]),
			Total:    parseByteCount(fields["total"]),
		}
		if expire, ok := ParseExpire(fields["expire"]); ok {
			update.Expire = &expire
		}
	}

	// The dedicated header wins over the userinfo expire.
	if expire, ok := ParseExpire(h.Get(HeaderSubscriptionExpires)); ok {
		update.Expire = &expire
	}
	return update
}

func parseUserinfo(v string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Split(v, ";") {
		key, value, _ := strings.Cut(part, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if key == "" || value == "" {
			continue
		}
		fields[key] = value
	}
	return fields
}

// parseByteCount returns 0 for anything that is not a finite, non-negative
// number representable as int64. Fractions are truncated.
func parseByteCount(v string) int64 {
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || f < 0 || f >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// ParseExpire accepts either Unix seconds or a free-form date and returns the
// stored ISO form. Numbers must be positive; dates without a zone are UTC.
func ParseExpire(v string) (string, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", false
	}

	var t time.Time
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 || f > maxExpireSeconds {
			return "", false
		}
		t = time.UnixMilli(int64(f * 1000))
	} else {
		parsed, err := dateparse.ParseIn(v, time.UTC)
		if err != nil {
			return "", false
		}
		t = parsed
	}

	t = t.UTC()
	if t.Year() < 0 || t.Year() > 9999 {
		return "", false
	}
	return model.FormatExpire(t), true
}

// Last second of year 9999; anything later cannot be written as a four digit year.
const maxExpireSeconds = 253402300799
