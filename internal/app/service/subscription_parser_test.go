package service

import (
	"net/http"
	"subhub/internal/domain/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func headers(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Add(kv[i], kv[i+1])
	}
	return h
}

func TestParseSubscriptionHeaders_FullUserinfo(t *testing.T) {
	u := ParseSubscriptionHeaders(headers(
		"subscription-userinfo", "upload=100;download=200;total=9000;expire=2000000000",
	))

	require.NotNil(t, u.Traffic)
	assert.Equal(t, model.TrafficUsage{Upload: 100, Download: 200, Total: 9000}, *u.Traffic)
	require.NotNil(t, u.Expire)
	assert.Equal(t, "2033-05-18T03:33:20.000Z", *u.Expire)
}

func TestParseSubscriptionHeaders_MissingKeysDefaultToZero(t *testing.T) {
	u := ParseSubscriptionHeaders(headers("subscription-userinfo", "upload=100"))

	require.NotNil(t, u.Traffic)
	assert.Equal(t, model.TrafficUsage{Upload: 100}, *u.Traffic)
	assert.Nil(t, u.Expire)
}

func TestParseSubscriptionHeaders_TolerantFields(t *testing.T) {
	u := ParseSubscriptionHeaders(headers(
		"subscription-userinfo", " upload = 10 ; download=abc; total=-5; =7; foo=bar; upload=12.9; expire=never",
	))

	require.NotNil(t, u.Traffic)
	assert.Equal(t, model.TrafficUsage{Upload: 12, Download: 0, Total: 0}, *u.Traffic)
	assert.Nil(t, u.Expire)
}

func TestParseSubscriptionHeaders_NoHeaders(t *testing.T) {
	u := ParseSubscriptionHeaders(http.Header{})

	assert.Nil(t, u.Traffic)
	assert.Nil(t, u.Expire)
}

func TestParseSubscriptionHeaders_ExpiresHeaderOverrides(t *testing.T) {
	u := ParseSubscriptionHeaders(headers(
		"subscription-userinfo", "upload=1;expire=2000000000",
		"x-subscription-expires", "2030-01-02T03:04:05Z",
	))

	require.NotNil(t, u.Expire)
	assert.Equal(t, "2030-01-02T03:04:05.000Z", *u.Expire)
}

func TestParseSubscriptionHeaders_ExpiresHeaderAlone(t *testing.T) {
	u := ParseSubscriptionHeaders(headers("x-subscription-expires", "1700000000"))

	assert.Nil(t, u.Traffic)
	require.NotNil(t, u.Expire)
	assert.Equal(t, "2023-11-14T22:13:20.000Z", *u.Expire)
}

func TestParseSubscriptionHeaders_UnparseableExpiresKeepsUserinfo(t *testing.T) {
	u := ParseSubscriptionHeaders(headers(
		"subscription-userinfo", "expire=2000000000",
		"x-subscription-expires", "garbage",
	))

	require.NotNil(t, u.Expire)
	assert.Equal(t, "2033-05-18T03:33:20.000Z", *u.Expire)
}

func TestParseExpire(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2000000000", "2033-05-18T03:33:20.000Z", true},
		{"1700000000.5", "2023-11-14T22:13:20.500Z", true},
		{"2024-03-01", "2024-03-01T00:00:00.000Z", true},
		{"2024-03-01T10:00:00+02:00", "2024-03-01T08:00:00.000Z", true},
		{"0", "", false},
		{"-5", "", false},
		{"NaN", "", false},
		{"1e300", "", false},
		{"", "", false},
		{"not a date", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, ok := ParseExpire(tc.in)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestRecordUpdate_Apply(t *testing.T) {
	note := "keep me"
	rec := model.UserRecord{
		Sub:     "https://example.com/sub",
		Expire:  "2030-01-01T00:00:00.000Z",
		Note:    &note,
		Traffic: model.TrafficUsage{Upload: 1, Download: 2, Total: 3},
	}

	traffic := model.TrafficUsage{Upload: 10}
	merged := RecordUpdate{Traffic: &traffic}.Apply(rec)

	assert.Equal(t, traffic, merged.Traffic)
	assert.Equal(t, rec.Expire, merged.Expire)
	assert.Equal(t, rec.Sub, merged.Sub)
	assert.Equal(t, &note, merged.Note)

	assert.Equal(t, rec, RecordUpdate{}.Apply(rec))
}
