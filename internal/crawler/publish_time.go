package crawler

import (
	"strconv"
	"strings"
	"time"

	"sjsage522/wuweimonitor/helpers"
)

// PublishTimeUnknown is returned when the publish time cannot be decoded
const PublishTimeUnknown = "解析失败"

// productIDTimestampDigits is the length of the Unix timestamp prefix of a product ID
const productIDTimestampDigits = 10

// DecodePublishTime derives the publish time from a product URL such as
// https://www.jiaoyimao.com/jg2000595-5/1754308923230271.html, whose ID starts
// with the Unix timestamp in seconds. The result is formatted with TimeLayout
// in loc (time.Local when nil). Any failure yields PublishTimeUnknown.
func DecodePublishTime(productURL string, loc *time.Location) string {
	seconds, ok := productTimestamp(productURL)
	if !ok {
		return PublishTimeUnknown
	}
	if loc == nil {
		loc = time.Local
	}
	return time.Unix(seconds, 0).In(loc).Format(TimeLayout)
}

func productTimestamp(productURL string) (int64, bool) {
	segment, err := helpers.LastPathSegment(productURL)
	if err != nil {
		return 0, false
	}

	id := strings.TrimSuffix(segment, ".html")
	if len(id) < productIDTimestampDigits {
		return 0, false
	}

	prefix := id[:productIDTimestampDigits]
	for i := 0; i < len(prefix); i++ {
		if prefix[i] < '0' || prefix[i] > '9' {
			return 0, false
		}
	}

	seconds, err := strconv.ParseInt(prefix, 10, 64)
	if err != nil {
		return 0, false
	}
	return seconds, true
}
