package dingtalk

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strconv"
)

// Sign computes the webhook signature for the given secret and
// epoch-millisecond timestamp, percent-encoded for direct inclusion in a
// query string. Per the DingTalk custom-robot security documentation:
//
//  1. stringToSign = "<timestampMs>\n<secret>"
//  2. signature = base64(hmac_sha256(key=secret, data=stringToSign))
//  3. percent-encode the base64 result
//
// The function is pure and deterministic. An empty secret still produces a
// well-defined (if useless) signature, since HMAC accepts keys of any length.
func Sign(secret string, timestampMs int64) string {
	return url.QueryEscape(rawSign(secret, timestampMs))
}

// rawSign returns the base64 signature before percent-encoding. URL
// construction through url.Values uses this form so the value is not
// escaped twice.
func rawSign(secret string, timestampMs int64) string {
	stringToSign := fmt.Sprintf("%d\n%s", timestampMs, secret)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(stringToSign))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// signQuery adds timestamp and sign parameters for the given instant.
func signQuery(q url.Values, secret string, timestampMs int64) {
	q.Set("timestamp", strconv.FormatInt(timestampMs, 10))
	q.Set("sign", rawSign(secret, timestampMs))
}
