package adminapi

import (
	"crypto/hmac"
	"crypto/sha1" //nolint:gosec // the admin API signs requests with HMAC-SHA1
	"encoding/base64"
	"encoding/hex"
	"net/url"
	"sort"
	"strings"
)

// CanonicalParams renders params sorted by key with RFC 3986 escaping, the
// form used both for signing and on the wire.
func CanonicalParams(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var parts []string
	for _, k := range keys {
		vals := append([]string(nil), params[k]...)
		sort.Strings(vals)
		for _, v := range vals {
			parts = append(parts, escape(k)+"="+escape(v))
		}
	}
	return strings.Join(parts, "&")
}

func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// CanonicalRequest builds the string that is signed for a request.
func CanonicalRequest(date, method, host, path string, params url.Values) string {
	return strings.Join([]string{
		date,
		strings.ToUpper(method),
		strings.ToLower(host),
		path,
		CanonicalParams(params),
	}, "\n")
}

// Sign returns the hex HMAC-SHA1 signature of the canonical request.
func Sign(skey, date, method, host, path string, params url.Values) string {
	mac := hmac.New(sha1.New, []byte(skey))
	mac.Write([]byte(CanonicalRequest(date, method, host, path, params)))
	return hex.EncodeToString(mac.Sum(nil))
}

// AuthorizationHeader returns the Basic authorization value for a signature.
func AuthorizationHeader(ikey, sig string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(ikey+":"+sig))
}

// ParseAuthorization extracts the integration key and signature from an
// Authorization header.
func ParseAuthorization(header string) (ikey, sig string, ok bool) {
	raw, found := strings.CutPrefix(header, "Basic ")
	if !found {
		return "", "", false
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return "", "", false
	}
	ikey, sig, ok = strings.Cut(string(decoded), ":")
	return ikey, sig, ok
}

// Verify reports whether sig is the valid signature for the request.
func Verify(skey, sig, date, method, host, path string, params url.Values) bool {
	want := Sign(skey, date, method, host, path, params)
	return hmac.Equal([]byte(want), []byte(sig))
}
