package hmac

import (
	cryptoHMAC "crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// QueryParam is the query parameter a signature is carried in
const QueryParam = "hmac"

// Signer signs request URLs, and verifies the signature of incoming requests
type Signer struct {
	Key []byte
}

func (s *Signer) mac(message string) string {
	mac := cryptoHMAC.New(sha256.New, s.Key)
	mac.Write([]byte(message))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Sign returns path with the query and a signature of both appended
func (s *Signer) Sign(path string, query url.Values) string {
	signed := url.Values{}
	for key, values := range query {
		signed[key] = values
	}
	signed.Set(QueryParam, s.mac(path+Query(query)))

	return path + Query(signed)
}

// Verify reports whether the request carries a valid signature of its path and remaining query parameters
func (s *Signer) Verify(r *http.Request) bool {
	query := r.URL.Query()
	mac := query.Get(QueryParam)
	if mac == "" {
		return false
	}
	query.Del(QueryParam)

	expected := s.mac(r.URL.Path + Query(query))
	return cryptoHMAC.Equal([]byte(mac), []byte(expected))
}

// Query encodes v as a query string with sorted keys, prefixed by "?" unless v is empty.
// Unlike url.Values.Encode, a parameter with an empty value is encoded as "key" rather than "key=",
// so that flags like "?verify" sign the same way they are written.
func Query(v url.Values) string {
	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var buf strings.Builder
	for _, key := range keys {
		if buf.Len() > 0 {
			buf.WriteByte('&')
		} else {
			buf.WriteByte('?')
		}

		buf.WriteString(url.QueryEscape(key))
		if value := v.Get(key); value != "" {
			buf.WriteByte('=')
			buf.WriteString(url.QueryEscape(value))
		}
	}

	return buf.String()
}
