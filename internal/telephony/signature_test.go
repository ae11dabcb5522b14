package telephony

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

// sign follows Twilio's scheme: HMAC-SHA1 over the URL followed by the
// sorted POST parameters, base64 encoded.
func sign(token, fullURL string, form url.Values) string {
	keys := make([]string, 0, len(form))
	for k := range form {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(fullURL)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(form.Get(k))
	}
	mac := hmac.New(sha1.New, []byte(token))
	mac.Write([]byte(b.String()))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func signedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/webhook/voice", RequireSignature("auth-token", "https://shop.example"), func(c *gin.Context) {
		c.String(http.StatusOK, c.PostForm("CallSid"))
	})
	return r
}

func TestRequireSignatureAcceptsValidRequest(t *testing.T) {
	form := url.Values{"CallSid": {"CA123"}, "From": {"+15551234567"}}
	req := httptest.NewRequest(http.MethodPost, "/webhook/voice", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(signatureHeader, sign("auth-token", "https://shop.example/webhook/voice", form))

	w := httptest.NewRecorder()
	signedRouter().ServeHTTP(w, req)
	if w.Code != http.StatusOK || w.Body.String() != "CA123" {
		t.Fatalf("expected pass-through, got %d %q", w.Code, w.Body.String())
	}
}

func TestRequireSignatureRejects(t *testing.T) {
	form := url.Values{"CallSid": {"CA123"}}
	cases := map[string]string{
		"missing":   "",
		"wrong key": sign("other-token", "https://shop.example/webhook/voice", form),
		"wrong url": sign("auth-token", "https://evil.example/webhook/voice", form),
	}
	for name, sig := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/webhook/voice", strings.NewReader(form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			if sig != "" {
				req.Header.Set(signatureHeader, sig)
			}
			w := httptest.NewRecorder()
			signedRouter().ServeHTTP(w, req)
			if w.Code != http.StatusForbidden {
				t.Fatalf("expected 403, got %d", w.Code)
			}
		})
	}
}
