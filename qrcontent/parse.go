// Package qrcontent classifies raw decoded QR payloads into typed content.
// Parsing is pure and total: every input maps to exactly one content type and
// nothing here performs I/O or panics.
package qrcontent

import (
	"net/url"
	"regexp"
	"strings"
)

// Type is the closed set of recognized content kinds.
type Type string

const (
	TypeURL    Type = "url"
	TypeSMS    Type = "sms"
	TypeTel    Type = "tel"
	TypeMailto Type = "mailto"
	TypeWiFi   Type = "wifi"
	TypeText   Type = "text"
)

// Content is the structured representation of one decoded payload. Original
// always holds the trimmed raw string; exactly one of the typed fields is
// populated, matching Type.
type Content struct {
	Type     Type       `json:"content_type"`
	Original string     `json:"original_content"`
	URL      *URLData   `json:"url,omitempty"`
	SMS      *SMSData   `json:"sms,omitempty"`
	Tel      *TelData   `json:"tel,omitempty"`
	Email    *EmailData `json:"mailto,omitempty"`
	WiFi     *WiFiData  `json:"wifi,omitempty"`
	Text     *TextData  `json:"text,omitempty"`
}

type URLData struct {
	URL string `json:"url"`
}

type SMSData struct {
	Number string `json:"number"`
	Body   string `json:"body,omitempty"`
}

type TelData struct {
	Number string `json:"number"`
}

type EmailData struct {
	Address string `json:"address"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

type WiFiData struct {
	SSID           string `json:"ssid"`
	Authentication string `json:"authentication"`
	Password       string `json:"password,omitempty"`
	Hidden         bool   `json:"hidden"`
}

type TextData struct {
	Text string `json:"text"`
}

// Classification order is a policy decision: explicit schemes win over
// inferred shapes, and URL detection runs first so that scheme-bearing
// payloads never fall into the permissive phone/email patterns.
var urlSchemes = []string{
	"http://",
	"https://",
	"ftp://",
	"file://",
	"market://",
	"itms-apps://",
	"appstore://",
}

var (
	emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-()]+$`)
)

// Parse classifies raw into exactly one content type. Unrecognized input
// falls back to text; Parse never fails.
func Parse(raw string) Content {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	for _, scheme := range urlSchemes {
		if strings.HasPrefix(lower, scheme) {
			return Content{Type: TypeURL, Original: trimmed, URL: &URLData{URL: trimmed}}
		}
	}

	if strings.HasPrefix(lower, "smsto:") {
		return Content{Type: TypeSMS, Original: trimmed, SMS: parseSMSTo(trimmed)}
	}
	if strings.HasPrefix(lower, "sms:") {
		return Content{Type: TypeSMS, Original: trimmed, SMS: parseSMS(trimmed)}
	}

	if strings.HasPrefix(lower, "tel:") {
		return Content{Type: TypeTel, Original: trimmed, Tel: &TelData{Number: trimmed[len("tel:"):]}}
	}

	if strings.HasPrefix(lower, "mailto:") {
		return Content{Type: TypeMailto, Original: trimmed, Email: parseMailto(trimmed)}
	}
	if strings.HasPrefix(trimmed, "MATMSG:") {
		return Content{Type: TypeMailto, Original: trimmed, Email: parseMatmsg(trimmed)}
	}

	if strings.HasPrefix(strings.ToUpper(trimmed), "WIFI:") {
		return Content{Type: TypeWiFi, Original: trimmed, WiFi: parseWiFi(trimmed)}
	}

	if emailPattern.MatchString(trimmed) {
		return Content{Type: TypeMailto, Original: trimmed, Email: &EmailData{Address: trimmed}}
	}

	if trimmed != "" && phonePattern.MatchString(trimmed) {
		if digits := countDigits(trimmed); digits >= 7 && digits <= 15 {
			return Content{Type: TypeTel, Original: trimmed, Tel: &TelData{Number: trimmed}}
		}
	}

	return Content{Type: TypeText, Original: trimmed, Text: &TextData{Text: trimmed}}
}

// parseSMS handles the sms:<number>?body=... form.
func parseSMS(raw string) *SMSData {
	rest := raw[len("sms:"):]
	sms := &SMSData{Number: rest}
	if idx := strings.Index(rest, "?"); idx >= 0 {
		sms.Number = rest[:idx]
		sms.Body = queryParam(rest[idx+1:], "body")
	}
	return sms
}

// parseSMSTo handles SMSTO:<number>:<body>. The body may itself contain
// colons, so only the first colon after the number is a delimiter.
func parseSMSTo(raw string) *SMSData {
	rest := raw[len("smsto:"):]
	parts := strings.SplitN(rest, ":", 2)
	sms := &SMSData{Number: parts[0]}
	if len(parts) > 1 {
		sms.Body = parts[1]
	}
	return sms
}

func parseMailto(raw string) *EmailData {
	rest := raw[len("mailto:"):]
	email := &EmailData{Address: rest}
	if idx := strings.Index(rest, "?"); idx >= 0 {
		email.Address = rest[:idx]
		query := rest[idx+1:]
		email.Subject = queryParam(query, "subject")
		email.Body = queryParam(query, "body")
	}
	return email
}

// parseMatmsg handles the MATMSG:TO:...;SUB:...;BODY:...;; format.
func parseMatmsg(raw string) *EmailData {
	email := &EmailData{}
	for _, part := range strings.Split(raw[len("MATMSG:"):], ";") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "TO":
			email.Address = kv[1]
		case "SUB":
			email.Subject = kv[1]
		case "BODY":
			email.Body = kv[1]
		}
	}
	return email
}

func parseWiFi(raw string) *WiFiData {
	wifi := &WiFiData{}
	for _, part := range strings.Split(raw[len("WIFI:"):], ";") {
		kv := strings.SplitN(part, ":", 2)
		if len(kv) != 2 {
			continue
		}
		switch strings.ToUpper(kv[0]) {
		case "S":
			wifi.SSID = kv[1]
		case "T":
			wifi.Authentication = kv[1]
		case "P":
			wifi.Password = kv[1]
		case "H":
			hidden := strings.ToLower(kv[1])
			wifi.Hidden = hidden == "true" || hidden == "1"
		}
	}
	return wifi
}

// queryParam extracts one percent-decoded parameter from a query-string
// suffix. Malformed encodings degrade to an empty value, never an error.
func queryParam(query, key string) string {
	// ParseQuery keeps well-formed pairs even when it reports an error, so a
	// broken escape in one parameter only blanks that parameter.
	values, _ := url.ParseQuery(query)
	return values.Get(key)
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
