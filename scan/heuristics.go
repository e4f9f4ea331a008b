package scan

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// Advisory signals attached to URL scans. Warnings never change the verdict;
// they travel alongside it so the UI can explain itself.

var phishingKeywords = []string{
	"login",
	"signin",
	"verify",
	"account",
	"secure",
	"update",
	"wallet",
	"password",
	"banking",
	"confirm",
	"recovery",
	"invoice",
}

var shortenerHosts = map[string]struct{}{
	"bit.ly":      {},
	"tinyurl.com": {},
	"t.co":        {},
	"goo.gl":      {},
	"is.gd":       {},
	"ow.ly":       {},
	"cutt.ly":     {},
	"rb.gy":       {},
}

var suspiciousTLDs = map[string]struct{}{
	"zip":     {},
	"mov":     {},
	"tk":      {},
	"ml":      {},
	"ga":      {},
	"cf":      {},
	"gq":      {},
	"top":     {},
	"xyz":     {},
	"country": {},
}

var ipHostPattern = regexp.MustCompile(`^\d{1,3}(\.\d{1,3}){3}$`)

var keywordMatcher = ahocorasick.NewStringMatcher(phishingKeywords)

// inspectURL produces advisory warnings for a URL payload. It is pure and
// never blocks; a URL that fails to parse yields no warnings.
func inspectURL(rawURL string) []string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	host := strings.ToLower(parsed.Hostname())

	var warnings []string

	if _, ok := shortenerHosts[host]; ok {
		warnings = append(warnings, fmt.Sprintf("link shortener host %q hides the destination", host))
	}
	if ipHostPattern.MatchString(host) {
		warnings = append(warnings, "host is a raw IP address instead of a domain name")
	}
	if dot := strings.LastIndex(host, "."); dot != -1 {
		if _, ok := suspiciousTLDs[host[dot+1:]]; ok {
			warnings = append(warnings, fmt.Sprintf("top-level domain %q is frequently abused", host[dot+1:]))
		}
	}
	if warning, ok := keywordWarning(rawURL); ok {
		warnings = append(warnings, warning)
	}
	if strings.Count(rawURL, "%") >= 5 {
		warnings = append(warnings, "heavy percent-encoding may be obscuring the destination")
	}

	return warnings
}

// inspectBody scans free-form payload text (plain text, SMS bodies, mail
// subjects and bodies) for the same phishing vocabulary.
func inspectBody(texts ...string) []string {
	joined := strings.Join(texts, " ")
	if strings.TrimSpace(joined) == "" {
		return nil
	}
	if warning, ok := keywordWarning(joined); ok {
		return []string{warning}
	}
	return nil
}

func keywordWarning(payload string) (string, bool) {
	hits := keywordMatcher.Match([]byte(strings.ToLower(payload)))
	if len(hits) == 0 {
		return "", false
	}
	seen := make(map[string]struct{}, len(hits))
	var words []string
	for _, idx := range hits {
		word := phishingKeywords[idx]
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	return fmt.Sprintf("contains phishing-associated keywords: %s", strings.Join(words, ", ")), true
}
