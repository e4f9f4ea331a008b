package trust

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

type listDocument struct {
	Version string   `json:"version"`
	Domains []string `json:"domains"`
}

// FetchList retrieves a published trusted-domain list. It returns the domain
// entries and the document version. Callers merge the result with the
// configured allowlist; fetch failures leave the configured list in effect.
func FetchList(listURL string) ([]string, string, error) {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(listURL)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status: %s", resp.Status)
	}
	var doc listDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, "", err
	}
	if len(doc.Domains) == 0 {
		return nil, "", fmt.Errorf("trust list %s contains no domains", listURL)
	}
	return doc.Domains, doc.Version, nil
}
