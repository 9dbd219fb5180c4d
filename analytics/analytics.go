// Package analytics records privacy-friendly view counts for published
// documents. Visitors are identified only by salted hashes.
package analytics

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"
)

var salt struct {
	once  sync.Once
	value string
}

// InitSalt loads or generates the persistent salt used for IP hashing.
// Call it once at startup before recording any visit.
func InitSalt(store *Store) error {
	var initErr error
	salt.once.Do(func() {
		s, err := store.GetSetting("hash_salt")
		if err != nil {
			initErr = fmt.Errorf("read hash salt: %w", err)
			return
		}
		if s == "" {
			b := make([]byte, 32)
			if _, err := rand.Read(b); err != nil {
				initErr = fmt.Errorf("generate salt: %w", err)
				return
			}
			s = hex.EncodeToString(b)
			if err := store.SetSetting("hash_salt", s); err != nil {
				initErr = fmt.Errorf("store hash salt: %w", err)
				return
			}
		}
		salt.value = s
	})
	return initErr
}

// Meta is what a public page request tells us about its visitor.
type Meta struct {
	IP        string
	UserAgent string
	Referrer  string
}

// Visit is a single human view of a document.
type Visit struct {
	DocumentID string
	VisitorID  string
	Browser    string
	OS         string
	Device     string
	Referrer   string
	Timestamp  time.Time
}

// BotVisit is a crawler fetch of a document.
type BotVisit struct {
	DocumentID string
	BotName    string
	IPHash     string
	Timestamp  time.Time
}

// Stats summarizes views over a period, for one document or all of them.
type Stats struct {
	Period         string          `json:"period"`
	DocumentID     string          `json:"documentId,omitempty"`
	TotalViews     int             `json:"totalViews"`
	UniqueVisitors int             `json:"uniqueVisitors"`
	BotVisits      int             `json:"botVisits"`
	TopDocuments   []DocumentStat  `json:"topDocuments"`
	Browsers       []DimensionStat `json:"browsers"`
	Devices        []DimensionStat `json:"devices"`
	Referrers      []DimensionStat `json:"referrers"`
	DailyViews     []DailyView     `json:"dailyViews"`
}

// DocumentStat is a view count for one document.
type DocumentStat struct {
	DocumentID string `json:"documentId"`
	Views      int    `json:"views"`
}

// DimensionStat is a breakdown bucket such as a browser name.
type DimensionStat struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// DailyView is the number of views in one day or hour bucket.
type DailyView struct {
	Date  string `json:"date"`
	Views int    `json:"views"`
}

// HashIP returns a salted SHA-256 hash of ip.
func HashIP(ip string) string {
	h := sha256.Sum256([]byte(salt.value + ip))
	return hex.EncodeToString(h[:])[:16]
}

// VisitorID derives an anonymous visitor id from ip and user agent.
func VisitorID(ip, userAgent string) string {
	h := sha256.Sum256([]byte(salt.value + ip + "|" + userAgent))
	return hex.EncodeToString(h[:])[:16]
}

// ParseUserAgent extracts browser, OS and device class from ua.
func ParseUserAgent(ua string) (browser, os, device string) {
	ua = strings.ToLower(ua)

	// More specific browsers first: Edge and Opera UAs also say "chrome".
	switch {
	case strings.Contains(ua, "firefox"):
		browser = "Firefox"
	case strings.Contains(ua, "opera") || strings.Contains(ua, "opr/"):
		browser = "Opera"
	case strings.Contains(ua, "edg"):
		browser = "Edge"
	case strings.Contains(ua, "chrome"):
		browser = "Chrome"
	case strings.Contains(ua, "safari"):
		browser = "Safari"
	default:
		browser = "Other"
	}

	// Android UAs contain "linux".
	switch {
	case strings.Contains(ua, "windows"):
		os = "Windows"
	case strings.Contains(ua, "android"):
		os = "Android"
	case strings.Contains(ua, "iphone") || strings.Contains(ua, "ipad"):
		os = "iOS"
	case strings.Contains(ua, "macintosh") || strings.Contains(ua, "mac os"):
		os = "macOS"
	case strings.Contains(ua, "linux"):
		os = "Linux"
	default:
		os = "Other"
	}

	// iPad UAs contain "mobile".
	switch {
	case strings.Contains(ua, "tablet") || strings.Contains(ua, "ipad"):
		device = "Tablet"
	case strings.Contains(ua, "mobile"):
		device = "Mobile"
	default:
		device = "Desktop"
	}
	return
}

// botPatterns is checked in order, so specific crawlers win over the
// generic fragments at the end.
var botPatterns = []struct{ pattern, name string }{
	{"googlebot", "Googlebot"},
	{"bingbot", "Bingbot"},
	{"yandex", "Yandex"},
	{"baidu", "Baidu"},
	{"duckduckbot", "DuckDuckBot"},
	{"facebookexternalhit", "Facebook"},
	{"twitterbot", "Twitterbot"},
	{"linkedinbot", "LinkedIn"},
	{"slackbot", "Slack"},
	{"discordbot", "Discord"},
	{"ahrefsbot", "Ahrefs"},
	{"semrushbot", "SEMrush"},
	{"mj12bot", "Majestic"},
	{"dotbot", "Moz"},
	{"slurp", "Yahoo Slurp"},
	{"crawler", "Generic Crawler"},
	{"spider", "Generic Spider"},
	{"crawl", "Generic Crawler"},
	{"scrape", "Scraper"},
	{"bot", "Other Bot"},
}

// BotName reports the crawler name for ua, or "" for a likely human.
func BotName(ua string) string {
	ua = strings.ToLower(ua)
	if ua == "" {
		return "Empty User-Agent"
	}
	for _, b := range botPatterns {
		if strings.Contains(ua, b.pattern) {
			return b.name
		}
	}
	return ""
}

// IsBot reports whether ua is likely a crawler.
func IsBot(ua string) bool {
	return BotName(ua) != ""
}

var referrerDomain = regexp.MustCompile(`^https?://(?:www\.)?([^/:]+)`)

// CleanReferrer reduces a referrer URL to a source name.
func CleanReferrer(ref string) string {
	if ref == "" {
		return "Direct"
	}
	lower := strings.ToLower(ref)
	for _, s := range []struct{ needle, name string }{
		{"google.", "Google"},
		{"bing.", "Bing"},
		{"duckduckgo.", "DuckDuckGo"},
		{"instagram.", "Instagram"},
		{"://t.co/", "Twitter"},
		{"facebook.", "Facebook"},
		{"github.", "GitHub"},
	} {
		if strings.Contains(lower, s.needle) {
			return s.name
		}
	}
	if m := referrerDomain.FindStringSubmatch(lower); len(m) > 1 {
		return m[1]
	}
	return "Other"
}
