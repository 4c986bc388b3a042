package discovery

import (
	"net/url"
	"strings"
)

// contentFarmDomains publish generic "Top N interview questions" listicles.
// Results from them are purged before auditing.
var contentFarmDomains = []string{
	"datacamp.com",
	"guru99.com",
	"intellipaat.com",
	"interviewbit.com",
	"geeksforgeeks.org",
	"theysaid.io",
	"interviewsidekick.com",
	"theinterviewguys.com",
	"guvi.in",
	"simplilearn.com",
	"analyticsvidhya.com",
	"javatpoint.com",
	"edureka.co",
	"mindmajix.com",
	"careerride.com",
	"ambitionbox.com/advice",
}

// trustedDomains host first-hand interview and employer reviews
var trustedDomains = []string{
	"glassdoor.com",
	"glassdoor.co.uk",
	"glassdoor.co.in",
	"indeed.com",
	"linkedin.com",
	"levels.fyi",
	"teamblind.com",
	"comparably.com",
	"ambitionbox.com",
}

// noiseMarkers identify general-knowledge content unrelated to employment
var noiseMarkers = []string{
	"recipe",
	"lyrics",
	"horoscope",
	"stock price",
	"share price",
	"box office",
	"weather forecast",
	"movie review",
	"coupon",
	"promo code",
	"wikipedia.org",
	"imdb.com",
	"amazon.com/dp/",
}

// extractDomainFromURL returns the host of a URL without a leading www.
func extractDomainFromURL(urlStr string) string {
	if urlStr == "" {
		return ""
	}

	if !strings.Contains(urlStr, "://") {
		urlStr = "https://" + urlStr
	}

	parsed, err := url.Parse(urlStr)
	if err != nil {
		return ""
	}

	return strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
}

// matchesDomain reports whether host equals domain or is a subdomain of it
func matchesDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// IsContentFarm reports whether a URL belongs to a known listicle site
func IsContentFarm(urlStr string) bool {
	host := extractDomainFromURL(urlStr)
	if host == "" {
		return false
	}
	lower := strings.ToLower(urlStr)
	for _, d := range contentFarmDomains {
		if domain, path, ok := strings.Cut(d, "/"); ok {
			if matchesDomain(host, domain) && strings.Contains(lower, domain+"/"+path) {
				return true
			}
			continue
		}
		if matchesDomain(host, d) {
			return true
		}
	}
	return false
}

// IsTrustedDomain reports whether a URL belongs to a career-information site
func IsTrustedDomain(urlStr string) bool {
	host := extractDomainFromURL(urlStr)
	if host == "" {
		return false
	}
	for _, d := range trustedDomains {
		if matchesDomain(host, d) {
			return true
		}
	}
	return false
}

// IsNoise reports whether an evidence item looks off-topic
func IsNoise(e Evidence) bool {
	text := strings.ToLower(e.Title + " " + e.URL)
	for _, marker := range noiseMarkers {
		if strings.Contains(text, marker) {
			return true
		}
	}
	return false
}
