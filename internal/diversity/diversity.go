// Package diversity computes the email-domain diversity index of a set of students.
//
// The index is the share of distinct, non-empty email domains over the number of
// students, as a percentage rounded to two decimals. Everything here is pure.
package diversity

import (
	"math"
	"sort"
	"strings"

	"github.com/bassista/go_courses/internal/repository"
)

// DomainCount is the number of students sharing one email domain.
type DomainCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

// Details breaks an index down by domain.
type Details struct {
	TotalStudents  int           `json:"totalStudents"`
	UniqueDomains  int           `json:"uniqueDomains"`
	Domains        []DomainCount `json:"domains"`
	DiversityIndex float64       `json:"diversityIndex"`
}

// Domain returns the lower-cased part of email after the first '@', or "" when
// there is no '@'.
func Domain(email string) string {
	_, domain, found := strings.Cut(email, "@")
	if !found {
		return ""
	}
	return strings.ToLower(domain)
}

// Index returns the diversity index of students. An empty set scores exactly 0.
// Students whose email has no domain still count toward the denominator.
func Index(students []repository.Student) float64 {
	if len(students) == 0 {
		return 0
	}
	domains := make(map[string]struct{}, len(students))
	for _, s := range students {
		if d := Domain(s.Email); d != "" {
			domains[d] = struct{}{}
		}
	}
	return round2(float64(len(domains)) / float64(len(students)) * 100)
}

// Breakdown counts students per domain, most common first, ties by name.
// The returned Details has DiversityIndex unset; callers fill it from the cache.
func Breakdown(students []repository.Student) Details {
	counts := map[string]int{}
	for _, s := range students {
		if d := Domain(s.Email); d != "" {
			counts[d]++
		}
	}

	domains := make([]DomainCount, 0, len(counts))
	for d, n := range counts {
		domains = append(domains, DomainCount{Domain: d, Count: n})
	}
	sort.Slice(domains, func(i, j int) bool {
		if domains[i].Count != domains[j].Count {
			return domains[i].Count > domains[j].Count
		}
		return domains[i].Domain < domains[j].Domain
	})

	return Details{
		TotalStudents: len(students),
		UniqueDomains: len(domains),
		Domains:       domains,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
