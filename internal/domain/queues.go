package domain

import "strings"

// QueueSet is the configured set of queue categories and their service
// catalogs. Categories partition tokens and sequence numbering; they are
// configuration, not hardcoded logic.
type QueueSet struct {
	categories []string
	services   map[string][]string
}

// NewQueueSet builds a QueueSet from configuration. Category names are
// normalized to lower case.
func NewQueueSet(categories []string, services map[string][]string) QueueSet {
	normalized := make([]string, 0, len(categories))
	for _, category := range categories {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(category)))
	}
	catalog := make(map[string][]string, len(services))
	for category, labels := range services {
		catalog[strings.ToLower(category)] = labels
	}
	return QueueSet{categories: normalized, services: catalog}
}

// Contains reports whether the category is a configured queue.
func (q QueueSet) Contains(category string) bool {
	for _, c := range q.categories {
		if c == category {
			return true
		}
	}
	return false
}

// Categories returns the configured queue categories.
func (q QueueSet) Categories() []string {
	out := make([]string, len(q.categories))
	copy(out, q.categories)
	return out
}

// ServicesFor returns the service catalog for a category.
func (q QueueSet) ServicesFor(category string) []string {
	labels := q.services[strings.ToLower(category)]
	out := make([]string, len(labels))
	copy(out, labels)
	return out
}

// HasService reports whether a service label is offered for the category.
// Categories with an empty catalog accept any non-empty label.
func (q QueueSet) HasService(category, label string) bool {
	labels := q.services[strings.ToLower(category)]
	if len(labels) == 0 {
		return label != ""
	}
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
