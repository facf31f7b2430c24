package policy

import (
	"errors"
	"fmt"
	"strings"
)

type ArticleStatus string

const (
	StatusDraft       ArticleStatus = "draft"
	StatusPending     ArticleStatus = "pending"
	StatusUnderReview ArticleStatus = "under_review"
	StatusPublished   ArticleStatus = "published"
	StatusRejected    ArticleStatus = "rejected"
)

var ErrIllegalTransition = errors.New("illegal status transition")

var transitions = map[ArticleStatus][]ArticleStatus{
	StatusDraft:       {StatusPending, StatusPublished},
	StatusPending:     {StatusUnderReview, StatusPublished, StatusRejected},
	StatusUnderReview: {StatusPending, StatusPublished, StatusRejected},
	StatusRejected:    {StatusDraft, StatusPending},
	StatusPublished:   nil,
}

// ParseArticleStatus accepts the wire form ("under_review") as well as the
// display form ("Under Review") in any case.
func ParseArticleStatus(raw string) (ArticleStatus, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, "-", "_")
	st := ArticleStatus(s)
	if _, ok := transitions[st]; !ok {
		return "", fmt.Errorf("invalid status %q", raw)
	}
	return st, nil
}

func (s ArticleStatus) Display() string {
	switch s {
	case StatusDraft:
		return "Draft"
	case StatusPending:
		return "Pending"
	case StatusUnderReview:
		return "Under Review"
	case StatusPublished:
		return "Published"
	case StatusRejected:
		return "Rejected"
	}
	return string(s)
}

// CanTransition reports whether an article may move from one status to
// another. Staying in the same status is always allowed.
func CanTransition(from, to ArticleStatus) bool {
	if from == to {
		_, ok := transitions[from]
		return ok
	}
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func Transition(from, to ArticleStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, from.Display(), to.Display())
	}
	return nil
}

type NewsletterStatus string

const (
	NewsletterDraft NewsletterStatus = "Draft"
	NewsletterSent  NewsletterStatus = "Sent"
)
