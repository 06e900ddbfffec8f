package openproject

import (
	"fmt"
	"time"
)

// WorkPackage is the subset of a v3 work package the importer consumes.
type WorkPackage struct {
	ID      int64  `json:"id"`
	Subject string `json:"subject"`
}

// User is a v3 principal.
type User struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Login string `json:"login"`
}

type Project struct {
	ID         int64  `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
}

// TimeEntry is an existing v3 time entry. Comment.Raw carries the source
// entry id prefix written at import time, which makes entries attributable
// to their Toggl origin across runs.
type TimeEntry struct {
	ID      int64   `json:"id"`
	Hours   string  `json:"hours"`
	SpentOn string  `json:"spentOn"`
	Comment Comment `json:"comment"`
}

type Comment struct {
	Raw string `json:"raw"`
}

// TimeEntryRequest is the creation payload for POST /api/v3/time_entries.
// Hours uses the ISO-8601 duration form PT<seconds>S.
type TimeEntryRequest struct {
	Links     Links     `json:"_links"`
	Hours     string    `json:"hours"`
	StartTime time.Time `json:"startTime"`
	StopTime  time.Time `json:"stopTime"`
	Comment   Comment   `json:"comment"`
	SpentOn   string    `json:"spentOn"`
}

type Links struct {
	WorkPackage Link  `json:"workPackage"`
	Activity    Link  `json:"activity"`
	User        *Link `json:"user,omitempty"`
	Project     *Link `json:"project,omitempty"`
}

type Link struct {
	Href string `json:"href"`
}

func WorkPackageHref(id int64) string {
	return fmt.Sprintf("/api/v3/work_packages/%d", id)
}

func ActivityHref(id int64) string {
	return fmt.Sprintf("/api/v3/time_entries/activities/%d", id)
}

func UserHref(id int64) string {
	return fmt.Sprintf("/api/v3/users/%d", id)
}

func ProjectHref(id int64) string {
	return fmt.Sprintf("/api/v3/projects/%d", id)
}

// collection is the v3 HAL collection envelope.
type collection[T any] struct {
	Total    int         `json:"total"`
	Count    int         `json:"count"`
	PageSize int         `json:"pageSize"`
	Offset   int         `json:"offset"`
	Embedded embedded[T] `json:"_embedded"`
}

type embedded[T any] struct {
	Elements []T `json:"elements"`
}
