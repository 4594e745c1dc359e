package model

import (
	"strings"
	"time"
)

type RequestStatus string

const (
	StatusNew        RequestStatus = "new"
	StatusInProgress RequestStatus = "in_progress"
	StatusDone       RequestStatus = "done"
)

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusNew, StatusInProgress, StatusDone:
		return true
	}
	return false
}

// Coordinates is a (latitude, longitude) pair, encoded as a two-element JSON array.
type Coordinates [2]float64

func (c Coordinates) Lat() float64 { return c[0] }
func (c Coordinates) Lng() float64 { return c[1] }

type Request struct {
	ID           string        `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Category     string        `json:"category"`
	Status       RequestStatus `json:"status"`
	Coordinates  Coordinates   `json:"coordinates"`
	CreatedAt    time.Time     `json:"createdAt"`
	Address      string        `json:"address"`
	Author       string        `json:"author"`
	Identifier   string        `json:"identifier"`
	City         string        `json:"city"`
	Report       *string       `json:"report,omitempty"`
	ReportPhotos []string      `json:"reportPhotos,omitempty"`
}

// NewRequest is a Request before the store assigns its id and creation time.
type NewRequest struct {
	Title        string
	Description  string
	Category     string
	Status       RequestStatus
	Coordinates  Coordinates
	Address      string
	Author       string
	Identifier   string
	City         string
	Report       *string
	ReportPhotos []string
}

// RequestUpdate is a typed partial update. Nil fields are left untouched;
// a non-nil ReportPhotos (even empty) replaces the stored sequence.
type RequestUpdate struct {
	Title        *string        `json:"title,omitempty"`
	Description  *string        `json:"description,omitempty"`
	Category     *string        `json:"category,omitempty"`
	Status       *RequestStatus `json:"status,omitempty"`
	Coordinates  *Coordinates   `json:"coordinates,omitempty"`
	Address      *string        `json:"address,omitempty"`
	Report       *string        `json:"report,omitempty"`
	ReportPhotos []string       `json:"reportPhotos,omitempty"`
}

func (u RequestUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Category == nil && u.Status == nil &&
		u.Coordinates == nil && u.Address == nil && u.Report == nil && u.ReportPhotos == nil
}

func (u RequestUpdate) Validate() error {
	if u.Status != nil && !u.Status.Valid() {
		return ErrInvalidStatus
	}
	if u.Category != nil && !IsValidCategory(*u.Category) {
		return ErrInvalidCategory
	}
	return nil
}

// Apply returns r with the update's fields merged over it.
func (u RequestUpdate) Apply(r Request) Request {
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.Coordinates != nil {
		r.Coordinates = *u.Coordinates
	}
	if u.Address != nil {
		r.Address = *u.Address
	}
	if u.Report != nil {
		report := *u.Report
		r.Report = &report
	}
	if u.ReportPhotos != nil {
		r.ReportPhotos = append([]string{}, u.ReportPhotos...)
	}
	return r
}

const FilterAll = "all"

// RequestFilter mirrors the request panel: free-text search plus category and status pickers.
type RequestFilter struct {
	Search   string
	Category string
	Status   string
}

func (f RequestFilter) Matches(r Request) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(r.Title), q) &&
			!strings.Contains(strings.ToLower(r.Description), q) &&
			!strings.Contains(strings.ToLower(r.Address), q) {
			return false
		}
	}
	if f.Category != "" && f.Category != FilterAll && r.Category != f.Category {
		return false
	}
	if f.Status != "" && f.Status != FilterAll && string(r.Status) != f.Status {
		return false
	}
	return true
}

type RequestStats struct {
	New        int `json:"new"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Total      int `json:"total"`
}

// Request/Response DTOs
type CreateRequestRequest struct {
	Title       string       `json:"title" binding:"required"`
	Description string       `json:"description" binding:"required"`
	Category    string       `json:"category" binding:"required"`
	Address     string       `json:"address" binding:"required"`
	Coordinates *Coordinates `json:"coordinates" binding:"required"`
}

type RequestListResponse struct {
	Requests []Request `json:"requests"`
	Total    int       `json:"total"`
}
