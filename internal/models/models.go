// Package models defines the data structures used across the application.
// These map to the PostgreSQL schema and the notification payloads pushed
// over the websocket hub.
package models

import (
	"strings"
	"time"
)

// ReportStatus is the review state of an incident report.
type ReportStatus string

const (
	StatusPending   ReportStatus = "PENDING"
	StatusVerified  ReportStatus = "VERIFIED"
	StatusRejected  ReportStatus = "REJECTED"
	StatusResolved  ReportStatus = "RESOLVED"
	StatusAnonymous ReportStatus = "ANONYMOUS"
)

// ParseStatus normalizes a user-supplied status string. The bool reports
// whether the input named a known status.
func ParseStatus(s string) (ReportStatus, bool) {
	switch ReportStatus(strings.ToUpper(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, true
	case StatusVerified:
		return StatusVerified, true
	case StatusRejected:
		return StatusRejected, true
	case StatusResolved:
		return StatusResolved, true
	case StatusAnonymous:
		return StatusAnonymous, true
	}
	return "", false
}

// Role distinguishes ordinary citizens from administrators.
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// AnonymousOwner replaces the owner id once the owning user is deactivated.
const AnonymousOwner = "ANONYMOUS"

// Point is a geographic position in GeoJSON axis order (longitude first).
type Point struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// Report is a citizen-submitted incident report.
type Report struct {
	ID          string       `json:"id" db:"id"`
	Title       string       `json:"title" db:"title"`
	Description string       `json:"description" db:"description"`
	Location    Point        `json:"location"`
	Categories  []string     `json:"categories" db:"categories"`
	ImageURLs   []string     `json:"image_urls" db:"image_urls"`
	OwnerID     string       `json:"owner_id" db:"owner_id"`
	Status      ReportStatus `json:"status" db:"status"`
	Date        time.Time    `json:"date" db:"date"`

	// Denormalized count of LikedBy; kept equal to len(LikedBy).
	RatingsImportant int      `json:"ratings_important" db:"ratings_important"`
	LikedBy          []string `json:"liked_by,omitempty" db:"liked_by"`

	RejectionReason      string     `json:"rejection_reason,omitempty" db:"rejection_reason"`
	RejectionDate        *time.Time `json:"rejection_date,omitempty" db:"rejection_date"`
	ResubmissionDeadline *time.Time `json:"resubmission_deadline,omitempty" db:"resubmission_deadline"`
	ResubmissionCount    int        `json:"resubmission_count" db:"resubmission_count"`

	VerifiedBy       string     `json:"verified_by,omitempty" db:"verified_by"`
	VerificationDate *time.Time `json:"verification_date,omitempty" db:"verification_date"`
	ResolvedBy       string     `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolutionDate   *time.Time `json:"resolution_date,omitempty" db:"resolution_date"`

	Anonymous bool `json:"anonymous" db:"anonymous"`
}

// User as the report workflow sees it. Location is optional; users without
// one are skipped by proximity notification.
type User struct {
	ID               string     `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Email            string     `json:"email" db:"email"`
	PasswordHash     string     `json:"-" db:"password_hash"`
	Role             Role       `json:"role" db:"role"`
	Location         *Point     `json:"location,omitempty"`
	Active           bool       `json:"active" db:"active"`
	DeactivationDate *time.Time `json:"deactivation_date,omitempty" db:"deactivation_date"`

	// Ids of reports this user owns and reports this user marked important.
	Reports      []string `json:"reports" db:"reports"`
	LikedReports []string `json:"liked_reports" db:"liked_reports"`
}

// IsAdmin reports whether the user carries the administrator capability.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// Category is a report classification. Existence checks only consider
// active categories.
type Category struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	Active bool   `json:"active" db:"active"`
}

// Comment is a user remark on a report.
type Comment struct {
	ID       string    `json:"id" db:"id"`
	ReportID string    `json:"report_id" db:"report_id"`
	AuthorID string    `json:"author_id" db:"author_id"`
	Content  string    `json:"content" db:"content"`
	Date     time.Time `json:"date" db:"date"`
}

// ReportRequest is the mutable field set for create / update / resubmit.
type ReportRequest struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Location    Point       `json:"location"`
	Categories  []string    `json:"categories"`
	Images      []ImageBlob `json:"images,omitempty"`
}

// ImageBlob is raw image data pending upload through the media store.
type ImageBlob struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// ReportFilter composes independent predicates over reports. Nil / empty
// fields are no-ops; populated fields are ANDed together.
type ReportFilter struct {
	Categories []string      `json:"categories,omitempty"`
	Status     *ReportStatus `json:"status,omitempty"`
	StartDate  *time.Time    `json:"start_date,omitempty"`
	EndDate    *time.Time    `json:"end_date,omitempty"`
	Latitude   *float64      `json:"latitude,omitempty"`
	Longitude  *float64      `json:"longitude,omitempty"`
	RadiusKm   *float64      `json:"radius_km,omitempty"`
}

// NearbyReportNotification is pushed to each user within the notification
// radius of a newly created report.
type NearbyReportNotification struct {
	ReportID   string   `json:"report_id"`
	Title      string   `json:"title"`
	DistanceKm float64  `json:"distance_km"`
	Categories []string `json:"categories"`
	Timestamp  string   `json:"timestamp"`
}

// CommentNotification is pushed to the report owner when someone comments.
type CommentNotification struct {
	ReportID  string `json:"report_id"`
	CommentID string `json:"comment_id"`
	AuthorID  string `json:"author_id"`
	Message   string `json:"message"`
}

// StatusChangeMessage is pushed to the report owner after a transition.
type StatusChangeMessage struct {
	ReportID  string       `json:"report_id"`
	OldStatus ReportStatus `json:"old_status"`
	NewStatus ReportStatus `json:"new_status"`
	Message   string       `json:"message"`
}
