package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/campus-scheduler/internal/application"
	"github.com/example/campus-scheduler/internal/authz"
	"github.com/example/campus-scheduler/internal/calendar"
)

var (
	userCounter  uint64
	venueCounter uint64
	termCounter  uint64
)

// AdminPrincipal returns a principal holding every grant.
func AdminPrincipal() application.Principal {
	return application.Principal{UserID: "admin-1", Roles: []authz.Role{authz.RoleAdmin}}
}

// ViewerPrincipal returns a read-only principal.
func ViewerPrincipal() application.Principal {
	return application.Principal{UserID: "viewer-1", Roles: []authz.Role{authz.RoleViewer}}
}

// RegistrarPrincipal returns a principal that manages scheduling data.
func RegistrarPrincipal() application.Principal {
	return application.Principal{UserID: "registrar-1", Roles: []authz.Role{authz.RoleRegistrar}}
}

// NewUser returns a deterministic user record.
func NewUser(roles ...authz.Role) application.User {
	idx := atomic.AddUint64(&userCounter, 1)
	if len(roles) == 0 {
		roles = []authz.Role{authz.RoleInstructor}
	}
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	return application.User{
		ID:          fmt.Sprintf("user-%03d", idx),
		Email:       fmt.Sprintf("user-%03d@campus.test", idx),
		DisplayName: fmt.Sprintf("User %03d", idx),
		Roles:       roles,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

// NewVenue returns a deterministic venue record.
func NewVenue() application.Venue {
	idx := atomic.AddUint64(&venueCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	return application.Venue{
		ID:        fmt.Sprintf("venue-%03d", idx),
		Name:      fmt.Sprintf("Room %03d", idx),
		Building:  "Science Hall",
		Capacity:  40,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

// NewTerm returns a deterministic term spanning the first half of 2025.
func NewTerm() application.Term {
	idx := atomic.AddUint64(&termCounter, 1)
	return application.Term{
		ID:           fmt.Sprintf("term-%03d", idx),
		Name:         fmt.Sprintf("Term %03d", idx),
		AcademicYear: "2024-2025",
		StartsOn:     time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC),
		EndsOn:       time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC),
		CreatedAt:    referenceTime,
		UpdatedAt:    referenceTime,
	}
}

// MorningWindow returns a 09:00 to 10:30 time range.
func MorningWindow() calendar.TimeRange {
	return calendar.TimeRange{
		Start: calendar.TimeOfDay(9 * 60),
		End:   calendar.TimeOfDay(10*60 + 30),
	}
}
