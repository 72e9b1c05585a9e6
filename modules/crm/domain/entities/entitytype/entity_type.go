package entitytype

import (
	"fmt"
)

// EntityType identifies a CRM record collection exposed through the admin
// gateway. The wire value doubles as the backend path segment.
type EntityType string

const (
	JobSeekers     EntityType = "job-seekers"
	Leads          EntityType = "leads"
	HiringManagers EntityType = "hiring-managers"
	Jobs           EntityType = "jobs"
	Organizations  EntityType = "organizations"
	Placements     EntityType = "placements"
)

var all = []EntityType{
	JobSeekers,
	Leads,
	HiringManagers,
	Jobs,
	Organizations,
	Placements,
}

var labels = map[EntityType]string{
	JobSeekers:     "Job Seekers",
	Leads:          "Leads",
	HiringManagers: "Hiring Managers",
	Jobs:           "Jobs",
	Organizations:  "Organizations",
	Placements:     "Placements",
}

// Parse validates a wire value. Unknown values are an error so handlers can
// reject them before any backend traffic happens.
func Parse(s string) (EntityType, error) {
	et := EntityType(s)
	if _, ok := labels[et]; !ok {
		return "", fmt.Errorf("unsupported entity type: %s", s)
	}
	return et, nil
}

// All returns the supported entity types in a stable order.
func All() []EntityType {
	out := make([]EntityType, len(all))
	copy(out, all)
	return out
}

func (e EntityType) String() string {
	return string(e)
}

func (e EntityType) Label() string {
	return labels[e]
}

// Endpoint is the backend collection path for this entity type.
func (e EntityType) Endpoint() string {
	return "/api/" + string(e)
}

// UniqueField names the mapped field used for duplicate detection.
func (e EntityType) UniqueField() string {
	switch e {
	case Organizations:
		return "name"
	case Jobs:
		return "jobTitle"
	case Placements:
		return "jobSeekerId"
	default:
		return "email"
	}
}
