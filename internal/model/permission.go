package model

// Permission represents a string code for a specific system action.
type Permission string

const (
	// PermissionSettingsRead allows viewing institution data and settings.
	PermissionSettingsRead Permission = "settings:read"

	// PermissionSettingsWrite allows editing institution data and settings.
	PermissionSettingsWrite Permission = "settings:write"

	// PermissionProfilesRead allows viewing staff and guardian accounts.
	PermissionProfilesRead Permission = "profiles:read"

	// PermissionProfilesWrite allows creating, updating and deleting accounts.
	PermissionProfilesWrite Permission = "profiles:write"

	// PermissionClassesRead allows viewing classes.
	PermissionClassesRead Permission = "classes:read"

	// PermissionClassesWrite allows creating, updating and deleting classes.
	PermissionClassesWrite Permission = "classes:write"

	// PermissionStudentsRead allows viewing students. Guardians only see their own children.
	PermissionStudentsRead Permission = "students:read"

	// PermissionStudentsWrite allows creating, updating, deleting and importing students.
	PermissionStudentsWrite Permission = "students:write"

	// PermissionGuardiansWrite allows linking guardians and editing authorized pickups.
	PermissionGuardiansWrite Permission = "guardians:write"

	// PermissionLogsRead allows viewing daily logs.
	PermissionLogsRead Permission = "logs:read"

	// PermissionLogsWrite allows recording daily logs.
	PermissionLogsWrite Permission = "logs:write"

	// PermissionHealthRead allows viewing medication schedules, incidents and vaccinations.
	PermissionHealthRead Permission = "health:read"

	// PermissionHealthWrite allows editing medication schedules, incidents and vaccinations.
	PermissionHealthWrite Permission = "health:write"

	// PermissionEventsRead allows viewing the calendar.
	PermissionEventsRead Permission = "events:read"

	// PermissionEventsWrite allows editing the calendar.
	PermissionEventsWrite Permission = "events:write"

	// PermissionPhotosRead allows viewing the photo album.
	PermissionPhotosRead Permission = "photos:read"

	// PermissionPhotosWrite allows uploading and deleting photos.
	PermissionPhotosWrite Permission = "photos:write"

	// PermissionNotificationsSend allows broadcasting notifications.
	PermissionNotificationsSend Permission = "notifications:send"

	// PermissionDashboardRead allows viewing the dashboard.
	PermissionDashboardRead Permission = "dashboard:read"

	// PermissionReportsExport allows exporting spreadsheets.
	PermissionReportsExport Permission = "reports:export"
)

// AllPermissions is a slice of all available permissions.
var AllPermissions = []Permission{
	PermissionSettingsRead,
	PermissionSettingsWrite,
	PermissionProfilesRead,
	PermissionProfilesWrite,
	PermissionClassesRead,
	PermissionClassesWrite,
	PermissionStudentsRead,
	PermissionStudentsWrite,
	PermissionGuardiansWrite,
	PermissionLogsRead,
	PermissionLogsWrite,
	PermissionHealthRead,
	PermissionHealthWrite,
	PermissionEventsRead,
	PermissionEventsWrite,
	PermissionPhotosRead,
	PermissionPhotosWrite,
	PermissionNotificationsSend,
	PermissionDashboardRead,
	PermissionReportsExport,
}

// RolePermissions maps each role to the permissions it is granted.
var RolePermissions = map[Role][]Permission{
	RoleAdmin: AllPermissions,
	RoleEducator: {
		PermissionProfilesRead,
		PermissionClassesRead,
		PermissionStudentsRead,
		PermissionLogsRead,
		PermissionLogsWrite,
		PermissionHealthRead,
		PermissionHealthWrite,
		PermissionEventsRead,
		PermissionPhotosRead,
		PermissionPhotosWrite,
		PermissionDashboardRead,
		PermissionReportsExport,
	},
	RoleGuardian: {
		PermissionStudentsRead,
		PermissionLogsRead,
		PermissionHealthRead,
		PermissionEventsRead,
		PermissionPhotosRead,
	},
}

// PermissionsFor returns the permission codes of a role as strings.
func PermissionsFor(role Role) []string {
	perms := RolePermissions[role]
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = string(p)
	}
	return codes
}
