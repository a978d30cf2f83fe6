package config

const (
	TypeOrganizationsTask   = "idm:organizations"
	TypeThreatCheckTask     = "idm:threat-check"
	TypeRegistryRefreshTask = "idm:registry-refresh"
)

var DefinedTasks = map[string]struct{}{
	TypeOrganizationsTask:   {},
	TypeThreatCheckTask:     {},
	TypeRegistryRefreshTask: {},
}
