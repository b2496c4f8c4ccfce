// Package winsvc runs the osinfo binaries under the Windows Service Control
// Manager. On other platforms every operation reports that services are
// unsupported.
package winsvc

// Service describes an installable service.
type Service struct {
	Name        string
	DisplayName string
	Description string
	// Args are passed to the executable when the SCM starts it.
	Args []string
}

var (
	Agent = Service{
		Name:        "OSInfoAgent",
		DisplayName: "OS Info Agent",
		Description: "Collects operating-system facts and pushes them to the OS info collector.",
		Args:        []string{"daemon"},
	}
	Collector = Service{
		Name:        "OSInfoCollector",
		DisplayName: "OS Info Collector",
		Description: "Stores operating-system inventories pushed by OS info agents.",
		Args:        []string{"serve"},
	}
)
