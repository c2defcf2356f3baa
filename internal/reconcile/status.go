package reconcile

// Status is the user-facing message describing the outcome of the most
// recent operation. The zero value means there is nothing to report.
type Status string

const (
	StatusNone Status = ""

	StatusLoadedFromCache Status = "Loaded routes from local storage."
	StatusOffline         Status = "Offline mode: loaded routes from local storage."
	StatusUnavailable     Status = "API is unavailable and there are no local routes yet."

	StatusCreated        Status = "Route created successfully."
	StatusCreatedLocally Status = "API unavailable: route created locally."
	StatusUpdated        Status = "Route updated successfully."
	StatusUpdatedLocally Status = "API unavailable: route updated locally."
	StatusDeleted        Status = "Route deleted."
	StatusDeletedLocally Status = "API unavailable: route deleted locally."

	StatusNameRequired   Status = "Validation: route name is required."
	StatusPointsRequired Status = "Validation: add at least 2 GPS points."

	StatusLocationDenied Status = "Permission required: allow GPS access to add route points."
	StatusPhotoDenied    Status = "Permission required: allow gallery access to add a photo."
)
