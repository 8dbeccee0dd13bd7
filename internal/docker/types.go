package docker

// RawContainer mirrors an entry of GET /containers/json.
type RawContainer struct {
	ID     string   `json:"Id"`
	Names  []string `json:"Names"`
	Image  string   `json:"Image"`
	State  string   `json:"State"`
	Status string   `json:"Status"`
}

// RawImage mirrors an entry of GET /images/json.
type RawImage struct {
	ID       string   `json:"Id"`
	RepoTags []string `json:"RepoTags"`
	Size     int64    `json:"Size"`
	Created  int64    `json:"Created"`
}

// RawVolume mirrors an entry of the Volumes array returned by GET /volumes.
type RawVolume struct {
	Name       string            `json:"Name"`
	Driver     string            `json:"Driver"`
	Scope      string            `json:"Scope"`
	Mountpoint string            `json:"Mountpoint"`
	Labels     map[string]string `json:"Labels"`
	Options    map[string]string `json:"Options"`
	Status     map[string]any    `json:"Status"`
}

// volumeListResponse mirrors GET /volumes.
type volumeListResponse struct {
	Volumes  []RawVolume `json:"Volumes"`
	Warnings []string    `json:"Warnings"`
}

// RawHistory mirrors an entry of GET /images/{id}/history.
type RawHistory struct {
	ID        string   `json:"Id"`
	Created   int64    `json:"Created"`
	CreatedBy string   `json:"CreatedBy"`
	Size      int64    `json:"Size"`
	Comment   string   `json:"Comment"`
	Tags      []string `json:"Tags"`
}

// errorResponse is the body the daemon sends with non-success statuses.
type errorResponse struct {
	Message string `json:"message"`
}
