package bitwarden

// Status represents the response from 'bw status'
type Status struct {
	ServerURL string `json:"serverUrl"`
	LastSync  string `json:"lastSync"`
	UserEmail string `json:"userEmail"`
	UserID    string `json:"userId"`
	Status    string `json:"status"`
}

// Item represents a Bitwarden vault item. Only the fields needed for
// disambiguation and attachment lookup are typed; full field navigation
// works on the raw decoded JSON instead.
type Item struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	OrganizationID string       `json:"organizationId"`
	FolderID       string       `json:"folderId"`
	CollectionIDs  []string     `json:"collectionIds"`
	Attachments    []Attachment `json:"attachments"`
}

// Attachment represents one attachment entry on a vault item
type Attachment struct {
	ID       string `json:"id"`
	FileName string `json:"fileName"`
}

// Collection represents an entry from 'bw list collections'
type Collection struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	OrganizationID string `json:"organizationId"`
}

// Organization represents the response from 'bw get organization'
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
